package server

import "fmt"

// CellKind 格子类型：空地、障碍、补给
type CellKind byte

const (
	CellEmpty CellKind = iota
	CellObstacle
	CellPickup
)

// Glyph 返回格子在文本快照中的字符
func (k CellKind) Glyph() byte {
	switch k {
	case CellObstacle:
		return '#'
	case CellPickup:
		return '+'
	default:
		return '.'
	}
}

// Coord 网格坐标，Row 0 为最上一行
type Coord struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Step 返回沿 dir 方向走 n 步后的坐标（不做越界检查，由调用方判断）
func (c Coord) Step(dir Direction, n int) Coord {
	switch dir {
	case DirUp:
		return Coord{Row: c.Row - n, Col: c.Col}
	case DirDown:
		return Coord{Row: c.Row + n, Col: c.Col}
	case DirLeft:
		return Coord{Row: c.Row, Col: c.Col - n}
	case DirRight:
		return Coord{Row: c.Row, Col: c.Col + n}
	default:
		return c
	}
}

// Neighbors 返回四个正交相邻坐标（可能越界，由调用方过滤）
func (c Coord) Neighbors() [4]Coord {
	return [4]Coord{
		{Row: c.Row - 1, Col: c.Col},
		{Row: c.Row + 1, Col: c.Col},
		{Row: c.Row, Col: c.Col - 1},
		{Row: c.Row, Col: c.Col + 1},
	}
}

// Grid 矩形战场：尺寸与障碍在构造后不再变化，补给被拾取后变为空地
type Grid struct {
	rows  int
	cols  int
	cells []CellKind
}

// NewGrid 创建全空网格，尺寸必须为正
func NewGrid(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %dx%d", rows, cols)
	}
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]CellKind, rows*cols),
	}, nil
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// InBounds 判断坐标是否落在网格内
func (g *Grid) InBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// KindAt 返回格子类型，越界视为障碍
func (g *Grid) KindAt(c Coord) CellKind {
	if !g.InBounds(c) {
		return CellObstacle
	}
	return g.cells[c.Row*g.cols+c.Col]
}

// SetKind 设置格子类型，仅在构造世界时使用
func (g *Grid) SetKind(c Coord, k CellKind) error {
	if !g.InBounds(c) {
		return fmt.Errorf("cell %v out of %dx%d grid", c, g.rows, g.cols)
	}
	g.cells[c.Row*g.cols+c.Col] = k
	return nil
}

// Passable 在界内且非障碍即可通行，补给格可以站立
func (g *Grid) Passable(c Coord) bool {
	return g.InBounds(c) && g.KindAt(c) != CellObstacle
}

// ConsumePickup 拾取补给：补给格变空地并返回 true，其余情况返回 false
func (g *Grid) ConsumePickup(c Coord) bool {
	if g.KindAt(c) != CellPickup {
		return false
	}
	g.cells[c.Row*g.cols+c.Col] = CellEmpty
	return true
}

package server

import (
	"fmt"
	"strings"
)

// Snapshot 某一时刻的完整世界状态，在协调循环内构建后不再变化
// 文本形制：
//
//	STATE
//	A...+
//	.....
//	..#..
//	.....
//	.....
//	Players:
//	  Player A: HP=100 Pos=(0,0)
type Snapshot struct {
	Rows    []string      `json:"rows"`
	Players []PlayerState `json:"players"`
}

// BuildSnapshot 从引擎当前状态生成快照，玩家字母覆盖所占格子的底图字符
func BuildSnapshot(e *Engine) *Snapshot {
	g := e.Grid()
	roster := e.Roster()

	rows := make([]string, g.Rows())
	var row strings.Builder
	for r := 0; r < g.Rows(); r++ {
		row.Reset()
		for c := 0; c < g.Cols(); c++ {
			cell := Coord{Row: r, Col: c}
			if p := roster.OccupantAt(cell); p != nil {
				row.WriteString(string(p.ID))
			} else {
				row.WriteByte(g.KindAt(cell).Glyph())
			}
		}
		rows[r] = row.String()
	}

	ordered := roster.Ordered()
	players := make([]PlayerState, 0, len(ordered))
	for _, p := range ordered {
		players = append(players, PlayerState{
			ID:     string(p.ID),
			Row:    p.Pos.Row,
			Col:    p.Pos.Col,
			Health: p.Health,
		})
	}
	return &Snapshot{Rows: rows, Players: players}
}

// Text 渲染行协议的 STATE 块（不带末尾换行，写出方按行补齐）
func (s *Snapshot) Text() string {
	lines := make([]string, 0, len(s.Rows)+len(s.Players)+2)
	lines = append(lines, "STATE")
	lines = append(lines, s.Rows...)
	lines = append(lines, "Players:")
	for _, p := range s.Players {
		lines = append(lines, fmt.Sprintf("  Player %s: HP=%d Pos=(%d,%d)", p.ID, p.Health, p.Row, p.Col))
	}
	return strings.Join(lines, "\n")
}

// FormatChat 渲染聊天行，两种网络出口共用同一格式
func FormatChat(from PlayerID, text string) string {
	return fmt.Sprintf("*** %s: %s ***", from, text)
}

package server

// Roster 玩家注册表：身份占用与格子占用的双向索引
// 不变式：每个在册玩家恰好占一个可通行格子，每个格子至多一名玩家
type Roster struct {
	players map[PlayerID]*Player
	byCell  map[Coord]PlayerID
}

// NewRoster 创建空注册表
func NewRoster() *Roster {
	return &Roster{
		players: make(map[PlayerID]*Player, MaxPlayers),
		byCell:  make(map[Coord]PlayerID, MaxPlayers),
	}
}

// Len 当前在册玩家数
func (r *Roster) Len() int { return len(r.players) }

// Full 四个身份是否全部被占用
func (r *Roster) Full() bool { return len(r.players) >= MaxPlayers }

// Lookup 按身份查玩家，未在册返回 nil
func (r *Roster) Lookup(id PlayerID) *Player {
	return r.players[id]
}

// OccupantAt 返回占用该格子的玩家，空格子返回 nil
func (r *Roster) OccupantAt(c Coord) *Player {
	id, ok := r.byCell[c]
	if !ok {
		return nil
	}
	return r.players[id]
}

// Occupied 格子是否被玩家占用
func (r *Roster) Occupied(c Coord) bool {
	_, ok := r.byCell[c]
	return ok
}

// freeID 返回编号最小的空闲身份，无空闲返回 ""
func (r *Roster) freeID() PlayerID {
	for _, id := range allPlayerIDs {
		if _, taken := r.players[id]; !taken {
			return id
		}
	}
	return ""
}

// spawnCell 选择身份的出生格：优先 (席位号, 0)，被占或不可通行时
// 按行优先顺序扫描第一个可用格子。无可用格子返回 false。
func (r *Roster) spawnCell(g *Grid, id PlayerID) (Coord, bool) {
	preferred := Coord{Row: slotIndex(id), Col: 0}
	if g.Passable(preferred) && !r.Occupied(preferred) {
		return preferred, true
	}
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			c := Coord{Row: row, Col: col}
			if g.Passable(c) && !r.Occupied(c) {
				return c, true
			}
		}
	}
	return Coord{}, false
}

// Add 认领编号最小的空闲身份并放置到出生格，满员或无出生格时报满
func (r *Roster) Add(g *Grid, health int, conn Conn) (*Player, error) {
	id := r.freeID()
	if id == "" {
		return nil, ErrRosterFull
	}
	pos, ok := r.spawnCell(g, id)
	if !ok {
		return nil, ErrRosterFull
	}
	p := &Player{ID: id, Pos: pos, Health: health, Conn: conn}
	r.players[id] = p
	r.byCell[pos] = id
	return p, nil
}

// Remove 注销身份并释放其占用的格子，身份随即可被后续入场者认领
func (r *Roster) Remove(id PlayerID) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	delete(r.byCell, p.Pos)
	delete(r.players, id)
}

// Move 将玩家移动到新格子并同步占用索引
func (r *Roster) Move(id PlayerID, to Coord) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	delete(r.byCell, p.Pos)
	p.Pos = to
	r.byCell[to] = id
}

// AdjacentPlayers 返回格子四个正交邻格上的玩家，按席位顺序排列
func (r *Roster) AdjacentPlayers(c Coord) []*Player {
	adjacent := make(map[PlayerID]bool, 4)
	for _, n := range c.Neighbors() {
		if id, ok := r.byCell[n]; ok {
			adjacent[id] = true
		}
	}
	out := make([]*Player, 0, len(adjacent))
	for _, id := range allPlayerIDs {
		if adjacent[id] {
			out = append(out, r.players[id])
		}
	}
	return out
}

// Ordered 按席位顺序返回在册玩家，供快照与广播使用
func (r *Roster) Ordered() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, id := range allPlayerIDs {
		if p, ok := r.players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

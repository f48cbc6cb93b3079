package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := DefaultWorld().BuildGrid()
	require.NoError(t, err)
	return g
}

func TestRosterJoinOrderAndSpawns(t *testing.T) {
	g := defaultGrid(t)
	r := NewRoster()

	wantSpawns := []Coord{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}, {Row: 3, Col: 0}}
	for i, id := range allPlayerIDs {
		p, err := r.Add(g, 100, nil)
		require.NoError(t, err)
		assert.Equal(t, id, p.ID, "身份按 A..D 顺序认领")
		assert.Equal(t, wantSpawns[i], p.Pos)
		assert.Equal(t, 100, p.Health)
	}
	assert.True(t, r.Full())

	_, err := r.Add(g, 100, nil)
	assert.ErrorIs(t, err, ErrRosterFull, "第五个入场被拒")
}

func TestRosterSpawnFallback(t *testing.T) {
	g, err := NewGrid(2, 3)
	require.NoError(t, err)
	require.NoError(t, g.SetKind(Coord{Row: 0, Col: 0}, CellObstacle))

	r := NewRoster()
	p, err := r.Add(g, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, PlayerID("A"), p.ID)
	// 首选出生格 (0,0) 被障碍占据，按行优先回退到 (0,1)
	assert.Equal(t, Coord{Row: 0, Col: 1}, p.Pos)
}

func TestRosterNoSpawnCell(t *testing.T) {
	g, err := NewGrid(1, 1)
	require.NoError(t, err)
	require.NoError(t, g.SetKind(Coord{Row: 0, Col: 0}, CellObstacle))

	r := NewRoster()
	_, err = r.Add(g, 100, nil)
	assert.ErrorIs(t, err, ErrRosterFull, "无出生格视同满员")
}

func TestRosterReleaseAndReclaim(t *testing.T) {
	g := defaultGrid(t)
	r := NewRoster()
	for range allPlayerIDs {
		_, err := r.Add(g, 100, nil)
		require.NoError(t, err)
	}

	r.Remove("B")
	assert.Equal(t, 3, r.Len())
	assert.Nil(t, r.Lookup("B"))
	assert.False(t, r.Occupied(Coord{Row: 1, Col: 0}), "退场释放格子")

	p, err := r.Add(g, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, PlayerID("B"), p.ID, "释放的身份可被重新认领")

	// 重复移除是空操作
	r.Remove("Z")
	r.Remove("B")
	r.Remove("B")
	assert.Equal(t, 3, r.Len())
}

func TestRosterMoveAndOccupancy(t *testing.T) {
	g := defaultGrid(t)
	r := NewRoster()
	a, err := r.Add(g, 100, nil)
	require.NoError(t, err)

	from := a.Pos
	to := Coord{Row: 0, Col: 1}
	r.Move(a.ID, to)
	assert.Equal(t, to, a.Pos)
	assert.False(t, r.Occupied(from), "旧格子释放")
	require.NotNil(t, r.OccupantAt(to))
	assert.Equal(t, a.ID, r.OccupantAt(to).ID)
}

func TestRosterAdjacentPlayers(t *testing.T) {
	g := defaultGrid(t)
	r := NewRoster()
	a, _ := r.Add(g, 100, nil) // (0,0)
	b, _ := r.Add(g, 100, nil) // (1,0)
	c, _ := r.Add(g, 100, nil)
	d, _ := r.Add(g, 100, nil) // (3,0)
	require.Equal(t, Coord{Row: 2, Col: 0}, c.Pos)

	r.Move(d.ID, Coord{Row: 1, Col: 1}) // 与 A 对角，与 B 正交

	got := r.AdjacentPlayers(b.Pos)
	ids := make([]PlayerID, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	// B (1,0) 的正交邻居：A (0,0)、C (2,0)、D (1,1)，按席位顺序
	assert.Equal(t, []PlayerID{"A", "C", "D"}, ids)

	// A (0,0) 的正交邻居只有 B，对角的 D 不算
	got = r.AdjacentPlayers(a.Pos)
	require.Len(t, got, 1)
	assert.Equal(t, PlayerID("B"), got[0].ID)
}

func TestRosterOrdered(t *testing.T) {
	g := defaultGrid(t)
	r := NewRoster()
	for range allPlayerIDs {
		_, err := r.Add(g, 100, nil)
		require.NoError(t, err)
	}
	r.Remove("C")

	var ids []PlayerID
	for _, p := range r.Ordered() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []PlayerID{"A", "B", "D"}, ids, "快照顺序固定为席位顺序")
}

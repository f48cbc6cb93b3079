package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotText(t *testing.T) {
	e, players := newTestEngine(t, 2)
	players[1].Health = 85

	got := BuildSnapshot(e).Text()
	want := strings.Join([]string{
		"STATE",
		"A...+",
		"B..+.",
		"..#+.",
		".+...",
		".....",
		"Players:",
		"  Player A: HP=100 Pos=(0,0)",
		"  Player B: HP=85 Pos=(1,0)",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestSnapshotReflectsConsumedPickup(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	e.Roster().Move("A", Coord{Row: 0, Col: 3})
	mustApply(t, e, "A", Command{Kind: CmdMove, Dir: DirRight})
	assert.Equal(t, "....A", BuildSnapshot(e).Rows[0], "玩家字母覆盖所站格子")

	mustApply(t, e, "A", Command{Kind: CmdMove, Dir: DirDown})
	assert.Equal(t, ".....", BuildSnapshot(e).Rows[0], "拾取后的补给格显示为空地")
}

func TestSnapshotPlayersInSlotOrder(t *testing.T) {
	e, _ := newTestEngine(t, 3)
	mustApply(t, e, "B", Command{Kind: CmdQuit})

	snap := BuildSnapshot(e)
	require.Len(t, snap.Players, 2)
	assert.Equal(t, "A", snap.Players[0].ID)
	assert.Equal(t, "C", snap.Players[1].ID)
}

func TestFormatChat(t *testing.T) {
	assert.Equal(t, "*** A: hello everyone ***", FormatChat("A", "hello everyone"))
	assert.Equal(t, "*** D: gg ***", FormatChat("D", "gg"))
}

func TestCellGlyphs(t *testing.T) {
	assert.Equal(t, byte('.'), CellEmpty.Glyph())
	assert.Equal(t, byte('#'), CellObstacle.Glyph())
	assert.Equal(t, byte('+'), CellPickup.Glyph())
}

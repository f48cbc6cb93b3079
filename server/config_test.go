package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ":4000", cfg.ListenTCP)
	assert.Equal(t, "arena-1", cfg.DefaultArena)
	assert.Equal(t, DefaultRules(), cfg.Rules)
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen_tcp: ":5000"
debug: true
world:
  rows: 6
  cols: 7
  obstacles:
    - {row: 1, col: 1}
    - {row: 2, col: 2}
  pickups:
    - {row: 0, col: 6}
rules:
  attack_damage: 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":5000", cfg.ListenTCP)
	assert.Equal(t, ":8080", cfg.ListenHTTP, "未覆盖的字段保持默认")
	assert.True(t, cfg.Debug)
	assert.Equal(t, 6, cfg.World.Rows)
	assert.Equal(t, 7, cfg.World.Cols)
	assert.Equal(t, []Coord{{Row: 1, Col: 1}, {Row: 2, Col: 2}}, cfg.World.Obstacles)
	assert.Equal(t, []Coord{{Row: 0, Col: 6}}, cfg.World.Pickups)
	assert.Equal(t, 25, cfg.Rules.AttackDamage)
	assert.Equal(t, 100, cfg.Rules.MaxHealth, "未覆盖的数值保持默认")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestBuildGridRejectsBadLayout(t *testing.T) {
	tests := []struct {
		name  string
		world WorldConfig
	}{
		{
			name:  "障碍越界",
			world: WorldConfig{Rows: 3, Cols: 3, Obstacles: []Coord{{Row: 3, Col: 0}}},
		},
		{
			name:  "补给越界",
			world: WorldConfig{Rows: 3, Cols: 3, Pickups: []Coord{{Row: 0, Col: 9}}},
		},
		{
			name: "补给与障碍重叠",
			world: WorldConfig{
				Rows:      3,
				Cols:      3,
				Obstacles: []Coord{{Row: 1, Col: 1}},
				Pickups:   []Coord{{Row: 1, Col: 1}},
			},
		},
		{
			name:  "尺寸非法",
			world: WorldConfig{Rows: 0, Cols: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.world.BuildGrid()
			assert.Error(t, err)
		})
	}
}

func TestValidateRejectsBadRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "血量上限为零", mutate: func(c *Config) { c.Rules.MaxHealth = 0 }},
		{name: "攻击为负", mutate: func(c *Config) { c.Rules.AttackDamage = -1 }},
		{name: "回血为负", mutate: func(c *Config) { c.Rules.PickupHeal = -5 }},
		{name: "跳距为零", mutate: func(c *Config) { c.Rules.JumpDistance = 0 }},
		{name: "默认战场名为空", mutate: func(c *Config) { c.DefaultArena = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

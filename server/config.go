package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WorldConfig 世界布局：尺寸、障碍与补给的位置
type WorldConfig struct {
	Rows      int     `yaml:"rows" json:"rows"`
	Cols      int     `yaml:"cols" json:"cols"`
	Obstacles []Coord `yaml:"obstacles" json:"obstacles"`
	Pickups   []Coord `yaml:"pickups" json:"pickups"`
}

// DefaultWorld 默认 5x5 战场：障碍 (2,2)，补给 (3,1) (0,4) (1,3) (2,3)
func DefaultWorld() WorldConfig {
	return WorldConfig{
		Rows:      5,
		Cols:      5,
		Obstacles: []Coord{{Row: 2, Col: 2}},
		Pickups: []Coord{
			{Row: 3, Col: 1},
			{Row: 0, Col: 4},
			{Row: 1, Col: 3},
			{Row: 2, Col: 3},
		},
	}
}

// BuildGrid 按布局构造网格，越界或互相覆盖的格子视为配置错误
func (w WorldConfig) BuildGrid() (*Grid, error) {
	g, err := NewGrid(w.Rows, w.Cols)
	if err != nil {
		return nil, err
	}
	for _, c := range w.Obstacles {
		if err := g.SetKind(c, CellObstacle); err != nil {
			return nil, fmt.Errorf("obstacle: %w", err)
		}
	}
	for _, c := range w.Pickups {
		if !g.InBounds(c) {
			return nil, fmt.Errorf("pickup: cell %v out of %dx%d grid", c, w.Rows, w.Cols)
		}
		if g.KindAt(c) == CellObstacle {
			return nil, fmt.Errorf("pickup at %v overlaps an obstacle", c)
		}
		if err := g.SetKind(c, CellPickup); err != nil {
			return nil, fmt.Errorf("pickup: %w", err)
		}
	}
	return g, nil
}

// Config 服务进程配置，文件缺省项落回默认值，命令行旗标再做覆盖
type Config struct {
	ListenTCP    string      `yaml:"listen_tcp"`
	ListenHTTP   string      `yaml:"listen_http"`
	LogFile      string      `yaml:"log_file"`
	Debug        bool        `yaml:"debug"`
	NATSURL      string      `yaml:"nats_url"`
	DefaultArena string      `yaml:"default_arena"`
	World        WorldConfig `yaml:"world"`
	Rules        Rules       `yaml:"rules"`
}

// DefaultConfig 全部默认值
func DefaultConfig() Config {
	return Config{
		ListenTCP:    ":4000",
		ListenHTTP:   ":8080",
		LogFile:      "app.log",
		DefaultArena: "arena-1",
		World:        DefaultWorld(),
		Rules:        DefaultRules(),
	}
}

// LoadConfig 读取 YAML 配置文件；path 为空时直接返回默认配置
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate 校验布局可构造、数值有意义
func (c *Config) Validate() error {
	if _, err := c.World.BuildGrid(); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	if c.Rules.MaxHealth <= 0 {
		return fmt.Errorf("rules: max_health must be positive, got %d", c.Rules.MaxHealth)
	}
	if c.Rules.AttackDamage <= 0 {
		return fmt.Errorf("rules: attack_damage must be positive, got %d", c.Rules.AttackDamage)
	}
	if c.Rules.PickupHeal < 0 {
		return fmt.Errorf("rules: pickup_heal must not be negative, got %d", c.Rules.PickupHeal)
	}
	if c.Rules.JumpDistance < 1 {
		return fmt.Errorf("rules: jump_distance must be at least 1, got %d", c.Rules.JumpDistance)
	}
	if c.DefaultArena == "" {
		return fmt.Errorf("default_arena must not be empty")
	}
	return nil
}

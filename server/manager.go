package server

import "sync"

// ArenaManager 管理多个战场的生命周期，新战场沿用配置的布局与数值
type ArenaManager struct {
	mu          sync.RWMutex
	arenas      map[string]*Arena
	world       WorldConfig
	rules       Rules
	defaultName string
	feed        *EventFeed
}

var (
	defaultManager *ArenaManager
	once           sync.Once
)

// GetArenaManager 单例战场管理器，未 Configure 前使用默认布局与数值
func GetArenaManager() *ArenaManager {
	once.Do(func() {
		defaultManager = &ArenaManager{
			arenas:      make(map[string]*Arena),
			world:       DefaultWorld(),
			rules:       DefaultRules(),
			defaultName: DefaultConfig().DefaultArena,
		}
	})
	return defaultManager
}

// Configure 设置新建战场的布局、数值、默认战场名与事件外发端，须在建场前调用
func (m *ArenaManager) Configure(world WorldConfig, rules Rules, defaultName string, feed *EventFeed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.world = world
	m.rules = rules
	m.defaultName = defaultName
	m.feed = feed
}

// DefaultArenaName 未显式指定战场时使用的名称
func (m *ArenaManager) DefaultArenaName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// GetOrCreate 获取或创建战场，新战场随即启动协调循环
func (m *ArenaManager) GetOrCreate(name string) (*Arena, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.arenas[name]
	if !ok {
		var err error
		a, err = NewArena(name, m.world, m.rules, m.feed)
		if err != nil {
			return nil, err
		}
		m.arenas[name] = a
		a.Start()
	}
	return a, nil
}

// Get 按名称查战场，不存在返回 nil
func (m *ArenaManager) Get(name string) *Arena {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.arenas[name]
}

// Stop 停止所有战场并清空注册，等待每个协调循环退出
func (m *ArenaManager) Stop() {
	m.mu.Lock()
	arenas := make([]*Arena, 0, len(m.arenas))
	for _, a := range m.arenas {
		arenas = append(arenas, a)
	}
	m.arenas = make(map[string]*Arena)
	m.mu.Unlock()

	for _, a := range arenas {
		a.Stop()
	}
}

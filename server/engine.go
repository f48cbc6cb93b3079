package server

import "errors"

// 规则拒绝的哨兵错误，判定用 errors.Is，错误文本即线缆上的拒绝原因
var (
	ErrOutOfBounds      = errors.New("out of bounds")
	ErrBlocked          = errors.New("blocked")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrRosterFull       = errors.New("server full")
	ErrMalformedCommand = errors.New("bad command")
)

// RejectReason 将规则错误翻译为发给违规者的原因短语
func RejectReason(err error) string {
	for _, sentinel := range []error{
		ErrOutOfBounds, ErrBlocked, ErrUnknownPlayer, ErrRosterFull, ErrMalformedCommand,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ErrMalformedCommand.Error()
}

// Rules 战斗数值，可经管理接口在运行期整体替换
type Rules struct {
	MaxHealth    int `json:"maxHealth" yaml:"max_health"`
	AttackDamage int `json:"attackDamage" yaml:"attack_damage"`
	PickupHeal   int `json:"pickupHeal" yaml:"pickup_heal"`
	JumpDistance int `json:"jumpDistance" yaml:"jump_distance"`
}

// DefaultRules 默认数值：满血 100，攻击 -10，补给 +5，跳跃 2 格
func DefaultRules() Rules {
	return Rules{
		MaxHealth:    100,
		AttackDamage: 10,
		PickupHeal:   5,
		JumpDistance: 2,
	}
}

// ChatEvent SAY 命令产生的聊天事件，只投递给发言者以外的玩家
type ChatEvent struct {
	From PlayerID
	Text string
}

// Kill 一次命令的致死记录，受害者此刻已从注册表移除
type Kill struct {
	Victim PlayerID
	Killer PlayerID
}

// Outcome 命令成功后的结果，指示协调循环后续要做的投递动作
type Outcome struct {
	Changed bool       // 世界状态有变，需要全量广播
	Chat    *ChatEvent // 聊天事件，与状态广播互斥
	Kills   []Kill     // 本次命令击杀名单
	Quit    bool       // 行动者已退场，其连接应在广播后关闭
}

// Engine 规则引擎：持有网格与注册表，所有修改必须经协调循环串行进入
type Engine struct {
	grid   *Grid
	roster *Roster
	rules  Rules
}

// NewEngine 组装规则引擎
func NewEngine(g *Grid, rules Rules) *Engine {
	return &Engine{
		grid:   g,
		roster: NewRoster(),
		rules:  rules,
	}
}

func (e *Engine) Grid() *Grid     { return e.grid }
func (e *Engine) Roster() *Roster { return e.roster }
func (e *Engine) Rules() Rules    { return e.rules }

// SetRules 整体替换数值，血量超过新上限的玩家立即压到上限，
// 返回是否有玩家因此改变。仅允许在协调循环内调用。
func (e *Engine) SetRules(r Rules) bool {
	e.rules = r
	changed := false
	for _, p := range e.roster.Ordered() {
		if p.Health > r.MaxHealth {
			p.Health = r.MaxHealth
			changed = true
		}
	}
	return changed
}

// Join 认领空闲身份并以满血入场
func (e *Engine) Join(conn Conn) (*Player, error) {
	return e.roster.Add(e.grid, e.rules.MaxHealth, conn)
}

// RemovePlayer 将玩家直接移出世界（显式 QUIT 之外的退场路径）
func (e *Engine) RemovePlayer(id PlayerID) bool {
	if e.roster.Lookup(id) == nil {
		return false
	}
	e.roster.Remove(id)
	return true
}

// Apply 串行应用一条命令；被拒绝的命令不改变任何状态
func (e *Engine) Apply(id PlayerID, cmd Command) (Outcome, error) {
	p := e.roster.Lookup(id)
	if p == nil {
		return Outcome{}, ErrUnknownPlayer
	}
	switch cmd.Kind {
	case CmdMove:
		return e.applyStep(p, cmd.Dir, 1)
	case CmdJump:
		return e.applyStep(p, cmd.Dir, e.rules.JumpDistance)
	case CmdAttack:
		return e.applyAttack(p), nil
	case CmdSay:
		return Outcome{Chat: &ChatEvent{From: p.ID, Text: cmd.Text}}, nil
	case CmdQuit:
		e.roster.Remove(p.ID)
		return Outcome{Changed: true, Quit: true}, nil
	default:
		return Outcome{}, ErrMalformedCommand
	}
}

// applyStep 移动或跳跃：只检查落点，跳跃途经的格子一概不看
func (e *Engine) applyStep(p *Player, dir Direction, distance int) (Outcome, error) {
	target := p.Pos.Step(dir, distance)
	if !e.grid.InBounds(target) {
		return Outcome{}, ErrOutOfBounds
	}
	if e.grid.KindAt(target) == CellObstacle || e.roster.Occupied(target) {
		return Outcome{}, ErrBlocked
	}
	e.roster.Move(p.ID, target)
	if e.grid.ConsumePickup(target) {
		p.Health += e.rules.PickupHeal
		if p.Health > e.rules.MaxHealth {
			p.Health = e.rules.MaxHealth
		}
	}
	return Outcome{Changed: true}, nil
}

// applyAttack 对四个正交邻格上的玩家各造成一次伤害，无目标也算成功
func (e *Engine) applyAttack(attacker *Player) Outcome {
	out := Outcome{Changed: true}
	for _, victim := range e.roster.AdjacentPlayers(attacker.Pos) {
		victim.Health -= e.rules.AttackDamage
		if victim.Health <= 0 {
			e.roster.Remove(victim.ID)
			out.Kills = append(out.Kills, Kill{Victim: victim.ID, Killer: attacker.ID})
		}
	}
	return out
}

package server

import (
	"sync/atomic"
)

// ArenaMetrics 记录战场运行期的关键指标（用于监控与调试）
type ArenaMetrics struct {
	Joined           int64 // 成功入场数
	JoinRefused      int64 // 因满员被拒绝的入场数
	Departed         int64 // 退场数（QUIT、断线、投递失败、被击杀除外）
	Killed           int64 // 被击杀数
	CommandsApplied  int64 // 成功应用的命令数
	CommandsRejected int64 // 被规则拒绝的命令数
	Chats            int64 // 聊天事件数
	StateBroadcasts  int64 // 全量状态广播次数
	SendsFailed      int64 // 因出站队列满被清退的连接数
	PlayersNow       int64 // 当前在场玩家数（瞬时值）
	TotalApplyNs     int64 // 命令应用累计耗时（纳秒）
}

func (m *ArenaMetrics) IncJoined()      { atomic.AddInt64(&m.Joined, 1) }
func (m *ArenaMetrics) IncJoinRefused() { atomic.AddInt64(&m.JoinRefused, 1) }
func (m *ArenaMetrics) IncDeparted()    { atomic.AddInt64(&m.Departed, 1) }
func (m *ArenaMetrics) IncKilled()      { atomic.AddInt64(&m.Killed, 1) }
func (m *ArenaMetrics) IncApplied()     { atomic.AddInt64(&m.CommandsApplied, 1) }
func (m *ArenaMetrics) IncRejected()    { atomic.AddInt64(&m.CommandsRejected, 1) }
func (m *ArenaMetrics) IncChat()        { atomic.AddInt64(&m.Chats, 1) }
func (m *ArenaMetrics) IncBroadcast()   { atomic.AddInt64(&m.StateBroadcasts, 1) }
func (m *ArenaMetrics) IncSendFailed()  { atomic.AddInt64(&m.SendsFailed, 1) }

func (m *ArenaMetrics) SetPlayers(n int) { atomic.StoreInt64(&m.PlayersNow, int64(n)) }

func (m *ArenaMetrics) AddApply(ns int64) {
	atomic.AddInt64(&m.TotalApplyNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *ArenaMetrics) Snapshot() map[string]any {
	applied := atomic.LoadInt64(&m.CommandsApplied)
	rejected := atomic.LoadInt64(&m.CommandsRejected)
	total := atomic.LoadInt64(&m.TotalApplyNs)
	var avgMs float64
	if n := applied + rejected; n > 0 {
		avgMs = float64(total) / float64(n) / 1e6
	}
	return map[string]any{
		"joined":            atomic.LoadInt64(&m.Joined),
		"join_refused":      atomic.LoadInt64(&m.JoinRefused),
		"departed":          atomic.LoadInt64(&m.Departed),
		"killed":            atomic.LoadInt64(&m.Killed),
		"commands_applied":  applied,
		"commands_rejected": rejected,
		"chats":             atomic.LoadInt64(&m.Chats),
		"state_broadcasts":  atomic.LoadInt64(&m.StateBroadcasts),
		"sends_failed":      atomic.LoadInt64(&m.SendsFailed),
		"players_now":       atomic.LoadInt64(&m.PlayersNow),
		"avg_apply_ms":      avgMs,
	}
}

package server

// 广播辅助：仅在协调循环内调用。快照在临界区内构建，保证一致视图；
// 投递经各连接的缓冲队列异步完成，慢消费者不会拖住循环。
// 入队失败的连接先收集、遍历结束后统一按掉线清退，避免边遍历边改表。

// broadcastState 全量状态广播到所有在场连接（包含行动者本人）
func (a *Arena) broadcastState() {
	snap := BuildSnapshot(a.engine)
	a.metrics.IncBroadcast()
	var failed []PlayerID
	for id, sess := range a.sessions {
		if !sess.conn.SendState(snap) {
			failed = append(failed, id)
		}
	}
	a.reapFailed(failed)
}

// broadcastChat 聊天事件广播到发言者以外的所有在场连接
func (a *Arena) broadcastChat(ev *ChatEvent) {
	var failed []PlayerID
	for id, sess := range a.sessions {
		if id == ev.From {
			continue
		}
		if !sess.conn.SendChat(ev.From, ev.Text) {
			failed = append(failed, id)
		}
	}
	a.reapFailed(failed)
}

// broadcastNotice 通知行广播，exclude 非空时跳过该玩家
func (a *Arena) broadcastNotice(text string, exclude PlayerID) {
	var failed []PlayerID
	for id, sess := range a.sessions {
		if exclude != "" && id == exclude {
			continue
		}
		if !sess.conn.SendNotice(text) {
			failed = append(failed, id)
		}
	}
	a.reapFailed(failed)
}

// reapFailed 清退投递失败的连接，视同断线退场
func (a *Arena) reapFailed(ids []PlayerID) {
	for _, id := range ids {
		a.metrics.IncSendFailed()
		a.removeSession(id, "send failed")
	}
}

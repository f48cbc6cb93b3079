package server

import "fmt"

// Conn 连接的投递端抽象，TCP 与 WebSocket 网关各自实现
// Send 系列方法必须无阻塞，入队失败返回 false，由协调循环按掉线处理；
// Close 可重复调用，关闭后所有 Send 返回 false
type Conn interface {
	ID() string
	SendState(s *Snapshot) bool
	SendChat(from PlayerID, text string) bool
	SendNotice(text string) bool
	SendError(reason string) bool
	Close()
}

// 协议固定通知行
const (
	noticeReady    = "READY"
	noticeFull     = "Server is full."
	noticeGoodbye  = "Goodbye."
	noticeShutdown = "Server is shutting down."
)

func noticeEntered(id PlayerID) string {
	return fmt.Sprintf("Player %s has entered the game.", id)
}

func noticeDeparted(id PlayerID) string {
	return fmt.Sprintf("Player %s has quit the game.", id)
}

func noticeKilled(killer PlayerID) string {
	return fmt.Sprintf("You were killed by Player %s.", killer)
}

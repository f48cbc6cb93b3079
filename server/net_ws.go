package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second // 必须小于 pongWait
)

// wsEnvelope 出站 JSON 信封，浏览器客户端无需解析行协议文本
type wsEnvelope struct {
	Type    string        `json:"type"`
	Rows    []string      `json:"rows,omitempty"`
	Players []PlayerState `json:"players,omitempty"`
	From    string        `json:"from,omitempty"`
	Text    string        `json:"text,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}

// wsConn WebSocket 连接的投递端，与 tcpConn 同一套队列与关闭约定
type wsConn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	quit      chan struct{}
	closeOnce sync.Once
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, 64),
		quit: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

// enqueue 非阻塞入队，连接已关或队列已满时返回 false
func (c *wsConn) enqueue(env wsEnvelope) bool {
	b, err := json.Marshal(env)
	if err != nil {
		return false
	}
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	case <-c.quit:
		return false
	default:
		return false
	}
}

func (c *wsConn) SendState(s *Snapshot) bool {
	return c.enqueue(wsEnvelope{Type: "state", Rows: s.Rows, Players: s.Players})
}

func (c *wsConn) SendChat(from PlayerID, text string) bool {
	return c.enqueue(wsEnvelope{Type: "chat", From: string(from), Text: text})
}

func (c *wsConn) SendNotice(text string) bool {
	return c.enqueue(wsEnvelope{Type: "notice", Text: text})
}

func (c *wsConn) SendError(reason string) bool {
	return c.enqueue(wsEnvelope{Type: "error", Reason: reason})
}

// Close 触发关闭：写协程冲刷剩余消息后关底层连接
func (c *wsConn) Close() {
	c.closeOnce.Do(func() { close(c.quit) })
}

// writePump 独立协程，负责从队列写出到 WS，并周期性发 ping 保活
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			if !c.write(websocket.TextMessage, msg) {
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		case <-c.quit:
			for {
				select {
				case msg := <-c.send:
					if !c.write(websocket.TextMessage, msg) {
						return
					}
				default:
					_ = c.write(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (c *wsConn) write(messageType int, payload []byte) bool {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(messageType, payload) == nil
}

// readPump 读取客户端命令帧，一帧一行，与 TCP 共用解析边界
func (c *wsConn) readPump(arena *Arena) {
	defer c.Close()
	defer arena.RequestLeave(c)
	c.ws.SetReadLimit(maxLineBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		cmd, perr := ParseCommand(string(payload))
		if perr != nil {
			arena.Metrics().IncRejected()
			if !c.SendError(RejectReason(perr)) {
				return
			}
			continue
		}
		if !arena.Submit(c, cmd) {
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入：?arena=arena-1，身份由服务端分配
func HandleWS(w http.ResponseWriter, r *http.Request) {
	arenaName := r.URL.Query().Get("arena")
	if arenaName == "" {
		arenaName = GetArenaManager().DefaultArenaName()
	}
	arena, err := GetArenaManager().GetOrCreate(arenaName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Errorf("ws: upgrade error: %v", err)
		return
	}

	conn := newWSConn(ws)
	go conn.writePump()
	Log.Infof("ws: conn %s accepted from %s", conn.id, r.RemoteAddr)

	pid, err := arena.Join(conn)
	if err != nil {
		if errors.Is(err, ErrRosterFull) {
			conn.SendNotice(noticeFull)
		}
		conn.Close()
		Log.Infof("ws: conn %s refused: %v", conn.id, err)
		return
	}
	Log.Infof("ws: conn %s playing as %s", conn.id, pid)
	go conn.readPump(arena)
}

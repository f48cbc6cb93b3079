package server

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

// EventFeed 把战场事件外发到 NATS 供外部观察者订阅，可选组件。
// 发布即发即忘，绝不阻塞协调循环；nil 实例的所有方法都是空操作。
type EventFeed struct {
	nc *nats.Conn
}

// NewEventFeed 连接 NATS；url 为空时返回 nil 表示未启用
func NewEventFeed(url string) (*EventFeed, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			Log.Warnf("events: nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			Log.Infof("events: nats reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, err
	}
	Log.Infof("events: nats connected to %s", nc.ConnectedUrl())
	return &EventFeed{nc: nc}, nil
}

// Close 排空未发出的消息并断开
func (f *EventFeed) Close() {
	if f == nil || f.nc == nil {
		return
	}
	_ = f.nc.Drain()
}

// gameEvent 外发事件载荷
type gameEvent struct {
	Arena  string    `json:"arena"`
	Kind   string    `json:"kind"`
	Player string    `json:"player,omitempty"`
	Killer string    `json:"killer,omitempty"`
	Cause  string    `json:"cause,omitempty"`
	Text   string    `json:"text,omitempty"`
	At     time.Time `json:"at"`
}

func (f *EventFeed) publish(ev gameEvent) {
	if f == nil || f.nc == nil {
		return
	}
	ev.At = time.Now().UTC()
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	subject := "gridarena." + ev.Arena + ".events"
	if err := f.nc.Publish(subject, b); err != nil {
		Log.Debugf("events: publish %s failed: %v", subject, err)
	}
}

func (f *EventFeed) PublishJoin(arena string, id PlayerID) {
	f.publish(gameEvent{Arena: arena, Kind: "join", Player: string(id)})
}

func (f *EventFeed) PublishLeave(arena string, id PlayerID, cause string) {
	f.publish(gameEvent{Arena: arena, Kind: "leave", Player: string(id), Cause: cause})
}

func (f *EventFeed) PublishKill(arena string, victim, killer PlayerID) {
	f.publish(gameEvent{Arena: arena, Kind: "kill", Player: string(victim), Killer: string(killer)})
}

func (f *EventFeed) PublishChat(arena string, from PlayerID, text string) {
	f.publish(gameEvent{Arena: arena, Kind: "chat", Player: string(from), Text: text})
}

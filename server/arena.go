package server

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// errArenaStopped 战场已停止，入场与命令均被拒绝
var errArenaStopped = errors.New("arena stopped")

// session 一条在场连接，仅由协调循环触碰
type session struct {
	id   PlayerID
	conn Conn
}

// joinRequest 入场请求，回执通道容量为 1，协调循环永不因回执阻塞
type joinRequest struct {
	conn  Conn
	reply chan joinResult
}

type joinResult struct {
	id  PlayerID
	err error
}

// Arena 战场协调器：网格、注册表与会话全部由单一协程独占，
// 命令、入场、退场、规则更新统一经通道汇入，任一时刻全局至多
// 应用一条命令。广播只在循环内构建快照，投递交给各连接的写协程。
type Arena struct {
	Name string

	engine   *Engine
	sessions map[PlayerID]*session

	commands chan envelope
	joins    chan joinRequest
	leaves   chan Conn
	rules    chan Rules

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	runOnce  sync.Once

	// rulesView 供管理接口无锁读取当前数值，仅协调循环写入
	rulesView atomic.Pointer[Rules]

	metrics *ArenaMetrics
	feed    *EventFeed
}

// NewArena 按世界布局与数值创建战场，布局非法时报错
func NewArena(name string, world WorldConfig, rules Rules, feed *EventFeed) (*Arena, error) {
	grid, err := world.BuildGrid()
	if err != nil {
		return nil, err
	}
	a := &Arena{
		Name:     name,
		engine:   NewEngine(grid, rules),
		sessions: make(map[PlayerID]*session, MaxPlayers),
		commands: make(chan envelope, 256), // 足够缓冲，避免网络读阻塞协调循环
		joins:    make(chan joinRequest, 8),
		leaves:   make(chan Conn, 64),
		rules:    make(chan Rules, 4),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		metrics:  &ArenaMetrics{},
		feed:     feed,
	}
	r := rules
	a.rulesView.Store(&r)
	return a, nil
}

// Start 启动协调循环，重复调用无效果
func (a *Arena) Start() {
	a.runOnce.Do(func() { go a.run() })
}

// Stop 停止协调循环并关闭所有在场连接，返回时循环已退出
func (a *Arena) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
	<-a.done
}

// Metrics 运行指标（原子计数，随时可读）
func (a *Arena) Metrics() *ArenaMetrics { return a.metrics }

// CurrentRules 当前数值的只读副本
func (a *Arena) CurrentRules() Rules { return *a.rulesView.Load() }

// Join 同步入场：认领身份、向新玩家发 READY、向其余玩家发入场通知，
// 随后全量广播。满员或战场已停止时拒绝。
func (a *Arena) Join(conn Conn) (PlayerID, error) {
	req := joinRequest{conn: conn, reply: make(chan joinResult, 1)}
	select {
	case a.joins <- req:
	case <-a.stop:
		return "", errArenaStopped
	}
	select {
	case res := <-req.reply:
		return res.id, res.err
	case <-a.done:
		return "", errArenaStopped
	}
}

// Submit 投递一条已解析命令。同一连接的读协程是其命令的唯一生产者，
// 阻塞式写入保证命令按行到达顺序生效，背压由上游 socket 读承担。
// 先查 stop 再入队：两路同时就绪时 select 随机选择，已停战场必须确定性拒收。
func (a *Arena) Submit(conn Conn, cmd Command) bool {
	select {
	case <-a.stop:
		return false
	default:
	}
	select {
	case a.commands <- envelope{conn: conn, cmd: cmd}:
		return true
	case <-a.stop:
		return false
	}
}

// RequestLeave 连接断开时请求在协调循环内移除对应玩家，等价于隐式 QUIT。
// 以连接实体定位会话：身份字母可能已被释放并由新连接认领，按字母移除会误伤。
func (a *Arena) RequestLeave(conn Conn) {
	select {
	case a.leaves <- conn:
	case <-a.stop:
	}
}

// UpdateRules 请求在协调循环内整体替换数值，已停战场确定性拒绝
func (a *Arena) UpdateRules(r Rules) bool {
	select {
	case <-a.stop:
		return false
	default:
	}
	select {
	case a.rules <- r:
		return true
	case <-a.stop:
		return false
	}
}

// run 协调循环：系统内唯一触碰世界状态的协程
func (a *Arena) run() {
	defer close(a.done)
	g := a.engine.Grid()
	Log.Infof("arena %s: loop started, grid %dx%d", a.Name, g.Rows(), g.Cols())
	for {
		select {
		case <-a.stop:
			a.shutdown()
			return
		case req := <-a.joins:
			a.handleJoin(req)
		case conn := <-a.leaves:
			a.handleLeave(conn)
		case env := <-a.commands:
			a.handleCommand(env)
		case r := <-a.rules:
			clamped := a.engine.SetRules(r)
			a.rulesView.Store(&r)
			Log.Infof("arena %s: rules updated: hp=%d dmg=%d heal=%d jump=%d",
				a.Name, r.MaxHealth, r.AttackDamage, r.PickupHeal, r.JumpDistance)
			if clamped {
				// 压帽改变了可见状态，立即让所有人看到新血量
				a.broadcastState()
			}
		}
	}
}

// handleJoin 处理入场：拒绝不广播，成功则 READY + 入场通知 + 全量广播
func (a *Arena) handleJoin(req joinRequest) {
	p, err := a.engine.Join(req.conn)
	if err != nil {
		a.metrics.IncJoinRefused()
		Log.Infof("arena %s: join refused for conn %s: %v", a.Name, req.conn.ID(), err)
		req.reply <- joinResult{err: err}
		return
	}
	a.sessions[p.ID] = &session{id: p.ID, conn: req.conn}
	a.metrics.IncJoined()
	a.metrics.SetPlayers(len(a.sessions))
	Log.Infof("arena %s: player %s joined at %v (conn %s)", a.Name, p.ID, p.Pos, req.conn.ID())

	req.conn.SendNotice(noticeReady)
	a.broadcastNotice(noticeEntered(p.ID), p.ID)
	a.broadcastState()
	a.feed.PublishJoin(a.Name, p.ID)
	req.reply <- joinResult{id: p.ID}
}

// sessionByConn 按连接实体定位在场会话，不在场返回 nil
func (a *Arena) sessionByConn(conn Conn) *session {
	for _, sess := range a.sessions {
		if sess.conn == conn {
			return sess
		}
	}
	return nil
}

// handleCommand 应用一条命令并完成由此产生的全部投递
func (a *Arena) handleCommand(env envelope) {
	sess := a.sessionByConn(env.conn)
	if sess == nil {
		// 连接已退场但命令仍在队列中，静默丢弃
		return
	}

	start := time.Now()
	out, err := a.engine.Apply(sess.id, env.cmd)
	a.metrics.AddApply(time.Since(start).Nanoseconds())

	if err != nil {
		a.metrics.IncRejected()
		Log.Debugf("arena %s: %s %s rejected: %v", a.Name, sess.id, env.cmd.Kind, err)
		if !sess.conn.SendError(RejectReason(err)) {
			a.removeSession(sess.id, "send failed")
		}
		return
	}
	a.metrics.IncApplied()

	for _, k := range out.Kills {
		if victim, alive := a.sessions[k.Victim]; alive {
			victim.conn.SendNotice(noticeKilled(k.Killer))
			victim.conn.Close()
			delete(a.sessions, k.Victim)
		}
		a.metrics.IncKilled()
		a.metrics.SetPlayers(len(a.sessions))
		Log.Infof("arena %s: player %s killed by %s", a.Name, k.Victim, k.Killer)
		a.feed.PublishKill(a.Name, k.Victim, k.Killer)
	}

	if out.Chat != nil {
		a.metrics.IncChat()
		a.broadcastChat(out.Chat)
		a.feed.PublishChat(a.Name, out.Chat.From, out.Chat.Text)
	}

	var closeAfter Conn
	if out.Quit {
		sess.conn.SendNotice(noticeGoodbye)
		delete(a.sessions, sess.id)
		a.metrics.IncDeparted()
		a.metrics.SetPlayers(len(a.sessions))
		Log.Infof("arena %s: player %s quit", a.Name, sess.id)
		a.broadcastNotice(noticeDeparted(sess.id), "")
		a.feed.PublishLeave(a.Name, sess.id, "quit")
		closeAfter = sess.conn
	}

	if out.Changed {
		a.broadcastState()
	}
	if closeAfter != nil {
		closeAfter.Close()
	}
}

// handleLeave 按连接实体找到仍在场的会话再移除，找不到说明早已退场
func (a *Arena) handleLeave(conn Conn) {
	if sess := a.sessionByConn(conn); sess != nil {
		a.removeSession(sess.id, "disconnect")
	}
}

// removeSession 隐式退场：断线、投递失败等非 QUIT 路径共用
func (a *Arena) removeSession(id PlayerID, cause string) {
	sess, ok := a.sessions[id]
	if !ok {
		return
	}
	delete(a.sessions, id)
	a.engine.RemovePlayer(id)
	sess.conn.Close()
	a.metrics.IncDeparted()
	a.metrics.SetPlayers(len(a.sessions))
	Log.Infof("arena %s: player %s removed (%s)", a.Name, id, cause)
	a.broadcastNotice(noticeDeparted(id), "")
	a.broadcastState()
	a.feed.PublishLeave(a.Name, id, cause)
}

// shutdown 停机：拒绝排队中的入场请求，通知并关闭所有在场连接
func (a *Arena) shutdown() {
	for {
		select {
		case req := <-a.joins:
			req.reply <- joinResult{err: errArenaStopped}
			continue
		default:
		}
		break
	}
	for id, sess := range a.sessions {
		sess.conn.SendNotice(noticeShutdown)
		sess.conn.Close()
		delete(a.sessions, id)
	}
	a.metrics.SetPlayers(0)
	Log.Infof("arena %s: loop stopped", a.Name)
}

package server

import (
	"bufio"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxLineBytes 单行命令长度上限，超限按读错误断开
const maxLineBytes = 4096

// writeTimeout 单次出站写超时
const writeTimeout = 5 * time.Second

// tcpConn 行协议连接的投递端：出站载荷经缓冲队列由写协程落盘，
// 入队失败即视为慢消费者。quit 只关闭一次，Send 永不向已关队列写入。
type tcpConn struct {
	id   string
	sock net.Conn
	send chan string

	quit      chan struct{}
	closeOnce sync.Once
}

func newTCPConn(sock net.Conn) *tcpConn {
	return &tcpConn{
		id:   uuid.NewString(),
		sock: sock,
		send: make(chan string, 64),
		quit: make(chan struct{}),
	}
}

func (c *tcpConn) ID() string { return c.id }

// enqueue 非阻塞入队，连接已关或队列已满时返回 false
func (c *tcpConn) enqueue(payload string) bool {
	select {
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	case <-c.quit:
		return false
	default:
		return false
	}
}

func (c *tcpConn) SendState(s *Snapshot) bool {
	return c.enqueue(s.Text())
}

func (c *tcpConn) SendChat(from PlayerID, text string) bool {
	return c.enqueue(FormatChat(from, text))
}

func (c *tcpConn) SendNotice(text string) bool {
	return c.enqueue(text)
}

func (c *tcpConn) SendError(reason string) bool {
	return c.enqueue("ERR " + reason)
}

// Close 触发关闭：写协程把已入队的载荷冲刷完再关底层连接
func (c *tcpConn) Close() {
	c.closeOnce.Do(func() { close(c.quit) })
}

// writePump 独立协程，负责从队列写出到 socket，一个载荷一次写出
func (c *tcpConn) writePump() {
	defer c.sock.Close()
	for {
		select {
		case payload := <-c.send:
			if !c.write(payload) {
				return
			}
		case <-c.quit:
			// 关闭前冲刷剩余载荷，告别与死亡通知依赖这一步送达
			for {
				select {
				case payload := <-c.send:
					if !c.write(payload) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (c *tcpConn) write(payload string) bool {
	_ = c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := c.sock.Write([]byte(payload + "\n"))
	return err == nil
}

// TCPServer 行协议网关：连接即入场，一行一命令
type TCPServer struct {
	arena *Arena
	ln    net.Listener
	wg    sync.WaitGroup
	stop  chan struct{}
	once  sync.Once
}

func NewTCPServer(a *Arena) *TCPServer {
	return &TCPServer{arena: a, stop: make(chan struct{})}
}

// Serve 接受连接直到监听被关闭，每条连接一个处理协程
func (s *TCPServer) Serve(ln net.Listener) error {
	s.ln = ln
	Log.Infof("tcp: serving arena %s on %s", s.arena.Name, ln.Addr())
	for {
		sock, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stop:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go s.handleConn(sock)
	}
}

// Close 停止接入新连接，存量连接不受影响
func (s *TCPServer) Close() {
	s.once.Do(func() { close(s.stop) })
	if s.ln != nil {
		_ = s.ln.Close()
	}
}

// Wait 等待存量连接的处理协程全部退出
func (s *TCPServer) Wait() { s.wg.Wait() }

// Shutdown 停止接入并等待存量连接处理完
func (s *TCPServer) Shutdown() {
	s.Close()
	s.Wait()
}

// handleConn 连接生命周期：入场、逐行读命令、断线退场
func (s *TCPServer) handleConn(sock net.Conn) {
	defer s.wg.Done()
	conn := newTCPConn(sock)
	go conn.writePump()
	Log.Infof("tcp: conn %s accepted from %s", conn.id, sock.RemoteAddr())

	pid, err := s.arena.Join(conn)
	if err != nil {
		if errors.Is(err, ErrRosterFull) {
			conn.SendNotice(noticeFull)
		}
		conn.Close()
		Log.Infof("tcp: conn %s refused: %v", conn.id, err)
		return
	}
	Log.Infof("tcp: conn %s playing as %s", conn.id, pid)
	defer conn.Close()
	// 读协程退出时（对端断开、被击杀或 QUIT 后服务端关连接）请求退场；
	// 以连接实体识别会话，身份字母被复用也不会误伤后来者
	defer s.arena.RequestLeave(conn)

	scanner := bufio.NewScanner(sock)
	scanner.Buffer(make([]byte, 0, 256), maxLineBytes)
	for scanner.Scan() {
		cmd, perr := ParseCommand(scanner.Text())
		if perr != nil {
			s.arena.Metrics().IncRejected()
			if !conn.SendError(RejectReason(perr)) {
				return
			}
			continue
		}
		if !s.arena.Submit(conn, cmd) {
			return
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		Log.Debugf("tcp: conn %s read ended: %v", conn.id, err)
	}
}

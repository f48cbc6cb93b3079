package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/nsf/termbox-go"
)

// GridArena 终端客户端：TCP 行协议，termbox 渲染战场、玩家状态与消息流
// 按键：方向键移动，大写 W/A/S/D 跳跃，空格攻击，t 聊天，q 或 Esc 退出

const logKeep = 64 // 消息流保留条数

// view 客户端侧的显示状态，网络协程与界面协程共享
type view struct {
	mu      sync.Mutex
	rows    []string // 最近一次 STATE 的网格行
	players []string // 最近一次 STATE 的玩家状态行（原样展示）
	log     []string // 聊天、通知与错误的滚动消息流
	ready   bool
	gone    bool // 服务端已断开
}

func (v *view) appendLog(line string) {
	v.log = append(v.log, line)
	if len(v.log) > logKeep {
		v.log = v.log[len(v.log)-logKeep:]
	}
}

// 服务端行流的解析状态机：STATE 块逐行到达，边到边提交
type stateParser int

const (
	parseNormal stateParser = iota
	parseGrid
	parsePlayers
)

// readServer 读取服务端行流并更新显示状态，每行之后通知重绘
func readServer(sock net.Conn, v *view, redraw chan<- struct{}, done chan<- struct{}) {
	defer close(done)
	mode := parseNormal
	var pendingRows []string

	scanner := bufio.NewScanner(sock)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		v.mu.Lock()
		switch {
		case line == "STATE":
			mode = parseGrid
			pendingRows = pendingRows[:0]
		case mode == parseGrid:
			if line == "Players:" {
				v.rows = append([]string(nil), pendingRows...)
				v.players = v.players[:0]
				mode = parsePlayers
			} else {
				pendingRows = append(pendingRows, line)
			}
		case mode == parsePlayers && strings.HasPrefix(line, "  Player "):
			v.players = append(v.players, strings.TrimPrefix(line, "  "))
		default:
			mode = parseNormal
			if line == "READY" {
				v.ready = true
				v.appendLog("Connected. Arrows move, W/A/S/D jump, space attacks, t talks, q quits.")
			} else if line != "" {
				v.appendLog(line)
			}
		}
		v.mu.Unlock()
		select {
		case redraw <- struct{}{}:
		default:
		}
	}
	v.mu.Lock()
	v.gone = true
	v.appendLog("Disconnected from server. Press any key to exit.")
	v.mu.Unlock()
	select {
	case redraw <- struct{}{}:
	default:
	}
}

// cellColor 网格字符的显示颜色
func cellColor(ch rune) (termbox.Attribute, termbox.Attribute) {
	switch ch {
	case '#':
		return termbox.ColorRed, termbox.ColorDefault
	case '+':
		return termbox.ColorGreen, termbox.ColorDefault
	case '.':
		return termbox.ColorDarkGray, termbox.ColorDefault
	default:
		return termbox.ColorYellow | termbox.AttrBold, termbox.ColorDefault
	}
}

func drawText(x, y int, text string, fg, bg termbox.Attribute) {
	for _, ch := range text {
		termbox.SetCell(x, y, ch, fg, bg)
		x++
	}
}

// draw 整屏重绘：网格在左上，玩家状态在其右，消息流在下方
func draw(v *view, input string, chatting bool) {
	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	v.mu.Lock()
	defer v.mu.Unlock()

	drawText(0, 0, "GridArena", termbox.ColorCyan|termbox.AttrBold, termbox.ColorDefault)

	gridTop := 2
	for r, row := range v.rows {
		x := 1
		for _, ch := range row {
			fg, bg := cellColor(ch)
			termbox.SetCell(x, gridTop+r, ch, fg, bg)
			x += 2 // 横向留空一格，网格更方正
		}
	}

	statusLeft := 4
	if len(v.rows) > 0 {
		statusLeft = 2*len([]rune(v.rows[0])) + 4
	}
	for i, p := range v.players {
		drawText(statusLeft, gridTop+i, p, termbox.ColorWhite, termbox.ColorDefault)
	}

	logTop := gridTop + len(v.rows) + 1
	if n := len(v.players); gridTop+n+1 > logTop {
		logTop = gridTop + n + 1
	}
	_, height := termbox.Size()
	visible := height - logTop - 2
	if visible < 0 {
		visible = 0
	}
	start := 0
	if len(v.log) > visible {
		start = len(v.log) - visible
	}
	for i, line := range v.log[start:] {
		drawText(0, logTop+i, line, termbox.ColorDefault, termbox.ColorDefault)
	}

	if chatting {
		drawText(0, height-1, "say: "+input, termbox.ColorCyan, termbox.ColorDefault)
		termbox.SetCursor(len("say: ")+len([]rune(input)), height-1)
	} else {
		termbox.HideCursor()
	}
	_ = termbox.Flush()
}

func main() {
	addr := flag.String("addr", "localhost:4000", "server address, e.g. localhost:4000")
	flag.Parse()

	sock, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Printf("connect %s: %v\n", *addr, err)
		return
	}
	defer sock.Close()

	if err := termbox.Init(); err != nil {
		fmt.Printf("terminal init: %v\n", err)
		return
	}
	defer termbox.Close()

	v := &view{}
	redraw := make(chan struct{}, 1)
	done := make(chan struct{})
	go readServer(sock, v, redraw, done)

	events := make(chan termbox.Event, 8)
	go func() {
		for {
			events <- termbox.PollEvent()
		}
	}()

	send := func(line string) {
		_, _ = sock.Write([]byte(line + "\n"))
	}

	var input []rune
	chatting := false
	draw(v, "", false)
	for {
		select {
		case <-redraw:
			draw(v, string(input), chatting)
		case <-done:
			draw(v, string(input), chatting)
			<-events // 任意键退出
			return
		case ev := <-events:
			if ev.Type != termbox.EventKey {
				draw(v, string(input), chatting)
				continue
			}
			if chatting {
				switch ev.Key {
				case termbox.KeyEnter:
					if len(input) > 0 {
						send("SAY " + string(input))
					}
					input = input[:0]
					chatting = false
				case termbox.KeyEsc:
					input = input[:0]
					chatting = false
				case termbox.KeyBackspace, termbox.KeyBackspace2:
					if len(input) > 0 {
						input = input[:len(input)-1]
					}
				case termbox.KeySpace:
					input = append(input, ' ')
				default:
					if ev.Ch != 0 {
						input = append(input, ev.Ch)
					}
				}
				draw(v, string(input), chatting)
				continue
			}
			switch ev.Key {
			case termbox.KeyArrowUp:
				send("MOVE UP")
			case termbox.KeyArrowDown:
				send("MOVE DOWN")
			case termbox.KeyArrowLeft:
				send("MOVE LEFT")
			case termbox.KeyArrowRight:
				send("MOVE RIGHT")
			case termbox.KeySpace:
				send("ATTACK")
			case termbox.KeyEsc, termbox.KeyCtrlC:
				send("QUIT")
				return
			default:
				switch ev.Ch {
				case 'W':
					send("JUMP UP")
				case 'S':
					send("JUMP DOWN")
				case 'A':
					send("JUMP LEFT")
				case 'D':
					send("JUMP RIGHT")
				case 't':
					chatting = true
				case 'q':
					send("QUIT")
					return
				}
			}
			draw(v, string(input), chatting)
		}
	}
}

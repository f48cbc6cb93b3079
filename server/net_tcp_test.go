package server

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTCPGateway 启动真实监听的 TCP 网关，清理时按接入、战场、存量连接的顺序收尾
func startTCPGateway(t *testing.T, name string) (*Arena, string) {
	t.Helper()
	a, err := NewArena(name, DefaultWorld(), DefaultRules(), nil)
	require.NoError(t, err)
	a.Start()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := NewTCPServer(a)
	go func() { _ = srv.Serve(ln) }()

	t.Cleanup(func() {
		srv.Close()
		a.Stop()
		srv.Wait()
	})
	return a, ln.Addr().String()
}

func dialGateway(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	sock, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sock.Close() })
	return sock, bufio.NewReader(sock)
}

func readLine(t *testing.T, sock net.Conn, r *bufio.Reader) string {
	t.Helper()
	require.NoError(t, sock.SetReadDeadline(time.Now().Add(waitFor)))
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(line, "\n")
}

// expectState 逐行读取并比对一个完整的 STATE 块
func expectState(t *testing.T, sock net.Conn, r *bufio.Reader, rows, players []string) {
	t.Helper()
	require.Equal(t, "STATE", readLine(t, sock, r))
	for i, want := range rows {
		assert.Equal(t, want, readLine(t, sock, r), "row %d", i)
	}
	require.Equal(t, "Players:", readLine(t, sock, r))
	for _, want := range players {
		assert.Equal(t, want, readLine(t, sock, r))
	}
}

func sendLine(t *testing.T, sock net.Conn, line string) {
	t.Helper()
	_, err := sock.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

func TestTCPGatewayPlayThrough(t *testing.T) {
	_, addr := startTCPGateway(t, "tcp-gw")
	sock, r := dialGateway(t, addr)

	require.Equal(t, "READY", readLine(t, sock, r))
	expectState(t, sock, r,
		[]string{"A...+", "...+.", "..#+.", ".+...", "....."},
		[]string{"  Player A: HP=100 Pos=(0,0)"})

	sendLine(t, sock, "MOVE RIGHT")
	expectState(t, sock, r,
		[]string{".A..+", "...+.", "..#+.", ".+...", "....."},
		[]string{"  Player A: HP=100 Pos=(0,1)"})

	// 规则拒绝与解析拒绝走同一条 ERR 线路，只发给本人
	sendLine(t, sock, "MOVE UP")
	assert.Equal(t, "ERR out of bounds", readLine(t, sock, r))
	sendLine(t, sock, "FLY UP")
	assert.Equal(t, "ERR bad command", readLine(t, sock, r))

	sendLine(t, sock, "QUIT")
	assert.Equal(t, "Goodbye.", readLine(t, sock, r))

	// 告别之后服务端关闭连接
	require.NoError(t, sock.SetReadDeadline(time.Now().Add(waitFor)))
	_, err := r.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)
}

func TestTCPGatewayChatBetweenConns(t *testing.T) {
	_, addr := startTCPGateway(t, "tcp-gw-chat")
	sock1, r1 := dialGateway(t, addr)
	require.Equal(t, "READY", readLine(t, sock1, r1))

	sock2, r2 := dialGateway(t, addr)
	require.Equal(t, "READY", readLine(t, sock2, r2))
	expectState(t, sock2, r2,
		[]string{"A...+", "B..+.", "..#+.", ".+...", "....."},
		[]string{"  Player A: HP=100 Pos=(0,0)", "  Player B: HP=100 Pos=(1,0)"})

	sendLine(t, sock1, "SAY meet at the pickup")
	assert.Equal(t, "*** A: meet at the pickup ***", readLine(t, sock2, r2))
}

func TestTCPGatewayRefusesWhenFull(t *testing.T) {
	_, addr := startTCPGateway(t, "tcp-gw-full")
	for i := 0; i < MaxPlayers; i++ {
		sock, r := dialGateway(t, addr)
		require.Equal(t, "READY", readLine(t, sock, r))
	}

	sock5, r5 := dialGateway(t, addr)
	assert.Equal(t, "Server is full.", readLine(t, sock5, r5))
	require.NoError(t, sock5.SetReadDeadline(time.Now().Add(waitFor)))
	_, err := r5.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF, "被拒连接随即被关闭")
}

package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gridarena/server"
)

// GridArena 入口：启动 TCP 行协议服务与 HTTP + WebSocket 服务，
// 并初始化战场管理器
func main() {
	defaults := server.DefaultConfig()
	var (
		tcpAddr    = flag.String("addr", defaults.ListenTCP, "tcp game listen address, e.g. :4000")
		httpAddr   = flag.String("http", defaults.ListenHTTP, "http listen address for ws/admin/metrics, e.g. :8080")
		configPath = flag.String("config", "", "optional yaml config file")
		logFile    = flag.String("log", defaults.LogFile, "log file path")
		debug      = flag.Bool("debug", false, "enable debug logging")
		natsURL    = flag.String("nats", "", "optional nats url for the event feed, e.g. nats://127.0.0.1:4222")
	)
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	// 显式传入的旗标覆盖配置文件
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.ListenTCP = *tcpAddr
		case "http":
			cfg.ListenHTTP = *httpAddr
		case "log":
			cfg.LogFile = *logFile
		case "debug":
			cfg.Debug = *debug
		case "nats":
			cfg.NATSURL = *natsURL
		}
	})
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := server.InitLogger(cfg.LogFile, cfg.Debug); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	feed, err := server.NewEventFeed(cfg.NATSURL)
	if err != nil {
		server.Log.Fatalf("nats: %v", err)
	}
	defer feed.Close()

	am := server.GetArenaManager()
	am.Configure(cfg.World, cfg.Rules, cfg.DefaultArena, feed)
	// 先预创建默认战场，便于快速试跑
	arena, err := am.GetOrCreate(cfg.DefaultArena)
	if err != nil {
		server.Log.Fatalf("create arena: %v", err)
	}

	ln, err := net.Listen("tcp", cfg.ListenTCP)
	if err != nil {
		server.Log.Fatalf("listen tcp: %v", err)
	}
	tcpSrv := server.NewTCPServer(arena)
	go func() {
		if err := tcpSrv.Serve(ln); err != nil {
			server.Log.Fatalf("tcp serve: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)
	// 管理与监控接口
	mux.HandleFunc("/admin/rules", server.HandleAdminRules)
	mux.HandleFunc("/metrics", server.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.ListenHTTP, Handler: mux}

	go func() {
		server.Log.Infof("GridArena listening: tcp %s, http %s", cfg.ListenTCP, cfg.ListenHTTP)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen http: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）：先停接入，再停战场，最后等存量连接收尾
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	tcpSrv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		server.Log.Warnf("http shutdown: %v", err)
	}
	am.Stop()
	tcpSrv.Wait()
	server.Log.Info("Bye.")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"fieldmind/agent"
	"fieldmind/ipc"
	"fieldmind/llm"
	"fieldmind/replay"
	"fieldmind/rules"
	"fieldmind/tuning"
)

const banner = `
███████╗██╗███████╗██╗     ██████╗ ███╗   ███╗██╗███╗   ██╗██████╗
██╔════╝██║██╔════╝██║     ██╔══██╗████╗ ████║██║████╗  ██║██╔══██╗
█████╗  ██║█████╗  ██║     ██║  ██║██╔████╔██║██║██╔██╗ ██║██║  ██║
██╔══╝  ██║██╔══╝  ██║     ██║  ██║██║╚██╔╝██║██║██║╚██╗██║██║  ██║
██║     ██║███████╗███████╗██████╔╝██║ ╚═╝ ██║██║██║ ╚████║██████╔╝
╚═╝     ╚═╝╚══════╝╚══════╝╚═════╝ ╚═╝     ╚═╝╚═╝╚═╝  ╚═══╝╚═════╝

Two-Tier Unit Intelligence`

func main() {
	socketPath := flag.String("socket", "/tmp/fieldmind.sock", "unix socket path for the host game")
	configPath := flag.String("config", "", "optional tuning file (yaml)")
	replayPath := flag.String("replay", "", "optional replay database path (sqlite)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	fmt.Println(banner)

	cfg, err := tuning.Load(*configPath)
	if err != nil {
		slog.Error("failed to load tuning", "path", *configPath, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var client llm.Client
	if gc, err := llm.NewGenAIClient(ctx, os.Getenv("GEMINI_API_KEY"), cfg.LLM.Model); err != nil {
		// Planner failures degrade to fallback plans, so a missing key is
		// survivable; warn and let the commander handle the errors.
		slog.Warn("LLM client unavailable, all commands will use fallback plans", "error", err)
		client = llm.Unavailable()
	} else {
		client = gc
	}

	var recorder rules.Recorder
	if *replayPath != "" {
		log, err := replay.Open(*replayPath)
		if err != nil {
			slog.Error("failed to open replay log", "path", *replayPath, "error", err)
			os.Exit(1)
		}
		defer log.Close()
		recorder = log
		slog.Info("replay log enabled", "path", *replayPath)
	}

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(*socketPath); err != nil {
		slog.Error("failed to clean up socket", "path", *socketPath, "error", err)
		os.Exit(1)
	}

	listener, err := net.Listen("unix", *socketPath)
	if err != nil {
		slog.Error("failed to listen on socket", "path", *socketPath, "error", err)
		os.Exit(1)
	}
	defer listener.Close()
	defer os.Remove(*socketPath)

	slog.Info("listening on domain socket", "path", *socketPath, "tickRateHz", cfg.TickRateHz)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					slog.Error("failed to accept connection", "error", err)
					continue
				}
			}
			slog.Info("new connection accepted")
			go handleConn(ctx, conn, cfg, client, recorder)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
}

func handleConn(ctx context.Context, conn net.Conn, cfg tuning.Tuning, client llm.Client, recorder rules.Recorder) {
	c := ipc.NewConnection(conn, nil)
	agent.New(ctx, c, cfg, client, recorder)
	c.ReadLoop()
}

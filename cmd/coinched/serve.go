package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/coinchelab/coinched/internal/bot"
	"github.com/coinchelab/coinched/internal/events"
	"github.com/coinchelab/coinched/internal/randutil"
	"github.com/coinchelab/coinched/internal/room"
	"github.com/coinchelab/coinched/internal/server"
)

// ServeCmd runs the websocket server.
type ServeCmd struct {
	Config string `short:"c" default:"coinched.hcl" help:"Path to HCL configuration file"`
	Addr   string `help:"Override the configured listen address"`
	Debug  bool   `short:"d" help:"Enable debug logging"`
}

// Run starts the server and blocks until interrupted.
func (cmd *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(cmd.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := setupLogger(cmd.Debug, cfg.Server.LogLevel)
	addr := cfg.ListenAddress()
	if cmd.Addr != "" {
		addr = cmd.Addr
	}

	clock := quartz.NewReal()
	hub := events.NewHub(logger, clock)
	driver := bot.NewDriver(logger, clock, randutil.NewWallClock())
	rooms := room.NewManager(logger, hub, driver, clock, randutil.NewWallClock, room.Defaults{
		TargetScore: cfg.Rooms.TargetScore,
		TurnTimeout: cfg.TurnTimeout(),
		Visibility:  room.Visibility(cfg.Rooms.Visibility),
	})
	service := server.NewService(logger, rooms, hub)
	srv := server.NewServer(addr, logger, service)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return hub.Run(ctx) })

	err = g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

// setupLogger configures the charmbracelet logger for the process.
func setupLogger(debug bool, level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	switch {
	case debug:
		logger.SetLevel(log.DebugLevel)
	default:
		if lvl, err := log.ParseLevel(level); err == nil {
			logger.SetLevel(lvl)
		}
	}
	return logger
}

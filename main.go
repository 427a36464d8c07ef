package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/docs-ui/uipreview/config"
	"github.com/docs-ui/uipreview/metrics"
	"github.com/docs-ui/uipreview/renderer"
	"github.com/docs-ui/uipreview/server"
	"github.com/docs-ui/uipreview/site"
	"github.com/docs-ui/uipreview/watcher"
)

// CLI is the command line of uipreview.
type CLI struct {
	Config   string `short:"c" help:"Configuration file path (yaml, json or toml)" type:"path"`
	LogLevel string `name:"log-level" help:"Override the configured log level (debug|info|warn|error)"`

	Serve   ServeCmd         `cmd:"" default:"1" help:"Serve preview pages with live reload"`
	Build   BuildCmd         `cmd:"" help:"Render every preview document into the output directory"`
	Version kong.VersionFlag `help:"Print version and exit"`
}

// ServeCmd runs the development server.
type ServeCmd struct {
	Listen       string `short:"l" help:"Override the listen address (host:port or unix:/path)"`
	NoLiveReload bool   `name:"no-livereload" help:"Disable the live-reload websocket"`
}

// BuildCmd renders the static preview site.
type BuildCmd struct {
	Output string `short:"o" help:"Override the output directory" type:"path"`
	Minify bool   `help:"Minify generated pages"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("uipreview"),
		kong.Description("Preview a documentation UI bundle against sample AsciiDoc pages."),
		kong.Vars{"version": SERVER_SIGNATURE},
	)
	if err := kctx.Run(&cli); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (c *CLI) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, nil, err
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	return cfg, newLogger(cfg.LogLevel), nil
}

func (s *ServeCmd) Run(cli *CLI) error {
	cfg, logger, err := cli.load()
	if err != nil {
		return err
	}
	if s.Listen != "" {
		cfg.Listen = s.Listen
	}
	if s.NoLiveReload {
		cfg.LiveReload = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	svc := site.NewService(cfg, site.WithLogger(logger), site.WithPaths(site.DevPaths), site.WithRecorder(recorder))

	var hub *server.LiveReloadHub
	broadcast := func() {}
	if cfg.LiveReload {
		hub = server.NewLiveReloadHub(logger, recorder)
		broadcast = hub.Broadcast
	}

	inv := watcher.NewInvalidator(watcher.Config{
		Invalidate: svc.Invalidate,
		Broadcast:  broadcast,
		Recorder:   recorder,
		Logger:     logger,
	})
	fsw, err := watcher.NewFSWatcher(svc.Dependencies(), inv, logger)
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	go func() {
		if err := fsw.Run(ctx); err != nil {
			logger.Error("watcher", "error", err)
		}
	}()

	logger.Info("starting", "version", SERVER_SIGNATURE, "ui", cfg.UIDir, "preview", cfg.PreviewDir, "livereload", cfg.LiveReload)
	srv := server.New(cfg, svc, server.Options{
		Hub:          hub,
		Metrics:      metrics.HTTPHandler(reg),
		Logger:       logger,
		ServerHeader: SERVER_SIGNATURE,
	})
	return srv.Start(ctx)
}

func (b *BuildCmd) Run(cli *CLI) error {
	cfg, logger, err := cli.load()
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.OutputDir = b.Output
	}
	if b.Minify {
		cfg.Minify = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := site.NewService(cfg, site.WithLogger(logger), site.WithPaths(site.BuildPaths))
	if err := svc.BuildStatic(ctx); err != nil {
		logger.Error("build", "error", err)
		return err
	}
	logger.Info("static build completed", "output", cfg.OutputDir)
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	renderer.RouteEngineLogs(logger, lvl)
	return logger
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dogwalk/server/internal/config"
	"github.com/dogwalk/server/internal/data"
	"github.com/dogwalk/server/internal/httpapi"
	"github.com/dogwalk/server/internal/persist"
	"github.com/dogwalk/server/internal/snapshot"
	"github.com/dogwalk/server/internal/strand"
)

func main() {
	app := &cli.App{
		Name:  "gameserver",
		Usage: "authoritative game server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config-file",
				Aliases:  []string{"c"},
				Usage:    "game document (JSON or YAML) with maps and loot settings",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "www-root",
				Aliases:  []string{"w"},
				Usage:    "directory with the client's static files",
				Required: true,
			},
			&cli.Int64Flag{
				Name:    "tick-period",
				Aliases: []string{"t"},
				Usage:   "internal tick period in ms; 0 leaves ticking to the test endpoint",
			},
			&cli.BoolFlag{
				Name:  "randomize-spawn-points",
				Usage: "spawn dogs at random road positions instead of the first road's start",
			},
			&cli.StringFlag{
				Name:  "state-file",
				Usage: "path for the game state snapshot",
			},
			&cli.Int64Flag{
				Name:  "save-state-period",
				Usage: "autosave period in ms of simulated time; requires state-file",
			},
			&cli.StringFlag{
				Name:  "server-config",
				Usage: "optional TOML file with server, database and logging settings",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("server-config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	g, err := data.Load(c.String("config-file"), log)
	if err != nil {
		return fmt.Errorf("load game document: %w", err)
	}
	if c.Bool("randomize-spawn-points") {
		g.SetRandomSpawn()
	}

	dsn := os.Getenv("GAME_DB_URL")
	if dsn == "" {
		return errors.New("GAME_DB_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, dsn, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	records := persist.NewRecordRepo(db)
	g.SetScoreboard(records)

	gameStrand := strand.New()
	go gameStrand.Run()

	var ticker *strand.Ticker
	if period := c.Int64("tick-period"); period > 0 {
		g.SetInternalTicker()
		ticker = strand.NewTicker(gameStrand, time.Duration(period)*time.Millisecond,
			func(delta time.Duration) { g.GameTick(delta.Milliseconds()) }, log)
	}

	var saver *snapshot.Listener
	if statePath := c.String("state-file"); statePath != "" {
		saver = snapshot.NewListener(g, statePath, c.Int64("save-state-period"), log)
		g.SetListener(saver)
		if err := snapshot.Restore(g, statePath); err != nil {
			return fmt.Errorf("restore game state: %w", err)
		}
	}

	api := httpapi.New(g, gameStrand, records, c.String("www-root"), log)
	srv := &http.Server{
		Addr:    cfg.Server.BindAddress,
		Handler: api.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if ticker != nil {
		ticker.Start()
	}
	log.Info("server started", zap.String("address", cfg.Server.BindAddress))

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	if ticker != nil {
		ticker.Stop()
	}
	if saver != nil {
		gameStrand.Do(saver.SaveNow)
	}
	gameStrand.Stop()

	log.Info("server stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/uiasset/internal/assetmgr"
	"github.com/l1jgo/uiasset/internal/config"
	"github.com/l1jgo/uiasset/internal/core/event"
	coresys "github.com/l1jgo/uiasset/internal/core/system"
	"github.com/l1jgo/uiasset/internal/data"
	"github.com/l1jgo/uiasset/internal/loader"
	"github.com/l1jgo/uiasset/internal/monitoring"
	"github.com/l1jgo/uiasset/internal/persist"
	"github.com/l1jgo/uiasset/internal/pkgfile"
	"github.com/l1jgo/uiasset/internal/scripting"
	"github.com/l1jgo/uiasset/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            UI Asset Host  v0.1.0          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Host loop ─────────────────────────────────────────────────────

type closableLoader interface {
	assetmgr.Loader
	Close()
}

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Asset source
	printSection("Asset source")
	var src closableLoader
	switch cfg.Assets.Source {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(ctx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("blob schema v%d", version))
		src = persist.NewBlobLoader(persist.NewBlobRepo(db), cfg.Database.QueryTimeout, log)
	default:
		src = loader.NewFS(cfg.Assets.Root, log)
		printOK(fmt.Sprintf("reading %s", cfg.Assets.Root))
	}

	// 4. Id mapping
	opts := []assetmgr.Option{assetmgr.WithUnloadImmediately(cfg.Registry.UnloadUnusedImmediately)}
	if cfg.Assets.Mapping != "" {
		mapping, err := data.LoadPackageMapping(cfg.Assets.Mapping)
		if err != nil {
			return fmt.Errorf("load mapping: %w", err)
		}
		opts = append(opts, assetmgr.WithMapping(mapping))
		printStat("package ids", mapping.Count())
	}
	fmt.Println()

	// 5. Manager, events, metrics
	bus := event.NewBus()
	opts = append(opts, assetmgr.WithBus(bus))
	mgr := assetmgr.New(src, pkgfile.NewDecoder(log), log, opts...)

	var metrics *monitoring.Metrics
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetrics()
		metrics.Subscribe(bus)

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.BindAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", zap.Error(err))
			}
		}()
	}

	// 6. Scenario
	engine := scripting.NewEngine(mgr, log)
	defer engine.Close()
	if cfg.Scripting.Scenario != "" {
		if err := engine.RunFile(cfg.Scripting.Scenario); err != nil {
			return fmt.Errorf("scenario: %w", err)
		}
		printOK(fmt.Sprintf("scenario %s", cfg.Scripting.Scenario))
	}

	// 7. Systems
	runner := coresys.NewRunner().WithBudget(cfg.Loop.TickRate, log)
	if metrics != nil {
		runner.Register(system.NewCompletionSystem(mgr, metrics))
	} else {
		runner.Register(system.NewCompletionSystem(mgr, nil))
	}
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewScriptSystem(engine, log))
	runner.Register(system.NewSweepSystem(mgr, cfg.Registry.SweepIntervalTicks, log))

	// 8. Loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()

	printSection("Ready")
	if metricsSrv != nil {
		printReady(fmt.Sprintf("metrics on %s/metrics", cfg.Metrics.BindAddress))
	}
	printReady(fmt.Sprintf("loop started (tick: %s)", cfg.Loop.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Loop.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			mgr.Close()
			src.Close()
			// 關閉期間完成的載入都已過期，只收取並派送事件
			runner.TickPhase(coresys.PhaseInput, 0)
			runner.TickPhase(coresys.PhasePreUpdate, 0)
			if metricsSrv != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = metricsSrv.Shutdown(ctx)
				cancel()
			}
			log.Info("host stopped")
			return nil
		}
	}
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

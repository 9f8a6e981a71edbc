package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/stellarcache/galaxy/internal/apperr"
	"github.com/stellarcache/galaxy/internal/config"
	coresys "github.com/stellarcache/galaxy/internal/core/system"
	"github.com/stellarcache/galaxy/internal/persist"
	"github.com/stellarcache/galaxy/internal/syspath"
	"github.com/stellarcache/galaxy/internal/system"
	"github.com/stellarcache/galaxy/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(seed uint32) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              galaxyd  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mUniverse seed:\033[0m %#08x\n\n", seed)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := humanize.Comma(int64(count))
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

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Environment and config
	_ = godotenv.Load()

	cfg := config.Default()
	cfgPath := "config/galaxy.toml"
	if p := os.Getenv("GALAXY_CONFIG"); p != "" {
		cfgPath = p
	}
	if _, err := os.Stat(cfgPath); err == nil {
		if cfg, err = config.Load(cfgPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if dsn := os.Getenv("GALAXY_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	// 2. Logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Galaxy.UniverseSeed)

	// 3. Save store
	printSection("Database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := persist.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()
	printOK(fmt.Sprintf("%s save store ready", cfg.Database.Driver))
	fmt.Println()

	// 4. Definitions and galaxy
	printSection("Galaxy")

	st, err := world.Build(context.Background(), cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()
	printStat("Custom systems", st.CustomSystems)
	printStat("Factions", st.Factions)
	if len(st.Missing) > 0 {
		printStat("Undefined factions", len(st.Missing))
	}

	persistSys := system.NewPersistenceSystem(st.Galaxy, store, cfg.Database.SaveSlot, cfg.Database.SaveInterval, log)
	restored, err := persistSys.Restore(ctx)
	if err != nil {
		if apperr.Refusable(err) {
			return fmt.Errorf("refusing save slot %q: %w", cfg.Database.SaveSlot, err)
		}
		return fmt.Errorf("restore: %w", err)
	}
	if restored {
		printOK(fmt.Sprintf("restored slot %q", cfg.Database.SaveSlot))
	}
	printOK(fmt.Sprintf("generator %s", st.Galaxy.Generator()))
	fmt.Println()

	// 5. Systems
	runner := coresys.NewRunner()
	runner.Register(system.NewJobFinishSystem(st.Jobs))
	runner.Register(system.NewEventDispatchSystem(st.Bus))
	if cfg.Lookahead.Enabled {
		c := cfg.Lookahead.Center
		limiter := rate.NewLimiter(rate.Limit(cfg.Lookahead.RequestsPerSecond), cfg.Lookahead.Burst)
		lookahead := system.NewLookaheadSystem(st.Galaxy, syspath.Sector(c[0], c[1], c[2]), cfg.Lookahead.Radius, limiter, log)
		defer lookahead.Close()
		runner.Register(lookahead)
	}
	runner.Register(persistSys)
	runner.Register(system.NewCacheMaintenanceSystem(st.Galaxy, cfg.Cache.StatsInterval, log))

	// 6. Loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()
	// finished jobs are picked up between full ticks
	pollRate := cfg.Loop.TickRate / 20
	if pollRate < time.Millisecond {
		pollRate = time.Millisecond
	}
	poller := time.NewTicker(pollRate)
	defer poller.Stop()

	printSection("Ready")
	printReady(fmt.Sprintf("loop running (tick: %s, systems: %d)", cfg.Loop.TickRate, runner.Len()))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Loop.TickRate)
		case <-poller.C:
			runner.TickPhase(coresys.PhaseInput, pollRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := persistSys.Save(saveCtx); err != nil {
				log.Error("final galaxy save failed", zap.Error(err))
			}
			saveCancel()
			st.Galaxy.LogStatistics(false)
			log.Info("galaxyd stopped",
				zap.Uint64("ticks", runner.Ticks()),
				zap.Duration("slowest_tick", runner.Slowest()),
			)
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

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polyarb/config"
	"github.com/alejandrodnm/polyarb/internal/adapters/notify"
	"github.com/alejandrodnm/polyarb/internal/adapters/onchain"
	"github.com/alejandrodnm/polyarb/internal/adapters/paper"
	"github.com/alejandrodnm/polyarb/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyarb/internal/adapters/storage"
	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/engine"
	"github.com/alejandrodnm/polyarb/internal/ledger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one cycle and exit")
	report := flag.Bool("report", false, "print the ledger report and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full decision table (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Error("failed to load config", "err", err, "path", *configPath)
			os.Exit(1)
		}
		// No config file is fine — defaults cover a paper run.
		cfg = config.Default()
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Rebuild the ledger from the persisted fill history so restarts carry
	// cash and positions over.
	history, err := store.LoadFills(ctx)
	if err != nil {
		slog.Error("failed to load fill history", "err", err)
		os.Exit(1)
	}
	state := ledger.Replay(cfg.Engine.StartingCapitalUSDC, history)
	if len(history) > 0 {
		slog.Info("ledger replayed",
			"fills", len(history),
			"cash", state.Cash,
			"realized_pnl", state.RealizedPnL,
		)
	}

	notifier := notify.NewConsole(*table)

	if *report {
		notifier.PrintReport(state.Stats())
		return
	}

	slog.Info("polyarb starting",
		"config", *configPath,
		"interval", cfg.CycleInterval(),
		"capital", state.Cash,
		"once", *once,
	)

	book := ledger.New(ledger.Config{MaxPositionSize: cfg.Engine.MaxPositionSize}, state)

	client := polymarket.NewClient(cfg.API.CLOBBase)
	provider := polymarket.NewSnapshotProvider(client, polymarket.ProviderConfig{
		MaxMarkets: cfg.Engine.MaxMarkets,
	})

	var gas paper.GasSource
	if cfg.Chain.RPCURL != "" {
		estimator, err := onchain.NewGasEstimator(cfg.Chain.RPCURL)
		if err != nil {
			slog.Warn("gas estimator unavailable, using fixed estimate",
				"err", err, "gas_usd", cfg.Engine.GasCostUSDC)
		} else {
			defer estimator.Close()
			gas = estimator
		}
	}
	splitter := paper.NewSplitter(gas, cfg.Engine.GasCostUSDC)

	detector := domain.NewDetector(domain.DetectorConfig{
		Epsilon:              cfg.Engine.Epsilon,
		ConfidenceSaturation: cfg.Engine.ConfidenceSaturation,
		MaxSnapshotAge:       cfg.MaxSnapshotAge(),
	})
	planner := domain.NewPlanner(domain.PlannerConfig{
		MinProfitThreshold: cfg.Engine.MinProfitUSDC,
		MinConfidence:      cfg.Engine.MinConfidence,
		FeeRate:            cfg.Engine.FeeRate,
		MaxPositionSize:    cfg.Engine.MaxPositionSize,
		GasCostEstimate:    splitter.EstimateGasCostUSD(ctx),
	})

	eng := engine.New(engine.Config{
		CycleInterval: cfg.CycleInterval(),
		Workers:       cfg.Engine.Workers,
		SubmitOrders:  true, // paper exchange, accepts locally
	}, engine.Deps{
		Detector: detector,
		Planner:  planner,
		Prices:   provider,
		Ledger:   book,
		Orders:   paper.NewExchange(),
		Splits:   splitter,
		Storage:  store,
		Notifier: notifier,
	})

	if *once {
		decisions, err := eng.RunOnce(ctx)
		if err != nil {
			slog.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		if err := notifier.Notify(ctx, decisions, book.State().Stats()); err != nil {
			slog.Warn("notifier error", "err", err)
		}
		return
	}

	if err := eng.Run(ctx); err != nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	notifier.PrintReport(book.State().Stats())
	slog.Info("polyarb stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

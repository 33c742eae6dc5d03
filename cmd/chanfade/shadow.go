package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chanfade/chanfade/internal/archive"
	"github.com/chanfade/chanfade/internal/backtest"
	"github.com/chanfade/chanfade/internal/config"
	"github.com/chanfade/chanfade/internal/core"
	"github.com/chanfade/chanfade/internal/engine"
	"github.com/chanfade/chanfade/internal/events"
	"github.com/chanfade/chanfade/internal/exec"
	"github.com/chanfade/chanfade/internal/feed"
	"github.com/chanfade/chanfade/internal/journal"
	"github.com/chanfade/chanfade/internal/logger"
	"github.com/chanfade/chanfade/internal/metrics"
	"github.com/chanfade/chanfade/internal/review"
	"github.com/chanfade/chanfade/internal/risk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var shadowFile string

var shadowCmd = &cobra.Command{
	Use:   "shadow",
	Short: "Run a paper trading session against the live feed",
	Long: `Run the strategy in real time with paper execution: signals, orders and
fills are logged and journaled but nothing is sent to a broker. With --file
the session replays a CSV instead of connecting to the gateway.`,
	RunE: runShadow,
}

func init() {
	shadowCmd.Flags().StringVar(&shadowFile, "file", "", "replay a CSV bar file instead of the live feed")
	rootCmd.AddCommand(shadowCmd)
}

func runShadow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(logger.Must(debug))
	if err != nil {
		return err
	}

	sessionLog := ""
	if cfg.Journal.Enabled && cfg.Journal.Path != "" {
		sessionLog = filepath.Join(cfg.Journal.Path, "shadow.log")
	}
	log, err := logger.NewSession(debug, sessionLog)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics endpoint.
	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, reg.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr), zap.String("path", cfg.Metrics.Path))
	}

	// Journal.
	var jnl *journal.Journal
	if cfg.Journal.Enabled {
		store, err := archive.New(cfg.Journal)
		if err != nil {
			return fmt.Errorf("creating archive store: %w", err)
		}
		jnl, err = journal.New(cfg.Journal, store, log)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := jnl.Close(closeCtx); err != nil {
				log.Error("journal close failed", zap.Error(err))
			}
		}()
	}

	// Event sinks.
	collector := backtest.NewCollector(0, cfg.Strategy.PointValue)
	sinks := []events.Publisher{events.NewLog(log), collector}
	if jnl != nil {
		sinks = append(sinks, jnl)
	}
	if reg != nil {
		sinks = append(sinks, metrics.NewSink(reg))
	}

	// Execution chain: engine -> risk gate -> paper fills.
	paper := exec.NewPaper(cfg.Strategy.PointValue, log)
	gate := risk.NewGate(cfg.Risk, paper, log)

	eng, err := engine.New(cfg.Strategy,
		engine.WithLogger(log),
		engine.WithEventSink(events.NewMulti(sinks...)),
		engine.WithOrderSink(gate),
	)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	src, err := buildSource(cfg, reg, log)
	if err != nil {
		return err
	}

	onBar := func(bar core.Bar) error {
		if jnl != nil {
			jnl.RecordBar(bar)
		}
		if reg != nil {
			reg.RecordBar(bar.Source)
		}
		if err := eng.OnBar(bar); err != nil {
			if errors.Is(err, core.ErrBadBar) {
				if reg != nil {
					reg.RecordBadBar()
				}
				log.Warn("bad bar skipped", zap.Time("time", bar.Time), zap.Error(err))
				return nil
			}
			return err
		}
		return nil
	}

	// Warmup: seed the channel before streaming.
	warm, err := src.Warmup(ctx, cfg.Feed.WarmupBars)
	if err != nil {
		return fmt.Errorf("warmup failed: %w", err)
	}
	for _, bar := range warm {
		if err := onBar(bar); err != nil {
			return fmt.Errorf("warmup bar: %w", err)
		}
	}
	log.Info("session started",
		zap.String("source", src.Name()),
		zap.String("symbol", cfg.Feed.Symbol),
		zap.Int("warmup_bars", len(warm)),
	)

	// Stream until the data runs out or we are told to stop.
	for {
		bar, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, core.ErrNoData) {
				log.Info("bar stream exhausted")
				break
			}
			if ctx.Err() != nil {
				log.Info("shutdown requested")
				break
			}
			return fmt.Errorf("feed error: %w", err)
		}
		if err := onBar(bar); err != nil {
			return fmt.Errorf("engine halted: %w", err)
		}
	}

	printSessionSummary(eng, gate, paper)

	if cfg.Review.Enabled {
		if err := reviewSession(ctx, cfg, log, eng, collector); err != nil {
			log.Error("session review failed", zap.Error(err))
		}
	}
	return nil
}

func buildSource(cfg *config.Config, reg *metrics.Registry, log *zap.Logger) (feed.Source, error) {
	if shadowFile != "" {
		bars, err := feed.LoadCSV(shadowFile)
		if err != nil {
			return nil, fmt.Errorf("loading bars: %w", err)
		}
		return feed.NewReplay("csv", bars), nil
	}

	if cfg.Feed.ProjectX.BaseURL == "" || cfg.Feed.ProjectX.APIKey == "" {
		return nil, fmt.Errorf("projectx feed not configured; pass --file for a replay session")
	}

	opts := []feed.ClientOption{feed.WithClientLogger(log)}
	if reg != nil {
		opts = append(opts, feed.WithRecorder(reg))
	}
	client := feed.NewProjectXClient(
		cfg.Feed.ProjectX.BaseURL,
		cfg.Feed.ProjectX.Username,
		cfg.Feed.ProjectX.APIKey,
		opts...,
	)
	return feed.NewLive(client, cfg.Feed.Symbol, cfg.Feed.IntervalMinutes, log), nil
}

func printSessionSummary(eng *engine.Engine, gate *risk.Gate, paper *exec.Paper) {
	stats := eng.Stats()
	gateState := gate.State()

	fmt.Println("\n=== Session Summary ===")
	fmt.Printf("Bars:       %d\n", stats.Bars)
	fmt.Printf("Signals:    %d\n", stats.Signals)
	fmt.Printf("Trades:     %d (%d wins, %d losses)\n", paper.Trades(), stats.Wins, stats.Losses)
	fmt.Printf("P&L:        %+.2f pts  ($%+.2f)\n", paper.PnLPoints(), paper.PnLDollars())
	if gateState.Suppressed > 0 {
		fmt.Printf("Suppressed: %d entries (%s)\n", gateState.Suppressed, gateState.HaltReason)
	}
	if pos, ok := eng.Position(); ok {
		fmt.Printf("Open:       %s from %.2f\n", pos.Direction, pos.EntryPrice)
	}
}

func reviewSession(ctx context.Context, cfg *config.Config, log *zap.Logger, eng *engine.Engine, collector *backtest.Collector) error {
	trades := collector.Trades()
	if len(trades) == 0 {
		log.Info("no trades to review")
		return nil
	}

	result := &backtest.Result{
		Symbol:    cfg.Feed.Symbol,
		StartTime: trades[0].EntryTime,
		EndTime:   trades[len(trades)-1].ExitTime,
		Bars:      eng.Stats().Bars,
		Signals:   eng.Stats().Signals,
		Trades:    trades,
		Stats:     backtest.CalculateStats(trades),
	}
	if pos, ok := eng.Position(); ok {
		result.Open = &pos
	}

	provider, err := review.NewProvider(cfg.Review)
	if err != nil {
		return err
	}
	text, err := review.NewReviewer(provider, log).Review(ctx, result)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Session Review ===")
	fmt.Println(text)
	return nil
}

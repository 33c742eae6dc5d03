package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/chanfade/chanfade/internal/backtest"
	"github.com/chanfade/chanfade/internal/core"
	"github.com/chanfade/chanfade/internal/feed"
	"github.com/chanfade/chanfade/internal/logger"
	"github.com/chanfade/chanfade/internal/review"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	backtestFile     string
	backtestSymbol   string
	backtestSlippage float64
	backtestResample int
	backtestReview   bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay a CSV bar file through the strategy",
	Long:  "Run the strategy against historical bars from a CSV file and show performance statistics",
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestFile, "file", "", "CSV bar file (required)")
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "symbol label (defaults to config)")
	backtestCmd.Flags().Float64Var(&backtestSlippage, "slippage", 0, "slippage in points per side")
	backtestCmd.Flags().IntVar(&backtestResample, "resample", 0, "resample bars to N minutes before the run")
	backtestCmd.Flags().BoolVar(&backtestReview, "review", false, "ask the configured LLM to critique the run")

	backtestCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	symbol := backtestSymbol
	if symbol == "" {
		symbol = cfg.Feed.Symbol
	}

	bars, err := feed.LoadCSV(backtestFile)
	if err != nil {
		return fmt.Errorf("loading bars: %w", err)
	}
	if backtestResample > 0 {
		bars = feed.Resample(bars, time.Duration(backtestResample)*time.Minute)
	}
	log.Info("bars loaded", zap.String("file", backtestFile), zap.Int("bars", len(bars)))

	b := backtest.New(cfg.Strategy,
		backtest.WithLogger(log),
		backtest.WithSlippage(backtestSlippage),
	)
	result, err := b.Run(cmd.Context(), symbol, bars)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printResult(result)

	if backtestReview {
		if !cfg.Review.Enabled {
			return fmt.Errorf("review requested but not configured")
		}
		provider, err := review.NewProvider(cfg.Review)
		if err != nil {
			return err
		}
		text, err := review.NewReviewer(provider, log).Review(cmd.Context(), result)
		if err != nil {
			return fmt.Errorf("review failed: %w", err)
		}
		fmt.Println("\n=== Session Review ===")
		fmt.Println(text)
	}

	return nil
}

func printResult(result *backtest.Result) {
	stats := result.Stats

	fmt.Println("=== chanfade Backtest ===")
	fmt.Printf("Symbol:   %s\n", result.Symbol)
	fmt.Printf("Period:   %s to %s\n",
		result.StartTime.Format("2006-01-02 15:04"),
		result.EndTime.Format("2006-01-02 15:04"))
	fmt.Printf("Bars:     %d (%d rejected)\n", result.Bars, result.BadBars)
	fmt.Println()
	fmt.Printf("Trades:        %d\n", stats.Trades)
	fmt.Printf("Win rate:      %.1f%% (%d/%d)\n", stats.WinRate, stats.Wins, stats.Trades)
	fmt.Printf("P&L:           %+.2f pts  ($%+.2f)\n", stats.PnLPoints, stats.PnLDollars)
	fmt.Printf("Avg win:       %+.2f pts\n", stats.AvgWinPts)
	fmt.Printf("Avg loss:      %+.2f pts\n", stats.AvgLossPts)
	fmt.Printf("Profit factor: %.2f\n", stats.ProfitFactor)
	fmt.Printf("Max drawdown:  %.2f pts\n", stats.MaxDrawdownPts)
	fmt.Printf("Avg hold:      %.1f bars\n", stats.AvgBarsHeld)

	if len(stats.ExitReasons) > 0 {
		fmt.Println("\nExits:")
		reasons := make([]core.ExitReason, 0, len(stats.ExitReasons))
		for r := range stats.ExitReasons {
			reasons = append(reasons, r)
		}
		sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
		for _, r := range reasons {
			fmt.Printf("  %-10s %d\n", r, stats.ExitReasons[r])
		}
	}

	if result.Open != nil {
		fmt.Printf("\nStill open at end of data: %s from %.2f\n",
			result.Open.Direction, result.Open.EntryPrice)
	}

	if debug && len(result.Trades) > 0 {
		fmt.Println("\nTrades:")
		w := os.Stdout
		for i, t := range result.Trades {
			fmt.Fprintf(w, "%3d. %s %-5s %-11s entry %.2f exit %.2f (%s) %+.2f pts, %d bars\n",
				i+1, t.EntryTime.Format("01-02 15:04"), t.Direction, t.EntryType,
				t.EntryPrice, t.ExitPrice, t.ExitReason, t.PnLPoints, t.BarsHeld)
		}
	}
}

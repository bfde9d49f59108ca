package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bytedance/sonic"

	"github.com/WarenOdhiambo1/oddsengine/internal/app"
	"github.com/WarenOdhiambo1/oddsengine/internal/config"
	"github.com/WarenOdhiambo1/oddsengine/internal/observability"
	"github.com/WarenOdhiambo1/oddsengine/internal/platform/logging"
	"github.com/WarenOdhiambo1/oddsengine/internal/usecase"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("shutdown tracing", "error", err)
		}
	}()

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init profiler", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Error("stop profiler", "error", err)
		}
	}()

	engine, closeEngine, err := app.NewEngine(cfg, logger)
	if err != nil {
		logger.Error("build engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeEngine(); err != nil {
			logger.Error("close engine", "error", err)
		}
	}()

	if err := run(ctx, engine, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, engine *app.Engine, command string, args []string) error {
	switch command {
	case "train":
		return runTrain(ctx, engine, args)
	case "predict":
		return runPredict(ctx, engine, args)
	case "detect":
		return runDetect(ctx, engine, args)
	case "backtest":
		return runBacktest(ctx, engine, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runTrain(ctx context.Context, engine *app.Engine, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	before := fs.String("before", "", "only train on matches finished before this RFC3339 time (default: now)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	input := usecase.TrainInput{}
	if *before != "" {
		bound, err := time.Parse(time.RFC3339, *before)
		if err != nil {
			return fmt.Errorf("invalid -before %q: %w", *before, err)
		}
		input.Before = bound
	}

	result, err := engine.Training.TrainEnsemble(ctx, input)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runPredict(ctx context.Context, engine *app.Engine, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	matchID := fs.String("match", "", "match id to predict")
	all := fs.Bool("all", false, "predict every scheduled fixture")
	method := fs.String("method", "", "model to use: dixon_coles or ensemble (default: ensemble)")
	fallback := fs.Bool("fallback-dixon-coles", false, "fall back to the analytic model when no ensemble artifact is published")
	if err := fs.Parse(args); err != nil {
		return err
	}

	parsed, err := usecase.ParseMethod(*method)
	if err != nil {
		return err
	}

	if *all {
		result, err := engine.Predictions.PredictBatch(ctx, usecase.PredictBatchInput{
			Method:             parsed,
			FallbackDixonColes: *fallback,
			MaxWorkers:         engine.BatchWorkers,
			TaskTimeout:        engine.BatchTaskTimeout,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	if *matchID == "" {
		return fmt.Errorf("predict requires -match or -all")
	}
	pred, err := engine.Predictions.Predict(ctx, usecase.PredictInput{
		MatchID:            *matchID,
		Method:             parsed,
		FallbackDixonColes: *fallback,
	})
	if err != nil {
		return err
	}
	return printJSON(pred)
}

func runDetect(ctx context.Context, engine *app.Engine, args []string) error {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	matchID := fs.String("match", "", "match id to scan for value")
	all := fs.Bool("all", false, "scan every match with h2h odds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *all {
		result, err := engine.Value.DetectBatch(ctx, usecase.DetectBatchInput{
			MaxWorkers:  engine.BatchWorkers,
			TaskTimeout: engine.BatchTaskTimeout,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	if *matchID == "" {
		return fmt.Errorf("detect requires -match or -all")
	}
	found, err := engine.Value.DetectOpportunities(ctx, *matchID)
	if err != nil {
		return err
	}
	return printJSON(found)
}

func runBacktest(ctx context.Context, engine *app.Engine, args []string) error {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	method := fs.String("method", "", "model to replay: dixon_coles or ensemble (default: ensemble)")
	before := fs.String("before", "", "only replay matches finished before this RFC3339 time (default: now)")
	limit := fs.Int("limit", 0, "keep only the most recent N matches (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	parsed, err := usecase.ParseMethod(*method)
	if err != nil {
		return err
	}

	input := usecase.BacktestInput{Method: parsed, Limit: *limit}
	if *before != "" {
		bound, err := time.Parse(time.RFC3339, *before)
		if err != nil {
			return fmt.Errorf("invalid -before %q: %w", *before, err)
		}
		input.Before = bound
	}

	report, err := engine.Predictions.Backtest(ctx, input)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func printJSON(v any) error {
	out, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <train|predict|detect|backtest> [flags]\n", prog)
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s train\n", prog)
	fmt.Fprintf(os.Stderr, "  %s predict -match m-123 -method ensemble -fallback-dixon-coles\n", prog)
	fmt.Fprintf(os.Stderr, "  %s predict -all\n", prog)
	fmt.Fprintf(os.Stderr, "  %s detect -match m-123\n", prog)
	fmt.Fprintf(os.Stderr, "  %s backtest -method dixon_coles -limit 200\n", prog)
}

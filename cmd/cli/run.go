package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/mediafetch/internal/app"
	"github.com/yourusername/mediafetch/internal/domain"
	"github.com/yourusername/mediafetch/internal/events"
	"github.com/yourusername/mediafetch/internal/infrastructure"
	"github.com/yourusername/mediafetch/pkg/logger"
)

var runCmd = &cobra.Command{
	Use:   "run [url...]",
	Short: "Fetch references in-process, without a server",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config, err := app.LoadConfig(configPath)
		exitOnError(err)

		if output, _ := cmd.Flags().GetString("output"); output != "" {
			config.Fetch.OutputDir = output
		}
		if cmd.Flags().Changed("concurrency") {
			config.Fetch.MaxConcurrentItems, _ = cmd.Flags().GetInt("concurrency")
		}

		level := "warn"
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = "debug"
		}
		log, err := logger.New(logger.Config{Level: level, Format: "console", OutputPath: "stderr"})
		exitOnError(err)
		defer log.Sync()

		resolver, closeCache, err := infrastructure.NewResolverFromConfig(config, log)
		exitOnError(err)
		defer closeCache()

		// The fetch log is best effort for in-process runs
		var sinks []domain.EventSink
		multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: config.Logging.Level, LogsDir: config.Logging.LogsDir})
		if err != nil {
			log.Warn("Fetch log disabled", zap.Error(err))
		} else {
			defer multiLog.Close()
			sinks = append(sinks, events.LogSink(multiLog.Fetch()))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := runBatch(ctx, resolver, config.Fetch, args, os.Stdout, log, sinks...)
		fmt.Println()
		printResult(os.Stdout, result)
		if err != nil {
			if multiLog != nil {
				multiLog.LogAppError("In-process batch failed", zap.Error(err))
			}
			exitOnError(err)
		}
		if result.Failed > 0 {
			os.Exit(2)
		}
	},
}

// lineSink prints each event as a text line; workers publish concurrently
func lineSink(w io.Writer) domain.EventSink {
	var mu sync.Mutex
	return domain.EventSinkFunc(func(event domain.DownloadEvent) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, event.Line())
	})
}

// runBatch runs the orchestrator in-process, printing events to out. An
// interrupted run still returns the outcome of every item.
func runBatch(ctx context.Context, resolver domain.Resolver, config domain.FetchConfig, refs []string, out io.Writer, log *zap.Logger, extra ...domain.EventSink) (*domain.BatchResult, error) {
	orchestrator := app.NewOrchestrator(resolver, infrastructure.FSGate{}, config, log)
	sink := events.Tee(append([]domain.EventSink{lineSink(out)}, extra...)...)

	return orchestrator.Run(ctx, refs, sink)
}

func init() {
	runCmd.Flags().StringP("output", "o", "", "Output directory (overrides fetch.output_dir)")
	runCmd.Flags().IntP("concurrency", "c", 0, "Concurrent items per collection, 0 for unbounded (overrides fetch.max_concurrent_items)")
	runCmd.Flags().BoolP("verbose", "v", false, "Log resolver and worker activity to stderr")
}

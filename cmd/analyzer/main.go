package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"seamargin/internal/config"
	"seamargin/internal/infrastructure"
	"seamargin/internal/operations"
	"seamargin/pkg/contracts"
)

func main() {
	subscriptionPath := flag.String("subscription", "", "path to the subscription .xlsx file (required)")
	ledgerPath := flag.String("ledger", "", "path to the reconciliation ledger .xlsx file (optional)")
	outPath := flag.String("out", "", "output directory hint; the report is written next to this path (defaults to the subscription file's directory)")
	configFile := flag.String("config", "", "path to an optional YAML config file")
	logLevel := flag.String("log-level", "", "override log level (debug, info, warn, error)")
	trace := flag.Bool("trace", false, "enable trace export to stdout")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	if *subscriptionPath == "" {
		fmt.Fprintln(os.Stderr, "用法: analyzer -subscription <海运订阅文件> [-ledger <预对账文件>] [-out <输出目录>]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *trace {
		cfg.Telemetry.Enabled = true
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	shutdown, err := infrastructure.InitTracing(cfg.Telemetry)
	if err != nil {
		logger.Error("Failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outputHint := *outPath
	if outputHint == "" {
		outputHint = *subscriptionPath
	}

	runner := operations.NewRunner(cfg, logger)
	result, err := runner.Run(ctx, operations.Request{
		SubscriptionPath: *subscriptionPath,
		LedgerPath:       *ledgerPath,
		OutputPath:       outputHint,
		OnProgress: func(message string) {
			fmt.Println(message)
		},
	})

	stop()
	if shutdownErr := shutdown(context.Background()); shutdownErr != nil {
		logger.Warn("Tracing shutdown failed", slog.String("error", shutdownErr.Error()))
	}

	if err != nil {
		if operations.IsCancelled(err) {
			fmt.Println("分析已取消")
			return
		}
		logger.Error("Analysis failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "分析失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("分析完成: %s\n", result.CombinedPath)
	for _, path := range result.DepartmentFiles {
		fmt.Printf("部门报表: %s\n", path)
	}
	// Per-department failures are already logged; the run still succeeded.
	if result.SplitFailures > 0 {
		fmt.Fprintf(os.Stderr, "部分部门报表生成失败: %d\n", result.SplitFailures)
	}
}

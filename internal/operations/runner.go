package operations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"seamargin/internal/config"
	"seamargin/internal/dataprocessing"
	"seamargin/internal/exporter"
	"seamargin/internal/infrastructure"
	"seamargin/pkg/contracts/domain"
)

// TracerName identifies the pipeline's tracer.
const TracerName = "seamargin.pipeline"

// Request describes one analysis run. SubscriptionPath is mandatory;
// LedgerPath is optional and skips the reconciliation stages when empty.
// OutputPath is a hint: its directory is reused, its filename is replaced by
// the deterministic naming scheme.
type Request struct {
	SubscriptionPath string
	LedgerPath       string
	OutputPath       string
	OnProgress       ProgressFunc
}

// Result reports where the run's artifacts were written.
type Result struct {
	RunID           string
	BusinessMonth   string
	CombinedPath    string
	DepartmentFiles []string
	SplitFailures   int
}

// Runner executes the five pipeline stages strictly in order on the calling
// goroutine. Callers that need a responsive UI run it on a worker goroutine
// and cancel through the context.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	tracer trace.Tracer
}

// NewRunner creates a pipeline runner.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer(TracerName),
	}
}

// Run executes the full pipeline. It returns ErrCancelled when the context is
// cancelled between stages; schema and unexpected errors propagate with their
// message. Per-department split failures are logged and counted, never fatal.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if req.SubscriptionPath == "" {
		return nil, ErrSubscriptionRequired
	}

	runID := uuid.NewString()
	ctx = infrastructure.WithRunID(ctx, runID)
	logger := r.logger.With(slog.String("run_id", runID))

	progress := func(message string) {
		if req.OnProgress != nil {
			req.OnProgress(message)
		}
		logger.Info("pipeline status", slog.String("status", message))
	}

	result := &Result{RunID: runID}

	var subTable *dataprocessing.Table
	err := r.stage(ctx, StageReadSubscription, func(context.Context) error {
		progress(StatusReadSubscription)
		var err error
		subTable, err = dataprocessing.ReadTable(req.SubscriptionPath)
		return err
	})
	if err != nil {
		return nil, err
	}

	var subResult *dataprocessing.SubscriptionResult
	err = r.stage(ctx, StageClassify, func(context.Context) error {
		progress(StatusClassify)
		classifier := dataprocessing.NewSubscriptionClassifier(logger, r.cfg.Columns.Subscription, r.cfg.Analysis.BusinessLine)
		var err error
		subResult, err = classifier.Classify(subTable)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.BusinessMonth = subResult.BusinessMonth

	input := exporter.Input{
		BusinessMonth:    subResult.BusinessMonth,
		ReportRows:       subResult.Rows,
		SubscriptionGrid: subResult.Grid,
	}

	if req.LedgerPath != "" {
		var ledgerTable *dataprocessing.Table
		err = r.stage(ctx, StageReadLedger, func(context.Context) error {
			progress(StatusReadLedger)
			var err error
			ledgerTable, err = dataprocessing.ReadTable(req.LedgerPath)
			return err
		})
		if err != nil {
			return nil, err
		}

		var ledgerResult *dataprocessing.ReconciliationResult
		err = r.stage(ctx, StageAnalyzeLedger, func(context.Context) error {
			progress(StatusAnalyzeLedger)
			aggregator := dataprocessing.NewReconciliationAggregator(logger, r.cfg.Columns.Ledger)
			var err error
			ledgerResult, err = aggregator.Aggregate(ledgerTable)
			return err
		})
		if err != nil {
			return nil, err
		}

		var summaries []domain.CustomerSummary
		err = r.stage(ctx, StageSummarize, func(context.Context) error {
			summaries = dataprocessing.NewCustomerSummaryBuilder(logger).Build(ledgerResult.Details)
			return nil
		})
		if err != nil {
			return nil, err
		}

		input.HasLedger = true
		input.LedgerGrid = ledgerResult.Grid
		input.Details = ledgerResult.Details
		input.Summaries = summaries
	}

	err = r.stage(ctx, StageAssemble, func(context.Context) error {
		progress(StatusAssemble)
		assembler := exporter.NewAssembler(logger, r.cfg)
		var err error
		result.CombinedPath, _, err = assembler.Assemble(input, req.OutputPath)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, StageSplit, func(stageCtx context.Context) error {
		progress(StatusSplitStart)
		splitter := exporter.NewSplitter(logger, r.cfg)
		outcomes, err := splitter.Split(stageCtx, result.CombinedPath, result.BusinessMonth)
		if err != nil {
			return err
		}
		for _, outcome := range outcomes {
			if outcome.Err != nil {
				// Isolated per department: counted, already logged by the
				// splitter, never re-raised.
				result.SplitFailures++
				continue
			}
			result.DepartmentFiles = append(result.DepartmentFiles, outcome.Path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	progress(StatusSplitDone)

	logger.Info("pipeline finished",
		slog.String("combined_path", result.CombinedPath),
		slog.Int("department_files", len(result.DepartmentFiles)),
		slog.Int("split_failures", result.SplitFailures))

	return result, nil
}

// stage polls cancellation, then runs fn inside a span.
func (r *Runner) stage(ctx context.Context, stageID string, fn func(context.Context) error) error {
	if err := checkCancelled(ctx); err != nil {
		return err
	}

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("pipeline.%s", stageID),
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	if err := fn(ctx); err != nil {
		if IsCancelled(err) {
			span.SetStatus(codes.Error, "cancelled")
			return ErrCancelled
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", stageID, err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

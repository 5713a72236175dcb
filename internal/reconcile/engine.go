package reconcile

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/cdr-reconcile/internal/config"
	"github.com/sells-group/cdr-reconcile/internal/model"
	"github.com/sells-group/cdr-reconcile/internal/stage"
	"github.com/sells-group/cdr-reconcile/internal/telemetry"
)

// Reconcile is the engine's single entry point, per spec.md §6.1: it
// ingests both CDR sides into a job-scoped scratch database, matches,
// classifies, detects hung-call clusters, and returns a bounded,
// deterministically ordered result. The contract is all-or-nothing —
// either a complete *model.JobOutput comes back, or an error does, and
// every scratch resource is gone either way.
func Reconcile(ctx context.Context, cfg *config.Config, input model.JobInput) (*model.JobOutput, error) {
	scratch, err := newJobScratch(cfg.Scratch.Dir)
	if err != nil {
		return nil, internalError("create job scratch", err)
	}
	defer func() {
		if err := scratch.cleanup(); err != nil {
			zap.L().Error("reconcile: scratch cleanup failed", zap.String("job_id", scratch.jobID), zap.Error(err))
		}
	}()

	rec := telemetry.NewRecorder(scratch.jobID)

	store, err := stage.Open(ctx, scratch.path("stage.db"))
	if err != nil {
		return nil, internalError("open staging store", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			zap.L().Error("reconcile: staging store close failed", zap.String("job_id", scratch.jobID), zap.Error(err))
		}
	}()

	var totalRows int64
	if phaseErr := rec.Phase("ingest", func() (int64, error) {
		if err := ingestSides(ctx, store, scratch.dir, input, cfg.Stage.BatchSize, cfg.Limits.MaxRows, cfg.Limits.MaxFileBytes); err != nil {
			return 0, err
		}
		a, err := store.CountRows(ctx, model.SideA)
		if err != nil {
			return 0, err
		}
		b, err := store.CountRows(ctx, model.SideB)
		if err != nil {
			return 0, err
		}
		totalRows = a + b
		return totalRows, nil
	}); phaseErr != nil {
		return nil, asEngineError(phaseErr)
	}

	if err := store.CreateIndexes(ctx); err != nil {
		return nil, internalError("create staging indexes", err)
	}

	var pairs []model.MatchPair
	if phaseErr := rec.Phase("match", func() (int64, error) {
		var err error
		pairs, err = match(ctx, store, cfg.Matcher.ToleranceSeconds)
		return int64(len(pairs)), err
	}); phaseErr != nil {
		return nil, internalError("match candidates", phaseErr)
	}

	collector := newCollector(cfg.Stage.TopK)
	var classifyErr error
	if phaseErr := rec.Phase("classify", func() (int64, error) {
		collector.addAll(classifyMatched(pairs))

		unmatchedA, err := classifyUnmatched(ctx, store, model.SideA)
		if err != nil {
			classifyErr = internalError("classify unmatched side a", err)
			return 0, classifyErr
		}
		collector.addAll(unmatchedA)

		unmatchedB, err := classifyUnmatched(ctx, store, model.SideB)
		if err != nil {
			classifyErr = internalError("classify unmatched side b", err)
			return 0, classifyErr
		}
		collector.addAll(unmatchedB)

		return int64(len(unmatchedA) + len(unmatchedB)), nil
	}); phaseErr != nil {
		return nil, classifyErr
	}

	// The two hung-call aggregates are independent SQL queries over
	// disjoint tables; spec.md §5 sanctions running them concurrently.
	var hungA, hungB hungCallSummary
	if phaseErr := rec.Phase("hung_calls", func() (int64, error) {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			var exemplars []model.Discrepancy
			hungA, exemplars, err = detectHungCalls(gctx, store, model.SideA)
			if err == nil {
				collector.addAll(exemplars)
			}
			return err
		})
		g.Go(func() error {
			var err error
			var exemplars []model.Discrepancy
			hungB, exemplars, err = detectHungCalls(gctx, store, model.SideB)
			if err == nil {
				collector.addAll(exemplars)
			}
			return err
		})
		if err := g.Wait(); err != nil {
			return 0, err
		}
		return hungA.Calls + hungB.Calls, nil
	}); phaseErr != nil {
		return nil, internalError("detect hung calls", phaseErr)
	}

	var summary model.Summary
	if phaseErr := rec.Phase("aggregate", func() (int64, error) {
		var err error
		summary, err = buildSummary(ctx, store, int64(len(pairs)), hungA, hungB, collector)
		return collector.totalCount(), err
	}); phaseErr != nil {
		return nil, internalError("build summary", phaseErr)
	}

	discrepancies := collector.readout()
	total := collector.totalCount()

	return &model.JobOutput{
		JobID:                 scratch.jobID,
		Summary:               summary,
		Discrepancies:         discrepancies,
		HasMore:               total > int64(len(discrepancies)),
		TotalDiscrepancyCount: total,
	}, nil
}

// asEngineError passes an already-typed *Error through unchanged and
// wraps anything else as internal, so callers only ever see *Error.
func asEngineError(err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return internalError("ingest", err)
}

package reconcile

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/cdr-reconcile/internal/decode"
	"github.com/sells-group/cdr-reconcile/internal/model"
	"github.com/sells-group/cdr-reconcile/internal/normalize"
	"github.com/sells-group/cdr-reconcile/internal/stage"
)

// ingestSides decodes, normalizes, and stages both input files. Side A and
// side B have no data dependency on each other, so they run concurrently —
// the one point of parallelism spec.md §5 sanctions before the matcher's
// strictly sequential greedy pass begins.
func ingestSides(ctx context.Context, store *stage.Store, scratchDir string, input model.JobInput, batchSize int, maxRows, maxFileBytes int64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ingestSide(ctx, store, model.SideA, scratchDir, input.FileAPath, input.FileADeclaredName, input.MappingA, batchSize, maxRows, maxFileBytes)
	})
	g.Go(func() error {
		return ingestSide(ctx, store, model.SideB, scratchDir, input.FileBPath, input.FileBDeclaredName, input.MappingB, batchSize, maxRows, maxFileBytes)
	})
	return g.Wait()
}

func ingestSide(ctx context.Context, store *stage.Store, side model.Side, scratchDir, path, declaredName string, mapping model.Mapping, batchSize int, maxRows, maxFileBytes int64) error {
	if err := validateMapping(mapping); err != nil {
		return err
	}
	if err := checkFileSize(path, maxFileBytes); err != nil {
		return err
	}

	rowCh, errCh := decode.Stream(ctx, path, decode.Options{
		DeclaredName: declaredName,
		ScratchDir:   filepath.Join(scratchDir, "decode-"+side.String()),
	})

	batch := make([]model.CanonicalRow, 0, batchSize)
	var rowCount int64

	for row := range rowCh {
		rowCount++
		if rowCount > maxRows {
			return limitError("row count exceeds configured maximum", nil)
		}
		batch = append(batch, canonicalizeRow(row, mapping))
		if len(batch) >= batchSize {
			if err := store.InsertBatch(ctx, side, batch); err != nil {
				return internalError("stage insert batch", err)
			}
			batch = batch[:0]
		}
	}

	if err := <-errCh; err != nil {
		return decodeError("decode input file", err)
	}
	if len(batch) > 0 {
		if err := store.InsertBatch(ctx, side, batch); err != nil {
			return internalError("stage insert batch", err)
		}
	}
	return nil
}

// checkFileSize re-checks the caller-enforced byte limit of spec.md §6.2
// defensively, the same way ingestSide re-checks the row limit.
func checkFileSize(path string, maxFileBytes int64) error {
	if maxFileBytes <= 0 {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return inputError("stat input file", err)
	}
	if info.Size() > maxFileBytes {
		return limitError("file size exceeds configured maximum", nil)
	}
	return nil
}

// validateMapping rejects a mapping missing any of model.RequiredFields,
// per spec.md §6.2's "mapping must cover every required canonical field".
func validateMapping(mapping model.Mapping) error {
	for _, field := range model.RequiredFields {
		if _, ok := mapping[field]; !ok {
			return inputError("mapping missing required field "+string(field), nil)
		}
	}
	return nil
}

// canonicalizeRow applies the four normalizers to row per mapping, then
// clamps a negative normalized duration to 0 — the Canonical Row invariant
// of spec.md §4.2 applied at exactly one point, immediately after decode.
func canonicalizeRow(row decode.Row, mapping model.Mapping) model.CanonicalRow {
	cell := func(field model.CanonicalField) any {
		col, ok := mapping[field]
		if !ok {
			return nil
		}
		return row.Cells[col]
	}

	duration := normalize.Duration(cell(model.FieldBilledDuration))
	if duration < 0 {
		duration = 0
	}

	return model.CanonicalRow{
		ANumber:        normalize.Phone(cell(model.FieldANumber)),
		BNumber:        normalize.Phone(cell(model.FieldBNumber)),
		SeizeTime:      normalize.Timestamp(cell(model.FieldSeizeTime)),
		AnswerTime:     normalize.Timestamp(cell(model.FieldAnswerTime)),
		EndTime:        normalize.Timestamp(cell(model.FieldEndTime)),
		BilledDuration: duration,
		Rate:           normalize.Rate(cell(model.FieldRate)),
		LRN:            normalize.Phone(cell(model.FieldLRN)),
		RawIndex:       int64(row.Index),
	}
}

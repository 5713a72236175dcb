package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cdr-reconcile/internal/model"
)

func TestStore_CandidateCursor_MatchesWithinTolerance(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertBatch(ctx, model.SideA, []model.CanonicalRow{
		sampleRow("5551234567", "5559876543", 1700000000, 120, "0.015", "X", 0),
	}))
	require.NoError(t, s.InsertBatch(ctx, model.SideB, []model.CanonicalRow{
		sampleRow("5551234567", "5559876543", 1700000059, 120, "0.015", "X", 0),
	}))

	rows, err := s.CandidateCursor(ctx, 60)
	require.NoError(t, err)
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		c, err := ScanCandidate(rows)
		require.NoError(t, err)
		candidates = append(candidates, c)
	}
	require.NoError(t, rows.Err())
	require.Len(t, candidates, 1)
	assert.Equal(t, int64(1), candidates[0].AID)
	assert.Equal(t, int64(1), candidates[0].BID)
}

func TestStore_CandidateCursor_OutsideToleranceExcluded(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertBatch(ctx, model.SideA, []model.CanonicalRow{
		sampleRow("5551234567", "5559876543", 1700000000, 120, "0.015", "X", 0),
	}))
	require.NoError(t, s.InsertBatch(ctx, model.SideB, []model.CanonicalRow{
		sampleRow("5551234567", "5559876543", 1700000061, 120, "0.015", "X", 0),
	}))

	rows, err := s.CandidateCursor(ctx, 60)
	require.NoError(t, err)
	defer rows.Close()

	assert.False(t, rows.Next())
}

func TestStore_UnmatchedCursor_ExcludesRecordedMatches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertBatch(ctx, model.SideA, []model.CanonicalRow{
		sampleRow("5551234567", "5559876543", 1700000000, 120, "0.015", "X", 0),
		sampleRow("5550000000", "5551111111", 1700000200, 60, "0.015", "Y", 1),
	}))
	require.NoError(t, s.RecordMatches(ctx, []int64{1}, nil))

	rows, err := s.UnmatchedCursor(ctx, model.SideA)
	require.NoError(t, err)
	defer rows.Close()

	var count int
	for rows.Next() {
		id, aNum, _, _, _, _, _, _, _, _, err := ScanUnmatchedRow(rows)
		require.NoError(t, err)
		assert.Equal(t, int64(2), id)
		assert.Equal(t, "5550000000", aNum)
		count++
	}
	assert.Equal(t, 1, count)
}

func TestStore_CountUnmatchedByZeroDuration(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertBatch(ctx, model.SideA, []model.CanonicalRow{
		sampleRow("1", "2", 100, 0, "0.015", "", 0),
		sampleRow("3", "4", 200, 60, "0.015", "", 1),
	}))

	zero, err := s.CountUnmatchedByZeroDuration(ctx, model.SideA, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), zero)

	billed, err := s.CountUnmatchedByZeroDuration(ctx, model.SideA, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), billed)
}

func TestStore_HungCallGroups(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rows := make([]model.CanonicalRow, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, sampleRow("1", "2", int64(100+i), 240, "0.010", "", int64(i)))
	}
	require.NoError(t, s.InsertBatch(ctx, model.SideB, rows))

	groups, err := s.HungCallGroups(ctx, model.SideB)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(240), groups[0].Duration)
	assert.Equal(t, int64(5), groups[0].Count)
}

func TestStore_BilledTotals(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertBatch(ctx, model.SideA, []model.CanonicalRow{
		sampleRow("1", "2", 100, 13, "0.015", "", 0), // increments=3, cost=0.0045
	}))

	totalCost, totalSeconds, err := s.BilledTotals(ctx, model.SideA)
	require.NoError(t, err)
	assert.InDelta(t, 0.0045, totalCost, 1e-9)
	assert.Equal(t, float64(13), totalSeconds)
}

package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cdr-reconcile/internal/model"
)

func discrepancy(costDiff string) model.Discrepancy {
	return model.Discrepancy{
		Type:           model.CostMismatch,
		CostDifference: decimal.RequireFromString(costDiff),
	}
}

func TestCollector_CountsAndSumsAreUnconditional(t *testing.T) {
	c := newCollector(1)
	c.add(discrepancy("1.00"))
	c.add(discrepancy("2.00"))
	c.add(discrepancy("3.00"))

	assert.Equal(t, int64(3), c.count(model.CostMismatch))
	assert.True(t, decimal.RequireFromString("6.00").Equal(c.sum(model.CostMismatch)))
	assert.Equal(t, int64(3), c.totalCount())
}

func TestCollector_RetainsUpToTopK(t *testing.T) {
	c := newCollector(2)
	c.add(discrepancy("1.00"))
	c.add(discrepancy("2.00"))
	assert.Equal(t, 2, c.totalRetained())
}

func TestCollector_ReplacesSmallestOnlyWhenStrictlyLarger(t *testing.T) {
	c := newCollector(2)
	c.add(discrepancy("5.00"))
	c.add(discrepancy("1.00"))
	// Smaller than the current minimum (1.00); must not be retained.
	c.add(discrepancy("0.50"))
	require.Equal(t, 2, c.totalRetained())

	readout := c.readout()
	var magnitudes []string
	for _, d := range readout {
		magnitudes = append(magnitudes, d.CostDifference.String())
	}
	assert.ElementsMatch(t, []string{"5", "1"}, magnitudes)

	// Strictly larger than the current minimum (1.00); replaces it.
	c.add(discrepancy("3.00"))
	readout = c.readout()
	magnitudes = nil
	for _, d := range readout {
		magnitudes = append(magnitudes, d.CostDifference.String())
	}
	assert.ElementsMatch(t, []string{"5", "3"}, magnitudes)
}

func TestCollector_TiesAreNotReplaced(t *testing.T) {
	c := newCollector(2)
	c.add(discrepancy("1.00"))
	c.add(discrepancy("1.00"))
	// Equal magnitude to the smallest retained entry: not strictly
	// greater, so the incumbent is kept (first-K-retained on ties).
	c.add(discrepancy("1.00"))

	assert.Equal(t, int64(3), c.count(model.CostMismatch))
	assert.Equal(t, 2, c.totalRetained())
}

func TestCollector_ReadoutSortOrder(t *testing.T) {
	c := newCollector(10)
	c.add(model.Discrepancy{Type: model.CostMismatch, CostDifference: decimal.RequireFromString("1.00")})
	c.add(model.Discrepancy{Type: model.LRNMismatch, CostDifference: decimal.RequireFromString("0.50")})
	c.add(model.Discrepancy{Type: model.LRNMismatch, CostDifference: decimal.RequireFromString("2.00")})

	out := c.readout()
	require.Len(t, out, 3)
	// LRNMismatch (rank 1) sorts before CostMismatch (rank 4); within
	// LRNMismatch, larger |cost_difference| sorts first.
	assert.Equal(t, model.LRNMismatch, out[0].Type)
	assert.True(t, out[0].CostDifference.Equal(decimal.RequireFromString("2.00")))
	assert.Equal(t, model.LRNMismatch, out[1].Type)
	assert.True(t, out[1].CostDifference.Equal(decimal.RequireFromString("0.50")))
	assert.Equal(t, model.CostMismatch, out[2].Type)
}

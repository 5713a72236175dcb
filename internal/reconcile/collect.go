package reconcile

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sells-group/cdr-reconcile/internal/model"
)

// collector implements the Bounded Collector of spec.md §4.9: per
// discrepancy type it retains only the top K entries by
// |cost_difference|, while a full count and cost sum accumulate
// regardless of retention.
type collector struct {
	topK    int
	entries map[model.DiscrepancyType][]model.Discrepancy
	counts  map[model.DiscrepancyType]int64
	sums    map[model.DiscrepancyType]decimal.Decimal
}

func newCollector(topK int) *collector {
	return &collector{
		topK:    topK,
		entries: make(map[model.DiscrepancyType][]model.Discrepancy),
		counts:  make(map[model.DiscrepancyType]int64),
		sums:    make(map[model.DiscrepancyType]decimal.Decimal),
	}
}

// add accumulates d's count and cost sum unconditionally, then retains
// it only if the type's list has room, or if it strictly exceeds the
// smallest-magnitude retained entry of its type (spec.md §4.9 step 3).
func (c *collector) add(d model.Discrepancy) {
	c.counts[d.Type]++
	c.sums[d.Type] = c.sums[d.Type].Add(d.CostDifference)

	list := c.entries[d.Type]
	if len(list) < c.topK {
		c.entries[d.Type] = append(list, d)
		return
	}

	minIdx := 0
	minAbs := list[0].CostDifference.Abs()
	for i := 1; i < len(list); i++ {
		abs := list[i].CostDifference.Abs()
		if abs.LessThan(minAbs) {
			minIdx, minAbs = i, abs
		}
	}
	if d.CostDifference.Abs().GreaterThan(minAbs) {
		list[minIdx] = d
	}
}

func (c *collector) addAll(ds []model.Discrepancy) {
	for _, d := range ds {
		c.add(d)
	}
}

func (c *collector) count(t model.DiscrepancyType) int64 { return c.counts[t] }

func (c *collector) sum(t model.DiscrepancyType) decimal.Decimal { return c.sums[t] }

func (c *collector) totalCount() int64 {
	var total int64
	for _, n := range c.counts {
		total += n
	}
	return total
}

func (c *collector) totalRetained() int {
	n := 0
	for _, list := range c.entries {
		n += len(list)
	}
	return n
}

// readout returns every retained discrepancy sorted by type order, then
// by |cost_difference| descending, per spec.md §4.9's final sort.
func (c *collector) readout() []model.Discrepancy {
	var all []model.Discrepancy
	for _, list := range c.entries {
		all = append(all, list...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Type.SortRank() != all[j].Type.SortRank() {
			return all[i].Type.SortRank() < all[j].Type.SortRank()
		}
		return all[i].CostDifference.Abs().GreaterThan(all[j].CostDifference.Abs())
	})
	return all
}

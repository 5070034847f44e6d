// Package solver enforces strict monotonic ordering over percentage
// sequences using bounded pool-adjacent-violators regression.
package solver

import (
	"errors"
	"math"

	"github.com/verte-zerg/flipdrill/internal/model"
)

// Direction selects the required strict ordering.
type Direction int

// Supported orderings.
const (
	Ascending Direction = iota
	Descending
)

// Bounds restricts how far a corrected value may move. Zero value means the
// full domain.
type Bounds struct {
	Min int
	Max int
}

// ErrInfeasible is returned when the ordering constraint cannot be satisfied
// within the supplied bounds. The input is never silently violated.
var ErrInfeasible = errors.New("ordering constraint infeasible within bounds")

// Solve returns the nearest sequence to values that is strictly monotonic in
// the given direction over its non-sentinel entries, stays on the step grid
// and within per-index bounds (domain bounds when nil or zero). Sentinel
// entries are fixed points: never moved, never treated as neighbors. Pure and
// idempotent.
func Solve(values []model.Percent, dir Direction, bounds []Bounds) ([]model.Percent, error) {
	out := make([]model.Percent, len(values))
	copy(out, values)

	idxs := make([]int, 0, len(values))
	for i, v := range values {
		if v.Possible() {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) == 0 {
		return out, nil
	}

	vals := make([]int, len(idxs))
	lows := make([]int, len(idxs))
	highs := make([]int, len(idxs))
	for k, i := range idxs {
		lo, hi, err := boundsAt(bounds, i)
		if err != nil {
			return nil, err
		}
		vals[k] = values[i].Value()
		lows[k] = lo
		highs[k] = hi
	}

	if dir == Descending {
		for k := range vals {
			vals[k] = -vals[k]
			lows[k], highs[k] = -highs[k], -lows[k]
		}
	}

	solved, err := solveAscending(vals, lows, highs)
	if err != nil {
		return nil, err
	}

	for k, i := range idxs {
		v := solved[k]
		if dir == Descending {
			v = -v
		}
		out[i] = model.NewPercent(v)
	}
	return out, nil
}

// boundsAt resolves per-index bounds against the domain and snaps them onto
// the grid (min up, max down).
func boundsAt(bounds []Bounds, i int) (int, int, error) {
	lo, hi := model.MinValue, model.MaxValue
	if i < len(bounds) && (bounds[i].Min != 0 || bounds[i].Max != 0) {
		if bounds[i].Min > lo {
			lo = bounds[i].Min
		}
		if bounds[i].Max < hi {
			hi = bounds[i].Max
		}
	}
	lo = ceilGrid(lo)
	hi = floorGrid(hi)
	if lo > hi {
		return 0, 0, ErrInfeasible
	}
	return lo, hi, nil
}

type block struct {
	sum   int
	count int
	lo    int
	hi    int
	val   int
}

// solveAscending treats the compacted sequence in shifted space: subtracting
// i*Step per index turns "strictly increasing with at least one grid step of
// separation" into plain weak isotonicity, which the merge loop restores.
func solveAscending(vals, lows, highs []int) ([]int, error) {
	n := len(vals)
	if n == 1 {
		return []int{clamp(vals[0], lows[0], highs[0])}, nil
	}

	blocks := make([]block, 0, n)
	for k := 0; k < n; k++ {
		shift := k * model.Step
		b := block{
			sum:   vals[k] - shift,
			count: 1,
			lo:    lows[k] - shift,
			hi:    highs[k] - shift,
		}
		b.val = clamp(b.sum, b.lo, b.hi)
		blocks = append(blocks, b)
		for len(blocks) > 1 {
			prev := blocks[len(blocks)-2]
			cur := blocks[len(blocks)-1]
			if prev.val <= cur.val {
				break
			}
			merged := block{
				sum:   prev.sum + cur.sum,
				count: prev.count + cur.count,
				lo:    max(prev.lo, cur.lo),
				hi:    min(prev.hi, cur.hi),
			}
			if merged.lo > merged.hi {
				return nil, ErrInfeasible
			}
			merged.val = clamp(snapMean(merged.sum, merged.count), merged.lo, merged.hi)
			blocks = blocks[:len(blocks)-2]
			blocks = append(blocks, merged)
		}
	}

	out := make([]int, 0, n)
	pos := 0
	for _, b := range blocks {
		for j := 0; j < b.count; j++ {
			out = append(out, b.val+pos*model.Step)
			pos++
		}
	}
	return out, nil
}

// snapMean rounds the block mean onto the grid, ties toward +inf.
func snapMean(sum, count int) int {
	m := float64(sum) / float64(count)
	return int(math.Floor(m/model.Step+0.5)) * model.Step
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ceilGrid(v int) int {
	rem := v % model.Step
	if rem < 0 {
		rem += model.Step
	}
	if rem == 0 {
		return v
	}
	return v + model.Step - rem
}

func floorGrid(v int) int {
	rem := v % model.Step
	if rem < 0 {
		rem += model.Step
	}
	return v - rem
}

// Package stats contains recall statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/flipdrill/internal/model"
)

const sparkChars = " .:-=+*#%@"

// RecallMetrics computes accuracy and mean absolute error for a set of attempts.
func RecallMetrics(attempts, exact, absErrorSum int) (accuracy, meanAbsError float64) {
	if attempts <= 0 {
		return 0, 0
	}
	accuracy = float64(exact) / float64(attempts)
	meanAbsError = float64(absErrorSum) / float64(attempts)
	return accuracy, meanAbsError
}

// AdjustmentRate computes the share of correction attempts moved in the
// right direction.
func AdjustmentRate(correct, incorrect int) float64 {
	total := correct + incorrect
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx > len(sparkChars)-1 {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary table for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalAcc, totalErr float64
	bestAcc := 0.0
	for _, s := range sessions {
		acc, meanErr := RecallMetrics(s.Attempts, s.Exact, s.AbsErrorSum)
		totalAcc += acc
		totalErr += meanErr
		if acc > bestAcc {
			bestAcc = acc
		}
	}
	count := float64(len(sessions))
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", len(sessions)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Accuracy: %.2f%%\n", (totalAcc/count)*100); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best Accuracy: %.2f%%\n", bestAcc*100); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Error: %.2f\n", totalErr/count); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderCurves prints learning curves for accuracy and mean error.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window int) error {
	return RenderCurvesWithSize(w, sessions, window, 0, 10, false)
}

// RenderCurvesWithSize prints learning curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, sessions []model.SessionAggregate, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	accs := make([]float64, len(sessions))
	errs := make([]float64, len(sessions))
	for i, s := range sessions {
		acc, meanErr := RecallMetrics(s.Attempts, s.Exact, s.AbsErrorSum)
		accs[i] = acc * 100
		errs[i] = meanErr
	}
	accs = MovingAverage(accs, window)
	errs = MovingAverage(errs, window)

	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Recall Curves", []Series{
		{Name: "Accuracy", Values: accs},
		{Name: "Mean Error", Values: errs},
	}, width, height, useColor)
}

// RenderShotTable prints per-shot aggregates, weakest first.
func RenderShotTable(w io.Writer, aggs []model.ShotAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No shot stats found.")
		return err
	}
	type row struct {
		label    string
		side     string
		acc      float64
		meanErr  float64
		attempts int
	}
	rows := make([]row, 0, len(aggs))
	for _, agg := range aggs {
		acc, meanErr := RecallMetrics(agg.Attempts, agg.Exact, agg.AbsErrorSum)
		rows = append(rows, row{
			label:    agg.Label,
			side:     agg.Side.String(),
			acc:      acc,
			meanErr:  meanErr,
			attempts: agg.Attempts,
		})
	}
	// Sort by lowest accuracy.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].acc == rows[j].acc {
			if rows[i].label == rows[j].label {
				return rows[i].side < rows[j].side
			}
			return rows[i].label < rows[j].label
		}
		return rows[i].acc < rows[j].acc
	})

	if _, err := fmt.Fprintln(w, "Per-Shot (Windowed)"); err != nil {
		return err
	}

	headers := []string{"Shot", "Side", "Accuracy", "Avg Error", "Attempts"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.label,
			r.side,
			fmt.Sprintf("%.2f%%", r.acc*100),
			fmt.Sprintf("%.1f", r.meanErr),
			fmt.Sprintf("%d", r.attempts),
		})
	}
	rightAlign := map[int]bool{2: true, 3: true, 4: true}
	lines := formatTable(headers, tableRows, rightAlign)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderShotCurves prints per-shot learning curves.
func RenderShotCurves(w io.Writer, sessions []model.SessionAggregate, perSession map[int64]map[string]model.ShotAggregate, keys []string, window int) error {
	return RenderShotCurvesWithSize(w, sessions, perSession, keys, window, 0, 10, false)
}

// RenderShotCurvesWithSize prints per-shot learning curves sized to a given total width.
func RenderShotCurvesWithSize(w io.Writer, sessions []model.SessionAggregate, perSession map[int64]map[string]model.ShotAggregate, keys []string, window, totalWidth, height int, useColor bool) error {
	if len(keys) == 0 || len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Shot Curves"); err != nil {
		return err
	}
	for _, key := range keys {
		accSeries := make([]float64, len(sessions))
		errSeries := make([]float64, len(sessions))
		for i, s := range sessions {
			if data, ok := perSession[s.SessionID]; ok {
				if agg, ok := data[key]; ok {
					acc, meanErr := RecallMetrics(agg.Attempts, agg.Exact, agg.AbsErrorSum)
					accSeries[i] = acc * 100
					errSeries[i] = meanErr
				}
			}
		}
		accSeries = MovingAverage(accSeries, window)
		errSeries = MovingAverage(errSeries, window)
		width := 0
		if totalWidth > 0 {
			width = PlotWidthFor(totalWidth)
		}
		if err := PlotSeriesWithColor(w, fmt.Sprintf("Shot %s", key), []Series{
			{Name: "Accuracy", Values: accSeries},
			{Name: "Mean Error", Values: errSeries},
		}, width, height, useColor); err != nil {
			return err
		}
	}
	return nil
}

package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/flipdrill/internal/model"
	"github.com/verte-zerg/flipdrill/internal/store"
)

func TestBuildReport(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "flipdrill.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("failed to close store: %v", err)
		}
	})
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		stats := model.SessionStats{
			StartedAt:   base.Add(time.Duration(i) * time.Hour),
			EndedAt:     base.Add(time.Duration(i)*time.Hour + 20*time.Minute),
			Mode:        model.ModeRandom,
			Attempts:    10,
			Exact:       5 + i%2,
			AbsErrorSum: 40,
			DurationMs:  1200000,
		}
		shots := []model.ShotStats{
			{Label: "Left Orbit", Side: model.Left, Attempts: 10, Exact: stats.Exact, AbsErrorSum: 40},
		}
		if _, err := st.InsertSession(ctx, stats, shots); err != nil {
			t.Fatalf("failed to insert session %d: %v", i, err)
		}
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Last: 4, CurveWindow: 2})
	if err != nil {
		t.Fatalf("failed to build report: %v", err)
	}
	if len(report.Sessions) != 4 {
		t.Fatalf("expected 4 sessions after last filter, got %d", len(report.Sessions))
	}
	if len(report.WindowSessionIDs) != 2 {
		t.Fatalf("expected 2 windowed sessions, got %d", len(report.WindowSessionIDs))
	}
	if len(report.ShotAggsAll) != 1 {
		t.Fatalf("expected 1 shot aggregate, got %d", len(report.ShotAggsAll))
	}
	if report.ShotAggsAll[0].Attempts != 40 {
		t.Fatalf("expected 40 attempts across 4 sessions, got %d", report.ShotAggsAll[0].Attempts)
	}
	if report.ShotAggsWindow[0].Attempts != 20 {
		t.Fatalf("expected 20 attempts in curve window, got %d", report.ShotAggsWindow[0].Attempts)
	}
}

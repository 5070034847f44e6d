package session

import (
	"testing"

	"github.com/verte-zerg/flipdrill/internal/model"
)

func testConfig() model.Config {
	return model.Config{
		DriftEvery:  3,
		DriftSteps:  1,
		OffsetSteps: 2,
		Mode:        model.ModeRandom,
		Seeded:      true,
		Seed:        11,
	}
}

func startedSession(t *testing.T, cfg model.Config) *Session {
	t.Helper()
	s := New(testSequence(t), cfg, NewRand(cfg.Seeded, cfg.Seed), nil)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func submitAndContinue(t *testing.T, s *Session, guess model.Percent) model.Attempt {
	t.Helper()
	attempt, err := s.SubmitGuess(guess)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	s.FeedbackElapsed()
	s.Continue()
	return attempt
}

func TestStartRandomModePicksTarget(t *testing.T) {
	s := startedSession(t, testConfig())
	if s.Phase() != PhaseAwaitingGuess {
		t.Fatalf("expected awaiting guess, got %d", s.Phase())
	}
	sel, ok := s.Selection()
	if !ok {
		t.Fatalf("expected a selection")
	}
	if _, ok := s.Truth(sel.ShotID, sel.Side); !ok {
		t.Fatalf("selection has no hidden value")
	}
}

func TestStartManualModeWaitsForSelection(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = model.ModeManual
	s := startedSession(t, cfg)
	if s.Phase() != PhaseSelecting {
		t.Fatalf("expected selecting, got %d", s.Phase())
	}
	shots := s.seq.Shots()
	if err := s.Select(shots[0].ID, model.Left); err != nil {
		t.Fatalf("select: %v", err)
	}
	if s.Phase() != PhaseAwaitingGuess {
		t.Fatalf("expected awaiting guess after select, got %d", s.Phase())
	}
}

func TestSelectRejectsSentinelSide(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = model.ModeManual
	s := startedSession(t, cfg)
	for _, shot := range s.seq.Shots() {
		if !shot.Left.Possible() {
			if err := s.Select(shot.ID, model.Left); err == nil {
				t.Fatalf("expected rejection for sentinel side")
			}
			return
		}
	}
	t.Fatalf("test sequence should contain a sentinel side")
}

func TestSubmitGuessTransitions(t *testing.T) {
	s := startedSession(t, testConfig())
	attempt, err := s.SubmitGuess(model.NewPercent(50))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if s.Phase() != PhaseShowingFeedback {
		t.Fatalf("expected feedback phase, got %d", s.Phase())
	}
	if attempt.Truth == (model.Percent{}) && attempt.Truth.Possible() {
		t.Fatalf("attempt must capture truth at time of attempt")
	}
	if len(s.History()) != 1 {
		t.Fatalf("expected one history record")
	}
	// The logical transition is already committed: duplicate timer and skip
	// events must be harmless.
	s.FeedbackElapsed()
	s.FeedbackElapsed()
	if s.Phase() != PhaseAwaitingContinue {
		t.Fatalf("expected awaiting continue, got %d", s.Phase())
	}
	s.Continue()
	s.Continue()
	if s.Phase() != PhaseAwaitingGuess {
		t.Fatalf("expected next target active, got %d", s.Phase())
	}
	if len(s.History()) != 1 {
		t.Fatalf("history must not change on continue signals")
	}
}

func TestContinueSkipShortCircuitsFeedback(t *testing.T) {
	s := startedSession(t, testConfig())
	if _, err := s.SubmitGuess(model.NewPercent(50)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// Skip straight from feedback without the timer.
	s.Continue()
	if s.Phase() != PhaseAwaitingGuess {
		t.Fatalf("expected awaiting guess after skip, got %d", s.Phase())
	}
	// A late timer tick for the previous feedback must not regress state.
	s.FeedbackElapsed()
	if s.Phase() != PhaseAwaitingGuess {
		t.Fatalf("stale timer altered state: %d", s.Phase())
	}
}

func TestRandomPickerAvoidsImmediateRepeat(t *testing.T) {
	s := startedSession(t, testConfig())
	prev, _ := s.Selection()
	for i := 0; i < 50; i++ {
		submitAndContinue(t, s, model.NewPercent(50))
		cur, ok := s.Selection()
		if !ok {
			t.Fatalf("missing selection after continue")
		}
		if cur == prev {
			t.Fatalf("iteration %d repeated selection %+v", i, cur)
		}
		prev = cur
	}
}

func TestDriftFiresExactlyOnCadence(t *testing.T) {
	cfg := testConfig()
	cfg.DriftEvery = 4
	s := startedSession(t, cfg)
	for i := 0; i < 3; i++ {
		submitAndContinue(t, s, model.NewPercent(50))
		if s.DriftCount() != 0 {
			t.Fatalf("drift fired early after %d attempts", i+1)
		}
	}
	submitAndContinue(t, s, model.NewPercent(50))
	if s.DriftCount() != 1 {
		t.Fatalf("drift did not fire at cadence")
	}
	for i := 0; i < 3; i++ {
		submitAndContinue(t, s, model.NewPercent(50))
		if s.DriftCount() != 1 {
			t.Fatalf("second drift fired early")
		}
	}
	submitAndContinue(t, s, model.NewPercent(50))
	if s.DriftCount() != 2 {
		t.Fatalf("second drift did not fire at cadence")
	}
}

func TestDriftStaysNearBase(t *testing.T) {
	cfg := testConfig()
	cfg.DriftEvery = 1
	cfg.DriftSteps = 2
	s := startedSession(t, cfg)
	for i := 0; i < 40; i++ {
		submitAndContinue(t, s, model.NewPercent(50))
		assertHiddenNear(t, s.seq, s.hidden, cfg.DriftSteps)
		assertHiddenOrdered(t, s.seq, s.hidden)
	}
	if s.DriftCount() != 40 {
		t.Fatalf("expected 40 drifts, got %d", s.DriftCount())
	}
}

func TestDriftDisabledWhenCadenceZero(t *testing.T) {
	cfg := testConfig()
	cfg.DriftEvery = 0
	s := startedSession(t, cfg)
	for i := 0; i < 10; i++ {
		submitAndContinue(t, s, model.NewPercent(50))
	}
	if s.DriftCount() != 0 {
		t.Fatalf("drift must not fire when disabled")
	}
}

func TestHistoryCapFIFO(t *testing.T) {
	s := startedSession(t, testConfig())
	var firstKept model.Attempt
	for i := 0; i < historyCap+20; i++ {
		attempt := submitAndContinue(t, s, model.NewPercent(model.MinValue+(i%19)*model.Step))
		if i == 20 {
			firstKept = attempt
		}
	}
	history := s.History()
	if len(history) != historyCap {
		t.Fatalf("expected capped history of %d, got %d", historyCap, len(history))
	}
	if history[0].At != firstKept.At {
		t.Fatalf("expected oldest surviving record to be attempt 21")
	}
}

func TestAdjustmentScoring(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = model.ModeManual
	cfg.OffsetSteps = 0
	cfg.DriftEvery = 0
	s := startedSession(t, cfg)
	shot := s.seq.Shots()[0] // base left 20; zero offset keeps truth at 20

	if err := s.Select(shot.ID, model.Left); err != nil {
		t.Fatalf("select: %v", err)
	}
	submitAndContinue(t, s, model.NewPercent(40))
	if s.Score() != 0 {
		t.Fatalf("first attempt scored: %d", s.Score())
	}

	if err := s.Select(shot.ID, model.Left); err != nil {
		t.Fatalf("select: %v", err)
	}
	attempt := submitAndContinue(t, s, model.NewPercent(30))
	if attempt.Adjustment != model.AdjustCorrect {
		t.Fatalf("expected correct adjustment, got %v", attempt.Adjustment)
	}
	if s.Score() != 1 {
		t.Fatalf("expected one point, got %d", s.Score())
	}
}

func TestFinalRecallGrading(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = model.ModeManual
	cfg.OffsetSteps = 0
	cfg.DriftEvery = 0
	s := startedSession(t, cfg)

	if err := s.BeginFinalRecall(); err != nil {
		t.Fatalf("begin final recall: %v", err)
	}
	if s.Phase() != PhaseFinalRecall {
		t.Fatalf("expected final recall phase")
	}
	targets := s.RecallTargets()
	if len(targets) != 9 {
		t.Fatalf("expected 9 playable sides, got %d", len(targets))
	}
	// Zero offset: truth equals base. Answer every target exactly except one.
	for i, sel := range targets {
		truth, _ := s.Truth(sel.ShotID, sel.Side)
		answer := truth
		if i == 0 {
			answer = model.NewPercent(truth.Value() + model.Step)
		}
		if err := s.SubmitRecall(sel, answer); err != nil {
			t.Fatalf("submit recall: %v", err)
		}
	}
	grade, err := s.GradeRecall()
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if grade.Total != 9 || grade.Correct != 8 {
		t.Fatalf("expected 8/9, got %d/%d", grade.Correct, grade.Total)
	}
	if s.Phase() != PhaseGraded {
		t.Fatalf("expected graded phase")
	}
	s.Finish()
	if s.Phase() != PhaseComplete {
		t.Fatalf("expected complete phase")
	}
}

func TestFinalRecallUnansweredCountAsMisses(t *testing.T) {
	s := startedSession(t, testConfig())
	if err := s.BeginFinalRecall(); err != nil {
		t.Fatalf("begin final recall: %v", err)
	}
	grade, err := s.GradeRecall()
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if grade.Correct != 0 || grade.Total == 0 {
		t.Fatalf("expected all misses, got %d/%d", grade.Correct, grade.Total)
	}
}

func TestStatsAggregation(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = model.ModeManual
	cfg.OffsetSteps = 0
	cfg.DriftEvery = 0
	s := startedSession(t, cfg)
	shot := s.seq.Shots()[0] // truth left 20

	for _, guess := range []int{20, 40, 30} {
		if err := s.Select(shot.ID, model.Left); err != nil {
			t.Fatalf("select: %v", err)
		}
		submitAndContinue(t, s, model.NewPercent(guess))
	}

	stats, shots := s.Stats(s.StartedAt())
	if stats.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", stats.Attempts)
	}
	if stats.Exact != 1 {
		t.Fatalf("expected 1 exact, got %d", stats.Exact)
	}
	if stats.AbsErrorSum != 30 {
		t.Fatalf("expected abs error sum 30, got %d", stats.AbsErrorSum)
	}
	if stats.AdjustCorrect != 1 || stats.AdjustIncorrect != 1 {
		t.Fatalf("unexpected adjustment counts: %+v", stats)
	}
	if len(shots) != 1 {
		t.Fatalf("expected one shot aggregate, got %d", len(shots))
	}
	if shots[0].Label != shot.Label || shots[0].Side != model.Left {
		t.Fatalf("unexpected aggregate key: %+v", shots[0])
	}
	if shots[0].Attempts != 3 || shots[0].Exact != 1 || shots[0].AbsErrorSum != 30 {
		t.Fatalf("unexpected aggregate: %+v", shots[0])
	}
}

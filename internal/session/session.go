package session

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/flipdrill/internal/model"
	"github.com/verte-zerg/flipdrill/internal/sequence"
)

// historyCap bounds the retained attempt history; the oldest record is
// evicted first.
const historyCap = 200

// Phase is the session state machine's current state.
type Phase int

// Session phases. Practice loops Selecting -> AwaitingGuess ->
// ShowingFeedback -> AwaitingContinue -> Selecting; final recall is
// reachable from any practice phase.
const (
	PhaseIdle Phase = iota
	PhaseSelecting
	PhaseAwaitingGuess
	PhaseShowingFeedback
	PhaseAwaitingContinue
	PhaseFinalRecall
	PhaseGraded
	PhaseComplete
)

// Selection identifies the active shot and side.
type Selection struct {
	ShotID string
	Side   model.Side
}

// Grade is the final recall result: exact matches against the hidden values
// at grading time.
type Grade struct {
	Total   int
	Correct int
}

// ErrNoEligibleShots is returned when every shot side is "not possible".
var ErrNoEligibleShots = errors.New("no playable shot sides")

// Session orchestrates one practice run. All mutation goes through its
// methods on a single dispatch path; it is not safe for concurrent use and
// does not need to be.
type Session struct {
	cfg      model.Config
	seq      *sequence.Sequence
	rnd      *rand.Rand
	weakKeys map[string]struct{}

	phase      Phase
	hidden     Hidden
	sel        Selection
	hasSel     bool
	pendingSel *Selection

	attemptsSinceDrift int
	driftCount         int
	history            []model.Attempt
	score              int
	startedAt          time.Time

	recall map[Selection]model.Percent
	grade  Grade
}

// New builds an idle session over the given base sequence. weakKeys, keyed
// by "label/side", bias random selection toward poorly recalled shots and
// may be nil.
func New(seq *sequence.Sequence, cfg model.Config, rnd *rand.Rand, weakKeys map[string]struct{}) *Session {
	return &Session{
		cfg:      cfg,
		seq:      seq,
		rnd:      rnd,
		weakKeys: weakKeys,
		phase:    PhaseIdle,
	}
}

// Start randomizes the hidden values from the base values and enters the
// practice loop.
func (s *Session) Start() error {
	if s.phase != PhaseIdle {
		return fmt.Errorf("session already started")
	}
	if len(s.eligible()) == 0 {
		return ErrNoEligibleShots
	}
	s.hidden = randomizeHidden(s.seq, s.cfg.OffsetSteps, s.rnd)
	s.attemptsSinceDrift = 0
	s.startedAt = time.Now()
	s.phase = PhaseSelecting
	if s.cfg.Mode == model.ModeRandom {
		sel := s.pick(nil)
		s.setSelection(sel)
	}
	return nil
}

// Phase returns the current state.
func (s *Session) Phase() Phase {
	return s.phase
}

// Selection returns the active shot/side, if any.
func (s *Session) Selection() (Selection, bool) {
	return s.sel, s.hasSel
}

// History returns the retained attempts, oldest first.
func (s *Session) History() []model.Attempt {
	out := make([]model.Attempt, len(s.history))
	copy(out, s.history)
	return out
}

// Score returns the running practice score: one point per correctly
// directed repeat adjustment.
func (s *Session) Score() int {
	return s.score
}

// DriftCount returns how many times the hidden values have drifted.
func (s *Session) DriftCount() int {
	return s.driftCount
}

// StartedAt returns when practice began.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Truth exposes the current hidden value for feedback display.
func (s *Session) Truth(shotID string, side model.Side) (model.Percent, bool) {
	return s.hidden.Truth(shotID, side)
}

// Select sets the active shot/side explicitly (manual mode, or retargeting
// before a guess is submitted).
func (s *Session) Select(shotID string, side model.Side) error {
	if s.phase != PhaseSelecting && s.phase != PhaseAwaitingGuess {
		return fmt.Errorf("cannot select in phase %d", s.phase)
	}
	shot, ok := s.seq.ByID(shotID)
	if !ok {
		return fmt.Errorf("unknown shot id %q", shotID)
	}
	if !shot.Value(side).Possible() {
		return fmt.Errorf("shot %q is not playable from the %s", shot.Label, side)
	}
	s.setSelection(Selection{ShotID: shotID, Side: side})
	return nil
}

// SubmitGuess scores the guess against the hidden truth, appends the attempt
// record, advances the drift counter (possibly drifting), pre-picks the next
// random target, and moves to feedback. The logical transition completes
// here; display timing never gates it.
func (s *Session) SubmitGuess(guess model.Percent) (model.Attempt, error) {
	if s.phase != PhaseAwaitingGuess {
		return model.Attempt{}, fmt.Errorf("no guess expected in phase %d", s.phase)
	}
	truth, ok := s.hidden.Truth(s.sel.ShotID, s.sel.Side)
	if !ok {
		return model.Attempt{}, fmt.Errorf("no hidden value for shot %q", s.sel.ShotID)
	}

	prev := s.lastAttempt(s.sel.ShotID, s.sel.Side)
	ev := evaluate(guess, truth, prev)
	attempt := model.Attempt{
		ShotID:     s.sel.ShotID,
		Side:       s.sel.Side,
		Guess:      guess,
		Truth:      truth,
		AbsError:   ev.AbsError,
		Severity:   ev.Severity,
		Adjustment: ev.Adjustment,
		At:         time.Now(),
	}
	if prev != nil {
		attempt.PrevGuess = prev.Guess
	}
	s.history = append(s.history, attempt)
	if len(s.history) > historyCap {
		s.history = s.history[len(s.history)-historyCap:]
	}
	if ev.Adjustment == model.AdjustCorrect {
		s.score++
	}

	s.attemptsSinceDrift++
	s.maybeDrift()

	if s.cfg.Mode == model.ModeRandom {
		next := s.pick(&s.sel)
		s.pendingSel = &next
	}
	s.phase = PhaseShowingFeedback
	return attempt, nil
}

// FeedbackElapsed moves feedback display into the continue prompt. The
// feedback timer and an explicit user skip both route here; receiving both
// is harmless.
func (s *Session) FeedbackElapsed() {
	if s.phase == PhaseShowingFeedback {
		s.phase = PhaseAwaitingContinue
	}
}

// Continue advances past feedback: the pre-picked random target becomes
// active, or manual mode returns to selection. Idempotent against repeated
// continue signals.
func (s *Session) Continue() {
	if s.phase != PhaseShowingFeedback && s.phase != PhaseAwaitingContinue {
		return
	}
	s.phase = PhaseSelecting
	if s.cfg.Mode == model.ModeRandom {
		if s.pendingSel != nil {
			s.setSelection(*s.pendingSel)
			s.pendingSel = nil
			return
		}
		s.setSelection(s.pick(&s.sel))
	}
}

// maybeDrift re-randomizes the hidden values once the attempt cadence is
// reached. Offsets are drawn around the base values, never the current
// hidden values, so repeated drift cannot walk away from the user's
// configuration.
func (s *Session) maybeDrift() {
	if s.cfg.DriftEvery <= 0 || s.attemptsSinceDrift < s.cfg.DriftEvery {
		return
	}
	s.hidden = randomizeHidden(s.seq, s.cfg.DriftSteps, s.rnd)
	s.attemptsSinceDrift = 0
	s.driftCount++
}

// BeginFinalRecall leaves the practice loop; the user now supplies one
// guess per playable shot side from memory, without per-guess feedback.
func (s *Session) BeginFinalRecall() error {
	switch s.phase {
	case PhaseSelecting, PhaseAwaitingGuess, PhaseShowingFeedback, PhaseAwaitingContinue:
		s.phase = PhaseFinalRecall
		s.recall = map[Selection]model.Percent{}
		s.pendingSel = nil
		s.hasSel = false
		return nil
	default:
		return fmt.Errorf("cannot start final recall in phase %d", s.phase)
	}
}

// RecallTargets lists every playable shot side in sequence order.
func (s *Session) RecallTargets() []Selection {
	return s.eligible()
}

// SubmitRecall records a final-recall answer. Answers may be revised until
// grading.
func (s *Session) SubmitRecall(sel Selection, guess model.Percent) error {
	if s.phase != PhaseFinalRecall {
		return fmt.Errorf("not in final recall")
	}
	shot, ok := s.seq.ByID(sel.ShotID)
	if !ok || !shot.Value(sel.Side).Possible() {
		return fmt.Errorf("invalid recall target")
	}
	s.recall[sel] = guess
	return nil
}

// RecallAnswer returns the recorded answer for a target.
func (s *Session) RecallAnswer(sel Selection) (model.Percent, bool) {
	v, ok := s.recall[sel]
	return v, ok
}

// GradeRecall scores the final recall against the hidden values as they
// stand now. Unanswered targets count as misses. Terminal until Finish.
func (s *Session) GradeRecall() (Grade, error) {
	if s.phase != PhaseFinalRecall {
		return Grade{}, fmt.Errorf("not in final recall")
	}
	g := Grade{}
	for _, sel := range s.eligible() {
		g.Total++
		answer, ok := s.recall[sel]
		if !ok {
			continue
		}
		truth, _ := s.hidden.Truth(sel.ShotID, sel.Side)
		if answer.Possible() && truth.Possible() && answer.Value() == truth.Value() {
			g.Correct++
		}
	}
	s.grade = g
	s.phase = PhaseGraded
	return g, nil
}

// Finish closes a graded session.
func (s *Session) Finish() {
	if s.phase == PhaseGraded {
		s.phase = PhaseComplete
	}
}

// Stats summarizes the session for persistence.
func (s *Session) Stats(endedAt time.Time) (model.SessionStats, []model.ShotStats) {
	st := model.SessionStats{
		StartedAt:     s.startedAt,
		EndedAt:       endedAt,
		Mode:          s.cfg.Mode,
		DriftEvery:    s.cfg.DriftEvery,
		DriftSteps:    s.cfg.DriftSteps,
		OffsetSteps:   s.cfg.OffsetSteps,
		RecallTotal:   s.grade.Total,
		RecallCorrect: s.grade.Correct,
		DurationMs:    endedAt.Sub(s.startedAt).Milliseconds(),
	}
	perShot := map[string]*model.ShotStats{}
	order := []string{}
	for _, a := range s.history {
		st.Attempts++
		st.AbsErrorSum += a.AbsError
		if a.AbsError == 0 {
			st.Exact++
		}
		switch a.Adjustment {
		case model.AdjustCorrect:
			st.AdjustCorrect++
		case model.AdjustIncorrect:
			st.AdjustIncorrect++
		case model.AdjustNoChange:
			st.AdjustNoChange++
		}
		shot, ok := s.seq.ByID(a.ShotID)
		if !ok {
			continue
		}
		key := shot.Label + "/" + a.Side.String()
		entry, ok := perShot[key]
		if !ok {
			entry = &model.ShotStats{Label: shot.Label, Side: a.Side}
			perShot[key] = entry
			order = append(order, key)
		}
		entry.Attempts++
		entry.AbsErrorSum += a.AbsError
		if a.AbsError == 0 {
			entry.Exact++
		}
	}
	shots := make([]model.ShotStats, 0, len(order))
	for _, key := range order {
		shots = append(shots, *perShot[key])
	}
	return st, shots
}

// eligible lists every (shot, side) pair whose base value is playable, in
// sequence order, left before right per shot.
func (s *Session) eligible() []Selection {
	var out []Selection
	for _, shot := range s.seq.Shots() {
		if shot.Left.Possible() {
			out = append(out, Selection{ShotID: shot.ID, Side: model.Left})
		}
		if shot.Right.Possible() {
			out = append(out, Selection{ShotID: shot.ID, Side: model.Right})
		}
	}
	return out
}

// pick chooses the next random target, avoiding an immediate repeat of last
// when more than one option exists and weighting weak shots up when
// configured.
func (s *Session) pick(last *Selection) Selection {
	options := s.eligible()
	if last != nil && len(options) > 1 {
		filtered := options[:0]
		for _, sel := range options {
			if sel != *last {
				filtered = append(filtered, sel)
			}
		}
		options = filtered
	}
	if len(options) == 1 {
		return options[0]
	}
	if len(s.weakKeys) == 0 || s.cfg.WeakFactor <= 0 {
		return options[s.rnd.Intn(len(options))]
	}

	weights := make([]float64, len(options))
	total := 0.0
	for i, sel := range options {
		w := 1.0
		if shot, ok := s.seq.ByID(sel.ShotID); ok {
			if _, weak := s.weakKeys[shot.Label+"/"+sel.Side.String()]; weak {
				w += s.cfg.WeakFactor
			}
		}
		weights[i] = w
		total += w
	}
	r := s.rnd.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return options[i]
		}
	}
	return options[len(options)-1]
}

// lastAttempt finds the most recent attempt on the same shot and side.
func (s *Session) lastAttempt(shotID string, side model.Side) *model.Attempt {
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].ShotID == shotID && s.history[i].Side == side {
			a := s.history[i]
			return &a
		}
	}
	return nil
}

func (s *Session) setSelection(sel Selection) {
	s.sel = sel
	s.hasSel = true
	s.phase = PhaseAwaitingGuess
}

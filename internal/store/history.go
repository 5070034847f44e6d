package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/verte-zerg/flipdrill/internal/model"
)

// AttemptRecord is the JSON shape of one retained attempt. Percent fields
// use nil for the "not possible" sentinel, matching the layout codec.
type AttemptRecord struct {
	ShotID     string    `json:"shot_id"`
	Side       string    `json:"side"`
	Guess      *int      `json:"guess"`
	Truth      *int      `json:"truth"`
	PrevGuess  *int      `json:"prev_guess"`
	AbsError   int       `json:"abs_error"`
	Severity   int       `json:"severity"`
	Adjustment int       `json:"adjustment"`
	At         time.Time `json:"at"`
}

// SaveHistory stores the attempt history of the most recent session.
func (s *Store) SaveHistory(ctx context.Context, attempts []model.Attempt) error {
	records := make([]AttemptRecord, 0, len(attempts))
	for _, a := range attempts {
		records = append(records, AttemptRecord{
			ShotID:     a.ShotID,
			Side:       a.Side.String(),
			Guess:      percentJSON(a.Guess),
			Truth:      percentJSON(a.Truth),
			PrevGuess:  percentJSON(a.PrevGuess),
			AbsError:   a.AbsError,
			Severity:   int(a.Severity),
			Adjustment: int(a.Adjustment),
			At:         a.At,
		})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return s.Set(ctx, KeyLastHistory, string(data))
}

// LoadHistory reads the attempt history of the most recent session. A
// missing key returns nil.
func (s *Store) LoadHistory(ctx context.Context) ([]AttemptRecord, error) {
	raw, ok, err := s.Get(ctx, KeyLastHistory)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var records []AttemptRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return records, nil
}

func percentJSON(p model.Percent) *int {
	if !p.Possible() {
		return nil
	}
	v := p.Value()
	return &v
}

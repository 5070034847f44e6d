package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Settings is the last-used practice configuration, kept in the kv table so
// the next run starts from it when neither a flag nor the config file sets a
// value. Pointer fields distinguish unset from zero.
type Settings struct {
	Mode        *string  `json:"mode,omitempty"`
	DriftEvery  *int     `json:"drift_every,omitempty"`
	DriftSteps  *int     `json:"drift_steps,omitempty"`
	OffsetSteps *int     `json:"offset_steps,omitempty"`
	FeedbackMs  *int     `json:"feedback_ms,omitempty"`
	Seeded      *bool    `json:"seeded,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
	FocusWeak   *bool    `json:"focus_weak,omitempty"`
	WeakTop     *int     `json:"weak_top,omitempty"`
	WeakFactor  *float64 `json:"weak_factor,omitempty"`
	WeakWindow  *int     `json:"weak_window,omitempty"`
}

// LoadSettings reads the last-used settings. A missing key returns nil.
func (s *Store) LoadSettings(ctx context.Context) (*Settings, error) {
	raw, ok, err := s.Get(ctx, KeySettings)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var settings Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings stores the settings used for the run that just finished.
func (s *Store) SaveSettings(ctx context.Context, settings Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return s.Set(ctx, KeySettings, string(data))
}

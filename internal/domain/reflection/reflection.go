// Package reflection validates and builds learning-outcome records.
package reflection

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/okian/alsip/internal/domain/model"
)

const (
	defaultMaxNoteLength = 2000
	minClarityGain       = 1
	maxClarityGain       = 5
)

// Input is the caller-supplied part of a reflection. ClarityGain is a
// pointer so that a missing value is distinguishable from zero.
type Input struct {
	Owner         string            `json:"owner"`
	SkillID       string            `json:"skill_id"`
	ClarityGain   *int              `json:"clarity_gain"`
	ConfusionNote *string           `json:"confusion_note,omitempty"`
	Difficulty    *model.Difficulty `json:"difficulty,omitempty"`
}

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithMaxNoteLength caps the confusion note, in runes.
func WithMaxNoteLength(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.maxNoteLength = n
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// Recorder turns validated input into immutable outcomes. It does not write;
// the caller inserts the returned record.
type Recorder struct {
	maxNoteLength int
	now           func() time.Time
}

// NewRecorder creates a recorder with configuration options.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		maxNoteLength: defaultMaxNoteLength,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Validate checks in without building a record. It is used to reject a
// session before any write happens.
func (r *Recorder) Validate(in Input) error {
	switch {
	case strings.TrimSpace(in.Owner) == "":
		return model.Invalid("owner", "required")
	case strings.TrimSpace(in.SkillID) == "":
		return model.Invalid("skill_id", "required")
	case in.ClarityGain == nil:
		return model.Invalid("clarity_gain", "required")
	case *in.ClarityGain < minClarityGain || *in.ClarityGain > maxClarityGain:
		return model.Invalid("clarity_gain", "must be between 1 and 5")
	case in.Difficulty != nil && !in.Difficulty.Valid():
		return model.Invalid("difficulty", "must be too_easy, just_right or too_hard")
	}
	if in.ConfusionNote != nil && utf8.RuneCountInString(*in.ConfusionNote) > r.maxNoteLength {
		return model.Invalid("confusion_note", "too long")
	}
	return nil
}

// Record validates in and returns the outcome to store.
func (r *Recorder) Record(in Input) (model.LearningOutcome, error) {
	if err := r.Validate(in); err != nil {
		return model.LearningOutcome{}, err
	}
	out := model.LearningOutcome{
		ID:          uuid.NewString(),
		Owner:       strings.TrimSpace(in.Owner),
		SkillID:     strings.TrimSpace(in.SkillID),
		ClarityGain: *in.ClarityGain,
		Difficulty:  in.Difficulty,
		CreatedAt:   r.now().UTC(),
	}
	if in.ConfusionNote != nil {
		if note := strings.TrimSpace(*in.ConfusionNote); note != "" {
			out.ConfusionNote = &note
		}
	}
	return out, nil
}

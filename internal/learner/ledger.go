// Package learner holds the per-learner mastery ledger and the pure
// transforms that evolve it: progression accounting, unlock/recommendation
// reads and mistake recording. Every mutating operation takes a ledger
// snapshot and returns a new one; the caller persists the result.
package learner

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is the current ledger serialization version. DecodeLedger
// upgrades older payloads through one default-filling step so business
// logic never has to nil-check stored data.
const SchemaVersion = 2

// Mastered is the score at which a concept counts as mastered.
const Mastered = 0.8

// PrereqThreshold is the score a prerequisite needs before it unlocks its
// dependents.
const PrereqThreshold = 0.7

// ActivityCap bounds the activity feed length.
const ActivityCap = 20

// ActivityType classifies feed entries.
type ActivityType string

const (
	ActivityLogin            ActivityType = "login"
	ActivityQuizComplete     ActivityType = "quiz_complete"
	ActivityLessonComplete   ActivityType = "lesson_complete"
	ActivityConceptMastered  ActivityType = "concept_mastered"
	ActivityConfusionFlagged ActivityType = "confusion_flagged"
)

// Activity is one entry of the learner's recent-activity feed.
type Activity struct {
	ID      string       `json:"id"`
	Type    ActivityType `json:"type"`
	Message string       `json:"message"`
	At      time.Time    `json:"at"`
}

// MistakeRecord describes one specific wrong answer. Records are append
// only; Resolved flips false→true exactly once and entries are never
// deleted.
type MistakeRecord struct {
	ID            string    `json:"id"`
	QuestionText  string    `json:"questionText"`
	WrongAnswer   string    `json:"wrongAnswer"`
	CorrectAnswer string    `json:"correctAnswer"`
	ConceptID     string    `json:"conceptId"`
	CreatedAt     time.Time `json:"createdAt"`
	RetryCount    int       `json:"retryCount"`
	Resolved      bool      `json:"resolved"`
}

// Ledger is the mutable per-learner record. It is treated as a value:
// transforms Clone it, mutate the clone and hand it back.
type Ledger struct {
	SchemaVersion int                `json:"schemaVersion"`
	LearnerID     string             `json:"learnerId"`
	Name          string             `json:"name,omitempty"`
	Mastery       map[string]float64 `json:"mastery"`
	ConfusionSet  []string           `json:"confusionSet"`
	MistakeLog    []MistakeRecord    `json:"mistakeLog"`
	XP            int                `json:"xp"`
	Rank          string             `json:"rank"`
	Streak        int                `json:"streak"`
	LastActivity  time.Time          `json:"lastActivity,omitzero"`
	Activities    []Activity         `json:"activities"`
}

// NewLedger creates a fresh ledger for a first session: all scores zero,
// base rank, a login entry in the feed.
func NewLedger(learnerID string, now time.Time) *Ledger {
	return &Ledger{
		SchemaVersion: SchemaVersion,
		LearnerID:     learnerID,
		Mastery:       make(map[string]float64),
		ConfusionSet:  []string{},
		MistakeLog:    []MistakeRecord{},
		Rank:          baseRank,
		Activities: []Activity{{
			ID:      newID(),
			Type:    ActivityLogin,
			Message: "Logged in to learning portal",
			At:      now,
		}},
	}
}

// Clone returns a deep copy. Transforms operate on clones so the caller's
// snapshot is never mutated in place.
func (l *Ledger) Clone() *Ledger {
	out := *l
	out.Mastery = make(map[string]float64, len(l.Mastery))
	for k, v := range l.Mastery {
		out.Mastery[k] = v
	}
	out.ConfusionSet = append([]string(nil), l.ConfusionSet...)
	out.MistakeLog = append([]MistakeRecord(nil), l.MistakeLog...)
	out.Activities = append([]Activity(nil), l.Activities...)
	return &out
}

// Score returns the mastery score for a concept, zero if unseen.
func (l *Ledger) Score(conceptID string) float64 {
	return l.Mastery[conceptID]
}

// Confused reports whether the concept is currently a confusion point.
func (l *Ledger) Confused(conceptID string) bool {
	for _, id := range l.ConfusionSet {
		if id == conceptID {
			return true
		}
	}
	return false
}

// UnresolvedMistakes returns the unresolved mistake records for a concept,
// oldest first. Derived read; does not mutate.
func (l *Ledger) UnresolvedMistakes(conceptID string) []MistakeRecord {
	var out []MistakeRecord
	for _, m := range l.MistakeLog {
		if m.ConceptID == conceptID && !m.Resolved {
			out = append(out, m)
		}
	}
	return out
}

// EncodeLedger serializes a ledger for the persistence store.
func EncodeLedger(l *Ledger) ([]byte, error) {
	l.SchemaVersion = SchemaVersion
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return data, nil
}

// DecodeLedger deserializes a stored ledger and applies the single
// default-filling step for older or partial payloads: nil collections
// become empty, scores are clamped into [0,1], the rank falls back to the
// base tier. Downstream logic can rely on a fully-shaped ledger.
func DecodeLedger(data []byte) (*Ledger, error) {
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	fillDefaults(&l)
	return &l, nil
}

func fillDefaults(l *Ledger) {
	if l.Mastery == nil {
		l.Mastery = make(map[string]float64)
	}
	for k, v := range l.Mastery {
		l.Mastery[k] = clamp01(v)
	}
	if l.ConfusionSet == nil {
		l.ConfusionSet = []string{}
	}
	if l.MistakeLog == nil {
		l.MistakeLog = []MistakeRecord{}
	}
	if l.Activities == nil {
		l.Activities = []Activity{}
	}
	if l.Rank == "" {
		l.Rank = baseRank
	}
	if l.XP < 0 {
		l.XP = 0
	}
	if l.Streak < 0 {
		l.Streak = 0
	}
	l.SchemaVersion = SchemaVersion
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

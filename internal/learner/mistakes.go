package learner

import (
	"fmt"
	"time"

	"github.com/shiksha-ai/shiksha-engine/internal/curriculum"
)

// Recorder appends mistake records and flags confusion points. Like the
// accountant it is a pure snapshot→snapshot transform; the mistake log and
// confusion set only ever grow or graduate, never shrink destructively.
type Recorder struct {
	graph *curriculum.Graph
	now   func() time.Time
}

// NewRecorder creates a mistake recorder over the given graph.
func NewRecorder(graph *curriculum.Graph, opts ...RecorderOption) *Recorder {
	r := &Recorder{graph: graph, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderClock overrides the recorder's time source.
func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// RecordMistake flags a concept as a confusion point. Idempotent: calling
// it again for an already-flagged concept returns the input snapshot
// unchanged.
func (r *Recorder) RecordMistake(l *Ledger, conceptID string) (*Ledger, error) {
	concept, ok := r.graph.Get(conceptID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConcept, conceptID)
	}
	if l.Confused(conceptID) {
		return l, nil
	}

	out := l.Clone()
	out.ConfusionSet = append(out.ConfusionSet, conceptID)
	out.prependActivity(Activity{
		ID:      newID(),
		Type:    ActivityConfusionFlagged,
		Message: fmt.Sprintf("Struggling with %s", concept.Title),
		At:      r.now(),
	})
	return out, nil
}

// RecordQuizMistake appends a wrong-answer record. If an unresolved record
// with identical question text already exists the call is a no-op; the
// same confusion should not inflate the log. A new record also ensures the
// concept is in the confusion set.
func (r *Recorder) RecordQuizMistake(l *Ledger, questionText, wrongAnswer, correctAnswer, conceptID string) (*Ledger, error) {
	if _, ok := r.graph.Get(conceptID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConcept, conceptID)
	}
	for _, m := range l.MistakeLog {
		if !m.Resolved && m.QuestionText == questionText {
			return l, nil
		}
	}

	out := l.Clone()
	out.MistakeLog = append(out.MistakeLog, MistakeRecord{
		ID:            newID(),
		QuestionText:  questionText,
		WrongAnswer:   wrongAnswer,
		CorrectAnswer: correctAnswer,
		ConceptID:     conceptID,
		CreatedAt:     r.now(),
	})
	if !out.Confused(conceptID) {
		out.ConfusionSet = append(out.ConfusionSet, conceptID)
	}
	return out, nil
}

// ResolveMistake marks one record as resolved. The transition is one-way;
// resolving an already-resolved or unknown record is a no-op.
func (r *Recorder) ResolveMistake(l *Ledger, mistakeID string) *Ledger {
	out := l.Clone()
	for i := range out.MistakeLog {
		if out.MistakeLog[i].ID == mistakeID {
			out.MistakeLog[i].Resolved = true
		}
	}
	return out
}

// MarkRetried bumps the retry count of every unresolved record for the
// concept. Called after a retry quiz targeting those mistakes was issued.
func (r *Recorder) MarkRetried(l *Ledger, conceptID string) *Ledger {
	out := l.Clone()
	for i := range out.MistakeLog {
		if out.MistakeLog[i].ConceptID == conceptID && !out.MistakeLog[i].Resolved {
			out.MistakeLog[i].RetryCount++
		}
	}
	return out
}

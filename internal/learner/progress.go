package learner

import (
	"fmt"
	"math"
	"time"

	"github.com/shiksha-ai/shiksha-engine/internal/curriculum"
)

// ActivityKind distinguishes how the score was earned.
type ActivityKind string

const (
	KindQuiz   ActivityKind = "quiz"
	KindLesson ActivityKind = "lesson"
)

const lessonXP = 50

// Rank tiers, ascending. A learner's rank only ever moves up the table,
// even if a stale snapshot carries lower XP than previously observed.
const baseRank = "Lab Assistant"

var rankTiers = []struct {
	minXP int // exclusive lower bound
	name  string
}{
	{0, baseRank},
	{100, "Junior Scientist"},
	{300, "Lab Lead"},
	{1000, "Nobel Aspirant"},
}

// Accountant applies completed activities to a ledger snapshot.
type Accountant struct {
	graph *curriculum.Graph
	now   func() time.Time
}

// NewAccountant creates an accountant over the given graph. A custom clock
// can be injected for tests.
func NewAccountant(graph *curriculum.Graph, opts ...AccountantOption) *Accountant {
	a := &Accountant{graph: graph, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AccountantOption configures an Accountant.
type AccountantOption func(*Accountant)

// WithClock overrides the accountant's time source.
func WithClock(now func() time.Time) AccountantOption {
	return func(a *Accountant) {
		a.now = now
	}
}

// CompleteActivity applies a finished quiz or lesson and returns a new
// ledger snapshot. Mastery is max(existing, score) so a weak attempt never
// regresses progress. The streak increments whenever the previous
// activity's calendar date differs from today. There is deliberately no
// reset for multi-day gaps, pending product clarification.
func (a *Accountant) CompleteActivity(l *Ledger, conceptID string, score float64, kind ActivityKind) (*Ledger, error) {
	concept, ok := a.graph.Get(conceptID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownConcept, conceptID)
	}
	if score < 0 || score > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScore, score)
	}

	now := a.now()
	out := l.Clone()

	prev := out.Score(conceptID)
	if score > prev {
		out.Mastery[conceptID] = score
	}

	switch kind {
	case KindLesson:
		out.XP += lessonXP
	default:
		out.XP += int(math.Round(score * 100))
	}

	if !sameDay(out.LastActivity, now) {
		out.Streak++
	}
	out.LastActivity = now

	out.Rank = advanceRank(out.Rank, out.XP)

	if score > PrereqThreshold {
		out.ConfusionSet = removeString(out.ConfusionSet, conceptID)
	}

	if kind == KindLesson {
		out.prependActivity(Activity{
			ID:      newID(),
			Type:    ActivityLessonComplete,
			Message: fmt.Sprintf("Completed lesson: %s", concept.Title),
			At:      now,
		})
	} else {
		out.prependActivity(Activity{
			ID:      newID(),
			Type:    ActivityQuizComplete,
			Message: fmt.Sprintf("Completed %s quiz (%d%%)", concept.Title, int(math.Round(score*100))),
			At:      now,
		})
	}
	if prev < Mastered && out.Score(conceptID) >= Mastered {
		out.prependActivity(Activity{
			ID:      newID(),
			Type:    ActivityConceptMastered,
			Message: fmt.Sprintf("Mastered %s", concept.Title),
			At:      now,
		})
	}

	return out, nil
}

func (l *Ledger) prependActivity(a Activity) {
	l.Activities = append([]Activity{a}, l.Activities...)
	if len(l.Activities) > ActivityCap {
		l.Activities = l.Activities[:ActivityCap]
	}
}

// advanceRank rescans the tier table for the rank earned by xp and clamps
// against the current rank so it never moves backwards. The table is four
// entries; a scan per call is fine.
func advanceRank(current string, xp int) string {
	earned := 0
	for i, t := range rankTiers {
		if xp > t.minXP || i == 0 {
			earned = i
		}
	}
	held := 0
	for i, t := range rankTiers {
		if t.name == current {
			held = i
		}
	}
	if held > earned {
		earned = held
	}
	return rankTiers[earned].name
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func removeString(set []string, s string) []string {
	out := set[:0:0]
	for _, v := range set {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

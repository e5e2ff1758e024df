package learner

import "github.com/shiksha-ai/shiksha-engine/internal/curriculum"

// IsUnlocked reports whether a single concept is available for study:
// already mastered, all prerequisites above the threshold, or no
// prerequisites at all.
func IsUnlocked(g *curriculum.Graph, l *Ledger, c curriculum.Concept) bool {
	if l.Score(c.ID) >= Mastered {
		return true
	}
	for _, p := range c.Prerequisites {
		if l.Score(p) < PrereqThreshold {
			return false
		}
	}
	return true
}

// Unlocked returns the ids of all unlocked concepts in authoring order.
// It is recomputed on every read; the result is a function of the graph
// and the ledger alone.
func Unlocked(g *curriculum.Graph, l *Ledger) []string {
	out := make([]string, 0, g.Len())
	for _, c := range g.Concepts() {
		if IsUnlocked(g, l, c) {
			out = append(out, c.ID)
		}
	}
	return out
}

// Recommended returns the next concept the learner should study, or
// ok=false when the curriculum is complete. The anchor concept (first
// authored node) is forced while its own score is below mastery; every
// learner starts there. Otherwise the scan returns the first unlocked,
// not-yet-mastered concept in authoring order.
func Recommended(g *curriculum.Graph, l *Ledger) (string, bool) {
	if anchor, ok := g.Anchor(); ok && l.Score(anchor.ID) < Mastered {
		return anchor.ID, true
	}
	for _, c := range g.Concepts() {
		if l.Score(c.ID) < Mastered && IsUnlocked(g, l, c) {
			return c.ID, true
		}
	}
	return "", false
}

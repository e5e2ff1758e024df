package learner

import (
	"testing"
	"time"

	"github.com/shiksha-ai/shiksha-engine/internal/curriculum"
)

// testGraph builds a small catalog: anchor -> chain (a, b depends on a),
// plus a free-standing concept with no prerequisites.
func testGraph(t *testing.T) *curriculum.Graph {
	t.Helper()
	g, err := curriculum.NewGraph([]curriculum.Concept{
		{ID: "anchor", Title: "Anchor", Category: curriculum.Chemistry, RewardXP: 500, Position: 1},
		{ID: "a", Title: "A", Category: curriculum.Chemistry, RewardXP: 400, Position: 2, Prerequisites: []string{"anchor"}},
		{ID: "b", Title: "B", Category: curriculum.Chemistry, RewardXP: 400, Position: 3, Prerequisites: []string{"a"}},
		{ID: "free", Title: "Free", Category: curriculum.Physics, RewardXP: 300, Position: 4},
	})
	if err != nil {
		t.Fatalf("NewGraph() error = %v", err)
	}
	return g
}

func TestIsUnlockedNoPrerequisites(t *testing.T) {
	g := testGraph(t)
	l := NewLedger("s", time.Now())

	free, _ := g.Get("free")
	if !IsUnlocked(g, l, free) {
		t.Error("concept with no prerequisites should be unlocked")
	}
}

func TestIsUnlockedPrerequisiteThreshold(t *testing.T) {
	g := testGraph(t)
	l := NewLedger("s", time.Now())
	a, _ := g.Get("a")

	if IsUnlocked(g, l, a) {
		t.Error("a should be locked while anchor is unseen")
	}

	l.Mastery["anchor"] = 0.69
	if IsUnlocked(g, l, a) {
		t.Error("a should stay locked just below the prerequisite threshold")
	}

	l.Mastery["anchor"] = 0.7
	if !IsUnlocked(g, l, a) {
		t.Error("a should unlock at the prerequisite threshold")
	}
}

func TestIsUnlockedMasteredOverridesPrerequisites(t *testing.T) {
	g := testGraph(t)
	l := NewLedger("s", time.Now())
	b, _ := g.Get("b")

	// b's prerequisite a is unseen, but b itself was mastered (for example
	// by a stale import). Mastery keeps it open.
	l.Mastery["b"] = 0.8
	if !IsUnlocked(g, l, b) {
		t.Error("a mastered concept should always be unlocked")
	}
}

func TestUnlockedAuthoringOrder(t *testing.T) {
	g := testGraph(t)
	l := NewLedger("s", time.Now())
	l.Mastery["anchor"] = 0.75

	got := Unlocked(g, l)
	want := []string{"anchor", "a", "free"}
	if len(got) != len(want) {
		t.Fatalf("Unlocked() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Unlocked()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestUnlockedEmptyGraphIsEmptySlice(t *testing.T) {
	g, err := curriculum.NewGraph(nil)
	if err != nil {
		t.Fatalf("NewGraph() error = %v", err)
	}
	l := NewLedger("s", time.Now())

	got := Unlocked(g, l)
	if got == nil {
		t.Error("Unlocked() = nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("Unlocked() = %v, want empty", got)
	}
}

func TestRecommendedForcesAnchorFirst(t *testing.T) {
	g := testGraph(t)
	l := NewLedger("s", time.Now())

	// Even with another concept in progress the anchor wins until mastered.
	l.Mastery["free"] = 0.5

	got, ok := Recommended(g, l)
	if !ok || got != "anchor" {
		t.Errorf("Recommended() = %v, %v, want anchor, true", got, ok)
	}
}

func TestRecommendedAfterAnchorMastered(t *testing.T) {
	g := testGraph(t)
	l := NewLedger("s", time.Now())
	l.Mastery["anchor"] = 0.85

	got, ok := Recommended(g, l)
	if !ok || got != "a" {
		t.Errorf("Recommended() = %v, %v, want a, true", got, ok)
	}
}

func TestRecommendedCurriculumComplete(t *testing.T) {
	g := testGraph(t)
	l := NewLedger("s", time.Now())
	for _, c := range g.Concepts() {
		l.Mastery[c.ID] = 0.9
	}

	if got, ok := Recommended(g, l); ok {
		t.Errorf("Recommended() = %v, want ok=false when everything is mastered", got)
	}
}

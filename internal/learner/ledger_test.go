package learner

import (
	"testing"
	"time"
)

func TestNewLedgerSeedsLoginActivity(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewLedger("student-1", now)

	if l.LearnerID != "student-1" {
		t.Errorf("LearnerID = %q, want student-1", l.LearnerID)
	}
	if l.Rank != baseRank {
		t.Errorf("Rank = %q, want %q", l.Rank, baseRank)
	}
	if len(l.Activities) != 1 || l.Activities[0].Type != ActivityLogin {
		t.Fatalf("Activities = %+v, want one login entry", l.Activities)
	}
	if !l.Activities[0].At.Equal(now) {
		t.Errorf("login At = %v, want %v", l.Activities[0].At, now)
	}
}

func TestCloneIsDeep(t *testing.T) {
	l := NewLedger("s", time.Now())
	l.Mastery["a"] = 0.5
	l.ConfusionSet = append(l.ConfusionSet, "a")
	l.MistakeLog = append(l.MistakeLog, MistakeRecord{ID: "m1"})

	c := l.Clone()
	c.Mastery["a"] = 0.9
	c.ConfusionSet[0] = "b"
	c.MistakeLog[0].Resolved = true
	c.Activities[0].Message = "changed"

	if l.Mastery["a"] != 0.5 {
		t.Errorf("original mastery mutated: %v", l.Mastery["a"])
	}
	if l.ConfusionSet[0] != "a" {
		t.Errorf("original confusion set mutated: %v", l.ConfusionSet)
	}
	if l.MistakeLog[0].Resolved {
		t.Error("original mistake log mutated")
	}
	if l.Activities[0].Message == "changed" {
		t.Error("original activities mutated")
	}
}

func TestDecodeLedgerFillsDefaults(t *testing.T) {
	l, err := DecodeLedger([]byte(`{"learnerId":"s","xp":-5,"streak":-1,"mastery":{"a":1.7,"b":-0.3}}`))
	if err != nil {
		t.Fatalf("DecodeLedger() error = %v", err)
	}

	if l.ConfusionSet == nil || l.MistakeLog == nil || l.Activities == nil {
		t.Error("nil collections were not defaulted")
	}
	if l.Rank != baseRank {
		t.Errorf("Rank = %q, want %q", l.Rank, baseRank)
	}
	if l.XP != 0 {
		t.Errorf("XP = %d, want 0", l.XP)
	}
	if l.Streak != 0 {
		t.Errorf("Streak = %d, want 0", l.Streak)
	}
	if l.Mastery["a"] != 1 {
		t.Errorf("score a = %v, want clamped to 1", l.Mastery["a"])
	}
	if l.Mastery["b"] != 0 {
		t.Errorf("score b = %v, want clamped to 0", l.Mastery["b"])
	}
	if l.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", l.SchemaVersion, SchemaVersion)
	}
}

func TestDecodeLedgerRoundTrip(t *testing.T) {
	l := NewLedger("s", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	l.Mastery["a"] = 0.8
	l.XP = 120

	data, err := EncodeLedger(l)
	if err != nil {
		t.Fatalf("EncodeLedger() error = %v", err)
	}
	got, err := DecodeLedger(data)
	if err != nil {
		t.Fatalf("DecodeLedger() error = %v", err)
	}

	if got.XP != 120 || got.Mastery["a"] != 0.8 || got.LearnerID != "s" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestUnresolvedMistakes(t *testing.T) {
	l := NewLedger("s", time.Now())
	l.MistakeLog = []MistakeRecord{
		{ID: "1", ConceptID: "a"},
		{ID: "2", ConceptID: "a", Resolved: true},
		{ID: "3", ConceptID: "b"},
	}

	got := l.UnresolvedMistakes("a")
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("UnresolvedMistakes(a) = %+v, want record 1 only", got)
	}
}

package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shiksha-ai/shiksha-engine/internal/curriculum"
	"github.com/shiksha-ai/shiksha-engine/internal/learner"
)

// stubGenerator returns canned questions and records the call.
type stubGenerator struct {
	questions []GeneratedQuestion
	err       error
	lastHints []MistakeHint
	lastCount int
	called    bool
}

func (s *stubGenerator) Generate(_ context.Context, _ string, hints []MistakeHint, count int) ([]GeneratedQuestion, error) {
	s.called = true
	s.lastHints = hints
	s.lastCount = count
	if s.err != nil {
		return nil, s.err
	}
	return s.questions, nil
}

func testGraph(t *testing.T) *curriculum.Graph {
	t.Helper()
	g, err := curriculum.NewGraph([]curriculum.Concept{
		{
			ID: "chem", Title: "Chemistry", Category: curriculum.Chemistry,
			RewardXP: 500, Position: 1,
			Bank: []curriculum.Question{
				{ID: "b1", Text: "Q1", Options: []string{"a", "b"}, CorrectIndex: 0, Origin: curriculum.OriginStatic},
				{ID: "b2", Text: "Q2", Options: []string{"a", "b"}, CorrectIndex: 1, Origin: curriculum.OriginStatic},
				{ID: "b3", Text: "Q3", Options: []string{"a", "b"}, CorrectIndex: 0, Origin: curriculum.OriginStatic},
			},
		},
		{ID: "empty", Title: "Empty", Category: curriculum.Physics, RewardXP: 300, Position: 2},
	})
	if err != nil {
		t.Fatalf("NewGraph() error = %v", err)
	}
	return g
}

func TestComposeBlendsGeneratedAndStatic(t *testing.T) {
	g := testGraph(t)
	gen := &stubGenerator{questions: []GeneratedQuestion{
		{Text: "G1", Options: []string{"x", "y"}, CorrectIndex: 0, ConceptTag: "chem"},
		{Text: "G2", Options: []string{"x", "y", "z"}, CorrectIndex: 2, ConceptTag: "chem"},
	}}
	c := NewComposer(g, gen)
	l := learner.NewLedger("s", time.Now())

	q, err := c.Compose(context.Background(), l, "chem", 2)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if q.ConceptID != "chem" || q.ID == "" {
		t.Errorf("quiz = %+v, want id and concept set", q)
	}
	// 2 generated + at most 2 static.
	if len(q.Questions) != 4 {
		t.Fatalf("question count = %d, want 4", len(q.Questions))
	}

	static, generated := 0, 0
	for _, question := range q.Questions {
		switch question.Origin {
		case curriculum.OriginStatic:
			static++
		case curriculum.OriginGenerated:
			generated++
		}
		if question.IsRetry {
			t.Error("IsRetry set without mistake hints")
		}
	}
	if static != 2 || generated != 2 {
		t.Errorf("static = %d, generated = %d, want 2 and 2", static, generated)
	}
}

func TestComposeDefaultCount(t *testing.T) {
	g := testGraph(t)
	gen := &stubGenerator{}
	c := NewComposer(g, gen)
	l := learner.NewLedger("s", time.Now())

	if _, err := c.Compose(context.Background(), l, "chem", 0); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if gen.lastCount != DefaultCount {
		t.Errorf("generator count = %d, want %d", gen.lastCount, DefaultCount)
	}
}

func TestComposeGeneratorFailureDegrades(t *testing.T) {
	g := testGraph(t)
	gen := &stubGenerator{err: errors.New("provider down")}
	c := NewComposer(g, gen)
	l := learner.NewLedger("s", time.Now())

	q, err := c.Compose(context.Background(), l, "chem", 3)
	if err != nil {
		t.Fatalf("Compose() error = %v, generator failure must not surface", err)
	}
	if len(q.Questions) != 2 {
		t.Fatalf("question count = %d, want 2 static only", len(q.Questions))
	}
	for _, question := range q.Questions {
		if question.Origin != curriculum.OriginStatic {
			t.Errorf("question origin = %q, want static", question.Origin)
		}
	}
}

func TestComposeNilGenerator(t *testing.T) {
	g := testGraph(t)
	c := NewComposer(g, nil)
	l := learner.NewLedger("s", time.Now())

	q, err := c.Compose(context.Background(), l, "chem", 3)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(q.Questions) != 2 {
		t.Errorf("question count = %d, want 2 static only", len(q.Questions))
	}
}

func TestComposeZeroQuestionsIsValid(t *testing.T) {
	g := testGraph(t)
	c := NewComposer(g, &stubGenerator{err: errors.New("down")})
	l := learner.NewLedger("s", time.Now())

	q, err := c.Compose(context.Background(), l, "empty", 3)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(q.Questions) != 0 {
		t.Errorf("question count = %d, want 0", len(q.Questions))
	}
	if q.Questions == nil {
		t.Error("Questions is nil, want empty slice")
	}

	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshaling quiz: %v", err)
	}
	if !strings.Contains(string(data), `"questions":[]`) {
		t.Errorf("quiz JSON = %s, want questions as []", data)
	}
}

func TestComposeRetryHints(t *testing.T) {
	g := testGraph(t)
	gen := &stubGenerator{questions: []GeneratedQuestion{
		{Text: "R1", Options: []string{"x", "y"}, CorrectIndex: 0, ConceptTag: "chem"},
	}}
	c := NewComposer(g, gen)
	l := learner.NewLedger("s", time.Now())
	l.MistakeLog = []learner.MistakeRecord{
		{ID: "m1", QuestionText: "Old question", ConceptID: "chem"},
		{ID: "m2", QuestionText: "Resolved one", ConceptID: "chem", Resolved: true},
		{ID: "m3", QuestionText: "Other concept", ConceptID: "empty"},
	}

	q, err := c.Compose(context.Background(), l, "chem", 1)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(gen.lastHints) != 1 || gen.lastHints[0].Question != "Old question" {
		t.Fatalf("hints = %+v, want the single unresolved chem mistake", gen.lastHints)
	}

	for _, question := range q.Questions {
		if question.Origin == curriculum.OriginGenerated && !question.IsRetry {
			t.Error("generated question should be flagged IsRetry when hints were used")
		}
	}
}

func TestComposeDropsMalformedGenerated(t *testing.T) {
	g := testGraph(t)
	gen := &stubGenerator{questions: []GeneratedQuestion{
		{Text: "ok", Options: []string{"x", "y"}, CorrectIndex: 0, ConceptTag: "chem"},
		{Text: "bad index", Options: []string{"x", "y"}, CorrectIndex: 5, ConceptTag: "chem"},
		{Text: "too many", Options: []string{"a", "b", "c", "d", "e"}, CorrectIndex: 0, ConceptTag: "chem"},
	}}
	c := NewComposer(g, gen)
	l := learner.NewLedger("s", time.Now())

	// empty has no bank; only the valid generated question survives.
	q, err := c.Compose(context.Background(), l, "empty", 3)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if len(q.Questions) != 1 || q.Questions[0].Text != "ok" {
		t.Errorf("questions = %+v, want only the well-formed one", q.Questions)
	}
}

func TestComposeUnknownConcept(t *testing.T) {
	g := testGraph(t)
	c := NewComposer(g, nil)
	l := learner.NewLedger("s", time.Now())

	if _, err := c.Compose(context.Background(), l, "nope", 3); !errors.Is(err, learner.ErrUnknownConcept) {
		t.Errorf("error = %v, want ErrUnknownConcept", err)
	}
}

func TestComposeTimeoutBoundsGenerator(t *testing.T) {
	g := testGraph(t)
	slow := generatorFunc(func(ctx context.Context, _ string, _ []MistakeHint, _ int) ([]GeneratedQuestion, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return []GeneratedQuestion{{Text: "late", Options: []string{"x", "y"}, CorrectIndex: 0, ConceptTag: "chem"}}, nil
		}
	})
	c := NewComposer(g, slow, WithGenTimeout(10*time.Millisecond))
	l := learner.NewLedger("s", time.Now())

	start := time.Now()
	q, err := c.Compose(context.Background(), l, "chem", 1)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Compose() did not respect the generator timeout")
	}
	for _, question := range q.Questions {
		if question.Origin == curriculum.OriginGenerated {
			t.Error("timed-out generator should contribute no questions")
		}
	}
}

type generatorFunc func(ctx context.Context, conceptTitle string, hints []MistakeHint, count int) ([]GeneratedQuestion, error)

func (f generatorFunc) Generate(ctx context.Context, conceptTitle string, hints []MistakeHint, count int) ([]GeneratedQuestion, error) {
	return f(ctx, conceptTitle, hints, count)
}

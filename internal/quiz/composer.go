// Package quiz assembles adaptive quizzes for a concept: freshly generated
// questions biased toward the learner's unresolved mistakes, blended with
// the concept's static bank. The generator call is the only suspension
// point in the engine and its failure is absorbed here, never surfaced.
package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/shiksha-ai/shiksha-engine/internal/curriculum"
	"github.com/shiksha-ai/shiksha-engine/internal/learner"
)

const (
	// DefaultCount is the number of generated questions requested when the
	// caller does not ask for a specific count.
	DefaultCount = 3

	// maxStatic caps how many bank questions pad the quiz.
	maxStatic = 2

	defaultGenTimeout = 15 * time.Second
)

// MistakeHint is one prior wrong answer passed to the generator so it can
// target the learner's known gaps.
type MistakeHint struct {
	Question string `json:"question"`
	Concept  string `json:"concept"`
}

// GeneratedQuestion is the generator's output shape before it is adopted
// into the quiz.
type GeneratedQuestion struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	ConceptTag   string   `json:"conceptTag"`
	Explanation  string   `json:"explanation"`
}

// Generator produces questions for a concept. Implementations may call out
// to an AI provider; the composer bounds the call with a timeout and treats
// any error as "no generated questions".
type Generator interface {
	Generate(ctx context.Context, conceptTitle string, hints []MistakeHint, count int) ([]GeneratedQuestion, error)
}

// Quiz is an assembled question set. It is built per request and never
// persisted as a template.
type Quiz struct {
	ID        string                `json:"id"`
	ConceptID string                `json:"conceptId"`
	Questions []curriculum.Question `json:"questions"`
}

// Composer builds adaptive quizzes.
type Composer struct {
	graph   *curriculum.Graph
	gen     Generator
	timeout time.Duration
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithGenTimeout bounds the generator call.
func WithGenTimeout(d time.Duration) ComposerOption {
	return func(c *Composer) {
		c.timeout = d
	}
}

// NewComposer creates a composer. gen may be nil, in which case quizzes are
// assembled from the static bank alone.
func NewComposer(graph *curriculum.Graph, gen Generator, opts ...ComposerOption) *Composer {
	c := &Composer{graph: graph, gen: gen, timeout: defaultGenTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose builds a quiz for the concept. Generated questions come first
// from the generator (seeded with unresolved-mistake hints), then up to two
// static bank questions; the union is shuffled uniformly. An unavailable
// generator degrades to static-only, and a quiz with zero questions means
// "nothing to test", not an error.
func (c *Composer) Compose(ctx context.Context, l *learner.Ledger, conceptID string, count int) (*Quiz, error) {
	concept, ok := c.graph.Get(conceptID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", learner.ErrUnknownConcept, conceptID)
	}
	if count <= 0 {
		count = DefaultCount
	}

	var hints []MistakeHint
	for _, m := range l.UnresolvedMistakes(conceptID) {
		hints = append(hints, MistakeHint{Question: m.QuestionText, Concept: m.ConceptID})
	}

	// Non-nil so an empty quiz serializes as [], not null.
	questions := make([]curriculum.Question, 0, count+maxStatic)
	questions = append(questions, c.generate(ctx, concept, hints, count)...)

	for i, q := range concept.Bank {
		if i >= maxStatic {
			break
		}
		questions = append(questions, q)
	}

	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	return &Quiz{
		ID:        uuid.NewString(),
		ConceptID: conceptID,
		Questions: questions,
	}, nil
}

// generate asks the generator for questions under the composer's timeout.
// Failures are logged and absorbed; structurally invalid questions are
// dropped.
func (c *Composer) generate(ctx context.Context, concept curriculum.Concept, hints []MistakeHint, count int) []curriculum.Question {
	if c.gen == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	generated, err := c.gen.Generate(ctx, concept.Title, hints, count)
	if err != nil {
		slog.Warn("question generation unavailable, using static bank only",
			"concept", concept.ID,
			"error", err,
		)
		return nil
	}

	isRetry := len(hints) > 0
	var out []curriculum.Question
	for _, g := range generated {
		q := curriculum.Question{
			ID:           uuid.NewString(),
			Text:         g.Text,
			Options:      g.Options,
			CorrectIndex: g.CorrectIndex,
			ConceptTag:   g.ConceptTag,
			Explanation:  g.Explanation,
			Origin:       curriculum.OriginGenerated,
			IsRetry:      isRetry,
		}
		if !q.ValidShape() {
			slog.Warn("dropping malformed generated question", "concept", concept.ID, "text_len", len(q.Text))
			continue
		}
		out = append(out, q)
	}
	return out
}

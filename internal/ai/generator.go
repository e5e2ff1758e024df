package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/shiksha-ai/shiksha-engine/internal/quiz"
)

// questionsSchema validates the generator's JSON output before any of it is
// trusted. Models occasionally return prose, truncated arrays, or options
// lists of the wrong size; schema failures are rejected wholesale.
const questionsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["text", "options", "correctIndex", "conceptTag"],
    "properties": {
      "text": {"type": "string", "minLength": 1},
      "options": {
        "type": "array",
        "items": {"type": "string"},
        "minItems": 2,
        "maxItems": 4
      },
      "correctIndex": {"type": "integer", "minimum": 0},
      "conceptTag": {"type": "string", "minLength": 1},
      "explanation": {"type": "string"}
    }
  }
}`

const generatorSystemPrompt = `You are a science tutor writing multiple-choice questions for a secondary school learner.
Respond with ONLY a JSON array, no prose and no markdown fences. Each element must have:
"text" (the question), "options" (2 to 4 answer strings), "correctIndex" (0-based index of the right option),
"conceptTag" (the concept id given to you), and "explanation" (one sentence on why the answer is right).`

// QuestionGenerator produces quiz questions through the AI router. It
// satisfies the quiz package's Generator interface.
type QuestionGenerator struct {
	router *Router
	model  string
	schema *gojsonschema.Schema
}

// NewQuestionGenerator creates a generator over the router. model may be
// empty to use each provider's default.
func NewQuestionGenerator(router *Router, model string) (*QuestionGenerator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(questionsSchema))
	if err != nil {
		return nil, fmt.Errorf("compile questions schema: %w", err)
	}
	return &QuestionGenerator{router: router, model: model, schema: schema}, nil
}

// Generate asks the model for count questions on the concept, steering
// toward the learner's past mistakes when hints are present.
func (g *QuestionGenerator) Generate(ctx context.Context, conceptTitle string, hints []quiz.MistakeHint, count int) ([]quiz.GeneratedQuestion, error) {
	if !g.router.HasProvider() {
		return nil, fmt.Errorf("no AI provider configured")
	}

	resp, err := g.router.Complete(ctx, CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: generatorSystemPrompt},
			{Role: "user", Content: buildPrompt(conceptTitle, hints, count)},
		},
		Model:       g.model,
		Temperature: 0.7,
		Task:        TaskQuestionGen,
	})
	if err != nil {
		return nil, err
	}

	cleaned := cleanJSONResponse(resp.Content)

	result, err := g.schema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("validate generated questions: %w", err)
	}
	if !result.Valid() {
		var reasons []string
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return nil, fmt.Errorf("generated questions failed schema: %s", strings.Join(reasons, "; "))
	}

	var questions []quiz.GeneratedQuestion
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("unmarshal generated questions: %w", err)
	}
	return questions, nil
}

// buildPrompt renders the user message for a generation request.
func buildPrompt(conceptTitle string, hints []quiz.MistakeHint, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d multiple-choice questions about %q.\n", count, conceptTitle)
	if len(hints) > 0 {
		b.WriteString("The learner previously answered these questions wrong; write fresh questions that probe the same ideas from a different angle:\n")
		for _, h := range hints {
			fmt.Fprintf(&b, "- %s (concept %s)\n", h.Question, h.Concept)
		}
		b.WriteString("Use the concept id from the list above as conceptTag.\n")
	}
	return b.String()
}

// cleanJSONResponse strips markdown code fences that models wrap around
// JSON despite instructions.
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

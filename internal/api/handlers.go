// Package api exposes the engine over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shiksha-ai/shiksha-engine/internal/ai"
	"github.com/shiksha-ai/shiksha-engine/internal/curriculum"
	"github.com/shiksha-ai/shiksha-engine/internal/learner"
	"github.com/shiksha-ai/shiksha-engine/internal/quiz"
	"github.com/shiksha-ai/shiksha-engine/internal/report"
)

// Server holds the engine components behind the HTTP surface.
type Server struct {
	graph      *curriculum.Graph
	store      learner.Store
	accountant *learner.Accountant
	recorder   *learner.Recorder
	composer   *quiz.Composer
	exporter   *report.Exporter
	router     *ai.Router
	ready      func(ctx context.Context) error
}

// NewServer wires the HTTP surface. router may be nil when no AI provider
// is configured, and ready may be nil when there is no backing service to
// probe.
func NewServer(
	graph *curriculum.Graph,
	store learner.Store,
	accountant *learner.Accountant,
	recorder *learner.Recorder,
	composer *quiz.Composer,
	exporter *report.Exporter,
	router *ai.Router,
	ready func(ctx context.Context) error,
) *Server {
	return &Server{
		graph:      graph,
		store:      store,
		accountant: accountant,
		recorder:   recorder,
		composer:   composer,
		exporter:   exporter,
		router:     router,
		ready:      ready,
	}
}

// Mux builds the route table.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("GET /v1/learners/{id}", s.handleGetLearner)
	mux.HandleFunc("GET /v1/learners/{id}/concepts", s.handleGetConcepts)
	mux.HandleFunc("POST /v1/learners/{id}/activities", s.handlePostActivity)
	mux.HandleFunc("POST /v1/learners/{id}/quizzes", s.handlePostQuiz)
	mux.HandleFunc("POST /v1/learners/{id}/mistakes", s.handlePostMistake)
	mux.HandleFunc("GET /v1/reports/class", s.handleClassReport)
	mux.HandleFunc("GET /v1/models", s.handleModels)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleModels lists the generation models available through the
// configured providers. Empty when quizzes run on static banks alone.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models := []ai.ModelInfo{}
	if s.router != nil {
		models = s.router.Models()
	}
	writeJSON(w, http.StatusOK, map[string][]ai.ModelInfo{"models": models})
}

// handleGetLearner returns the ledger, seeding a fresh one on first contact.
func (s *Server) handleGetLearner(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	l, err := s.store.Get(r.Context(), id)
	if errors.Is(err, learner.ErrNotFound) {
		l = learner.NewLedger(id, time.Now())
		if err := s.store.Put(r.Context(), l); err != nil {
			s.writeError(w, err)
			return
		}
		slog.Info("seeded new ledger", "learner", id)
	} else if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type conceptState struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
	Unlocked    bool    `json:"unlocked"`
	Mastered    bool    `json:"mastered"`
	Confused    bool    `json:"confused"`
	Recommended bool    `json:"recommended"`
}

type conceptsResponse struct {
	Concepts    []conceptState `json:"concepts"`
	Recommended string         `json:"recommended,omitempty"`
}

// handleGetConcepts returns the learner's view of the concept graph:
// per-concept unlock state plus the single recommended next concept.
func (s *Server) handleGetConcepts(w http.ResponseWriter, r *http.Request) {
	l, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	recommended, _ := learner.Recommended(s.graph, l)

	resp := conceptsResponse{Recommended: recommended}
	for _, c := range s.graph.Concepts() {
		resp.Concepts = append(resp.Concepts, conceptState{
			ID:          c.ID,
			Title:       c.Title,
			Category:    string(c.Category),
			Score:       l.Score(c.ID),
			Unlocked:    learner.IsUnlocked(s.graph, l, c),
			Mastered:    l.Score(c.ID) >= learner.Mastered,
			Confused:    l.Confused(c.ID),
			Recommended: c.ID == recommended,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type activityRequest struct {
	ConceptID string  `json:"conceptId"`
	Kind      string  `json:"kind"` // "quiz" or "lesson"
	Score     float64 `json:"score"`
}

// handlePostActivity applies a completed quiz or lesson to the ledger and
// persists the new snapshot.
func (s *Server) handlePostActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	kind := learner.ActivityKind(req.Kind)
	if kind != learner.KindQuiz && kind != learner.KindLesson {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown activity kind %q", req.Kind)})
		return
	}

	l, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	updated, err := s.accountant.CompleteActivity(l, req.ConceptID, req.Score, kind)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Put(r.Context(), updated); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type quizRequest struct {
	ConceptID string `json:"conceptId"`
	Count     int    `json:"count,omitempty"`
}

// handlePostQuiz composes an adaptive quiz. When the quiz targets past
// mistakes their retry counts are bumped and the ledger persisted.
func (s *Server) handlePostQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	l, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	q, err := s.composer.Compose(r.Context(), l, req.ConceptID, req.Count)
	if err != nil {
		s.writeError(w, err)
		return
	}

	for _, question := range q.Questions {
		if question.IsRetry {
			updated := s.recorder.MarkRetried(l, req.ConceptID)
			if err := s.store.Put(r.Context(), updated); err != nil {
				s.writeError(w, err)
				return
			}
			break
		}
	}
	writeJSON(w, http.StatusOK, q)
}

type mistakeRequest struct {
	ConceptID     string `json:"conceptId"`
	QuestionText  string `json:"questionText,omitempty"`
	WrongAnswer   string `json:"wrongAnswer,omitempty"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
}

// handlePostMistake records a mistake. With question text it appends a full
// quiz-mistake record; without, it only flags the concept as a confusion
// point.
func (s *Server) handlePostMistake(w http.ResponseWriter, r *http.Request) {
	var req mistakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	l, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var updated *learner.Ledger
	if req.QuestionText != "" {
		updated, err = s.recorder.RecordQuizMistake(l, req.QuestionText, req.WrongAnswer, req.CorrectAnswer, req.ConceptID)
	} else {
		updated, err = s.recorder.RecordMistake(l, req.ConceptID)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.Put(r.Context(), updated); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleClassReport streams the class progress workbook.
func (s *Server) handleClassReport(w http.ResponseWriter, r *http.Request) {
	ledgers, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	f, err := s.exporter.Export(ledgers)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="class-progress.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to stream report", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, learner.ErrUnknownConcept), errors.Is(err, learner.ErrInvalidScore):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, learner.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

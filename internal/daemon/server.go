// Package daemon exposes the feedback cycle over HTTP: session creation,
// run evaluation, gated advancement, and quiz resolution.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/blockyard/stagekit/internal/config"
	"github.com/blockyard/stagekit/internal/domain"
	"github.com/blockyard/stagekit/internal/interstitial"
	"github.com/blockyard/stagekit/internal/level"
	"github.com/blockyard/stagekit/internal/overlay"
	"github.com/blockyard/stagekit/internal/progress"
	"github.com/blockyard/stagekit/internal/queue"
	"github.com/blockyard/stagekit/internal/report"
	"github.com/blockyard/stagekit/internal/repository"
)

// StoreFactory builds a progress store scoped to one session.
type StoreFactory func(sessionID string) progress.Store

// ServerConfig wires the server's collaborators. Everything past Config and
// Registry is optional; a nil backend simply disables that concern.
type ServerConfig struct {
	Config   *config.Config
	Registry *level.Registry
	Stores   StoreFactory
	Attempts *repository.AttemptRepository
	Producer *queue.Producer
	Reporter *report.Client
	Logger   *slog.Logger
}

// Server is the stagekit daemon HTTP server.
type Server struct {
	cfg      *config.Config
	server   *http.Server
	router   *http.ServeMux
	logger   *slog.Logger
	registry *level.Registry

	evaluator *domain.FeedbackEvaluator
	sessions  *SessionManager
	stores    StoreFactory
	attempts  *repository.AttemptRepository
	producer  *queue.Producer
	reporter  *report.Client
}

// NewServer creates the daemon server.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:       cfg.Config,
		router:    http.NewServeMux(),
		logger:    logger,
		registry:  cfg.Registry,
		evaluator: domain.NewFeedbackEvaluator(),
		sessions:  NewSessionManager(),
		stores:    cfg.Stores,
		attempts:  cfg.Attempts,
		producer:  cfg.Producer,
		reporter:  cfg.Reporter,
	}

	s.setupRoutes()

	handler := correlationIDMiddleware(recoveryMiddleware(loggingMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /v1/health", s.handleHealth)

	s.router.HandleFunc("GET /v1/tracks", s.handleListTracks)
	s.router.HandleFunc("GET /v1/tracks/{id}/levels", s.handleListLevels)

	s.router.HandleFunc("GET /v1/attempts/{id}", s.handleGetAttempt)
	s.router.HandleFunc("GET /v1/tracks/{id}/levels/{number}/attempts", s.handleListAttempts)

	s.router.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.router.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.router.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)

	s.router.HandleFunc("POST /v1/sessions/{id}/runs", s.handleRun)
	s.router.HandleFunc("POST /v1/sessions/{id}/advance", s.handleAdvance)
	s.router.HandleFunc("POST /v1/sessions/{id}/reset", s.handleReset)
	s.router.HandleFunc("POST /v1/sessions/{id}/quiz", s.handleQuiz)
	s.router.HandleFunc("POST /v1/sessions/{id}/dismiss", s.handleDismiss)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting stagekit daemon", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down daemon")
	return s.server.Shutdown(ctx)
}

// Handler returns the middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks := s.registry.ListTracks()
	result := make([]map[string]any, 0, len(tracks))
	for _, trk := range tracks {
		result = append(result, map[string]any{
			"id":          trk.ID,
			"name":        trk.Name,
			"description": trk.Description,
			"max_level":   trk.MaxLevel,
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"tracks": result})
}

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	trackID := r.PathValue("id")

	levels, err := s.registry.ListLevels(trackID)
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "track not found", err)
		return
	}

	result := make([]map[string]any, 0, len(levels))
	for _, lvl := range levels {
		result = append(result, map[string]any{
			"number": lvl.Number,
			"name":   lvl.Name,
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"track_id": trackID, "levels": result})
}

// Attempt handlers. Reads go straight to the analytics store; when the
// daemon runs without Postgres the endpoints report the backend as disabled.

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	if s.attempts == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "attempt recording disabled", nil)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid attempt id", err)
		return
	}

	attempt, err := s.attempts.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAttemptNotFound) {
			s.jsonError(w, http.StatusNotFound, "attempt not found", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "attempt lookup failed", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, attemptPayload(attempt))
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	if s.attempts == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "attempt recording disabled", nil)
		return
	}

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 {
		s.jsonError(w, http.StatusBadRequest, "invalid level number", err)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.jsonError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}

	trackID := r.PathValue("id")
	attempts, err := s.attempts.ListByTrackLevel(r.Context(), trackID, number, limit)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "attempt listing failed", err)
		return
	}

	result := make([]map[string]any, 0, len(attempts))
	for _, a := range attempts {
		result = append(result, attemptPayload(a))
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"track_id": trackID,
		"level":    number,
		"attempts": result,
	})
}

func attemptPayload(a *domain.Attempt) map[string]any {
	return map[string]any{
		"id":           a.ID.String(),
		"track":        a.Track,
		"level":        a.Level,
		"outcome":      int(a.Outcome),
		"outcome_name": a.Outcome.String(),
		"completed":    a.Completed,
		"blocks_used":  a.BlocksUsed,
		"program":      a.Program,
		"created_at":   a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Session handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Track  string `json:"track"`
		Level  int    `json:"level"`
		Lang   string `json:"lang"`
		Page   string `json:"page"`
		Origin string `json:"origin"`
		Path   string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Level == 0 {
		req.Level = 1
	}
	if req.Lang == "" {
		req.Lang = "en"
	}

	trk, err := s.registry.GetTrack(req.Track)
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "track not found", err)
		return
	}
	lvl, err := s.registry.GetLevel(req.Track, req.Level)
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "level not found", err)
		return
	}

	page := req.Page
	if page == "" {
		page = lvl.Page
	}
	skin := lvl.Skin
	if skin == "" {
		skin = trk.Skin
	}
	mode := lvl.Mode
	if mode == "" {
		mode = trk.Mode
	}

	p := &progress.LevelProgress{
		Track:         req.Track,
		Level:         req.Level,
		MaxLevel:      trk.MaxLevel,
		Interstitials: lvl.Interstitials,
		Origin:        req.Origin,
		Path:          req.Path,
		Lang:          req.Lang,
		Page:          page,
		Skin:          skin,
		Mode:          mode,
	}

	sess := newSession(lvl, p, s.logger)
	if s.stores != nil {
		if store := s.stores(sess.ID); store != nil {
			sess.store = store
			progress.RestoreDeferred(overlay.TimerScheduler{}, store, p, &sess.mu, s.logger)
		}
	}
	s.sessions.Add(sess)

	sess.mu.Lock()
	sess.Coordinator.PageReady()
	resp := map[string]any{
		"id":    sess.ID,
		"track": p.Track,
		"level": p.Level,
		"state": sess.Coordinator.State().String(),
	}
	if sess.shown != nil {
		resp["interstitial"] = contentPayload(sess.shown)
		sess.shown = nil
	}
	sess.mu.Unlock()

	s.jsonResponse(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"id":               sess.ID,
		"track":            sess.Progress.Track,
		"level":            sess.Progress.Level,
		"completed":        sess.Progress.Completed,
		"state":            sess.Coordinator.State().String(),
		"continue_enabled": sess.Coordinator.ContinueEnabled(),
		"overlay_visible":  sess.Overlay.IsVisible(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.sessions.Get(id); err != nil {
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
		return
	}
	s.sessions.Remove(id)
	s.jsonResponse(w, http.StatusOK, map[string]any{"deleted": true})
}

// Run handler

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
		return
	}

	var req struct {
		Blocks []struct {
			Type      string `json:"type"`
			Disabled  bool   `json:"disabled"`
			Deletable *bool  `json:"deletable"`
		} `json:"blocks"`
		Program   string `json:"program"`
		Completed bool   `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	blocks := make([]domain.Block, 0, len(req.Blocks))
	for _, b := range req.Blocks {
		deletable := true
		if b.Deletable != nil {
			deletable = *b.Deletable
		}
		blocks = append(blocks, domain.Block{Type: b.Type, Disabled: b.Disabled, Deletable: deletable})
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.Coordinator.RunStarted()
	ws := blockWorkspace{blocks: blocks, program: req.Program}
	result := s.evaluator.Evaluate(ws, req.Completed, sess.Level.Eval)

	attempt := domain.NewAttempt(sess.Progress.Track, sess.Progress.Level, req.Completed, result)

	// Show before arming the gate: replacing a previous feedback dialog runs
	// its hide hooks, which must not cancel this cycle's pending content.
	sess.Overlay.Show(dialogNode{id: "feedback-" + attempt.ID.String()}, nil, overlay.ShowOptions{
		Modal: true,
	})

	sess.Progress.Completed = req.Completed && result.Outcome.Succeeded()
	if sess.Progress.Completed {
		sess.Coordinator.LevelCompleted()
	}

	s.recordAttempt(r.Context(), sess, attempt)
	s.saveProgress(r.Context(), sess)
	s.sendReport(sess, attempt)

	missing := make([]string, 0, len(result.Missing))
	for _, spec := range result.Missing {
		missing = append(missing, spec.ID)
	}

	presentation := result.Outcome.Presentation()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"attempt_id":       attempt.ID.String(),
		"outcome":          int(result.Outcome),
		"outcome_name":     result.Outcome.String(),
		"stars":            presentation.Stars,
		"message_key":      presentation.MessageKey,
		"affordances":      presentation.Affordances,
		"missing":          missing,
		"blocks_used":      result.BlocksUsed,
		"completed":        sess.Progress.Completed,
		"continue_enabled": sess.Coordinator.ContinueEnabled(),
	})
}

// recordAttempt writes the attempt to the optional backends. Failures are
// logged; the feedback cycle never depends on analytics.
func (s *Server) recordAttempt(ctx context.Context, sess *Session, attempt *domain.Attempt) {
	if s.attempts != nil {
		if err := s.attempts.Save(ctx, attempt); err != nil {
			s.logger.Warn("attempt not recorded", "error", err)
		}
	}
	if s.producer != nil {
		if err := s.producer.PublishAttempt(ctx, queue.NewAttemptEvent(sess.ID, attempt)); err != nil {
			s.logger.Warn("attempt event not published", "error", err)
		}
	}
}

func (s *Server) saveProgress(ctx context.Context, sess *Session) {
	if sess.store == nil {
		return
	}
	if err := sess.store.Save(ctx, sess.Progress); err != nil {
		s.logger.Warn("progress not saved", "error", err)
	}
}

// sendReport fires the progress report without blocking the response. A
// redirect in the reply overrides the session's next navigation.
func (s *Server) sendReport(sess *Session, attempt *domain.Attempt) {
	if s.reporter == nil {
		return
	}
	s.reporter.SendAsync(context.Background(), report.Report{
		App:     s.cfg.AppName,
		ID:      sess.RunToken,
		Level:   attempt.Level,
		Result:  attempt.Outcome,
		Program: attempt.Program,
	}, func(redirect string) {
		sess.mu.Lock()
		sess.Progress.RedirectURL = redirect
		sess.mu.Unlock()
	})
}

// Advancement handlers

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.redirect.url = ""
	sess.shown = nil
	sess.Navigator.AdvanceOrReset(true, sess.Progress)

	if sess.redirect.url == "" {
		resp := map[string]any{
			"advanced": false,
			"state":    sess.Coordinator.State().String(),
		}
		if sess.shown != nil {
			resp["interstitial"] = contentPayload(sess.shown)
			sess.shown = nil
		}
		s.jsonResponse(w, http.StatusOK, resp)
		return
	}

	if sess.Progress.RedirectURL != "" {
		// A server redirect is single-use; the next cycle computes normally.
		sess.Progress.RedirectURL = ""
	} else {
		sess.Progress.Level++
		sess.Progress.Completed = false
		s.saveProgress(r.Context(), sess)
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"advanced": true,
		"url":      sess.redirect.url,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.controls.runEnabled = false
	sess.controls.resetDisabled = false
	sess.Navigator.AdvanceOrReset(false, sess.Progress)

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"run_enabled":    sess.controls.runEnabled,
		"reset_disabled": sess.controls.resetDisabled,
	})
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
		return
	}

	var req struct {
		Verdict string `json:"verdict"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	correct, err := sess.Coordinator.AnswerQuiz(req.Verdict)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedQuizResponse) {
			s.jsonError(w, http.StatusUnprocessableEntity, "malformed quiz verdict", err)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "quiz resolution failed", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"correct":          correct,
		"last_wrong":       sess.Coordinator.LastAnswerWrong(),
		"state":            sess.Coordinator.State().String(),
		"continue_enabled": sess.Coordinator.ContinueEnabled(),
	})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
		return
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var key overlay.Key
	switch req.Key {
	case "confirm":
		key = overlay.KeyConfirm
	case "cancel":
		key = overlay.KeyCancel
	case "space":
		key = overlay.KeySpace
	default:
		s.jsonError(w, http.StatusBadRequest, "unknown key", nil)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	handled := sess.Overlay.HandleKey(key)
	sess.Coordinator.Dismiss()

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"handled": handled,
		"state":   sess.Coordinator.State().String(),
	})
}

// Helpers

func contentPayload(c *interstitial.Content) map[string]any {
	payload := map[string]any{
		"message": c.Message,
	}
	if url := c.VideoURL(); url != "" {
		payload["video_url"] = url
	}
	if c.HasQuiz() {
		options := make([]string, 0, len(c.Quiz.Options))
		for _, opt := range c.Quiz.Options {
			options = append(options, opt.Text)
		}
		payload["quiz"] = map[string]any{
			"question": c.Quiz.Question,
			"options":  options,
		}
	}
	return payload
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]any{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}

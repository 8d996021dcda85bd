package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/factlens/internal/domain"
	"github.com/kailas-cloud/factlens/internal/domain/turn"
	healthuc "github.com/kailas-cloud/factlens/internal/usecase/health"
	"github.com/kailas-cloud/factlens/internal/usecase/pipeline"
	profileuc "github.com/kailas-cloud/factlens/internal/usecase/profile"
)

// maxBodyBytes bounds request bodies; turns carry text and an image locator, never image bytes.
const maxBodyBytes = 1 << 20

// Error codes of the JSON error body.
const (
	CodeBadRequest      = "bad_request"
	CodeValidation      = "validation_failed"
	CodeNotFound        = "not_found"
	CodeUpstreamFailure = "upstream_failure"
	CodeCancelled       = "request_cancelled"
	CodeInternal        = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the turn pipeline and profile memory over HTTP.
type Server struct {
	turns         TurnRunner
	memory        MemoryLoader
	profiles      ProfileService
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	turns TurnRunner, memory MemoryLoader, profiles ProfileService, health HealthChecker, logger *zap.Logger,
) *Server {
	s := &Server{
		turns:    turns,
		memory:   memory,
		profiles: profiles,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidation),
		fatalHandler,
		cancelHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, CodeUpstreamFailure),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeUpstreamFailure),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/turns", s.CreateTurn)
	r.Get("/v1/profiles/{userID}", s.GetProfile)
	r.Post("/v1/profiles/{userID}/interactions", s.RecordInteraction)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// --- DTOs ---

type turnRequest struct {
	UserID   string `json:"user_id"`
	ThreadID string `json:"thread_id"`
	Text     string `json:"text"`
	Image    string `json:"image,omitempty"`
}

type planStepResponse struct {
	Tool    string         `json:"tool"`
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters,omitempty"`
	Purpose string         `json:"purpose"`
}

type evidenceResponse struct {
	Step    int      `json:"step"`
	Purpose string   `json:"purpose"`
	Tool    string   `json:"tool"`
	HitIDs  []string `json:"hit_ids"`
	Error   string   `json:"error,omitempty"`
}

type turnResponse struct {
	ThreadID     string             `json:"thread_id"`
	Answer       string             `json:"answer"`
	Plan         []planStepResponse `json:"plan"`
	PlanFallback bool               `json:"plan_fallback"`
	Evidence     []evidenceResponse `json:"evidence"`
}

type interactionRequest struct {
	UserMessage  string `json:"user_message"`
	AgentMessage string `json:"agent_message"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// --- Handlers ---

// CreateTurn handles POST /v1/turns.
func (s *Server) CreateTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if !s.decode(w, r, &req) {
		return
	}

	threadID := strings.TrimSpace(req.ThreadID)
	if threadID == "" {
		threadID = uuid.NewString()
	}

	res, err := s.turns.Run(r.Context(), turn.Turn{
		UserID:       strings.TrimSpace(req.UserID),
		ThreadID:     threadID,
		Text:         req.Text,
		ImageLocator: strings.TrimSpace(req.Image),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, turnToResponse(threadID, res))
}

// GetProfile handles GET /v1/profiles/{userID}.
// A user without a stored profile gets the default one.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	p, err := s.memory.Lookup(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RecordInteraction handles POST /v1/profiles/{userID}/interactions.
func (s *Server) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req interactionRequest
	if !s.decode(w, r, &req) {
		return
	}

	p, err := s.profiles.Update(r.Context(), userID, profileuc.Interaction{
		UserMessage:  req.UserMessage,
		AgentMessage: req.AgentMessage,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// --- Helpers ---

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func turnToResponse(threadID string, res *pipeline.Result) turnResponse {
	resp := turnResponse{
		ThreadID:     threadID,
		Answer:       res.Answer,
		PlanFallback: res.PlanFallback,
		Plan:         make([]planStepResponse, len(res.Plan)),
		Evidence:     make([]evidenceResponse, len(res.Evidence)),
	}
	for i, st := range res.Plan {
		resp.Plan[i] = planStepResponse{Tool: st.Tool, Query: st.Query, Filters: st.Filters, Purpose: st.Purpose}
	}
	for i, e := range res.Evidence {
		er := evidenceResponse{Step: e.Index + 1, Purpose: e.Purpose, Tool: e.Tool, HitIDs: make([]string, len(e.Hits))}
		for j, h := range e.Hits {
			er.HitIDs[j] = h.ID
		}
		if e.Err != nil {
			er.Error = e.Err.Error()
		}
		resp.Evidence[i] = er
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// fatalHandler reports a stage without fallback; the stage name is safe to expose.
func fatalHandler(w http.ResponseWriter, err error) bool {
	var fatal *domain.FatalPipelineError
	if !errors.As(err, &fatal) {
		return false
	}
	writeError(w, http.StatusBadGateway, CodeUpstreamFailure, "pipeline failed at "+fatal.Stage)
	return true
}

func cancelHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	writeError(w, http.StatusServiceUnavailable, CodeCancelled, "request cancelled")
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}

var _ ProfileService = (*profileuc.Service)(nil)

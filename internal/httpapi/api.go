// ABOUTME: HTTP transport for the flow controller: submit turns, read history and postings
// ABOUTME: Turn errors surface as a generic retry message while the precise kind is logged

package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/2389/hireflow/internal/auth"
	"github.com/2389/hireflow/internal/classifier"
	"github.com/2389/hireflow/internal/flow"
	"github.com/2389/hireflow/internal/pipeline"
	"github.com/2389/hireflow/internal/router"
)

// retryMessage is what end users see when a turn fails. The precise error
// kind is logged but never returned, so stale or fabricated content can't be
// presented as authoritative.
const retryMessage = "Something went wrong handling your message. Please try again."

// API exposes the conversation flow over HTTP.
type API struct {
	controller *flow.Controller
	verifier   auth.TokenVerifier
	logger     *slog.Logger
}

// New creates an API. A nil verifier disables authentication, which is only
// appropriate for local use.
func New(controller *flow.Controller, verifier auth.TokenVerifier, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		controller: controller,
		verifier:   verifier,
		logger:     logger.With("component", "httpapi"),
	}
}

// Handler returns the API's routes wrapped in auth middleware.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/turn", a.handleTurn)
	mux.HandleFunc("GET /api/sessions/{id}/history", a.handleHistory)
	mux.HandleFunc("GET /api/sessions/{id}/posting", a.handlePosting)
	return a.requireAuth(mux)
}

type turnRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type turnResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

func (a *API) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	// A missing session id starts a new conversation
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	reply, err := a.controller.SubmitTurn(r.Context(), sessionID, req.Message)
	if err != nil {
		a.logger.Error("turn failed",
			"session_id", sessionID,
			"kind", errorKind(err),
			"error", err)
		writeError(w, http.StatusBadGateway, retryMessage)
		return
	}

	writeJSON(w, http.StatusOK, turnResponse{SessionID: sessionID, Reply: reply})
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	history, err := a.controller.History(r.Context(), sessionID)
	if err != nil {
		a.logger.Error("history lookup failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   history,
	})
}

func (a *API) handlePosting(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	posting, err := a.controller.Posting(r.Context(), sessionID)
	if err != nil {
		a.logger.Error("posting lookup failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load posting")
		return
	}
	if posting == "" {
		writeError(w, http.StatusNotFound, "no posting for this session yet")
		return
	}

	if r.URL.Query().Get("format") == "html" {
		var htmlBuf bytes.Buffer
		if err := goldmark.Convert([]byte(posting), &htmlBuf); err != nil {
			a.logger.Error("failed to convert markdown", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to render posting")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(htmlBuf.Bytes())
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(posting))
}

// requireAuth checks the Authorization bearer token on every request when a
// verifier is configured.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.verifier == nil {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		clientID, err := a.verifier.Verify(token)
		if err != nil {
			a.logger.Warn("rejected request", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		a.logger.Debug("authenticated request", "client_id", clientID, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// errorKind names the turn error for logs.
func errorKind(err error) string {
	var (
		cerr      *classifier.ClassificationError
		violation *router.SlotContractViolation
		genErr    *pipeline.GenerationError
		refErr    *pipeline.RefinementError
	)
	switch {
	case errors.As(err, &cerr):
		return "classification_error"
	case errors.As(err, &violation):
		return "slot_contract_violation"
	case errors.As(err, &genErr):
		return "generation_error"
	case errors.As(err, &refErr):
		return "refinement_error"
	default:
		return "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

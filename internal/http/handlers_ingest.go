package http

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"
	"github.com/Dewanik/voice-ios-budget-server/internal/storage"
)

// checkBearer validates the shared-secret token from the plain
// Authorization header. Proxy-renamed header variants are not honored.
func (s *Server) checkBearer(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return false
	}
	token := strings.TrimSpace(auth[len(prefix):])
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.siriToken)) == 1
}

// handlePing validates only the bearer token. Shortcuts call it to verify
// connectivity before recording anything.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if s.siriToken == "" {
		writeJSON(w, http.StatusInternalServerError, ingestFailure("server misconfiguration"))
		return
	}
	if !s.checkBearer(r) {
		writeJSON(w, http.StatusUnauthorized, ingestFailure("unauthorized"))
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{OK: true, Message: "pong"})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, ingestFailure("method not allowed"))
		return
	}

	if s.siriToken == "" {
		slog.ErrorContext(ctx, "Ingestion token not configured")
		writeJSON(w, http.StatusInternalServerError, ingestFailure("server misconfiguration"))
		return
	}

	// Bearer first: cheaper than a credential check, and the response must
	// not reveal which of the two checks failed.
	if !s.checkBearer(r) {
		writeJSON(w, http.StatusUnauthorized, ingestFailure("unauthorized"))
		return
	}

	payload, err := parseIngestRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ingestFailure(err.Error()))
		return
	}

	user, err := s.storage.Authenticate(ctx, payload.Username, payload.Password)
	if err != nil {
		if !errors.Is(err, storage.ErrInvalidCredentials) {
			slog.ErrorContext(ctx, "Credential check failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, ingestFailure("internal error"))
			return
		}
		writeJSON(w, http.StatusUnauthorized, ingestFailure("unauthorized"))
		return
	}

	amount, err := core.ParseAmount(payload.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ingestFailure(err.Error()))
		return
	}

	result, err := s.ingestor.Ingest(ctx, user.ID, amount, payload.Category, payload.Note, payload.RequestID)
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, ingestFailure(err.Error()))
			return
		}
		slog.ErrorContext(ctx, "Ingestion failed",
			"error", err,
			"user_id", user.ID,
			"request_id", payload.RequestID)
		writeJSON(w, http.StatusInternalServerError, ingestFailure("internal error"))
		return
	}

	if result.AlreadyProcessed {
		writeJSON(w, http.StatusOK, ingestAlreadyProcessed())
		return
	}
	writeJSON(w, http.StatusOK, ingestSuccess(result.Expense))
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyCategory) ||
		errors.Is(err, core.ErrCategoryTooLong) ||
		errors.Is(err, core.ErrInvalidPeriod) ||
		errors.Is(err, core.ErrInvalidDateRange)
}

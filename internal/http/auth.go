package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"
	"github.com/Dewanik/voice-ios-budget-server/internal/storage"
)

type userHandler func(w http.ResponseWriter, r *http.Request, user core.User)

// requireUser authenticates the /api endpoints with HTTP Basic against the
// stored credentials. Failures get one generic unauthorized answer.
func (s *Server) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="voicebudget"`)
			writeAPIError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := s.storage.Authenticate(r.Context(), username, password)
		if err != nil {
			if !errors.Is(err, storage.ErrInvalidCredentials) {
				slog.ErrorContext(r.Context(), "Credential check failed", "error", err)
				writeAPIError(w, http.StatusInternalServerError, "internal error")
				return
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="voicebudget"`)
			writeAPIError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next(w, r, user)
	}
}

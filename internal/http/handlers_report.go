package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"
)

func (s *Server) handleReportToday(w http.ResponseWriter, r *http.Request, user core.User) {
	s.serveReport(w, r, user, core.TodayRange(time.Now().UTC()))
}

func (s *Server) handleReportWeek(w http.ResponseWriter, r *http.Request, user core.User) {
	s.serveReport(w, r, user, core.WeekRange(time.Now().UTC()))
}

// handleReportMonth defaults to month-to-date; an explicit ?month=YYYY-MM
// selects a full calendar month instead.
func (s *Server) handleReportMonth(w http.ResponseWriter, r *http.Request, user core.User) {
	now := time.Now().UTC()

	raw := r.URL.Query().Get("month")
	if raw == "" {
		s.serveReport(w, r, user, core.MonthToDateRange(now))
		return
	}

	period, err := parseMonthParam(r, now)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.serveReport(w, r, user, period.Range())
}

func (s *Server) handleReportRange(w http.ResponseWriter, r *http.Request, user core.User) {
	rng, err := parseRangeParams(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.serveReport(w, r, user, rng)
}

func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, user core.User, rng core.DateRange) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeAPIError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	report, err := s.reports.BuildReport(r.Context(), user.ID, rng, parseReportQuery(r))
	if err != nil {
		if isValidationError(err) {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Report build failed",
			"error", err,
			"user_id", user.ID)
		writeAPIError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toReportJSON(report))
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"
)

// ingestPayload is the typed shape of an add-expense request. Unknown
// JSON fields are rejected at decode time.
type ingestPayload struct {
	Amount    string `json:"amount"`
	Category  string `json:"category"`
	Note      string `json:"note"`
	RequestID string `json:"request_id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

const maxIngestBodySize = 64 << 10 // 64 KiB

// parseIngestRequest reads the payload from a JSON body on POST or from
// query parameters on GET. Shortcut automations use both transports.
func parseIngestRequest(r *http.Request) (ingestPayload, error) {
	switch r.Method {
	case http.MethodPost:
		return parseIngestBody(r)
	case http.MethodGet:
		return ingestPayloadFromValues(r.URL.Query()), nil
	default:
		return ingestPayload{}, fmt.Errorf("method %s not allowed", r.Method)
	}
}

func parseIngestBody(r *http.Request) (ingestPayload, error) {
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxIngestBodySize))
	dec.DisallowUnknownFields()

	var payload ingestPayload
	if err := dec.Decode(&payload); err != nil {
		return ingestPayload{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	payload.Amount = strings.TrimSpace(payload.Amount)
	payload.Category = strings.TrimSpace(payload.Category)
	payload.Note = strings.TrimSpace(payload.Note)
	payload.RequestID = strings.TrimSpace(payload.RequestID)
	return payload, nil
}

func ingestPayloadFromValues(values url.Values) ingestPayload {
	return ingestPayload{
		Amount:    strings.TrimSpace(values.Get("amount")),
		Category:  strings.TrimSpace(values.Get("category")),
		Note:      strings.TrimSpace(values.Get("note")),
		RequestID: strings.TrimSpace(values.Get("request_id")),
		Username:  values.Get("username"),
		Password:  values.Get("password"),
	}
}

// parseReportQuery extracts the optional search filter from a report
// request.
func parseReportQuery(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("search"))
}

// parseMonthParam reads the optional ?month=YYYY-MM parameter, falling
// back to the current month.
func parseMonthParam(r *http.Request, now time.Time) (core.Period, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		return core.PeriodOf(now), nil
	}
	return core.ParsePeriod(raw)
}

// parseRangeParams reads the required start/end parameters of the
// explicit-range report, both formatted as YYYY-MM-DD.
func parseRangeParams(r *http.Request) (core.DateRange, error) {
	startRaw := strings.TrimSpace(r.URL.Query().Get("start"))
	endRaw := strings.TrimSpace(r.URL.Query().Get("end"))
	if startRaw == "" || endRaw == "" {
		return core.DateRange{}, errors.New("start and end are required, use YYYY-MM-DD")
	}

	start, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		return core.DateRange{}, errors.New("invalid start date, use YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		return core.DateRange{}, errors.New("invalid end date, use YYYY-MM-DD")
	}

	rng := core.DateRange{Start: start, End: end}
	if err := rng.Validate(); err != nil {
		return core.DateRange{}, err
	}
	return rng, nil
}

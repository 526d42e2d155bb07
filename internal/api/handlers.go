package api

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinisalud/citas-api/internal/schedule"
)

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt64(r *http.Request, name string) *int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryString(r *http.Request, name string) *string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	return &raw
}

// queryDate parses an optional YYYY-MM-DD query param. A malformed value
// is an error, not an absent filter.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%s must use the YYYY-MM-DD format", name)
	}
	return &t, nil
}

// queryMonth parses an optional YYYY-MM query param into the month's
// first and last day.
func queryMonth(r *http.Request, name string) (*time.Time, *time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil, nil
	}
	t, err := time.ParseInLocation("2006-01", raw, time.UTC)
	if err != nil {
		return nil, nil, fmt.Errorf("%s must use the YYYY-MM format", name)
	}
	desde, hasta := schedule.MonthRange(t.Year(), t.Month())
	return &desde, &hasta, nil
}

func pageParams(r *http.Request) (page, perPage int) {
	return queryInt(r, "page", 1), queryInt(r, "per_page", 10)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

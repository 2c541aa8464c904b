package handler

import (
	"net/http"
	"time"
)

const dateLayout = "2006-01-02"

// parseDateQuery accepts RFC 3339 timestamps or plain dates. A plain date used
// as an end bound covers the whole day.
func parseDateQuery(r *http.Request, key string, endOfDay bool) (*time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, nil
}

func parseDateRange(r *http.Request) (start, end *time.Time, ok bool) {
	start, err := parseDateQuery(r, "start", false)
	if err != nil {
		return nil, nil, false
	}
	end, err = parseDateQuery(r, "end", true)
	if err != nil {
		return nil, nil, false
	}
	return start, end, true
}

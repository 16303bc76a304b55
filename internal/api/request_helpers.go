package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/domain"
)

// Calendar supplies the current time and the learner's time zone to the
// handlers.
type Calendar struct {
	Now      func() time.Time
	Location *time.Location
}

// now returns the current time, in UTC when no clock is configured.
func (c Calendar) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now()
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// getPathUUID extracts a UUID from the URL path parameters.
// It parses and validates the UUID, handling common error cases.
//
// Parameters:
//   - r: The HTTP request
//   - paramName: The name of the path parameter to extract
//
// Returns:
//   - (uuid.UUID, nil): The parsed UUID if valid
//   - (uuid.UUID{}, error): A zero UUID and appropriate error if parameter is missing or invalid
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrValidation, paramName)
	}

	return id, nil
}

// parseTargetDate accepts an RFC 3339 timestamp or a YYYY-MM-DD day, which
// means midnight of that day in loc.
func parseTargetDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	day, err := domain.ParseDay(s)
	if err != nil {
		return time.Time{}, err
	}
	return day.Start(loc), nil
}

// parseDayRange reads the from and to query parameters. Missing bounds
// default to the 30 days ending today.
func parseDayRange(r *http.Request, today domain.Day) (domain.Day, domain.Day, error) {
	to := today
	if v := r.URL.Query().Get("to"); v != "" {
		d, err := domain.ParseDay(v)
		if err != nil {
			return "", "", err
		}
		to = d
	}
	from := to.AddDays(-29)
	if v := r.URL.Query().Get("from"); v != "" {
		d, err := domain.ParseDay(v)
		if err != nil {
			return "", "", err
		}
		from = d
	}
	if from > to {
		return "", "", fmt.Errorf("%w: from %s is after to %s", domain.ErrInvalidDay, from, to)
	}
	return from, to, nil
}

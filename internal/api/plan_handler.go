package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/scry-engine/internal/api/shared"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/redact"
	"github.com/phrazzld/scry-engine/internal/service/planner"
)

// Planner computes daily recommendations and assigns new items.
type Planner interface {
	Recommend(ctx context.Context, now time.Time, loc *time.Location) (*planner.Recommendation, error)
	Assign(ctx context.Context, count int, now time.Time, loc *time.Location) (*planner.Assignment, error)
	AssignRecommended(ctx context.Context, now time.Time, loc *time.Location) (*planner.Recommendation, *planner.Assignment, error)
}

// PlanHandler handles the daily plan endpoints
type PlanHandler struct {
	planner  Planner
	calendar Calendar
	logger   *slog.Logger
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(p Planner, calendar Calendar, logger *slog.Logger) *PlanHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for PlanHandler")
	}

	return &PlanHandler{
		planner:  p,
		calendar: calendar,
		logger:   logger.With(slog.String("component", "plan_handler")),
	}
}

// GetRecommendation handles GET /plan/recommendation requests
func (h *PlanHandler) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.planner.Recommend(r.Context(), h.calendar.now(), h.calendar.loc())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute recommendation")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, rec)
}

// AssignItems handles POST /plan/assign requests. With a count in the body
// that many items are assigned round-robin; otherwise the current
// recommendation is assigned.
func (h *PlanHandler) AssignItems(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req AssignRequest
	if err := shared.DecodeJSON(r, &req); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	now, loc := h.calendar.now(), h.calendar.loc()
	var resp AssignResponse
	if req.Count != nil {
		a, err := h.planner.Assign(r.Context(), *req.Count, now, loc)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to assign items")
			return
		}
		resp.Requested, resp.Created = a.Requested, a.Created
	} else {
		rec, a, err := h.planner.AssignRecommended(r.Context(), now, loc)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to assign items")
			return
		}
		resp.Requested, resp.Created, resp.Recommendation = a.Requested, a.Created, rec
	}

	log.Debug("assigned items",
		slog.Int("requested", resp.Requested),
		slog.Int("created", resp.Created))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-engine/internal/api/shared"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/projection"
	"github.com/phrazzld/scry-engine/internal/redact"
	"github.com/phrazzld/scry-engine/internal/service"
)

// Projector runs retention projections for the collection endpoints.
type Projector interface {
	Estimate(ctx context.Context, id uuid.UUID, target float64, now time.Time, loc *time.Location) (*projection.Estimate, error)
	AllocateChainDeadlines(
		ctx context.Context,
		finalID uuid.UUID,
		targetDate time.Time,
		target float64,
		now time.Time,
		loc *time.Location,
	) (*projection.ChainPlan, error)
}

// CollectionHandler handles collection-related HTTP requests
type CollectionHandler struct {
	collections service.CollectionService
	projector   Projector
	calendar    Calendar
	logger      *slog.Logger
}

// NewCollectionHandler creates a new CollectionHandler
func NewCollectionHandler(
	collections service.CollectionService,
	projector Projector,
	calendar Calendar,
	logger *slog.Logger,
) *CollectionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CollectionHandler")
	}

	return &CollectionHandler{
		collections: collections,
		projector:   projector,
		calendar:    calendar,
		logger:      logger.With(slog.String("component", "collection_handler")),
	}
}

// CreateCollection handles POST /collections requests
func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateCollectionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	c, err := h.collections.CreateCollection(r.Context(), service.CollectionParams{
		Title:         req.Title,
		Mode:          domain.Mode(req.Mode),
		Extent:        req.Extent,
		ChunkSize:     req.ChunkSize,
		Priority:      req.Priority,
		PredecessorID: req.PredecessorID,
	}, h.calendar.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create collection")
		return
	}

	log.Debug("created collection", slog.String("collection_id", c.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, collectionToResponse(c))
}

// ListCollections handles GET /collections requests
func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	cs, err := h.collections.ListCollections(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list collections")
		return
	}

	resp := make([]CollectionResponse, 0, len(cs))
	for _, c := range cs {
		resp = append(resp, collectionToResponse(c))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetCollection handles GET /collections/{id} requests
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	c, err := h.collections.GetCollection(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get collection")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, collectionToResponse(c))
}

// ListItems handles GET /collections/{id}/items requests
func (h *CollectionHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	items, err := h.collections.ListItems(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list items")
		return
	}
	if items == nil {
		items = []*domain.Item{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, items)
}

// EstimateRetention handles GET /collections/{id}/estimate requests. The
// optional retention query parameter takes a preset name or a decimal.
func (h *CollectionHandler) EstimateRetention(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	target, err := projection.ParseRetention(r.URL.Query().Get("retention"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	est, err := h.projector.Estimate(r.Context(), id, target, h.calendar.now(), h.calendar.loc())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to estimate collection")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, est)
}

// AllocateDeadline handles POST /collections/{id}/deadline requests: the
// collection is the final link of a prerequisite chain that must be ready by
// the target date.
func (h *CollectionHandler) AllocateDeadline(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req DeadlineRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	loc := h.calendar.loc()
	targetDate, err := parseTargetDate(req.TargetDate, loc)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	retention, err := projection.ParseRetention(req.Retention)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	plan, err := h.projector.AllocateChainDeadlines(r.Context(), id, targetDate, retention, h.calendar.now(), loc)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to allocate deadlines")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, plan)
}

func (h *CollectionHandler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Warn("invalid collection ID",
			slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid collection ID format")
		return uuid.Nil, false
	}
	return id, true
}

// collectionToResponse converts a domain.Collection to a CollectionResponse
func collectionToResponse(c *domain.Collection) CollectionResponse {
	return CollectionResponse{Collection: c, Capacity: c.Capacity()}
}

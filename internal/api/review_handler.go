package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-engine/internal/api/shared"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/redact"
	"github.com/phrazzld/scry-engine/internal/service"
	"github.com/phrazzld/scry-engine/internal/service/review"
)

// ReviewHandler handles review submissions
type ReviewHandler struct {
	reviews     review.Service
	collections service.CollectionService
	calendar    Calendar
	logger      *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(
	reviews review.Service,
	collections service.CollectionService,
	calendar Calendar,
	logger *slog.Logger,
) *ReviewHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		reviews:     reviews,
		collections: collections,
		calendar:    calendar,
		logger:      logger.With(slog.String("component", "review_handler")),
	}
}

// SubmitReview handles POST /reviews requests. It records one rating for
// the item and credits the earned reward to today's ledger.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req ReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	key := domain.ItemKey{CollectionID: req.CollectionID, Ordinal: req.Ordinal}
	res, err := h.reviews.Review(r.Context(), key, req.Rating, h.calendar.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record review")
		return
	}

	log.Debug("recorded review",
		slog.String("item", key.String()),
		slog.String("rating", req.Rating.String()),
		slog.Int("reward", res.Reward))
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

// SubmitBatchReview handles POST /reviews/batch requests. All reviews belong
// to one collection and are recorded together or not at all.
func (h *ReviewHandler) SubmitBatchReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req BatchReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	c, err := h.collections.GetCollection(r.Context(), req.CollectionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record reviews")
		return
	}

	items := make([]*domain.Item, len(req.Reviews))
	ratings := make([]domain.Rating, len(req.Reviews))
	for i, rv := range req.Reviews {
		// Only the key is needed; the service loads the stored state.
		items[i] = &domain.Item{CollectionID: c.ID, Ordinal: rv.Ordinal}
		ratings[i] = rv.Rating
	}

	res, err := h.reviews.ProcessBatchReview(r.Context(), items, ratings, c.Mode, h.calendar.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record reviews")
		return
	}

	log.Debug("recorded review batch",
		slog.String("collection_id", c.ID.String()),
		slog.Int("reviews", len(items)),
		slog.Int("reward", res.Reward))
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

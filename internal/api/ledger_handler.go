package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/scry-engine/internal/api/shared"
	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/ledger"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
	"github.com/phrazzld/scry-engine/internal/redact"
)

// Ledger exposes the daily reward ledger.
type Ledger interface {
	Rollover(ctx context.Context, now time.Time, loc *time.Location) (*ledger.RolloverResult, error)
	Today(ctx context.Context, now time.Time, loc *time.Location) (*domain.LedgerEntry, error)
	History(ctx context.Context, from, to domain.Day) ([]*domain.LedgerEntry, error)
	SetDailyTarget(ctx context.Context, target int, now time.Time) (*domain.Settings, error)
}

// LedgerHandler handles ledger and settings requests
type LedgerHandler struct {
	ledger   Ledger
	calendar Calendar
	logger   *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(l Ledger, calendar Calendar, logger *slog.Logger) *LedgerHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for LedgerHandler")
	}

	return &LedgerHandler{
		ledger:   l,
		calendar: calendar,
		logger:   logger.With(slog.String("component", "ledger_handler")),
	}
}

// Rollover handles POST /ledger/rollover requests. Calling it more than once
// a day is harmless.
func (h *LedgerHandler) Rollover(w http.ResponseWriter, r *http.Request) {
	res, err := h.ledger.Rollover(r.Context(), h.calendar.now(), h.calendar.loc())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to roll over ledger")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res)
}

// Today handles GET /ledger/today requests
func (h *LedgerHandler) Today(w http.ResponseWriter, r *http.Request) {
	entry, err := h.ledger.Today(r.Context(), h.calendar.now(), h.calendar.loc())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load ledger")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entry)
}

// History handles GET /ledger?from=&to= requests
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	today := domain.DayOf(h.calendar.now(), h.calendar.loc())
	from, to, err := parseDayRange(r, today)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	entries, err := h.ledger.History(r.Context(), from, to)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load ledger")
		return
	}
	if entries == nil {
		entries = []*domain.LedgerEntry{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// SetTarget handles PUT /settings/target requests
func (h *LedgerHandler) SetTarget(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SetTargetRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	settings, err := h.ledger.SetDailyTarget(r.Context(), req.DailyTargetReward, h.calendar.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update settings")
		return
	}

	log.Info("daily target changed", slog.Int("daily_target_reward", settings.DailyTargetReward))
	shared.RespondWithJSON(w, r, http.StatusOK, settings)
}

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/scry-engine/internal/api"
	apiMiddleware "github.com/phrazzld/scry-engine/internal/api/middleware"
	"github.com/phrazzld/scry-engine/internal/api/shared"
)

// pinger is implemented by stores backed by a network database.
type pinger interface {
	Ping(ctx context.Context) error
}

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	r.Route("/api", app.handlers.Routes)
	r.Get("/health", app.health)

	return r
}

// health reports liveness, and database reachability when the store can be
// pinged.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{Status: "ok", Time: app.now().UTC()}

	if p, ok := app.store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			app.logger.Warn("health check ping failed", "error", err)
			resp.Status = "unavailable"
			shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, resp)
			return
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

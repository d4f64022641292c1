package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/srujana-egov/pgr-on-digit3.0/internal/api/middleware"
)

// setupRouter builds the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.PropagateHeaders)
	r.Use(app.claims.Handler)
	r.Use(app.metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	srh := app.serviceRequestHandler
	r.Route("/citizen-service", func(r chi.Router) {
		r.Use(apiMiddleware.RequireTenant)
		r.Post("/create", srh.Create)
		r.Post("/update", srh.Update)
		r.Get("/search", srh.Search)
		r.Get("/audit", srh.Audit)
	})

	lch := app.libraryCheckHandler
	r.Route("/library-check", func(r chi.Router) {
		r.Get("/health", lch.Health)
		r.Post("/boundary", lch.Boundary)
		r.Get("/tenant/{code}", lch.GetTenant)
		r.Post("/tenant", lch.CreateTenant)
		r.Post("/workflow/transition", lch.WorkflowTransition)
		r.Get("/workflow/process/{processId}", lch.WorkflowProcess)
		r.Post("/idgen/generate", lch.GenerateID)
		r.Post("/notification/email/send", lch.SendEmail)
		r.Post("/notification/sms/send", lch.SendSMS)
	})

	return r
}

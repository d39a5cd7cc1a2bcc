// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/trailhop/gateway/internal/api"
	"github.com/trailhop/gateway/internal/api/activities"
	"github.com/trailhop/gateway/internal/api/dashboard"
	"github.com/trailhop/gateway/internal/api/proxy"
	"github.com/trailhop/gateway/internal/api/reservations"
	"github.com/trailhop/gateway/internal/config"
	"github.com/trailhop/gateway/internal/ratelimit"
)

func newServer(cfg *config.Config) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithBearerToken,
	)

	registerRoutes(router, cfg)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Owner dashboard routes
	mux.HandleFunc("GET /api/v1/my-activities/{id}/calendar", dashboard.HandleCalendar)
	mux.HandleFunc("GET /api/v1/my-activities/{id}/reserved-schedule", dashboard.HandleReservedSchedule)

	// Reservation management routes
	mux.HandleFunc("GET /api/v1/my-activities/{id}/reservations", reservations.HandleList)
	mux.HandleFunc("PATCH /api/v1/my-activities/{id}/reservations/{reservationId}", reservations.HandleStatusUpdate)

	// Listing edit route
	mux.HandleFunc("PATCH /api/v1/my-activities/{id}", activities.HandleUpdate)

	// Generic pass-through for endpoints without a dedicated handler
	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.MaxPerWindow = cfg.Proxy.MaxRequestsPerMinute
	mux.Handle("/api/proxy/{path...}", proxy.NewHandler(
		cfg.Upstream.BaseURL,
		cfg.Upstream.Timeout(),
		ratelimit.New(limiterCfg),
	))
}

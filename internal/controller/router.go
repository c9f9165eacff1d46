package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sahelpay/momo/internal/infrastructure/config"
	"github.com/sahelpay/momo/internal/infrastructure/observability"
	customMW "github.com/sahelpay/momo/internal/middleware"
	"github.com/sahelpay/momo/internal/phone"
	"github.com/sahelpay/momo/internal/registry"
	"github.com/sahelpay/momo/internal/service"
	"github.com/sahelpay/momo/internal/settings"
)

type RouterDeps struct {
	PaymentService *service.PaymentService
	Registry       *registry.Registry
	PhoneValidator *phone.Validator
	SettingsStore  settings.Store
	HealthBackends map[string]Pinger
	Metrics        *observability.Metrics
	CORSConfig     config.CORSConfig
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.HealthBackends)
	paymentH := NewPaymentController(deps.PaymentService, deps.Registry, deps.PhoneValidator)
	settingsH := NewSettingsController(deps.SettingsStore)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Payments
		r.Post("/payments", paymentH.InitiatePayment)
		r.Get("/payments", paymentH.ListPayments)
		r.Get("/payments/stats", paymentH.GetStats)
		r.Get("/payments/{id}", paymentH.GetPayment)
		r.Get("/payments/{id}/status", paymentH.CheckStatus)
		r.Get("/payments/{id}/events", paymentH.GetEvents)
		r.Post("/payments/{id}/cancel", paymentH.CancelPayment)
		r.Post("/payments/{id}/refund", paymentH.RefundPayment)

		// Phone validation and provider availability
		r.Post("/phone/validate", paymentH.ValidatePhone)
		r.Get("/countries/{country}/providers", paymentH.ListProviders)

		// Settings
		r.Get("/settings", settingsH.List)
		r.Get("/settings/{key}", settingsH.Get)
		r.Put("/settings/{key}", settingsH.Set)
		r.Delete("/settings/{key}", settingsH.Delete)
	})

	return r
}

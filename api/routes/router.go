package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborbox/dispatch-backend/api/controllers"
	webhookcontrollers "github.com/harborbox/dispatch-backend/api/controllers/webhooks"
	"github.com/harborbox/dispatch-backend/api/middleware"
	"github.com/harborbox/dispatch-backend/pkg/config"
	"github.com/harborbox/dispatch-backend/pkg/logger"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           controllers.Pinger
	Redis        controllers.Pinger
	Appointments controllers.AppointmentService
	Tracking     controllers.TrackingService
	Availability controllers.AvailabilityChecker
	Webhooks     webhookcontrollers.CourierWebhookService
	Courier      interface{ SigningSecret() string }
	Batch        controllers.RouteAssigner
	Offers       controllers.RouteOfferer
	FleetDrivers controllers.FleetDriverSource
	PromRegistry *prometheus.Registry
}

// NewRouter wires middleware, controllers, and the metrics endpoint.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.Recoverer(logg))

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	r.Get("/ping", controllers.PublicPing())

	if p.PromRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.PromRegistry, promhttp.HandlerOpts{}))
	}

	// Customer-facing tracking page. Authenticated by the signed token
	// itself, not by a session.
	r.Get("/tracking", controllers.TrackAppointment(p.Tracking, logg))

	r.Route("/appointments", func(r chi.Router) {
		r.Get("/{appointmentID}", controllers.GetAppointment(p.Appointments, logg))
		r.Patch("/{appointmentID}", controllers.EditAppointment(p.Appointments, logg))
		r.Post("/{appointmentID}/tracking-token", controllers.AppointmentTrackingToken(p.Appointments, logg))
	})

	r.Get("/drivers/{driverID}/conflict", controllers.DriverConflict(p.Availability, logg))
	r.Get("/moving-partners/{partnerID}/available-drivers", controllers.AvailablePartnerDrivers(p.Availability, logg))

	r.Post("/webhooks/courier", webhookcontrollers.CourierWebhook(
		p.Webhooks, p.Courier, cfg.Courier.StrictWebhookVerification, logg))

	r.Route("/internal/batch", func(r chi.Router) {
		r.Use(middleware.BatchAuth(logg, cfg.Batch.BearerToken))
		r.Get("/ping", controllers.BatchPing())
		r.Post("/route-assignment", controllers.RunRouteAssignment(p.Batch, logg))
		r.Post("/driver-offers", controllers.RunDriverOffers(p.Offers, p.FleetDrivers, cfg.Dispatch.FleetTeamID, logg))
	})

	return r
}

package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"service-dispatch/internal/http/handlers"
	appmw "service-dispatch/internal/http/middleware"
	"service-dispatch/internal/http/middleware/ratelimit"
	"service-dispatch/internal/logx"
)

// Deps are the handlers the router mounts.
type Deps struct {
	Base      *handlers.Handlers
	Dispatch  *handlers.DispatchHandler
	Delivery  *handlers.DeliveryHandler
	Presence  *handlers.PresenceHandler
	WS        http.Handler
	Pprof     http.Handler
	RateLimit *ratelimit.Middleware
	Logger    logx.Logger
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(appmw.Observability(d.Logger))
	if d.RateLimit != nil {
		r.Use(d.RateLimit.Handler())
	}

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())

	// the websocket upgrade must not sit behind the request timeout
	r.Handle("/ws", d.WS)

	// Handle, not Mount: the pprof mux registers full /debug/pprof paths
	if d.Pprof != nil {
		r.Handle("/debug/pprof/*", d.Pprof)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))

		r.Route("/assignments", func(r chi.Router) {
			r.Post("/", d.Dispatch.Create)
			r.Get("/{id}", d.Dispatch.Get)
			r.Post("/{id}/accept", d.Dispatch.Accept)
			r.Post("/{id}/reject", d.Dispatch.Reject)
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Post("/", d.Delivery.Start)
			r.Get("/{id}", d.Delivery.Get)
			r.Post("/{id}/arrived", d.Delivery.MarkArrived)
			r.Post("/{id}/otp", d.Delivery.SubmitOTP)
			r.Post("/{id}/cancel", d.Delivery.Cancel)
		})

		r.Get("/presence/{identity}", d.Presence.Status)
		r.Post("/suggestions", d.Presence.Suggestions)
	})

	r.NotFound(http.HandlerFunc(d.Base.NotFound))

	return r
}

// Package server wires the proxy routes into an HTTP server.
//
// DESIGN: The route table mirrors the paths the desktop client calls, so the
// client configuration stays a single base URL swap. Middleware order:
// request id, instrumentation, panic recovery. Telemetry sinks are optional;
// a nil Observers field simply skips that sink.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/sgr-desktop/sgr-proxy/internal/config"
	"github.com/sgr-desktop/sgr-proxy/internal/monitoring"
	"github.com/sgr-desktop/sgr-proxy/internal/proxy"
)

// Observers bundles the optional telemetry sinks fed by the
// instrumentation middleware.
type Observers struct {
	Tracker *monitoring.Tracker
	Events  *monitoring.EventStore
	Metrics *monitoring.Metrics
}

// Server is the local HTTP front the desktop client connects to.
type Server struct {
	cfg    *config.Config
	router *chi.Mux
	http   *http.Server
}

// New builds the router and the underlying http.Server.
func New(cfg *config.Config, h *proxy.Handler, obs *Observers) *Server {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(instrument(obs))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/restaurantes", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Get("/perfil", h.Profile)
			r.Post("/logout/{restauranteID}", h.Logout)
			r.Get("/{restauranteID}", h.Restaurant)
		})

		r.Route("/cardapio", func(r chi.Router) {
			r.Post("/add", h.AddMenuItem)
			r.Get("/item/{itemID}", h.GetMenuItem)
			r.Put("/edit/{itemID}", h.EditMenuItem)
			r.Delete("/delete/{itemID}", h.DeleteMenuItem)
			r.Get("/{restauranteID}", h.ListMenu)
		})

		r.Route("/pedidos", func(r chi.Router) {
			r.Get("/restaurante/{restauranteID}", h.ListOrders)
			r.Get("/restaurante/{restauranteID}/concluidos", h.CompletedOrders)
			r.Put("/{pedidoID}/status", h.UpdateOrderStatus)
			r.Get("/{pedidoID}", h.OrderDetail)
		})

		r.Get("/top-produtos/{restauranteID}/{periodo}", h.TopProducts)
		r.Get("/vendas/{restauranteID}/{periodo}", h.Sales)
		r.Get("/dashboard/{restauranteID}", h.DashboardView)

		r.Get("/avaliacoes/pratos/{restauranteID}", h.DishReviews)
		r.Get("/avaliacoes/{restauranteID}", h.RestaurantReviews)
		r.Post("/avaliacoes-prato", h.CreateDishReview)

		r.Post("/upload/imagem", h.UploadImage)
	})

	if obs != nil && obs.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", obs.Metrics.Handler())
	}

	return &Server{
		cfg:    cfg,
		router: r,
		http: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      r,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}
}

// Router exposes the mux for tests.
func (s *Server) Router() *chi.Mux { return s.router }

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	log.Info().Str("addr", s.http.Addr).Msg("proxy listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

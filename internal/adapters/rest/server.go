package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"listing-service/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger - зависимость, которую проверяет /healthz
type Pinger interface {
	Ping(ctx context.Context) error
}

type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

// Handlers - все хендлеры API
type Handlers struct {
	Auth      *AuthHandler
	Listings  *ListingHandler
	Apartment *ApartmentHandler
	Browse    *BrowseHandler
}

type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort
}

func NewServer(cfg ServerConfig, handlers Handlers, authMiddleware *AuthMiddleware, health Pinger, baseLogger port.LoggerPort) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewRouter(cfg, handlers, authMiddleware, health, baseLogger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: baseLogger,
	}
}

// NewRouter собирает маршруты API
func NewRouter(cfg ServerConfig, h Handlers, authMiddleware *AuthMiddleware, health Pinger, baseLogger port.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(baseLogger), MetricsMiddleware, middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", TraceIDHeader},
		ExposedHeaders:   []string{TraceIDHeader, "Location"},
		AllowCredentials: true,
		MaxAge:           300, // 5 минут
	}))

	r.Get("/healthz", healthHandler(health))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// --- Публичные маршруты ---
		r.Group(func(r chi.Router) {
			r.Post("/auth/sign-up", h.Auth.SignUp)
			r.Post("/auth/sign-in", h.Auth.SignIn)

			r.Get("/listings", h.Listings.FindListings)
			r.Get("/apartments", h.Apartment.ListApartments)
			r.Get("/rooms/{roomID}", h.Listings.GetRoom)

			r.Post("/browse-sessions", h.Browse.OpenSession)
			r.Get("/browse-sessions/{sessionID}", h.Browse.GetSession)
			r.Put("/browse-sessions/{sessionID}/criteria", h.Browse.UpdateCriteria)
			r.Put("/browse-sessions/{sessionID}/page", h.Browse.RequestPage)
			r.Delete("/browse-sessions/{sessionID}", h.Browse.CloseSession)
			r.Get("/browse-sessions/{sessionID}/events", h.Browse.SubscribeToEvents)
		})

		// --- Приватные маршруты ---
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/auth/sign-out", h.Auth.SignOut)
			r.Get("/auth/me", h.Auth.Me)
			r.Post("/apartments", h.Apartment.CreateApartment)
			r.Post("/apartments/{apartmentID}/rooms", h.Apartment.AddRoom)
		})
	})

	return r
}

func healthHandler(health Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := health.Ping(ctx); err != nil {
				WriteJSONError(w, http.StatusServiceUnavailable, "database is unavailable")
				return
			}
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST server", port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST server...", nil)
	return s.httpServer.Shutdown(ctx)
}

package routes

import (
	"net/http"
	"time"

	_ "github.com/Dosada05/league-bracket/docs" // регистрирует swagger-спецификацию
	"github.com/Dosada05/league-bracket/handlers"
	"github.com/Dosada05/league-bracket/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

const requestTimeout = 30 * time.Second

func SetupRoutes(
	router *chi.Mux,
	allowedOrigins []string,
	matchHandler *handlers.MatchHandler,
	bracketHandler *handlers.BracketHandler,
	webSocketHandler *handlers.WebSocketHandler,
	healthHandler *handlers.HealthHandler,
	writeLimiter *middleware.RateLimiter,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.NotFound(handlers.NotFound)

	router.Get("/healthz", healthHandler.Healthz)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// WebSocket без таймаута: соединение живет долго.
	router.Get("/ws/championships/{championshipID}", webSocketHandler.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(requestTimeout))

		r.Route("/matches", func(r chi.Router) {
			r.With(writeLimiter.Limit).Post("/", matchHandler.CreateMatch)
			r.Get("/{matchID}", matchHandler.GetMatch)
			r.With(writeLimiter.Limit).Post("/{matchID}/result", matchHandler.RecordResult)
		})

		r.Route("/championships/{championshipID}/brackets/{sport}/{gender}", func(r chi.Router) {
			r.Get("/", bracketHandler.GetBracket)
			r.With(writeLimiter.Limit).Post("/seed", bracketHandler.SeedBracket)
			r.Get("/integrity", bracketHandler.CheckIntegrity)
			r.With(writeLimiter.Limit).Post("/snapshot", bracketHandler.ExportSnapshot)
		})
	})
}

package routes

import (
	"time"

	"github.com/Dosada05/sabo-bracket/handlers"
	"github.com/Dosada05/sabo-bracket/middleware"
	"github.com/Dosada05/sabo-bracket/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	bracketHandler *handlers.BracketHandler,
	matchHandler *handlers.MatchHandler,
) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(chiMiddleware.Timeout(timeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", handlers.HealthHandler)

	authenticate := middleware.Authenticate(opts.JWTSecret)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
			// Публичные маршруты для просмотра сетки
			r.Get("/bracket", bracketHandler.GetBracketHandler)
			r.Get("/matches/playable", bracketHandler.ListPlayableMatchesHandler)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.Authorize(models.RoleOrganizer, models.RoleAdmin))

				r.Post("/bracket", bracketHandler.CreateBracketHandler)
			})
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/score", matchHandler.SubmitScoreHandler)
			r.Post("/confirm", matchHandler.ConfirmScoreHandler)
			r.Post("/dispute", matchHandler.DisputeScoreHandler)
		})
	})
}

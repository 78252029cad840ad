package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/beloteo/tournament-engine/handlers"
	"github.com/beloteo/tournament-engine/middleware"
)

// SetupRoutes собирает все HTTP-маршруты движка.
func SetupRoutes(
	router *chi.Mux,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	avatarHandler *handlers.AvatarHandler,
	jwtSecret []byte,
	limiter *middleware.RateLimiter,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты для просмотра турниров
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/{tournamentID}/matches", tournamentHandler.ListMatchesHandler)
		r.Get("/{tournamentID}/standings", tournamentHandler.ListStandingsHandler)
		r.Get("/{tournamentID}/result", tournamentHandler.GetResultHandler)

		// Защищённые маршруты для записи
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(limiter.Handler)

			r.Post("/", tournamentHandler.CreateHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(limiter.Handler)

			r.Post("/{matchID}/start", matchHandler.StartHandler)
			r.Post("/{matchID}/finish", matchHandler.FinishHandler)
			r.Post("/{matchID}/forfeit", matchHandler.ForfeitHandler)
		})
	})

	// Аватары игроков: только для авторизованных
	router.Route("/players", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(limiter.Handler)

			r.Post("/{playerID}/avatar", avatarHandler.UploadHandler)
			r.Delete("/{playerID}/avatar", avatarHandler.DeleteHandler)
		})
	})
}

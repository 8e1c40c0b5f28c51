package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"feynman-backend/internal/handlers"
	"feynman-backend/internal/logger"
	"feynman-backend/internal/middleware"
	"feynman-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	userHandler *handlers.UserHandler,
	personaHandler *handlers.PersonaHandler,
	sessionHandler *handlers.SessionHandler,
	chatHandler *handlers.ChatHandler,
	materialHandler *handlers.MaterialHandler,
	gapHandler *handlers.GapHandler,
	quizHandler *handlers.QuizHandler,
	wsHub *websocket.Hub,
	frontendURL string,
	log *logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(frontendURL))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	// AI-backed routes (30 req/min per IP)
	aiLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// ──── WebSocket (authenticates with ?token=) ────
		r.Get("/ws", wsHub.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Optional)

			// ──── Users & Auth ────
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Middleware)
				r.Post("/users", userHandler.Register)
				r.Post("/auth/login", userHandler.Login)
			})
			r.Get("/users/{id}", userHandler.Get)
			r.Get("/users/{id}/progress", userHandler.Progress)

			// ──── Personas ────
			r.Route("/personas", func(r chi.Router) {
				r.Post("/", personaHandler.Create)
				r.Get("/", personaHandler.List)
				r.Get("/{id}", personaHandler.Get)
				r.Patch("/{id}", personaHandler.Update)
			})

			// ──── Sessions ────
			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", sessionHandler.Create)
				r.Get("/", sessionHandler.List)
				r.Get("/{id}", sessionHandler.Get)
				r.Patch("/{id}", sessionHandler.Update)
				r.Get("/{id}/messages", sessionHandler.ListMessages)
				r.Get("/{id}/progress", sessionHandler.Progress)
				r.Post("/{id}/advance", sessionHandler.Advance)
				r.Post("/{id}/feedback", sessionHandler.Feedback)
				r.Get("/{id}/export", sessionHandler.Export)
			})

			// ──── Messages ────
			r.Post("/messages", sessionHandler.CreateMessage)
			r.Get("/messages", sessionHandler.ListMessages)

			// ──── Materials ────
			r.Route("/materials", func(r chi.Router) {
				r.Post("/", materialHandler.Create)
				r.With(aiLimiter.Middleware).Post("/upload", materialHandler.Upload)
				r.Get("/", materialHandler.List)
				r.Get("/{id}", materialHandler.Get)
			})

			// ──── Gaps ────
			r.Route("/gaps", func(r chi.Router) {
				r.With(aiLimiter.Middleware).Post("/", gapHandler.Analyze)
				r.Get("/", gapHandler.List)
				r.Post("/teach", gapHandler.Teach)
			})

			// ──── Quizzes ────
			r.Route("/quizzes", func(r chi.Router) {
				r.With(aiLimiter.Middleware).Post("/", quizHandler.Generate)
				r.Get("/", quizHandler.List)
				r.Get("/{id}", quizHandler.Get)
				r.Post("/{id}/attempts", quizHandler.StartAttempt)
			})

			r.Route("/quiz-attempts", func(r chi.Router) {
				r.Get("/{id}", quizHandler.GetAttempt)
				r.Post("/{id}/answer", quizHandler.Answer)
			})

			// ──── Chat ────
			r.With(aiLimiter.Middleware).Post("/chat", chatHandler.Send)
		})
	})

	return r
}

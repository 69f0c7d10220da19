package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/app"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware. No global timeout: the chat stream holds its
	// connection open for the length of a generation.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	chatHandler := handlers.NewChatHandler(deps.Orchestrator, deps.Logger)
	conversationHandler := handlers.NewConversationHandler(deps.Sessions, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Provider, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat/stream", chatHandler.HandleStream)

		r.Route("/conversation", func(r chi.Router) {
			r.Get("/{id}", conversationHandler.HandleGet)
			r.Delete("/{id}", conversationHandler.HandleDelete)
		})
	})

	return r
}

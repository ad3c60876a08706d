package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"readest-ai-core/internal/embedding"
	"readest-ai-core/internal/orchestration"
)

// Deps holds the dependencies the router wires into its handlers.
type Deps struct {
	Orchestrator *orchestration.Orchestrator
	Provider     embedding.Provider
}

// NewRouter builds the HTTP surface for one running instance: a
// health probe and the chat orchestration endpoint.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	healthHandler := NewHealthHandler(deps.Provider)
	chatHandler := NewChatHandler(deps.Orchestrator)

	r.Method(http.MethodGet, "/health", healthHandler)
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/chat", chatHandler)
	})

	return r
}

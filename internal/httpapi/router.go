// Package httpapi serves the liveness probe, read-only account and task
// views, and a message hook a chat front end drives the conversation with.
package httpapi

import (
	"log/slog"
	"net/http"

	"microtask/internal/api"
	"microtask/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// App holds the handler dependencies. The message hook is mounted only
// when Conversation is set.
type App struct {
	API          api.API
	Conversation *api.Conversation
	Logger       *slog.Logger
}

// NewRouter builds the chi router with CORS and panic recovery
func NewRouter(app *App, allowedOrigins []string) http.Handler {
	if app.Logger == nil {
		app.Logger = logging.Discard()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	RegisterRoutes(r, app)
	return r
}

// RegisterRoutes mounts the handlers on r
func RegisterRoutes(r chi.Router, app *App) {
	r.Get("/", healthHandler)
	r.Get("/healthz", healthHandler)
	r.Get("/users/{user_id}/balance", app.balanceHandler)
	r.Get("/users/{user_id}/tasks", app.userTasksHandler)
	r.Get("/tasks", app.listTasksHandler)
	r.Get("/tasks/{task_id}", app.getTaskHandler)

	if app.Conversation != nil {
		r.Post("/users/{user_id}/messages", app.messageHandler)
	}
}

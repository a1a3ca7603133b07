// Package rest serves the JSON routes browser front-ends use, next to the gRPC surface.
package rest

import (
	"log/slog"
	"net/http"
	"pairchat/observability"
	"pairchat/services"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// maxBodySize caps request bodies; the largest legitimate one is a message.
const maxBodySize = 64 * 1024

func NewRouter(log *slog.Logger, chatService services.IChatService, directoryService services.IDirectoryService,
	monitoring *observability.MonitoringManager, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger(log, monitoring))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestSize(maxBodySize))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	h := NewHandler(log, chatService, directoryService, monitoring)

	r.Get("/", h.ListUsers)
	r.Get("/healthz", h.Health)

	r.Post("/signup", h.SignUp)
	r.Post("/signin", h.SignIn)

	r.Get("/search/{username}", h.SearchUsers)
	r.Get("/latest/{username}", h.Latest)

	r.Post("/sendmessage/{from}/{to}", h.SendMessage)
	r.Get("/getconversation/{from}/{to}", h.GetConversation)

	return r
}

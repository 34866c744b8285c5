package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const defaultMaxBodyBytes = 1 << 20

// NewRouter builds the HTTP surface of the session broker. storage may be nil, then /ping only
// reports that the process is up.
func NewRouter(logger *slog.Logger, useCase sessionUseCase, storage pinger, maxBodyBytes int64) http.Handler {
	log := logger.With("component", "rest")

	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	handlers := newSessionHandlers(log, useCase, maxBodyBytes)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/ping", newPingHandler(storage))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", handlers.createSession)

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", handlers.getStatus)
			r.Post("/join", handlers.joinSession)
			r.Post("/start", handlers.startSession)
			r.Put("/board", handlers.updateBoard)
			r.Post("/moves", handlers.makeMove)
			r.Post("/finish", handlers.finishSession)
			r.Post("/abort", handlers.abortSession)
		})
	})

	return r
}

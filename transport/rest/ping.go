package rest

import (
	"context"
	"net/http"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type pingHandler struct {
	storage pinger
}

func newPingHandler(storage pinger) *pingHandler {
	return &pingHandler{storage: storage}
}

// ServeHTTP answers pong while the session store is reachable.
func (that *pingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if that.storage != nil {
		if err := that.storage.Ping(r.Context()); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

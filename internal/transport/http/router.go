package http

import (
	"net/http"

	"trivia-builder-service/internal/app"
)

// NewRouter mounts the builder websocket, the set API, and the health check.
func NewRouter(service *app.BuilderService, authn *Authenticator) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	builderHandler := NewBuilderHandler(service)
	mux.HandleFunc("GET /ws/builder", authn.Wrap(builderHandler.ServeWS))

	NewSetsHandler(service).Register(mux, authn)
	return mux
}

package http

import (
	"net/http"

	"trivia-builder-service/internal/app"
	"trivia-builder-service/internal/domain"
)

// SetsHandler serves the read and delete side of the set library.
type SetsHandler struct {
	service *app.BuilderService
}

func NewSetsHandler(service *app.BuilderService) *SetsHandler {
	return &SetsHandler{service: service}
}

type setResponse struct {
	Set        domain.CustomSet  `json:"set"`
	Categories []domain.Category `json:"categories"`
}

// Register mounts the set routes on mux behind the authenticator.
func (h *SetsHandler) Register(mux *http.ServeMux, authn *Authenticator) {
	mux.HandleFunc("GET /sets", withLogging(authn.Wrap(h.List)))
	mux.HandleFunc("GET /sets/{id}", withLogging(authn.Wrap(h.Get)))
	mux.HandleFunc("DELETE /sets/{id}", withLogging(authn.Wrap(h.Delete)))
	mux.HandleFunc("GET /search", withLogging(authn.Wrap(h.Search)))
}

func (h *SetsHandler) List(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParseSetStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sets, err := h.service.ListSets(r.Context(), status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (h *SetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	set, cats, err := h.service.GetSet(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setResponse{Set: set, Categories: cats})
}

func (h *SetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSet(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SetsHandler) Search(w http.ResponseWriter, r *http.Request) {
	sets, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if sets == nil {
		sets = []domain.CustomSet{}
	}
	writeJSON(w, http.StatusOK, sets)
}

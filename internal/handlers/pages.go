package handlers

import "net/http"

type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Home sends visitors to the build list.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/builds", http.StatusSeeOther)
}

// Health is the unauthenticated liveness probe.
func (h *PageHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

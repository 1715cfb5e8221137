package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pcbuilds/internal/catalog"
	"pcbuilds/internal/database"

	"github.com/go-chi/chi/v5"
)

func parseID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}

// wantsJSON reports whether the client asked for a JSON response instead
// of an HTML fragment.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// storageError maps repository and catalog errors onto HTTP statuses.
func storageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, "Not found", http.StatusNotFound)
	case database.IsUniqueViolation(err), errors.Is(err, catalog.ErrConflict):
		http.Error(w, "Already exists", http.StatusConflict)
	case errors.Is(err, catalog.ErrInvalidQuantity), errors.Is(err, catalog.ErrMissingName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

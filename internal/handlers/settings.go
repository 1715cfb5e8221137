package handlers

import (
	"net/http"
	"strconv"

	"pcbuilds/internal/repository"
)

type SettingsHandler struct {
	settingsRepo *repository.SettingsRepository
}

func NewSettingsHandler(settingsRepo *repository.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{settingsRepo: settingsRepo}
}

// PUT /api/settings - an unchecked box is sent as no value at all
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	autoImport, _ := strconv.ParseBool(r.FormValue("auto_import_enabled"))
	if err := h.settingsRepo.SetBool(r.Context(), repository.SettingAutoImport, autoImport); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]bool{repository.SettingAutoImport: autoImport})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"context"
	"net/http"

	"pcbuilds/internal/scanner"
	"pcbuilds/templates"
)

type ScanHandler struct {
	// ctx outlives requests so a background scan is not cut short when
	// the triggering request finishes.
	ctx     context.Context
	scanner *scanner.Scanner
}

func NewScanHandler(ctx context.Context, s *scanner.Scanner) *ScanHandler {
	return &ScanHandler{ctx: ctx, scanner: s}
}

// POST /api/import/scan
func (h *ScanHandler) StartScan(w http.ResponseWriter, r *http.Request) {
	if h.scanner == nil {
		http.NotFound(w, r)
		return
	}
	started := h.scanner.StartScan(h.ctx)
	status := h.scanner.Status()
	if wantsJSON(r) {
		code := http.StatusAccepted
		if !started {
			code = http.StatusConflict
		}
		writeJSON(w, code, status)
		return
	}
	templates.ScannerStatus(status).Render(r.Context(), w)
}

// GET /api/import/scan/status
func (h *ScanHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.scanner == nil {
		http.NotFound(w, r)
		return
	}
	status := h.scanner.Status()
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, status)
		return
	}
	templates.ScannerStatus(status).Render(r.Context(), w)
}

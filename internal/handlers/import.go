package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"pcbuilds/internal/catalog"
	"pcbuilds/internal/i18n"
	"pcbuilds/internal/logger"
	"pcbuilds/internal/repository"
	"pcbuilds/internal/scanner"
	"pcbuilds/templates"
)

type ImportHandler struct {
	svc          *catalog.Service
	scanner      *scanner.Scanner
	settingsRepo *repository.SettingsRepository
	maxUploadMB  int64
	log          *logger.Logger
}

// NewImportHandler wires the upload endpoint. sc may be nil when no drop
// folder is configured.
func NewImportHandler(svc *catalog.Service, sc *scanner.Scanner, settingsRepo *repository.SettingsRepository, maxUploadMB int64, log *logger.Logger) *ImportHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ImportHandler{svc: svc, scanner: sc, settingsRepo: settingsRepo, maxUploadMB: maxUploadMB, log: log}
}

// GET /import
func (h *ImportHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := templates.ImportData{MaxUploadMB: h.maxUploadMB}
	if h.scanner != nil {
		data.ScannerEnabled = true
		data.ImportDir = h.scanner.Dir()
		data.Scan = h.scanner.Status()
		data.AutoImport = h.settingsRepo.GetBool(ctx, repository.SettingAutoImport, true)
		data.LastImportAt = h.settingsRepo.GetTime(ctx, repository.SettingLastImportAt)
	}
	templates.ImportPage(data).Render(ctx, w)
}

// POST /import - multipart upload of a single CSV or XLSX file
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB<<20)
	if err := r.ParseMultipartForm(h.maxUploadMB << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Could not read upload", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Import(ctx, filepath.Base(header.Filename), data)
	if err != nil {
		h.log.Error("upload import failed", "file", header.Filename, "error", err)
		if wantsJSON(r) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		templates.ImportResult(nil, i18n.T(ctx, "import.failed"), true).Render(ctx, w)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}
	templates.ImportResult(res, res.Summary(ctx), false).Render(ctx, w)
}

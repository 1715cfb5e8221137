package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pcbuilds/internal/catalog"
	"pcbuilds/internal/database"
	"pcbuilds/internal/logger"
	"pcbuilds/internal/models"
	"pcbuilds/internal/repository"
	"pcbuilds/templates"
)

type BuildHandler struct {
	db        *database.DB
	buildRepo *repository.BuildRepository
	partRepo  *repository.PartRepository
	log       *logger.Logger
}

func NewBuildHandler(db *database.DB, log *logger.Logger) *BuildHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &BuildHandler{
		db:        db,
		buildRepo: repository.NewBuildRepository(db),
		partRepo:  repository.NewPartRepository(db),
		log:       log,
	}
}

func (h *BuildHandler) listData(r *http.Request) (templates.BuildsData, error) {
	status := models.BuildStatus(r.URL.Query().Get("status"))
	if !status.Valid() {
		status = ""
	}
	builds, err := h.buildRepo.List(r.Context(), status)
	if err != nil {
		return templates.BuildsData{}, err
	}
	totals, err := h.buildRepo.Totals(r.Context())
	if err != nil {
		return templates.BuildsData{}, err
	}
	return templates.BuildsData{Builds: builds, Totals: totals, Status: status}, nil
}

// GET /builds?status={status}
func (h *BuildHandler) List(w http.ResponseWriter, r *http.Request) {
	data, err := h.listData(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	templates.BuildsPage(data).Render(r.Context(), w)
}

func (h *BuildHandler) load(r *http.Request, id int64) (*models.Build, error) {
	b, err := h.buildRepo.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	b.Lines, err = h.buildRepo.Lines(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GET /builds/{id}
func (h *BuildHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid build ID", http.StatusBadRequest)
		return
	}
	b, err := h.load(r, id)
	if err != nil {
		storageError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, buildJSON(b))
		return
	}
	parts, err := h.partRepo.List(r.Context(), 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	templates.BuildDetailPage(templates.BuildDetailData{Build: *b, Parts: parts}).Render(r.Context(), w)
}

// buildResponse adds the computed aggregate price to a build.
type buildResponse struct {
	*models.Build
	Total *string `json:"total"`
}

func buildJSON(b *models.Build) buildResponse {
	resp := buildResponse{Build: b}
	if t := b.Total(); t.Valid {
		s := t.Decimal.StringFixed(2)
		resp.Total = &s
	}
	return resp
}

// POST /api/builds - create an empty draft build, 409 if the name is taken
func (h *BuildHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	b := &models.Build{Name: name, Status: models.StatusDraft}
	if err := h.buildRepo.Create(r.Context(), b); err != nil {
		storageError(w, err)
		return
	}
	h.log.Info("build created", "build_id", b.ID, "name", b.Name)

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, b)
		return
	}
	data, err := h.listData(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	templates.BuildList(data).Render(r.Context(), w)
}

// DELETE /api/builds/{id}
func (h *BuildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid build ID", http.StatusBadRequest)
		return
	}
	err = h.db.InTx(r.Context(), func(q database.Querier) error {
		return repository.NewBuildRepository(q).Delete(r.Context(), id)
	})
	if err != nil {
		storageError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": id})
		return
	}
	w.WriteHeader(http.StatusOK)
}

// PUT /api/builds/{id}/status
func (h *BuildHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid build ID", http.StatusBadRequest)
		return
	}
	r.ParseForm()
	status := models.BuildStatus(r.FormValue("status"))
	if !status.Valid() {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}
	if err := h.buildRepo.UpdateStatus(r.Context(), id, status); err != nil {
		storageError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/builds/{id}/parts - set one line. A quantity that is zero,
// negative or not a number removes the line.
func (h *BuildHandler) SetPart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid build ID", http.StatusBadRequest)
		return
	}
	r.ParseForm()
	partID, err := strconv.ParseInt(r.FormValue("part_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid part ID", http.StatusBadRequest)
		return
	}
	rawOverride := r.FormValue("price_override")
	override := catalog.NormalizePrice(rawOverride)
	if strings.TrimSpace(rawOverride) != "" && !override.Valid {
		http.Error(w, "Invalid price override", http.StatusBadRequest)
		return
	}
	quantity, ok := catalog.ParseQuantity(r.FormValue("quantity"))

	err = h.db.InTx(ctx, func(q database.Querier) error {
		builds := repository.NewBuildRepository(q)
		if _, err := builds.GetByID(ctx, buildID); err != nil {
			return err
		}
		if _, err := repository.NewPartRepository(q).GetByID(ctx, partID); err != nil {
			return err
		}
		if !ok {
			if err := builds.RemovePart(ctx, buildID, partID); err != nil && !errors.Is(err, sql.ErrNoRows) {
				return err
			}
		} else if err := catalog.NewEngine(q, h.log).LinkPart(ctx, buildID, partID, quantity, override); err != nil {
			return err
		}
		return builds.Touch(ctx, buildID)
	})
	if err != nil {
		storageError(w, err)
		return
	}
	h.renderLines(w, r, buildID)
}

// DELETE /api/builds/{id}/parts/{partId}
func (h *BuildHandler) RemovePart(w http.ResponseWriter, r *http.Request) {
	buildID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid build ID", http.StatusBadRequest)
		return
	}
	partID, err := parseID(r, "partId")
	if err != nil {
		http.Error(w, "Invalid part ID", http.StatusBadRequest)
		return
	}
	if err := h.buildRepo.RemovePart(r.Context(), buildID, partID); err != nil {
		storageError(w, err)
		return
	}
	h.renderLines(w, r, buildID)
}

func (h *BuildHandler) renderLines(w http.ResponseWriter, r *http.Request, buildID int64) {
	b, err := h.load(r, buildID)
	if err != nil {
		storageError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, buildJSON(b))
		return
	}
	templates.BuildLines(*b).Render(r.Context(), w)
}

package handlers

import (
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

type PartHandler struct {
	db           *database.DB
	partRepo     *repository.PartRepository
	categoryRepo *repository.CategoryRepository
	log          *logger.Logger
}

func NewPartHandler(db *database.DB, log *logger.Logger) *PartHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &PartHandler{
		db:           db,
		partRepo:     repository.NewPartRepository(db),
		categoryRepo: repository.NewCategoryRepository(db),
		log:          log,
	}
}

// GET /parts?category={id}
func (h *PartHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categoryID, _ := strconv.ParseInt(r.URL.Query().Get("category"), 10, 64)

	parts, err := h.partRepo.List(ctx, categoryID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	categories, err := h.categoryRepo.GetByKind(ctx, models.KindPart)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	templates.PartsPage(templates.PartsData{
		Parts:      parts,
		Categories: categories,
		CategoryID: categoryID,
	}).Render(ctx, w)
}

// POST /api/parts - create or update a part by (name, category)
func (h *PartHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	ctx := r.Context()

	in := catalog.PartInput{
		Name:  strings.TrimSpace(r.FormValue("name")),
		Brand: r.FormValue("brand"),
		URL:   r.FormValue("url"),
		Price: catalog.NormalizePrice(r.FormValue("price")),
	}
	if in.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	categoryName := strings.TrimSpace(r.FormValue("category"))

	var part *models.Part
	var outcome catalog.Outcome
	err := h.db.InTx(ctx, func(q database.Querier) error {
		eng := catalog.NewEngine(q, h.log)
		if categoryName != "" {
			c, err := eng.GetOrCreateCategory(ctx, models.KindPart, categoryName)
			if err != nil {
				return err
			}
			in.CategoryID = &c.ID
		}
		var err error
		part, outcome, err = eng.UpsertPart(ctx, in)
		return err
	})
	if err != nil {
		storageError(w, err)
		return
	}

	status := http.StatusOK
	if outcome == catalog.Created {
		status = http.StatusCreated
	}
	if wantsJSON(r) {
		writeJSON(w, status, part)
		return
	}
	parts, _ := h.partRepo.List(ctx, 0)
	w.WriteHeader(status)
	templates.PartList(parts).Render(ctx, w)
}

// PUT /api/parts/{id}/price - a blank price clears it
func (h *PartHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid part ID", http.StatusBadRequest)
		return
	}
	r.ParseForm()
	raw := r.FormValue("price")
	price := catalog.NormalizePrice(raw)
	if strings.TrimSpace(raw) != "" && !price.Valid {
		http.Error(w, "Invalid price", http.StatusBadRequest)
		return
	}

	if err := h.partRepo.UpdatePrice(r.Context(), id, price); err != nil {
		storageError(w, err)
		return
	}

	p, err := h.partRepo.GetByID(r.Context(), id)
	if err != nil {
		storageError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, p)
		return
	}
	templates.PartRow(*p).Render(r.Context(), w)
}

// DELETE /api/parts/{id} - also removes the part from every build
func (h *PartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid part ID", http.StatusBadRequest)
		return
	}

	err = h.db.InTx(r.Context(), func(q database.Querier) error {
		return repository.NewPartRepository(q).Delete(r.Context(), id)
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

package handlers

import (
	"net/http"
	"strings"

	"pcbuilds/internal/database"
	"pcbuilds/internal/models"
	"pcbuilds/internal/repository"
	"pcbuilds/templates"
)

type CategoryHandler struct {
	db           *database.DB
	categoryRepo *repository.CategoryRepository
}

func NewCategoryHandler(db *database.DB) *CategoryHandler {
	return &CategoryHandler{db: db, categoryRepo: repository.NewCategoryRepository(db)}
}

// GET /categories
func (h *CategoryHandler) Page(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryRepo.GetAllWithCount(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	templates.CategoriesPage(categories).Render(r.Context(), w)
}

// POST /api/categories - create a category, 409 if the name is taken
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	name := strings.TrimSpace(r.FormValue("name"))
	kind := models.CategoryKind(r.FormValue("kind"))
	if kind == "" {
		kind = models.KindPart
	}

	if name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	if !kind.Valid() {
		http.Error(w, "Invalid kind", http.StatusBadRequest)
		return
	}

	c := &models.Category{Name: name, Kind: kind}
	if err := h.categoryRepo.Create(r.Context(), c); err != nil {
		storageError(w, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, c)
		return
	}
	h.renderList(w, r)
}

// DELETE /api/categories/{id} - parts in the category become uncategorized
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid category ID", http.StatusBadRequest)
		return
	}

	err = h.db.InTx(r.Context(), func(q database.Querier) error {
		return repository.NewCategoryRepository(q).Delete(r.Context(), id)
	})
	if err != nil {
		storageError(w, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": id})
		return
	}
	h.renderList(w, r)
}

func (h *CategoryHandler) renderList(w http.ResponseWriter, r *http.Request) {
	categories, _ := h.categoryRepo.GetAllWithCount(r.Context())
	templates.CategoryList(categories).Render(r.Context(), w)
}

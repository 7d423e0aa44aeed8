package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/cautelas/internal/model"
	"github.com/erazemk/cautelas/internal/store"
)

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	DB *sql.DB
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List handles GET /api/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, "list categories", err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// Create handles POST /api/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := store.CreateCategory(r.Context(), h.DB, req.Name, req.Description)
	if err != nil {
		storeError(w, r, "create category", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("category created", "user", claims.Email, "category", category.Name)
	jsonResponse(w, http.StatusCreated, category)
}

// Update handles PATCH /api/categories/{id}.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := store.UpdateCategory(r.Context(), h.DB, id, req.Name, req.Description)
	if err != nil {
		storeError(w, r, "update category", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("category updated", "user", claims.Email, "category", category.Name)
	jsonResponse(w, http.StatusOK, category)
}

// Delete handles DELETE /api/categories/{id}. The category's equipment and
// serial numbers go with it.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	deleted, err := store.DeleteCategory(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, "delete category", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("category deleted", "user", claims.Email, "category_id", id,
		"equipments", deleted.DeletedEquipments, "serials", deleted.DeletedSerials)
	jsonResponse(w, http.StatusOK, deleted)
}

package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/cautelas/internal/document"
	"github.com/erazemk/cautelas/internal/model"
	"github.com/erazemk/cautelas/internal/store"
)

// AlterationsHandler handles equipment alteration endpoints.
type AlterationsHandler struct {
	DB   *sql.DB
	Docs *documents
}

// List handles GET /api/alterations.
func (h *AlterationsHandler) List(w http.ResponseWriter, r *http.Request) {
	alterations, err := store.ListAlterations(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, "list alterations", err)
		return
	}
	if alterations == nil {
		alterations = []model.Alteration{}
	}
	jsonResponse(w, http.StatusOK, alterations)
}

// Create handles POST /api/alterations.
func (h *AlterationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Alteration
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	alteration, err := store.CreateAlteration(r.Context(), h.DB, req)
	if err != nil {
		storeError(w, r, "create alteration", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("alteration created", "user", claims.Email, "alteration", alteration.ID,
		"customer", alteration.CustomerID)
	jsonResponse(w, http.StatusCreated, alteration)
}

// Update handles PUT /api/alterations/{id}.
func (h *AlterationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid alteration id")
		return
	}

	var req model.Alteration
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	alteration, err := store.UpdateAlteration(r.Context(), h.DB, id, req)
	if err != nil {
		storeError(w, r, "update alteration", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("alteration updated", "user", claims.Email, "alteration", alteration.ID)
	jsonResponse(w, http.StatusOK, alteration)
}

// Download handles GET /api/alterations/{id}/download.
func (h *AlterationsHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid alteration id")
		return
	}

	alteration, err := store.GetAlteration(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, "get alteration", err)
		return
	}
	if alteration == nil {
		jsonError(w, http.StatusNotFound, "alteration not found")
		return
	}

	filename := fmt.Sprintf("alteracao-%d.docx", alteration.ID)
	h.Docs.sendDocx(w, r, document.TemplateAlteration, filename, document.AlterationData(alteration))
}

package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/cautelas/internal/imaging"
	"github.com/erazemk/cautelas/internal/model"
	"github.com/erazemk/cautelas/internal/store"
)

// EquipmentsHandler handles equipment endpoints.
type EquipmentsHandler struct {
	DB *sql.DB
}

// List handles GET /api/equipments.
func (h *EquipmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	equipments, err := store.ListEquipments(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, "list equipments", err)
		return
	}
	if equipments == nil {
		equipments = []model.Equipment{}
	}
	jsonResponse(w, http.StatusOK, equipments)
}

// Create handles POST /api/equipments.
func (h *EquipmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.EquipmentInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	equipment, err := store.CreateEquipment(r.Context(), h.DB, req)
	if err != nil {
		storeError(w, r, "create equipment", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("equipment created", "user", claims.Email, "equipment", equipment.Name, "amount", equipment.Amount)
	jsonResponse(w, http.StatusCreated, equipment)
}

// Get handles GET /api/equipments/{id}.
func (h *EquipmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	equipment, err := store.GetEquipment(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, "get equipment", err)
		return
	}
	if equipment == nil {
		jsonError(w, http.StatusNotFound, "equipment not found")
		return
	}
	jsonResponse(w, http.StatusOK, equipment)
}

// Update handles PUT /api/equipments/{id}. Every writable field is replaced.
func (h *EquipmentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	var req model.EquipmentInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Condition == "" {
		req.Condition = model.ConditionGood
	}

	equipment, err := store.UpdateEquipment(r.Context(), h.DB, id, req)
	if err != nil {
		storeError(w, r, "update equipment", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("equipment updated", "user", claims.Email, "equipment", equipment.Name, "amount", equipment.Amount)
	jsonResponse(w, http.StatusOK, equipment)
}

// Delete handles DELETE /api/equipments/{id}.
func (h *EquipmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	if err := store.DeleteEquipment(r.Context(), h.DB, id); err != nil {
		storeError(w, r, "delete equipment", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("equipment deleted", "user", claims.Email, "equipment_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "equipment deleted"})
}

// UploadPhoto handles PUT /api/equipments/{id}/photo. The photo is sent as
// the "photo" field of a multipart form.
func (h *EquipmentsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.NormalizePhoto(file)
	switch {
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		jsonError(w, http.StatusBadRequest, "photo must be JPEG, PNG, or WebP")
		return
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		jsonError(w, http.StatusBadRequest, "could not decode photo")
		return
	}

	if err := store.SetEquipmentPhoto(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		storeError(w, r, "save photo", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("equipment photo uploaded", "user", claims.Email, "equipment_id", id,
		"width", photo.Width, "height", photo.Height, "bytes", len(photo.Data))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/equipments/{id}/photo.
func (h *EquipmentsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	data, mime, err := store.GetEquipmentPhoto(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, "get photo", err)
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

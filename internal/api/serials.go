package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/cautelas/internal/model"
	"github.com/erazemk/cautelas/internal/store"
)

// SerialNumbersHandler handles serial number endpoints.
type SerialNumbersHandler struct {
	DB *sql.DB
}

type createSerialRequest struct {
	EquipmentID int64              `json:"equipment_id"`
	Number      string             `json:"number"`
	Status      model.SerialStatus `json:"status"`
	Condition   model.Condition    `json:"condition"`
	Observation string             `json:"observation"`
}

// List handles GET /api/serial-numbers, optionally filtered by
// ?equipment_id=.
func (h *SerialNumbersHandler) List(w http.ResponseWriter, r *http.Request) {
	var equipmentID int64
	if v := r.URL.Query().Get("equipment_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid equipment_id")
			return
		}
		equipmentID = id
	}

	serials, err := store.ListSerialNumbers(r.Context(), h.DB, equipmentID)
	if err != nil {
		storeError(w, r, "list serial numbers", err)
		return
	}
	if serials == nil {
		serials = []model.SerialNumber{}
	}
	jsonResponse(w, http.StatusOK, serials)
}

// Create handles POST /api/serial-numbers.
func (h *SerialNumbersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSerialRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EquipmentID <= 0 {
		jsonError(w, http.StatusBadRequest, "equipment_id required")
		return
	}

	serial, err := store.CreateSerialNumber(r.Context(), h.DB, req.EquipmentID, req.Number,
		req.Status, req.Condition, req.Observation)
	if err != nil {
		storeError(w, r, "create serial number", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("serial number created", "user", claims.Email, "serial", serial.Number, "equipment", serial.EquipmentName)
	jsonResponse(w, http.StatusCreated, serial)
}

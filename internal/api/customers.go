package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/cautelas/internal/model"
	"github.com/erazemk/cautelas/internal/store"
)

// CustomersHandler handles customer endpoints. Customers are never deleted.
type CustomersHandler struct {
	DB *sql.DB
}

// List handles GET /api/customers.
func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := store.ListCustomers(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, "list customers", err)
		return
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	jsonResponse(w, http.StatusOK, customers)
}

// Create handles POST /api/customers.
func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Customer
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.WarName = strings.TrimSpace(req.WarName)

	customer, err := store.CreateCustomer(r.Context(), h.DB, req)
	if err != nil {
		storeError(w, r, "create customer", err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("customer created", "user", claims.Email, "customer", customer.Name, "id", customer.ID)
	jsonResponse(w, http.StatusCreated, customer)
}

// Get handles GET /api/customers/{id}.
func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := store.GetCustomer(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, "get customer", err)
		return
	}
	if customer == nil {
		jsonError(w, http.StatusNotFound, "customer not found")
		return
	}
	jsonResponse(w, http.StatusOK, customer)
}

package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/cautelas/internal/document"
	"github.com/erazemk/cautelas/internal/model"
	"github.com/erazemk/cautelas/internal/store"
)

// LoansHandler handles loan ("cautela") endpoints.
type LoansHandler struct {
	DB      *sql.DB
	Docs    *documents
	Metrics *Metrics
}

type loanListResponse struct {
	Loans      []model.Loan     `json:"loans"`
	Pagination model.Pagination `json:"pagination"`
}

type updateLoanRequest struct {
	Status model.LoanStatus `json:"status"`
}

// visible reports whether the caller may see loan. Non-admins only see the
// loans they lent.
func visible(r *http.Request, loan *model.Loan) bool {
	claims := GetClaims(r.Context())
	if claims == nil {
		return false
	}
	return model.IsAdmin(claims.Role) || loan.LenderID == claims.UserID
}

// List handles GET /api/loans?status=&page=&limit=.
func (h *LoansHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.LoanFilter{Status: model.LoanStatus(q.Get("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	for key, dst := range map[string]*int{"page": &filter.Page, "limit": &filter.Limit} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				jsonError(w, http.StatusBadRequest, "invalid "+key)
				return
			}
			*dst = n
		}
	}

	claims := GetClaims(r.Context())
	if !model.IsAdmin(claims.Role) {
		filter.LenderID = claims.UserID
	}

	loans, page, err := store.ListLoans(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, r, "list loans", err)
		return
	}
	if loans == nil {
		loans = []model.Loan{}
	}
	jsonResponse(w, http.StatusOK, loanListResponse{Loans: loans, Pagination: page})
}

// Create handles POST /api/loans. The caller becomes the lender.
func (h *LoansHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.LoanInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	loan, err := store.CreateLoan(r.Context(), h.DB, claims.UserID, req)
	if err != nil {
		storeError(w, r, "create loan", err)
		return
	}
	h.Metrics.loanCreated()

	slog.Info("loan created", "user", claims.Email, "loan", loan.ID, "order", loan.OrderNumber,
		"lines", len(req.Equipments))
	jsonResponse(w, http.StatusCreated, loan)
}

// Get handles GET /api/loans/{id}.
func (h *LoansHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	detail, err := store.GetLoanDetail(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, "get loan", err)
		return
	}
	if detail == nil || !visible(r, &detail.Loan) {
		jsonError(w, http.StatusNotFound, "loan not found")
		return
	}
	jsonResponse(w, http.StatusOK, detail)
}

// UpdateStatus handles PATCH /api/loans/{id}. Closing returns the loan's
// equipment to stock; repeating the current status is a no-op.
func (h *LoansHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	var req updateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	loan, changed, err := store.UpdateLoanStatus(r.Context(), h.DB, id, req.Status)
	if err != nil {
		storeError(w, r, "update loan", err)
		return
	}
	if loan == nil {
		jsonError(w, http.StatusNotFound, "loan not found")
		return
	}

	claims := GetClaims(r.Context())
	if changed {
		h.Metrics.loanClosed()
		slog.Info("loan closed", "user", claims.Email, "loan", loan.ID, "order", loan.OrderNumber)
	}
	jsonResponse(w, http.StatusOK, loan)
}

// Download handles GET /api/loans/{id}/download with the loan receipt.
func (h *LoansHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid loan id")
		return
	}

	detail, err := store.GetLoanDetail(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, "get loan", err)
		return
	}
	if detail == nil {
		jsonError(w, http.StatusNotFound, "loan not found")
		return
	}

	filename := fmt.Sprintf("cautela-%d.docx", detail.OrderNumber)
	h.Docs.sendDocx(w, r, document.TemplateLoan, filename, document.LoanReceiptData(detail))
}

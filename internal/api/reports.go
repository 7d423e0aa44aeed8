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

// ReportsHandler serves the dashboard stats and the stock reports.
type ReportsHandler struct {
	DB   *sql.DB
	Docs *documents
}

// Stats handles GET /api/stats.
func (h *ReportsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetStats(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, "get stats", err)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// ReadyDownload handles GET /api/ready/download: the ready-state stock
// report signed by the caller.
func (h *ReportsHandler) ReadyDownload(w http.ResponseWriter, r *http.Request) {
	snapshot, err := store.GetStockSnapshot(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, "get stock", err)
		return
	}

	now := h.Docs.Now()
	if wantsXLSX(r) {
		h.sendWorkbook(w, r, snapshot, fmt.Sprintf("pronto-%s.xlsx", fileDate(now)))
		return
	}

	claims := GetClaims(r.Context())
	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, r, "get user", err)
		return
	}

	filename := fmt.Sprintf("pronto-%s.docx", fileDate(now))
	h.Docs.sendDocx(w, r, document.TemplateReady, filename, document.ReadyReportData(snapshot, user, now))
}

// Daily handles POST /api/reports/daily.
func (h *ReportsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	snapshot, err := store.GetStockSnapshot(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, "get stock", err)
		return
	}

	now := h.Docs.Now()
	if wantsXLSX(r) {
		h.sendWorkbook(w, r, snapshot, fmt.Sprintf("relatorio-diario-%s.xlsx", fileDate(now)))
		return
	}

	filename := fmt.Sprintf("relatorio-diario-%s.docx", fileDate(now))
	h.Docs.sendDocx(w, r, document.TemplateDaily, filename, document.DailyReportData(snapshot, now))
}

func (h *ReportsHandler) sendWorkbook(w http.ResponseWriter, r *http.Request, snapshot *model.StockSnapshot, filename string) {
	out, err := document.StockWorkbook(snapshot, h.Docs.Now())
	h.Docs.Metrics.rendered("xlsx", err)
	if err != nil {
		storeError(w, r, "render spreadsheet", err)
		return
	}
	slog.Info("spreadsheet generated", "file", filename, "bytes", len(out))
	sendFile(w, document.XlsxMIME, filename, out)
}

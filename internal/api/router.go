package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/cautelas/internal/auth"
	"github.com/erazemk/cautelas/internal/document"
	"github.com/erazemk/cautelas/internal/model"
)

// Options configures the API router.
type Options struct {
	Issuer            auth.Issuer
	Renderer          document.Renderer
	Metrics           *Metrics
	ExposeMetrics     bool
	AllowRegistration bool

	// Now is the clock used for report dates. Defaults to time.Now.
	Now func() time.Time
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, opts Options) http.Handler {
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Issuer: opts.Issuer, AllowRegistration: opts.AllowRegistration}
	usersHandler := &UsersHandler{DB: db}
	customersHandler := &CustomersHandler{DB: db}
	categoriesHandler := &CategoriesHandler{DB: db}
	equipmentsHandler := &EquipmentsHandler{DB: db}
	serialsHandler := &SerialNumbersHandler{DB: db}
	docs := &documents{Renderer: opts.Renderer, Metrics: opts.Metrics, Now: opts.Now}
	loansHandler := &LoansHandler{DB: db, Docs: docs, Metrics: opts.Metrics}
	alterationsHandler := &AlterationsHandler{DB: db, Docs: docs}
	reportsHandler := &ReportsHandler{DB: db, Docs: docs}

	authMW := AuthMiddleware(opts.Issuer, db)
	guard := func(allowed model.Permission, h http.HandlerFunc) http.Handler {
		return authMW(RequireCapability(allowed)(h))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return authMW(h)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.ExposeMetrics {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	// Auth.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	if opts.AllowRegistration {
		mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	}
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	// Users.
	mux.Handle("GET /api/users", guard(model.CanManageUsers, usersHandler.List))
	mux.Handle("POST /api/users", guard(model.CanManageUsers, usersHandler.Create))
	mux.Handle("GET /api/users/{id}", guard(model.CanManageUsers, usersHandler.Get))
	mux.Handle("PATCH /api/users/{id}", guard(model.CanManageUsers, usersHandler.Update))
	mux.Handle("DELETE /api/users/{id}", guard(model.CanManageUsers, usersHandler.Delete))
	mux.Handle("PATCH /api/users/{id}/reset-password", guard(model.CanManageUsers, usersHandler.ResetPassword))

	// Customers.
	mux.Handle("GET /api/customers", authed(customersHandler.List))
	mux.Handle("POST /api/customers", authed(customersHandler.Create))
	mux.Handle("GET /api/customers/{id}", authed(customersHandler.Get))

	// Categories.
	mux.Handle("GET /api/categories", authed(categoriesHandler.List))
	mux.Handle("POST /api/categories", guard(model.CanManageCategories, categoriesHandler.Create))
	mux.Handle("PATCH /api/categories/{id}", guard(model.CanManageCategories, categoriesHandler.Update))
	mux.Handle("DELETE /api/categories/{id}", guard(model.CanManageCategories, categoriesHandler.Delete))

	// Equipments.
	mux.Handle("GET /api/equipments", authed(equipmentsHandler.List))
	mux.Handle("POST /api/equipments", guard(model.CanManageEquipments, equipmentsHandler.Create))
	mux.Handle("GET /api/equipments/{id}", authed(equipmentsHandler.Get))
	mux.Handle("PUT /api/equipments/{id}", guard(model.CanManageEquipments, equipmentsHandler.Update))
	mux.Handle("DELETE /api/equipments/{id}", guard(model.CanManageEquipments, equipmentsHandler.Delete))
	mux.Handle("GET /api/equipments/{id}/photo", authed(equipmentsHandler.GetPhoto))
	mux.Handle("PUT /api/equipments/{id}/photo", guard(model.CanManageEquipments, equipmentsHandler.UploadPhoto))

	// Serial numbers.
	mux.Handle("GET /api/serial-numbers", authed(serialsHandler.List))
	mux.Handle("POST /api/serial-numbers", guard(model.CanManageEquipments, serialsHandler.Create))

	// Loans.
	mux.Handle("GET /api/loans", authed(loansHandler.List))
	mux.Handle("POST /api/loans", guard(model.CanCreateLoans, loansHandler.Create))
	mux.Handle("GET /api/loans/{id}", authed(loansHandler.Get))
	mux.Handle("PATCH /api/loans/{id}", guard(model.IsAdmin, loansHandler.UpdateStatus))
	mux.Handle("GET /api/loans/{id}/download", guard(model.IsAdmin, loansHandler.Download))

	// Alterations.
	mux.Handle("GET /api/alterations", authed(alterationsHandler.List))
	mux.Handle("POST /api/alterations", guard(model.CanManageCategories, alterationsHandler.Create))
	mux.Handle("PUT /api/alterations/{id}", guard(model.CanManageCategories, alterationsHandler.Update))
	mux.Handle("GET /api/alterations/{id}/download", guard(model.IsAdmin, alterationsHandler.Download))

	// Reports.
	mux.Handle("GET /api/stats", authed(reportsHandler.Stats))
	mux.Handle("GET /api/ready/download", guard(model.IsAdmin, reportsHandler.ReadyDownload))
	mux.Handle("POST /api/reports/daily", guard(model.CanGenerateReports, reportsHandler.Daily))

	return LoggingMiddleware(opts.Metrics.Instrument(mux))
}

package handlers

import (
	"net/http"

	"bankcore/internal/config"
	"bankcore/internal/middleware"
	"bankcore/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	playground "github.com/go-playground/validator/v10"
)

type Handler struct {
	cfg            config.Config
	validate       *playground.Validate
	accounts       AccountStore
	staff          StaffStore
	transactions   TransactionService
	approvals      ApprovalService
	reversals      ReversalService
	ledger         LedgerService
	hub            *websocket.Hub
	metricsHandler http.Handler
}

func New(cfg config.Config, validate *playground.Validate, accounts AccountStore, staff StaffStore, transactions TransactionService, approvals ApprovalService, reversals ReversalService, ledger LedgerService, hub *websocket.Hub, metricsHandler http.Handler) *Handler {
	return &Handler{
		cfg:            cfg,
		validate:       validate,
		accounts:       accounts,
		staff:          staff,
		transactions:   transactions,
		approvals:      approvals,
		reversals:      reversals,
		ledger:         ledger,
		hub:            hub,
		metricsHandler: metricsHandler,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/transactions", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Post("/deposit", h.Deposit)
		r.Post("/withdraw", h.Withdraw)
		r.Post("/transfer", h.Transfer)
		r.Get("/{id}", h.GetTransaction)
		r.Post("/{id}/cancel", h.CancelTransaction)
		r.With(middleware.RequireStaff(h.staff, middleware.RoleManager)).Post("/{id}/reverse", h.ReverseTransaction)
		r.With(middleware.RequireStaff(h.staff, middleware.RoleManager)).Get("/{id}/audit", h.AuditTrail)
	})

	router.Route("/approvals", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Use(middleware.RequireStaff(h.staff, middleware.RoleManager))
		r.Get("/", h.ListApprovals)
		r.Post("/{id}/decide", h.Decide)
	})

	router.Route("/accounts", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/", h.ListAccounts)
		r.With(middleware.RequireStaff(h.staff, middleware.RoleManager)).Post("/", h.OpenAccount)
		r.Get("/{id}/balance", h.GetBalance)
		r.Get("/{id}/statement", h.GetStatement)
		r.Get("/{id}/transactions", h.ListAccountTransactions)
		r.With(middleware.RequireStaff(h.staff, middleware.RoleManager)).Get("/{id}/reconcile", h.ReconcileAccount)
	})

	router.Route("/staff", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Use(middleware.RequireStaff(h.staff, middleware.RoleAdmin))
		r.Post("/", h.AssignStaffRole)
	})

	router.Get("/ws/updates", h.WSUpdates)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.metricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", h.metricsHandler)
	}
	return router
}

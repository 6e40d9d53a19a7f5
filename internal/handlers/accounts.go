package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bankcore/internal/middleware"
	"bankcore/internal/models"
	"bankcore/internal/money"
	"bankcore/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	summaries, err := h.accounts.GetByOwner(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list accounts")
		return
	}
	type accountView struct {
		ID             string `json:"id"`
		AccountNumber  string `json:"account_number"`
		Balance        string `json:"balance"`
		BalancePaise   int64  `json:"balance_paise"`
		HeldPaise      int64  `json:"held_paise"`
		AvailablePaise int64  `json:"available_paise"`
		LedgerPaise    int64  `json:"ledger_paise"`
		DriftPaise     int64  `json:"drift_paise"`
	}
	views := make([]accountView, 0, len(summaries))
	for _, summary := range summaries {
		views = append(views, accountView{
			ID:             summary.ID,
			AccountNumber:  summary.AccountNumber,
			Balance:        money.FormatPaise(summary.StoredBalance),
			BalancePaise:   summary.StoredBalance,
			HeldPaise:      summary.HeldAmount,
			AvailablePaise: summary.StoredBalance - summary.HeldAmount,
			LedgerPaise:    summary.CalculatedBalance,
			DriftPaise:     summary.Difference,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"accounts": views})
}

type openAccountRequest struct {
	AccountNumber string  `json:"account_number" validate:"required,accnum"`
	Type          string  `json:"type" validate:"required,oneof=savings current minor salary fixed_deposit"`
	BranchID      string  `json:"branch_id" validate:"required"`
	OwnerID       *string `json:"owner_id"`
}

// OpenAccount provisions a customer account at zero balance. Vault accounts
// are seeded by migration, never opened here.
func (h *Handler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	account := store.Account{
		ID:            uuid.NewString(),
		AccountNumber: req.AccountNumber,
		Type:          models.AccountType(req.Type),
		Status:        models.AccountActive,
		BranchID:      req.BranchID,
		OwnerID:       req.OwnerID,
	}
	if err := h.accounts.Create(r.Context(), account); err != nil {
		if isUniqueViolation(err) {
			respondError(w, http.StatusConflict, "account number already in use")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to open account")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"id":             account.ID,
		"account_number": account.AccountNumber,
		"status":         account.Status,
	})
}

func (h *Handler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	view, err := h.ledger.Reconcile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	view, err := h.ledger.GetBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	entries, err := h.ledger.Statement(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	type entryView struct {
		ID            string `json:"id"`
		TransactionID string `json:"transaction_id"`
		AmountPaise   int64  `json:"amount_paise"`
		Amount        string `json:"amount"`
		Description   string `json:"description"`
	}
	views := make([]entryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, entryView{
			ID:            entry.ID,
			TransactionID: entry.TransactionID,
			AmountPaise:   entry.Amount,
			Amount:        money.FormatPaise(entry.Amount),
			Description:   entry.Description,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": views})
}

func (h *Handler) ListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	txns, err := h.transactions.ListByAccount(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": transactionViews(txns)})
}

func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

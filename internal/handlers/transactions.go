package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"bankcore/internal/middleware"
	"bankcore/internal/models"
	"bankcore/internal/money"
	"bankcore/internal/services"

	"github.com/go-chi/chi/v5"
)

type depositRequest struct {
	Reference     string  `json:"reference" validate:"required"`
	AccountID     string  `json:"account_id" validate:"required_without=AccountNumber"`
	AccountNumber string  `json:"account_number" validate:"omitempty,accnum"`
	Amount        string  `json:"amount" validate:"required"`
	Mode          string  `json:"mode" validate:"required,txmode"`
	DepositorName *string `json:"depositor_name"`
	Description   string  `json:"description"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	amountPaise, err := money.ParsePaise(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	accountID, err := h.resolveAccountID(r.Context(), req.AccountID, req.AccountNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	result, err := h.transactions.SubmitDeposit(r.Context(), services.DepositRequest{
		Reference:     req.Reference,
		AccountID:     accountID,
		AmountPaise:   amountPaise,
		Mode:          models.TransactionMode(req.Mode),
		InitiatorID:   userID,
		DepositorName: req.DepositorName,
		Description:   req.Description,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, submissionStatus(result), resultView(result))
}

type withdrawalRequest struct {
	Reference     string `json:"reference" validate:"required"`
	AccountID     string `json:"account_id" validate:"required_without=AccountNumber"`
	AccountNumber string `json:"account_number" validate:"omitempty,accnum"`
	Amount        string `json:"amount" validate:"required"`
	Mode          string `json:"mode" validate:"required,txmode"`
	Description   string `json:"description"`
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	amountPaise, err := money.ParsePaise(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	accountID, err := h.resolveAccountID(r.Context(), req.AccountID, req.AccountNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	result, err := h.transactions.SubmitWithdrawal(r.Context(), services.WithdrawalRequest{
		Reference:   req.Reference,
		AccountID:   accountID,
		AmountPaise: amountPaise,
		Mode:        models.TransactionMode(req.Mode),
		InitiatorID: userID,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, submissionStatus(result), resultView(result))
}

type transferRequest struct {
	Reference       string `json:"reference" validate:"required"`
	FromAccountID   string `json:"from_account_id" validate:"required"`
	ToAccountID     string `json:"to_account_id" validate:"required_without=ToAccountNumber"`
	ToAccountNumber string `json:"to_account_number" validate:"omitempty,accnum"`
	Amount          string `json:"amount" validate:"required"`
	Description     string `json:"description"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	amountPaise, err := money.ParsePaise(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	toAccountID, err := h.resolveAccountID(r.Context(), req.ToAccountID, req.ToAccountNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	result, err := h.transactions.SubmitTransfer(r.Context(), services.TransferRequest{
		Reference:     req.Reference,
		FromAccountID: req.FromAccountID,
		ToAccountID:   toAccountID,
		AmountPaise:   amountPaise,
		InitiatorID:   userID,
		Description:   req.Description,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, submissionStatus(result), resultView(result))
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.transactions.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, transactionView(txn))
}

func (h *Handler) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	result, err := h.transactions.Cancel(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resultView(result))
}

type reverseRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req reverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.reversals.Reverse(r.Context(), chi.URLParam(r, "id"), userID, req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resultView(result))
}

// submissionStatus picks the HTTP status for a submission outcome: a replay
// is a 200, creation a 201.
func submissionStatus(result services.TransactionResult) int {
	if result.Replayed {
		return http.StatusOK
	}
	return http.StatusCreated
}

// AuditTrail lists the recorded audit entries for one transaction.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	logs, err := h.transactions.AuditTrail(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	type auditView struct {
		ID      string  `json:"id"`
		ActorID *string `json:"actor_id,omitempty"`
		Action  string  `json:"action"`
		Data    string  `json:"data"`
	}
	views := make([]auditView, 0, len(logs))
	for _, entry := range logs {
		views = append(views, auditView{
			ID:      entry.ID,
			ActorID: entry.ActorUserID,
			Action:  entry.Action,
			Data:    entry.Data,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": views})
}

// resolveAccountID accepts either an account ID or an account number, the
// counter flow enters numbers from the paying-in slip.
func (h *Handler) resolveAccountID(ctx context.Context, accountID, accountNumber string) (string, error) {
	if accountID != "" {
		return accountID, nil
	}
	account, err := h.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", services.ErrNotFound
		}
		return "", err
	}
	return account.ID, nil
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"bankcore/internal/money"
	"bankcore/internal/services"
	"bankcore/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrUnauthorizedAccount),
		errors.Is(err, services.ErrSelfApproval):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrDuplicateReference),
		errors.Is(err, services.ErrConcurrentModification):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrAccountNotActive),
		errors.Is(err, services.ErrSameAccountTransfer),
		errors.Is(err, services.ErrNotCancellable),
		errors.Is(err, services.ErrAlreadyDecided),
		errors.Is(err, services.ErrNotReversible),
		errors.Is(err, services.ErrAlreadyReversed):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

type transactionResponse struct {
	ID              string  `json:"id"`
	Reference       string  `json:"reference"`
	Type            int     `json:"type"`
	TypeLabel       string  `json:"type_label"`
	Mode            *string `json:"mode,omitempty"`
	Status          int     `json:"status"`
	StatusLabel     string  `json:"status_label"`
	AmountPaise     int64   `json:"amount_paise"`
	Amount          string  `json:"amount"`
	FromAccountID   *string `json:"from_account_id,omitempty"`
	ToAccountID     *string `json:"to_account_id,omitempty"`
	BranchID        string  `json:"branch_id"`
	InitiatorID     string  `json:"initiator_id"`
	Description     string  `json:"description,omitempty"`
	DepositorName   *string `json:"depositor_name,omitempty"`
	ApproverID      *string `json:"approver_id,omitempty"`
	ApprovalRemarks *string `json:"approval_remarks,omitempty"`
	FailureReason   *string `json:"failure_reason,omitempty"`
	ReversedBy      *string `json:"reversed_by,omitempty"`
	Replayed        bool    `json:"replayed,omitempty"`
}

func transactionView(txn store.Transaction) transactionResponse {
	view := transactionResponse{
		ID:              txn.ID,
		Reference:       txn.Reference,
		Type:            int(txn.Type),
		TypeLabel:       txn.Type.String(),
		Status:          int(txn.Status),
		StatusLabel:     txn.Status.String(),
		AmountPaise:     txn.Amount,
		Amount:          money.FormatPaise(txn.Amount),
		FromAccountID:   txn.FromAccountID,
		ToAccountID:     txn.ToAccountID,
		BranchID:        txn.BranchID,
		InitiatorID:     txn.InitiatorID,
		Description:     txn.Description,
		DepositorName:   txn.DepositorName,
		ApproverID:      txn.ApproverID,
		ApprovalRemarks: txn.ApprovalRemarks,
		FailureReason:   txn.FailureReason,
		ReversedBy:      txn.ReversedBy,
	}
	if txn.Mode != nil {
		mode := string(*txn.Mode)
		view.Mode = &mode
	}
	return view
}

func resultView(result services.TransactionResult) transactionResponse {
	view := transactionView(result.Transaction)
	view.Replayed = result.Replayed
	return view
}

func transactionViews(txns []store.Transaction) []transactionResponse {
	views := make([]transactionResponse, 0, len(txns))
	for _, txn := range txns {
		views = append(views, transactionView(txn))
	}
	return views
}

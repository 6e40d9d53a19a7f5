package handlers

import (
	"encoding/json"
	"net/http"

	"bankcore/internal/middleware"
	"bankcore/internal/services"

	"github.com/go-chi/chi/v5"
)

type decisionRequest struct {
	Approve bool    `json:"approve"`
	Remarks *string `json:"remarks"`
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	result, err := h.approvals.Decide(r.Context(), services.DecisionRequest{
		TransactionID: chi.URLParam(r, "id"),
		ApproverID:    userID,
		Approve:       req.Approve,
		Remarks:       req.Remarks,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resultView(result))
}

// ListApprovals serves a manager's queue. Without an explicit branch_id the
// approver's own branch is used.
func (h *Handler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	branchID := r.URL.Query().Get("branch_id")
	if branchID == "" {
		_, ownBranch, err := h.staff.GetRole(r.Context(), userID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to resolve branch")
			return
		}
		branchID = ownBranch
	}
	if branchID == "" {
		respondError(w, http.StatusBadRequest, "branch_id is required")
		return
	}
	pending, err := h.approvals.ListPending(r.Context(), branchID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"branch_id":    branchID,
		"transactions": transactionViews(pending),
	})
}

package handlers

import (
	"encoding/json"
	"net/http"
)

type assignStaffRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=manager admin"`
	BranchID string `json:"branch_id" validate:"required"`
}

// AssignStaffRole grants or changes a user's branch role. Reassignment
// upserts, so moving a manager between branches is a single call.
func (h *Handler) AssignStaffRole(w http.ResponseWriter, r *http.Request) {
	var req assignStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.staff.Assign(r.Context(), req.UserID, req.Role, req.BranchID); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to assign role")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"user_id":   req.UserID,
		"role":      req.Role,
		"branch_id": req.BranchID,
	})
}

package handlers

import (
	"net/http"
	"strings"

	"bankcore/internal/auth"
	"bankcore/internal/websocket"
)

// WSUpdates upgrades a transaction-update subscription. Browsers cannot set
// headers on websocket dials, so the token may also arrive as a query
// parameter. Branch staff are additionally subscribed to their branch channel
// so manager dashboards see every queue change.
func (h *Handler) WSUpdates(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	keys := []string{claims.UserID}
	if role, branchID, err := h.staff.GetRole(r.Context(), claims.UserID); err == nil && role != "" && branchID != "" {
		keys = append(keys, websocket.BranchChannel(branchID))
	}
	websocket.ServeWS(w, r, h.hub, keys)
}

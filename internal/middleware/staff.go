package middleware

import (
	"context"
	"net/http"
)

const (
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

type StaffStore interface {
	GetRole(ctx context.Context, userID string) (string, string, error)
}

// RequireStaff admits branch staff. With a non-empty role only that role (or
// an admin, who passes every check) gets through.
func RequireStaff(staffStore StaffStore, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			staffRole, _, err := staffStore.GetRole(r.Context(), userID)
			if err != nil {
				http.Error(w, "unable to verify staff role", http.StatusInternalServerError)
				return
			}
			if staffRole == "" {
				http.Error(w, "staff privileges required", http.StatusForbidden)
				return
			}
			if staffRole == RoleAdmin || role == "" || staffRole == role {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "missing required role", http.StatusForbidden)
		})
	}
}

package store

import (
	"context"
	"database/sql"
)

type StaffStore struct {
	db DB
}

func NewStaffStore(db DB) *StaffStore {
	return &StaffStore{db: db}
}

type staffRow struct {
	Role     string `db:"role"`
	BranchID string `db:"branch_id"`
}

// GetRole returns the staff role and branch for a user, or empty strings when
// the user is not staff.
func (s *StaffStore) GetRole(ctx context.Context, userID string) (string, string, error) {
	var row staffRow
	err := s.db.GetContext(ctx, &row, `
		SELECT role, branch_id
		FROM staff_roles
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", "", nil
		}
		return "", "", err
	}
	return row.Role, row.BranchID, nil
}

func (s *StaffStore) Assign(ctx context.Context, userID, role, branchID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff_roles (user_id, role, branch_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET role = $2, branch_id = $3
	`, userID, role, branchID)
	return err
}

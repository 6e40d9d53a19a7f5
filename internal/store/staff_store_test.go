package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaffStoreAssignUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStaffStore(db)

	mock.ExpectExec("INSERT INTO staff_roles").
		WithArgs("user-7", "manager", "branch-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Assign(context.Background(), "user-7", "manager", "branch-2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffStoreGetRoleMissingUser(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStaffStore(db)

	mock.ExpectQuery("SELECT role, branch_id\\s+FROM staff_roles").
		WithArgs("user-0").
		WillReturnRows(sqlmock.NewRows([]string{"role", "branch_id"}))

	role, branch, err := store.GetRole(context.Background(), "user-0")
	require.NoError(t, err)
	assert.Empty(t, role)
	assert.Empty(t, branch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

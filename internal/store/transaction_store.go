package store

import (
	"context"

	"bankcore/internal/models"
)

type TransactionStore struct {
	db DB
}

type Transaction struct {
	ID              string                   `db:"id"`
	Reference       string                   `db:"reference"`
	Type            models.TransactionType   `db:"type"`
	Mode            *models.TransactionMode  `db:"mode"`
	Status          models.TransactionStatus `db:"status"`
	Amount          int64                    `db:"amount"`
	FromAccountID   *string                  `db:"from_account_id"`
	ToAccountID     *string                  `db:"to_account_id"`
	BranchID        string                   `db:"branch_id"`
	InitiatorID     string                   `db:"initiator_id"`
	Description     string                   `db:"description"`
	DepositorName   *string                  `db:"depositor_name"`
	ApproverID      *string                  `db:"approver_id"`
	ApprovalRemarks *string                  `db:"approval_remarks"`
	FailureReason   *string                  `db:"failure_reason"`
	ReversedBy      *string                  `db:"reversed_by"`
	DecidedAt       any                      `db:"decided_at"`
	CreatedAt       any                      `db:"created_at"`
}

type TransactionInput struct {
	ID            string
	Reference     string
	Type          models.TransactionType
	Mode          *models.TransactionMode
	Status        models.TransactionStatus
	Amount        int64
	FromAccountID *string
	ToAccountID   *string
	BranchID      string
	InitiatorID   string
	Description   string
	DepositorName *string
	FailureReason *string
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, reference, type, mode, status, amount, from_account_id, to_account_id, branch_id, initiator_id, description, depositor_name, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.Reference, input.Type, input.Mode, input.Status, input.Amount,
		input.FromAccountID, input.ToAccountID, input.BranchID, input.InitiatorID,
		input.Description, input.DepositorName, input.FailureReason,
	)
	return err
}

func (s *TransactionStore) GetByID(ctx context.Context, transactionID string) (Transaction, error) {
	var row Transaction
	err := s.db.GetContext(ctx, &row, selectTransaction+` WHERE id = $1`, transactionID)
	if err != nil {
		return Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) GetByIDForUpdate(ctx context.Context, tx Getter, transactionID string) (Transaction, error) {
	var row Transaction
	err := tx.GetContext(ctx, &row, selectTransaction+` WHERE id = $1 FOR UPDATE`, transactionID)
	if err != nil {
		return Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) GetByReference(ctx context.Context, reference string) (Transaction, error) {
	var row Transaction
	err := s.db.GetContext(ctx, &row, selectTransaction+` WHERE reference = $1`, reference)
	if err != nil {
		return Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) UpdateStatus(ctx context.Context, tx Execer, transactionID string, status models.TransactionStatus, failureReason *string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, failure_reason = $2
		WHERE id = $3
	`, status, failureReason, transactionID)
	return err
}

func (s *TransactionStore) RecordDecision(ctx context.Context, tx Execer, transactionID string, status models.TransactionStatus, approverID string, remarks *string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, approver_id = $2, approval_remarks = $3, decided_at = NOW()
		WHERE id = $4
	`, status, approverID, remarks, transactionID)
	return err
}

func (s *TransactionStore) MarkReversed(ctx context.Context, tx Execer, transactionID, reversalID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, reversed_by = $2
		WHERE id = $3
	`, models.StatusReversed, reversalID, transactionID)
	return err
}

func (s *TransactionStore) ListPendingByBranch(ctx context.Context, branchID string) ([]Transaction, error) {
	var rows []Transaction
	err := s.db.SelectContext(ctx, &rows, selectTransaction+`
		WHERE branch_id = $1 AND status = $2
		ORDER BY created_at ASC
	`, branchID, models.StatusRequiresApproval)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]Transaction, error) {
	var rows []Transaction
	err := s.db.SelectContext(ctx, &rows, selectTransaction+`
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

const selectTransaction = `
	SELECT id, reference, type, mode, status, amount, from_account_id, to_account_id,
	       branch_id, initiator_id, description, depositor_name, approver_id,
	       approval_remarks, failure_reason, reversed_by, decided_at, created_at
	FROM transactions
`

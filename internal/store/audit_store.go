package store

import "context"

// AuditStore appends to the immutable audit trail. Rows are written in the
// same database transaction as the state change they describe.
type AuditStore struct {
	db DB
}

type AuditLog struct {
	ID          string  `db:"id"`
	ActorUserID *string `db:"actor_user_id"`
	Action      string  `db:"action"`
	EntityType  string  `db:"entity_type"`
	EntityID    string  `db:"entity_id"`
	Data        string  `db:"data"`
	CreatedAt   any     `db:"created_at"`
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Log(ctx context.Context, tx Execer, actorID, action, entityType, entityID, data string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_user_id, action, entity_type, entity_id, data)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5)
	`, actorID, action, entityType, entityID, data)
	return err
}

func (s *AuditStore) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]AuditLog, error) {
	var rows []AuditLog
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, actor_user_id, action, entity_type, entity_id, data, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, entityType, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

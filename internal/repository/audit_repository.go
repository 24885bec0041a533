package repository

import (
	"context"
	"fmt"
	"time"

	"claims-service/internal/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditEntry is one row of a claim's audit trail.
type AuditEntry struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	ClaimID     string        `json:"claim_id" db:"claim_id"`
	Action      string        `json:"action" db:"action"`
	PerformedBy string        `json:"performed_by" db:"performed_by"`
	Details     utils.JSONMap `json:"details,omitempty" db:"details"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// Log appends an audit entry for a claim.
func (r *AuditRepository) Log(ctx context.Context, claimID, action string, details utils.JSONMap) error {
	query := `
		INSERT INTO audit_log (id, claim_id, action, performed_by, details)
		VALUES ($1, $2, $3, 'system', $4)
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), claimID, action, details)
	if err != nil {
		return fmt.Errorf("failed to log audit entry: %w", err)
	}

	return nil
}

// GetByClaimID retrieves the audit trail for a claim, oldest first.
func (r *AuditRepository) GetByClaimID(ctx context.Context, claimID string) ([]AuditEntry, error) {
	var entries []AuditEntry
	query := `
		SELECT id, claim_id, action, performed_by, details, created_at
		FROM audit_log
		WHERE claim_id = $1
		ORDER BY created_at
	`

	err := r.db.SelectContext(ctx, &entries, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}

	return entries, nil
}

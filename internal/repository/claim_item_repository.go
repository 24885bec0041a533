package repository

import (
	"context"
	"fmt"

	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ClaimItemRepository struct {
	db *sqlx.DB
}

func NewClaimItemRepository(db *sqlx.DB) *ClaimItemRepository {
	return &ClaimItemRepository{db: db}
}

// BulkCreate stores the analyzed line items of a claim.
func (r *ClaimItemRepository) BulkCreate(ctx context.Context, claimID string, items []models.ItemAnalysis) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO claim_items (id, claim_id, description, category,
		                         claimed_amount, approved_amount, rejected_amount,
		                         copay_amount, status, reason, sub_limit_exceeded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx, query,
			uuid.New(), claimID, item.Description, string(item.Category),
			item.ClaimedAmount, item.ApprovedAmount, item.RejectedAmount,
			item.CopayAmount, string(item.Status), item.Reason, item.SubLimitExceeded)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert claim item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit claim items: %w", err)
	}

	return nil
}

// GetByClaimID retrieves the stored item analyses for a claim.
func (r *ClaimItemRepository) GetByClaimID(ctx context.Context, claimID string) ([]models.ItemAnalysis, error) {
	type itemRow struct {
		Description      string  `db:"description"`
		Category         string  `db:"category"`
		ClaimedAmount    float64 `db:"claimed_amount"`
		ApprovedAmount   float64 `db:"approved_amount"`
		RejectedAmount   float64 `db:"rejected_amount"`
		CopayAmount      float64 `db:"copay_amount"`
		Status           string  `db:"status"`
		Reason           *string `db:"reason"`
		SubLimitExceeded bool    `db:"sub_limit_exceeded"`
	}

	var rows []itemRow
	query := `
		SELECT description, category, claimed_amount, approved_amount,
		       rejected_amount, copay_amount, status, reason, sub_limit_exceeded
		FROM claim_items
		WHERE claim_id = $1
		ORDER BY created_at
	`

	err := r.db.SelectContext(ctx, &rows, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim items: %w", err)
	}

	items := make([]models.ItemAnalysis, 0, len(rows))
	for _, row := range rows {
		item := models.ItemAnalysis{
			Description:      row.Description,
			Category:         models.ClaimCategory(row.Category),
			ClaimedAmount:    row.ClaimedAmount,
			ApprovedAmount:   row.ApprovedAmount,
			RejectedAmount:   row.RejectedAmount,
			CopayAmount:      row.CopayAmount,
			Status:           models.ItemStatus(row.Status),
			SubLimitExceeded: row.SubLimitExceeded,
		}
		if row.Reason != nil {
			item.Reason = *row.Reason
		}
		items = append(items, item)
	}

	return items, nil
}

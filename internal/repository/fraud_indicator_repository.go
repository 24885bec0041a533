package repository

import (
	"context"
	"fmt"

	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type FraudIndicatorRepository struct {
	db *sqlx.DB
}

func NewFraudIndicatorRepository(db *sqlx.DB) *FraudIndicatorRepository {
	return &FraudIndicatorRepository{db: db}
}

// BulkCreate stores the fraud indicators detected for a claim.
func (r *FraudIndicatorRepository) BulkCreate(ctx context.Context, claimID string, indicators []models.FraudIndicator) error {
	if len(indicators) == 0 {
		return nil
	}

	query := `
		INSERT INTO fraud_indicators (id, claim_id, type, severity, message, score)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, ind := range indicators {
		_, err := tx.ExecContext(ctx, query,
			uuid.New(), claimID, ind.Type, ind.Severity, ind.Message, ind.Score)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert fraud indicator: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fraud indicators: %w", err)
	}

	return nil
}

// GetByClaimID retrieves the fraud indicators recorded for a claim.
func (r *FraudIndicatorRepository) GetByClaimID(ctx context.Context, claimID string) ([]models.FraudIndicator, error) {
	var indicators []models.FraudIndicator
	query := `
		SELECT type, severity, message, score
		FROM fraud_indicators
		WHERE claim_id = $1
		ORDER BY created_at
	`

	err := r.db.SelectContext(ctx, &indicators, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get fraud indicators: %w", err)
	}

	return indicators, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"claims-service/internal/models"
	"claims-service/internal/utils"

	"github.com/jmoiron/sqlx"
)

type PolicyRepository struct {
	db *sqlx.DB
}

func NewPolicyRepository(db *sqlx.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// GetByID retrieves a stored policy configuration. Returns (nil, nil) when
// the policy does not exist.
func (r *PolicyRepository) GetByID(ctx context.Context, policyID string) (*models.PolicyConfig, error) {
	var row models.PolicyRow
	query := `
		SELECT policy_id, policy_number, policy_config, claims_ytd, created_at, updated_at
		FROM policies
		WHERE policy_id = $1
	`

	err := r.db.GetContext(ctx, &row, query, policyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy by id: %w", err)
	}

	return decodePolicyConfig(row.Config)
}

// GetByNumber retrieves a policy by its external policy number.
func (r *PolicyRepository) GetByNumber(ctx context.Context, policyNumber string) (*models.PolicyConfig, error) {
	var row models.PolicyRow
	query := `
		SELECT policy_id, policy_number, policy_config, claims_ytd, created_at, updated_at
		FROM policies
		WHERE policy_number = $1
	`

	err := r.db.GetContext(ctx, &row, query, policyNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy by number: %w", err)
	}

	return decodePolicyConfig(row.Config)
}

// Upsert stores a policy configuration, replacing any previous version.
func (r *PolicyRepository) Upsert(ctx context.Context, policy *models.PolicyConfig) error {
	cfg, err := utils.ToJSONMap(policy)
	if err != nil {
		return fmt.Errorf("failed to encode policy config: %w", err)
	}

	var policyNumber *string
	if policy.PolicyNumber != "" {
		policyNumber = &policy.PolicyNumber
	}

	query := `
		INSERT INTO policies (policy_id, policy_number, policy_config)
		VALUES ($1, $2, $3)
		ON CONFLICT (policy_id) DO UPDATE
		SET policy_number = EXCLUDED.policy_number,
		    policy_config = EXCLUDED.policy_config,
		    updated_at = NOW()
	`

	_, err = r.db.ExecContext(ctx, query, policy.PolicyID, policyNumber, cfg)
	if err != nil {
		return fmt.Errorf("failed to upsert policy: %w", err)
	}

	return nil
}

// GetUtilization computes the year-to-date approved total and per-category
// usage for a policy from its decided claims.
func (r *PolicyRepository) GetUtilization(ctx context.Context, policyID string) (*models.PolicyUtilization, error) {
	var totalYTD float64
	totalQuery := `
		SELECT COALESCE(claims_ytd, 0)
		FROM policies
		WHERE policy_id = $1
	`
	err := r.db.GetContext(ctx, &totalYTD, totalQuery, policyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy ytd total: %w", err)
	}

	type categoryRow struct {
		Category string  `db:"category"`
		Approved float64 `db:"approved"`
	}
	var rows []categoryRow
	categoryQuery := `
		SELECT ci.category AS category, COALESCE(SUM(ci.approved_amount), 0) AS approved
		FROM claim_items ci
		JOIN claims c ON c.claim_id = ci.claim_id
		WHERE c.policy_id = $1
		  AND c.decision IN ('APPROVED', 'PARTIAL')
		  AND date_trunc('year', c.created_at) = date_trunc('year', NOW())
		GROUP BY ci.category
	`
	err = r.db.SelectContext(ctx, &rows, categoryQuery, policyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category utilization: %w", err)
	}

	usage := make(map[models.ClaimCategory]float64, len(rows))
	for _, row := range rows {
		usage[models.ClaimCategory(row.Category)] = row.Approved
	}

	return &models.PolicyUtilization{
		PolicyID:         policyID,
		TotalApprovedYTD: totalYTD,
		CategoryUsage:    usage,
	}, nil
}

// IncrementClaimsYTD adds an approved amount to the policy's running total.
func (r *PolicyRepository) IncrementClaimsYTD(ctx context.Context, policyID string, amount float64) error {
	query := `
		UPDATE policies
		SET claims_ytd = claims_ytd + $2, updated_at = NOW()
		WHERE policy_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, policyID, amount)
	if err != nil {
		return fmt.Errorf("failed to increment claims ytd: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("policy not found")
	}

	return nil
}

func decodePolicyConfig(cfg utils.JSONMap) (*models.PolicyConfig, error) {
	var policy models.PolicyConfig
	if err := utils.FromJSONMap(cfg, &policy); err != nil {
		return nil, fmt.Errorf("failed to decode policy config: %w", err)
	}
	return &policy, nil
}

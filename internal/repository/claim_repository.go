package repository

import (
	"context"
	"fmt"

	"claims-service/internal/models"
	"claims-service/internal/utils"

	"github.com/jmoiron/sqlx"
)

type ClaimRepository struct {
	db *sqlx.DB
}

func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// Exists checks if a claim id is already taken.
func (r *ClaimRepository) Exists(ctx context.Context, claimID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM claims WHERE claim_id = $1)`

	err := r.db.GetContext(ctx, &exists, query, claimID)
	if err != nil {
		return false, fmt.Errorf("failed to check claim existence: %w", err)
	}

	return exists, nil
}

// Create inserts the intake form of a claim, before adjudication.
func (r *ClaimRepository) Create(ctx context.Context, claim *models.ClaimRecord) error {
	claimData, err := utils.ToJSONMap(claim)
	if err != nil {
		return fmt.Errorf("failed to encode claim data: %w", err)
	}

	query := `
		INSERT INTO claims (claim_id, policy_id, member_id, patient_name,
		                    treatment_date, claim_date, total_claimed_amount, claim_data)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''),
		        NULLIF($5, ''), NULLIF($6, ''), $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		claim.ClaimID, claim.PolicyID, claim.MemberID, claim.PatientName,
		claim.TreatmentDate, claim.ClaimDate, claim.TotalAmount, claimData)
	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}

	return nil
}

// UpdateDecision attaches the terminal decision to a claim.
func (r *ClaimRepository) UpdateDecision(ctx context.Context, claimID string, decision *models.DecisionRecord) error {
	decisionData, err := utils.ToJSONMap(decision)
	if err != nil {
		return fmt.Errorf("failed to encode decision data: %w", err)
	}

	query := `
		UPDATE claims
		SET decision = $2,
		    approved_amount = $3,
		    confidence_score = $4,
		    fraud_score = $5,
		    decision_data = $6,
		    updated_at = NOW()
		WHERE claim_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, claimID,
		string(decision.Decision), decision.ApprovedAmount,
		decision.ConfidenceScore, decision.FraudScore, decisionData)
	if err != nil {
		return fmt.Errorf("failed to update claim decision: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("claim not found")
	}

	return nil
}

// GetByID retrieves a stored claim row.
func (r *ClaimRepository) GetByID(ctx context.Context, claimID string) (*models.ClaimRow, error) {
	var row models.ClaimRow
	query := `
		SELECT claim_id, policy_id, member_id, patient_name, treatment_date,
		       claim_date, total_claimed_amount, approved_amount, decision,
		       confidence_score, fraud_score, claim_data, decision_data,
		       created_at, updated_at
		FROM claims
		WHERE claim_id = $1
	`

	err := r.db.GetContext(ctx, &row, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim by id: %w", err)
	}

	return &row, nil
}

// GetRecent retrieves claims created within the last N days, newest first.
func (r *ClaimRepository) GetRecent(ctx context.Context, days, limit int) ([]models.ClaimRow, error) {
	var rows []models.ClaimRow
	query := `
		SELECT claim_id, policy_id, member_id, patient_name, treatment_date,
		       claim_date, total_claimed_amount, approved_amount, decision,
		       confidence_score, fraud_score, claim_data, decision_data,
		       created_at, updated_at
		FROM claims
		WHERE created_at >= NOW() - ($1 || ' days')::interval
		ORDER BY created_at DESC
		LIMIT $2
	`

	err := r.db.SelectContext(ctx, &rows, query, days, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent claims: %w", err)
	}

	return rows, nil
}

// GetStatistics aggregates decision counts and totals, optionally scoped to
// one policy and a created_at date range (YYYY-MM-DD strings).
func (r *ClaimRepository) GetStatistics(ctx context.Context, policyID, startDate, endDate string) (*models.ClaimStatistics, error) {
	query := `
		SELECT COUNT(*) AS total_claims,
		       COUNT(*) FILTER (WHERE decision = 'APPROVED') AS approved,
		       COUNT(*) FILTER (WHERE decision = 'PARTIAL') AS partial,
		       COUNT(*) FILTER (WHERE decision = 'REJECTED') AS rejected,
		       COUNT(*) FILTER (WHERE decision = 'MANUAL_REVIEW') AS manual_review,
		       COALESCE(SUM(total_claimed_amount), 0) AS total_claimed,
		       COALESCE(SUM(approved_amount), 0) AS total_approved
		FROM claims
		WHERE 1=1
	`

	args := []interface{}{}
	argCount := 1

	if policyID != "" {
		query += fmt.Sprintf(" AND policy_id = $%d", argCount)
		args = append(args, policyID)
		argCount++
	}
	if startDate != "" {
		query += fmt.Sprintf(" AND created_at >= $%d::date", argCount)
		args = append(args, startDate)
		argCount++
	}
	if endDate != "" {
		query += fmt.Sprintf(" AND created_at < $%d::date + interval '1 day'", argCount)
		args = append(args, endDate)
		argCount++
	}

	var stats models.ClaimStatistics
	err := r.db.GetContext(ctx, &stats, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim statistics: %w", err)
	}

	return &stats, nil
}

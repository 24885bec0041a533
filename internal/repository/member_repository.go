package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"claims-service/internal/models"

	"github.com/jmoiron/sqlx"
)

type MemberRepository struct {
	db *sqlx.DB
}

func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// GetByID retrieves a member by id. Returns (nil, nil) when not found so the
// eligibility check can distinguish "unknown member" from a storage failure.
func (r *MemberRepository) GetByID(ctx context.Context, memberID string) (*models.Member, error) {
	var member models.Member
	query := `
		SELECT member_id, policy_id, employee_id, name, date_joined, active
		FROM members
		WHERE member_id = $1
	`

	err := r.db.GetContext(ctx, &member, query, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by id: %w", err)
	}

	return &member, nil
}

// GetByEmployeeID resolves a member from an employee id found on a document.
func (r *MemberRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*models.Member, error) {
	var member models.Member
	query := `
		SELECT member_id, policy_id, employee_id, name, date_joined, active
		FROM members
		WHERE employee_id = $1
	`

	err := r.db.GetContext(ctx, &member, query, employeeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by employee id: %w", err)
	}

	return &member, nil
}

package repository

import (
	"context"
	"fmt"

	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type IssueRepository struct {
	db *sqlx.DB
}

func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// BulkCreate stores the issues one pipeline step produced for a claim.
func (r *IssueRepository) BulkCreate(ctx context.Context, claimID string, issues []models.Issue) error {
	if len(issues) == 0 {
		return nil
	}

	query := `
		INSERT INTO adjudication_issues (id, claim_id, code, severity, message, step, item)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, issue := range issues {
		_, err := tx.ExecContext(ctx, query,
			uuid.New(), claimID, issue.Code, string(issue.Severity),
			issue.Message, string(issue.Step), issue.Item)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert issue: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit issues: %w", err)
	}

	return nil
}

// GetByClaimID retrieves all issues recorded for a claim.
func (r *IssueRepository) GetByClaimID(ctx context.Context, claimID string) ([]models.Issue, error) {
	type issueRow struct {
		Code     string  `db:"code"`
		Severity string  `db:"severity"`
		Message  string  `db:"message"`
		Step     *string `db:"step"`
		Item     *string `db:"item"`
	}

	var rows []issueRow
	query := `
		SELECT code, severity, message, step, item
		FROM adjudication_issues
		WHERE claim_id = $1
		ORDER BY created_at
	`

	err := r.db.SelectContext(ctx, &rows, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get issues: %w", err)
	}

	issues := make([]models.Issue, 0, len(rows))
	for _, row := range rows {
		issue := models.Issue{
			Code:     row.Code,
			Severity: models.IssueSeverity(row.Severity),
			Message:  row.Message,
		}
		if row.Step != nil {
			issue.Step = models.PipelineStep(*row.Step)
		}
		if row.Item != nil {
			issue.Item = *row.Item
		}
		issues = append(issues, issue)
	}

	return issues, nil
}

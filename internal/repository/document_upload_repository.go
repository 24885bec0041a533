package repository

import (
	"context"
	"fmt"

	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type DocumentUploadRepository struct {
	db *sqlx.DB
}

func NewDocumentUploadRepository(db *sqlx.DB) *DocumentUploadRepository {
	return &DocumentUploadRepository{db: db}
}

// Create records one stored source document for a claim.
func (r *DocumentUploadRepository) Create(ctx context.Context, upload *models.DocumentUpload) error {
	if upload.ID == "" {
		upload.ID = uuid.New().String()
	}

	query := `
		INSERT INTO document_uploads (id, claim_id, document_type, file_name,
		                              file_type, object_key, file_size)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		upload.ID, upload.ClaimID, string(upload.DocumentType),
		upload.FileName, upload.FileType, upload.ObjectKey, upload.FileSize)
	if err != nil {
		return fmt.Errorf("failed to create document upload: %w", err)
	}

	return nil
}

// GetByClaimID retrieves the stored documents for a claim.
func (r *DocumentUploadRepository) GetByClaimID(ctx context.Context, claimID string) ([]models.DocumentUpload, error) {
	var uploads []models.DocumentUpload
	query := `
		SELECT id, claim_id, document_type, file_name,
		       COALESCE(file_type, '') AS file_type, object_key,
		       COALESCE(file_size, 0) AS file_size, created_at
		FROM document_uploads
		WHERE claim_id = $1
		ORDER BY created_at
	`

	err := r.db.SelectContext(ctx, &uploads, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get document uploads: %w", err)
	}

	return uploads, nil
}

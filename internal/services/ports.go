package services

import (
	"context"

	"claims-service/internal/models"
)

// DocumentExtractor turns one raw document into a typed extraction record.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc models.DocumentInput, claimDate string) (*models.ExtractedDocument, error)
}

// NecessityReviewer is the semantic medical-necessity collaborator.
type NecessityReviewer interface {
	Review(ctx context.Context, claim *models.ClaimRecord) (*models.NecessityAssessment, error)
}

// TestMatcher resolves near-miss diagnostic test descriptions against the
// policy's covered-test list.
type TestMatcher interface {
	MatchesCoveredTest(ctx context.Context, description string, coveredTests []string) (bool, error)
}

// MemberLookup resolves members for eligibility verification.
type MemberLookup interface {
	GetByID(ctx context.Context, memberID string) (*models.Member, error)
}

// UtilizationSource supplies year-to-date usage for limit validation.
type UtilizationSource interface {
	GetUtilization(ctx context.Context, policyID string) (*models.PolicyUtilization, error)
}

// ClaimIDChecker reports whether a generated claim id is already taken.
type ClaimIDChecker interface {
	Exists(ctx context.Context, claimID string) (bool, error)
}

// DecisionNotifier publishes the terminal decision to interested consumers.
type DecisionNotifier interface {
	PublishDecision(ctx context.Context, decision *models.DecisionRecord) error
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"claims-service/internal/models"
)

func TestVerification_CoveredItemPasses(t *testing.T) {
	result := NewCoverageVerifier().Verify(testPolicy(), testClaim())

	assert.True(t, result.CoverageValid)
	assert.Empty(t, result.Issues)
}

func TestVerification_ExclusionInDescription(t *testing.T) {
	claim := testClaim()
	claim.Items = []models.LineItem{
		{Description: "Cosmetic surgery consultation", Category: models.CategoryConsultation, Amount: 5000},
	}

	result := NewCoverageVerifier().Verify(testPolicy(), claim)

	assert.False(t, result.CoverageValid)
	assert.Contains(t, issueCodes(result.Issues), models.IssueExcludedCondition)
}

func TestVerification_ExclusionInDiagnosis(t *testing.T) {
	claim := testClaim()
	claim.Diagnosis = "Post hair transplant infection"

	result := NewCoverageVerifier().Verify(testPolicy(), claim)

	assert.False(t, result.CoverageValid)
	assert.Contains(t, issueCodes(result.Issues), models.IssueExcludedCondition)
}

func TestVerification_UncoveredCategory(t *testing.T) {
	policy := testPolicy()
	policy.CoverageDetails.Dental.Covered = false
	claim := testClaim()
	claim.Items = []models.LineItem{
		{Description: "Root canal", Category: models.CategoryDental, Amount: 2500},
	}

	result := NewCoverageVerifier().Verify(policy, claim)

	assert.False(t, result.CoverageValid)
	assert.Contains(t, issueCodes(result.Issues), models.IssueServiceNotCovered)
}

func TestVerification_CategoryAbsentFromPolicy(t *testing.T) {
	policy := testPolicy()
	policy.CoverageDetails.Vision = nil
	claim := testClaim()
	claim.Items = []models.LineItem{
		{Description: "Eye examination", Category: models.CategoryVision, Amount: 900},
	}

	result := NewCoverageVerifier().Verify(policy, claim)

	assert.Contains(t, issueCodes(result.Issues), models.IssueServiceNotCovered)
}

func TestVerification_PreAuthRequiredAndMissing(t *testing.T) {
	policy := testPolicy()
	policy.CoverageDetails.DiagnosticTests.PreAuthorizationRequired = true
	claim := testClaim()
	claim.Items = []models.LineItem{
		{Description: "MRI scan brain", Category: models.CategoryDiagnostic, Amount: 4500},
	}

	result := NewCoverageVerifier().Verify(policy, claim)

	assert.False(t, result.CoverageValid)
	assert.Contains(t, issueCodes(result.Issues), models.IssuePreAuthMissing)
}

func TestVerification_PreAuthProvided(t *testing.T) {
	policy := testPolicy()
	policy.CoverageDetails.DiagnosticTests.PreAuthorizationRequired = true
	claim := testClaim()
	claim.PreAuthorization = "AUTH-2024-1177"
	claim.Items = []models.LineItem{
		{Description: "MRI scan brain", Category: models.CategoryDiagnostic, Amount: 4500},
	}

	result := NewCoverageVerifier().Verify(policy, claim)

	assert.True(t, result.CoverageValid)
}

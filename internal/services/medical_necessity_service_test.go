package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claims-service/internal/models"
)

func TestNecessity_CosmeticKeywordRejects(t *testing.T) {
	claim := testClaim()
	claim.Items = []models.LineItem{
		{Description: "Teeth whitening session", Category: models.CategoryDental, Amount: 3000},
	}

	result, err := NewMedicalNecessityReviewer(nil).Review(context.Background(), testPolicy(), claim)

	require.NoError(t, err)
	assert.False(t, result.IsNecessary)
	assert.Contains(t, issueCodes(result.Issues), models.IssueCosmeticProcedure)
}

func TestNecessity_ExperimentalKeywordRejects(t *testing.T) {
	claim := testClaim()
	claim.Items = []models.LineItem{
		{Description: "Experimental gene therapy", Category: models.CategoryConsultation, Amount: 20000},
	}

	result, err := NewMedicalNecessityReviewer(nil).Review(context.Background(), testPolicy(), claim)

	require.NoError(t, err)
	assert.Contains(t, issueCodes(result.Issues), models.IssueExperimental)
}

func TestNecessity_MissingDiagnosisIsWarning(t *testing.T) {
	claim := testClaim()
	claim.Diagnosis = ""

	result, err := NewMedicalNecessityReviewer(nil).Review(context.Background(), testPolicy(), claim)

	require.NoError(t, err)
	assert.True(t, result.IsNecessary)
	assert.Contains(t, issueCodes(result.Issues), models.IssueNecessityWarning)
}

func TestNecessity_DelegateNotNecessary(t *testing.T) {
	reviewer := &fakeReviewer{assessment: &models.NecessityAssessment{
		IsNecessary: false,
		Reason:      "Treatment unrelated to diagnosis",
	}}

	result, err := NewMedicalNecessityReviewer(reviewer).Review(context.Background(), testPolicy(), testClaim())

	require.NoError(t, err)
	assert.False(t, result.IsNecessary)
	assert.Contains(t, issueCodes(result.Issues), models.IssueNotNecessary)
}

func TestNecessity_DelegateWarningsRecorded(t *testing.T) {
	reviewer := &fakeReviewer{assessment: &models.NecessityAssessment{
		IsNecessary: true,
		Warnings:    []string{"Dosage appears high for the stated diagnosis"},
	}}

	result, err := NewMedicalNecessityReviewer(reviewer).Review(context.Background(), testPolicy(), testClaim())

	require.NoError(t, err)
	assert.True(t, result.IsNecessary)
	assert.Contains(t, issueCodes(result.Issues), models.IssueNecessityWarning)
}

func TestNecessity_FailsOpenByDefault(t *testing.T) {
	reviewer := &fakeReviewer{err: errCollaboratorDown}

	result, err := NewMedicalNecessityReviewer(reviewer).Review(context.Background(), testPolicy(), testClaim())

	require.NoError(t, err)
	assert.True(t, result.IsNecessary)
	assert.Contains(t, issueCodes(result.Issues), models.IssueNecessityUnreviewed)
}

func TestNecessity_FailClosedWhenConfigured(t *testing.T) {
	policy := testPolicy()
	policy.MedicalNecessityRule.FailOpen = boolPtr(false)
	reviewer := &fakeReviewer{err: errCollaboratorDown}

	_, err := NewMedicalNecessityReviewer(reviewer).Review(context.Background(), policy, testClaim())

	require.Error(t, err)
	assert.Equal(t, KindCollaboratorFailure, KindOf(err))
}

func TestNecessity_NoDelegateWithoutDiagnosis(t *testing.T) {
	reviewer := &fakeReviewer{err: errCollaboratorDown}
	claim := testClaim()
	claim.Diagnosis = ""

	// Reviewer would fail, but it must not be called without a diagnosis.
	result, err := NewMedicalNecessityReviewer(reviewer).Review(context.Background(), testPolicy(), claim)

	require.NoError(t, err)
	assert.True(t, result.IsNecessary)
}

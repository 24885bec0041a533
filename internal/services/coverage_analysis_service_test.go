package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claims-service/internal/models"
)

func analyze(t *testing.T, policy *models.PolicyConfig, items ...models.LineItem) models.CoverageAnalysis {
	t.Helper()
	claim := testClaim()
	claim.Items = items
	return NewCoverageAnalyzer(nil).Analyze(context.Background(), policy, claim)
}

func assertItemArithmetic(t *testing.T, analysis models.CoverageAnalysis) {
	t.Helper()
	for _, item := range analysis.ItemAnalysis {
		assert.InDelta(t, item.ClaimedAmount, item.ApprovedAmount+item.RejectedAmount+item.CopayAmount, 0.01,
			"claimed must equal approved + rejected + copay for %q", item.Description)
	}
}

// ============================================================================
// CONSULTATION
// ============================================================================

func TestAnalysis_ConsultationWithinSubLimit(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "General consultation", Category: models.CategoryConsultation, Amount: 800})

	require.Len(t, analysis.ItemAnalysis, 1)
	item := analysis.ItemAnalysis[0]
	assert.Equal(t, 720.0, item.ApprovedAmount)
	assert.Equal(t, 80.0, item.CopayAmount)
	assert.Equal(t, 0.0, item.RejectedAmount)
	assert.False(t, item.SubLimitExceeded)
	assert.Equal(t, models.ItemApproved, item.Status)
	assertItemArithmetic(t, analysis)
}

func TestAnalysis_ConsultationCappedAtSubLimit(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Specialist consultation", Category: models.CategoryConsultation, Amount: 1500})

	require.Len(t, analysis.ItemAnalysis, 1)
	item := analysis.ItemAnalysis[0]
	assert.Equal(t, 900.0, item.ApprovedAmount, "sub_limit minus copay on the sub_limit")
	assert.Equal(t, 100.0, item.CopayAmount)
	assert.Equal(t, 500.0, item.RejectedAmount)
	assert.True(t, item.SubLimitExceeded)
	assert.Equal(t, models.ItemPartial, item.Status)
	assertItemArithmetic(t, analysis)
}

// ============================================================================
// DIAGNOSTIC
// ============================================================================

func TestAnalysis_DiagnosticCoveredTest(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Complete blood test", Category: models.CategoryDiagnostic, Amount: 1200})

	item := analysis.ItemAnalysis[0]
	assert.Equal(t, 1200.0, item.ApprovedAmount)
	assert.Equal(t, models.ItemApproved, item.Status)
}

func TestAnalysis_DiagnosticUnlistedTestRejected(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Genetic panel", Category: models.CategoryDiagnostic, Amount: 8000})

	item := analysis.ItemAnalysis[0]
	assert.Equal(t, models.ItemRejected, item.Status)
	assert.Equal(t, 8000.0, item.RejectedAmount)
}

func TestAnalysis_DiagnosticOverSubLimitRejectsEntirely(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "MRI scan full body", Category: models.CategoryDiagnostic, Amount: 6000})

	item := analysis.ItemAnalysis[0]
	assert.Equal(t, models.ItemRejected, item.Status, "no partial cap for diagnostic items")
	assert.Equal(t, 0.0, item.ApprovedAmount)
	assert.True(t, item.SubLimitExceeded)
	assertItemArithmetic(t, analysis)
}

func TestAnalysis_DiagnosticNearMissUsesSemanticMatcher(t *testing.T) {
	matcher := &fakeMatcher{matched: true}
	claim := testClaim()
	claim.Items = []models.LineItem{
		{Description: "CBC panel", Category: models.CategoryDiagnostic, Amount: 900},
	}

	analysis := NewCoverageAnalyzer(matcher).Analyze(context.Background(), testPolicy(), claim)

	assert.True(t, matcher.called)
	assert.Equal(t, models.ItemApproved, analysis.ItemAnalysis[0].Status)
}

func TestAnalysis_SemanticMatcherFailureMeansNotMatched(t *testing.T) {
	matcher := &fakeMatcher{err: errCollaboratorDown}
	claim := testClaim()
	claim.Items = []models.LineItem{
		{Description: "CBC panel", Category: models.CategoryDiagnostic, Amount: 900},
	}

	analysis := NewCoverageAnalyzer(matcher).Analyze(context.Background(), testPolicy(), claim)

	assert.Equal(t, models.ItemRejected, analysis.ItemAnalysis[0].Status)
}

// ============================================================================
// PHARMACY
// ============================================================================

func TestAnalysis_GenericDrugFullyCovered(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Generic amoxicillin 500mg", Category: models.CategoryPharmacy, Amount: 400})

	item := analysis.ItemAnalysis[0]
	assert.Equal(t, 400.0, item.ApprovedAmount)
	assert.Equal(t, 0.0, item.CopayAmount)
}

func TestAnalysis_BrandedDrugCopay(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Augmentin 625 Duo", Category: models.CategoryPharmacy, Amount: 500})

	item := analysis.ItemAnalysis[0]
	assert.Equal(t, 400.0, item.ApprovedAmount)
	assert.Equal(t, 100.0, item.CopayAmount)
	assertItemArithmetic(t, analysis)
}

func TestAnalysis_PharmacyOverSubLimitRejectsEntirely(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Generic insulin stock", Category: models.CategoryPharmacy, Amount: 2500})

	item := analysis.ItemAnalysis[0]
	assert.Equal(t, models.ItemRejected, item.Status)
	assert.True(t, item.SubLimitExceeded)
}

// ============================================================================
// DENTAL / VISION / ALTERNATIVE
// ============================================================================

func TestAnalysis_DentalCoveredProcedure(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Root canal treatment", Category: models.CategoryDental, Amount: 2500})

	assert.Equal(t, models.ItemApproved, analysis.ItemAnalysis[0].Status)
	assert.Equal(t, 2500.0, analysis.ItemAnalysis[0].ApprovedAmount)
}

func TestAnalysis_DentalUnlistedProcedureRejected(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Braces alignment", Category: models.CategoryDental, Amount: 2000})

	assert.Equal(t, models.ItemRejected, analysis.ItemAnalysis[0].Status)
}

func TestAnalysis_VisionHasNoCoveredList(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Prescription spectacles", Category: models.CategoryVision, Amount: 1200})

	assert.Equal(t, models.ItemApproved, analysis.ItemAnalysis[0].Status)
}

func TestAnalysis_AlternativeUnlistedTreatmentRejected(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Crystal healing session", Category: models.CategoryAlternative, Amount: 800})

	assert.Equal(t, models.ItemRejected, analysis.ItemAnalysis[0].Status)
}

func TestAnalysis_AlternativeCoveredTreatment(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Physiotherapy session", Category: models.CategoryAlternative, Amount: 800})

	assert.Equal(t, models.ItemApproved, analysis.ItemAnalysis[0].Status)
}

// ============================================================================
// CROSS-CUTTING
// ============================================================================

func TestAnalysis_ExclusionShortCircuits(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Cosmetic surgery prep", Category: models.CategoryConsultation, Amount: 3000})

	item := analysis.ItemAnalysis[0]
	assert.Equal(t, models.ItemRejected, item.Status)
	assert.Equal(t, 3000.0, item.RejectedAmount)
}

func TestAnalysis_UnknownCategoryRejected(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Wellness retreat", Category: "wellness", Amount: 5000})

	assert.Equal(t, models.ItemRejected, analysis.ItemAnalysis[0].Status)
}

func TestAnalysis_NonBillableItemsFiltered(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Paracetamol 500mg", Category: models.CategoryPharmacy, Amount: 0},
		models.LineItem{Description: "Adjustment", Category: models.CategoryConsultation, Amount: -50},
		models.LineItem{Description: "Consultation", Category: models.CategoryConsultation, Amount: 600})

	require.Len(t, analysis.ItemAnalysis, 1)
}

func TestAnalysis_TotalsMatchItemSums(t *testing.T) {
	analysis := analyze(t, testPolicy(),
		models.LineItem{Description: "Specialist consultation", Category: models.CategoryConsultation, Amount: 1500},
		models.LineItem{Description: "Blood test", Category: models.CategoryDiagnostic, Amount: 1000},
		models.LineItem{Description: "Augmentin 625", Category: models.CategoryPharmacy, Amount: 500})

	var approved, rejected, copay float64
	for _, item := range analysis.ItemAnalysis {
		approved += item.ApprovedAmount
		rejected += item.RejectedAmount
		copay += item.CopayAmount
	}
	assert.InDelta(t, approved, analysis.TotalApproved, 0.01)
	assert.InDelta(t, rejected, analysis.TotalRejected, 0.01)
	assert.InDelta(t, copay, analysis.TotalCopay, 0.01)
	assertItemArithmetic(t, analysis)
}

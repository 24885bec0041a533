package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claims-service/internal/models"
)

func extractPair(dt models.DocumentType, doc models.ExtractedDocument) ExtractedDocumentPair {
	return ExtractedDocumentPair{Type: dt, Doc: &doc}
}

// ============================================================================
// CLAIM ID GENERATION
// ============================================================================

func TestMerge_GeneratesClaimID(t *testing.T) {
	merger := NewDocumentMerger(nil)

	claim, err := merger.Merge(context.Background(), nil, "2024-06-20")

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^CLM_\d{14}_[A-F0-9]{8}$`), claim.ClaimID)
	assert.Equal(t, "2024-06-20", claim.ClaimDate)
}

func TestMerge_RegeneratesClaimIDOnCollision(t *testing.T) {
	checker := &fakeIDChecker{collisions: 2}
	merger := NewDocumentMerger(checker)

	claim, err := merger.Merge(context.Background(), nil, "2024-06-20")

	require.NoError(t, err)
	assert.NotEmpty(t, claim.ClaimID)
	assert.Equal(t, 3, checker.calls)
}

func TestMerge_FailsAfterExhaustedCollisionAttempts(t *testing.T) {
	checker := &fakeIDChecker{collisions: 100}
	merger := NewDocumentMerger(checker)

	_, err := merger.Merge(context.Background(), nil, "2024-06-20")

	require.Error(t, err)
	assert.Equal(t, KindCollaboratorFailure, KindOf(err))
}

// ============================================================================
// ORDER INDEPENDENCE
// ============================================================================

func TestMerge_OrderIndependent(t *testing.T) {
	prescription := extractPair(models.DocPrescription, models.ExtractedDocument{
		PatientName: "Rahul Sharma",
		DoctorName:  "Dr. Meera Nair",
		Diagnosis:   "Viral fever",
	})
	bill := extractPair(models.DocMedicalBill, models.ExtractedDocument{
		PatientName:  "R. Sharma",
		HospitalName: "City Care Hospital",
		Items: []models.LineItem{
			{Description: "General consultation", Category: models.CategoryConsultation, Amount: 800},
		},
		TotalAmount: 800,
	})

	merger := NewDocumentMerger(nil)
	forward, err := merger.Merge(context.Background(), []ExtractedDocumentPair{prescription, bill}, "2024-06-20")
	require.NoError(t, err)
	reversed, err := merger.Merge(context.Background(), []ExtractedDocumentPair{bill, prescription}, "2024-06-20")
	require.NoError(t, err)

	// Everything except the generated id must be identical.
	forward.ClaimID = ""
	reversed.ClaimID = ""
	assert.Equal(t, forward, reversed)
	assert.Equal(t, "Rahul Sharma", reversed.PatientName, "prescription has priority for scalar fields")
}

// ============================================================================
// ITEM ROUTING AND TOTALS
// ============================================================================

func TestMerge_RoutesItemsBySourceDocument(t *testing.T) {
	docs := []ExtractedDocumentPair{
		extractPair(models.DocPrescription, models.ExtractedDocument{
			Items: []models.LineItem{{Description: "Paracetamol 500mg", Category: models.CategoryPharmacy}},
		}),
		extractPair(models.DocMedicalBill, models.ExtractedDocument{
			Items: []models.LineItem{
				{Description: "Consultation", Category: models.CategoryConsultation, Amount: 600},
				{Description: "Dressing note", Category: models.CategoryConsultation, Amount: 0},
			},
			TotalAmount: 600,
		}),
		extractPair(models.DocLabResults, models.ExtractedDocument{
			Items: []models.LineItem{{Description: "Hemoglobin 13.5", Category: models.CategoryDiagnostic}},
		}),
	}

	merger := NewDocumentMerger(nil)
	claim, err := merger.Merge(context.Background(), docs, "2024-06-20")

	require.NoError(t, err)
	require.Len(t, claim.Items, 1, "only positive-amount billable items are claimable")
	assert.Equal(t, models.DocMedicalBill, claim.Items[0].SourceDocument)
	assert.Len(t, claim.PrescriptionItems, 1)
	assert.Len(t, claim.LabItems, 1)
	assert.Equal(t, 600.0, claim.TotalAmount)
}

func TestMerge_SumsBillTotalsAcrossDocuments(t *testing.T) {
	docs := []ExtractedDocumentPair{
		extractPair(models.DocMedicalBill, models.ExtractedDocument{
			Items:       []models.LineItem{{Description: "Consultation", Category: models.CategoryConsultation, Amount: 700}},
			TotalAmount: 700,
		}),
		extractPair(models.DocPharmacyBill, models.ExtractedDocument{
			Items:       []models.LineItem{{Description: "Generic amoxicillin", Category: models.CategoryPharmacy, Amount: 300}},
			TotalAmount: 300,
		}),
	}

	merger := NewDocumentMerger(nil)
	claim, err := merger.Merge(context.Background(), docs, "2024-06-20")

	require.NoError(t, err)
	assert.Equal(t, 1000.0, claim.TotalAmount)
	assert.Equal(t, 700.0, claim.BillTotals[models.DocMedicalBill])
	assert.Equal(t, 300.0, claim.BillTotals[models.DocPharmacyBill])
}

func TestMerge_FallsBackToItemSumWithoutBillTotals(t *testing.T) {
	docs := []ExtractedDocumentPair{
		extractPair(models.DocMedicalBill, models.ExtractedDocument{
			Items: []models.LineItem{
				{Description: "Consultation", Category: models.CategoryConsultation, Amount: 450},
				{Description: "X-Ray", Category: models.CategoryDiagnostic, Amount: 550},
			},
		}),
	}

	merger := NewDocumentMerger(nil)
	claim, err := merger.Merge(context.Background(), docs, "2024-06-20")

	require.NoError(t, err)
	assert.Equal(t, 1000.0, claim.TotalAmount)
}

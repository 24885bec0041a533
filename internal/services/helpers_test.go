package services

import (
	"context"
	"errors"

	"claims-service/internal/models"
)

// ============================================================================
// TEST HELPERS AND FAKE COLLABORATORS
// ============================================================================

func testPolicy() *models.PolicyConfig {
	return &models.PolicyConfig{
		PolicyID:      "POL_TEST_001",
		EffectiveDate: "2024-01-01",
		CoverageDetails: models.CoverageDetails{
			ConsultationFees: &models.CoverageRule{
				Covered: true, SubLimit: 1000, CopayPercentage: 10,
			},
			DiagnosticTests: &models.CoverageRule{
				Covered: true, SubLimit: 5000,
				CoveredTests: []string{"blood test", "x-ray", "mri scan"},
			},
			Pharmacy: &models.CoverageRule{
				Covered: true, SubLimit: 2000, BrandedDrugsCopay: 20,
			},
			Dental: &models.CoverageRule{
				Covered: true, SubLimit: 3000,
				ProceduresCovered: []string{"root canal", "filling", "extraction"},
			},
			Vision: &models.CoverageRule{
				Covered: true, SubLimit: 1500,
			},
			AlternativeMedicine: &models.CoverageRule{
				Covered: true, SubLimit: 1000,
				CoveredTreatments: []string{"ayurveda", "physiotherapy"},
			},
			AnnualLimit:   100000,
			PerClaimLimit: 50000,
		},
		Exclusions: []string{"cosmetic surgery", "hair transplant"},
		ClaimRequirements: models.ClaimRequirements{
			RequiredDocumentTypes:  []string{"prescription", "medical_bill"},
			MinimumClaimAmount:     100,
			SubmissionTimelineDays: 30,
		},
		FraudDetection: models.FraudDetectionConfig{
			HighValueThreshold: 25000,
		},
	}
}

func testClaim() *models.ClaimRecord {
	return &models.ClaimRecord{
		ClaimID:       "CLM_20240620120000_AB12CD34",
		PolicyID:      "POL_TEST_001",
		PatientName:   "Rahul Sharma",
		TreatmentDate: "2024-06-15",
		ClaimDate:     "2024-06-20",
		DocumentTypesSubmitted: []models.DocumentType{
			models.DocPrescription, models.DocMedicalBill,
		},
		Items: []models.LineItem{
			{Description: "General consultation", Category: models.CategoryConsultation, Amount: 800},
		},
		TotalAmount:        800,
		HospitalName:       "City Care Hospital",
		DoctorName:         "Dr. Meera Nair",
		DoctorRegistration: "MH/12345/2020",
		Diagnosis:          "Viral fever",
	}
}

func boolPtr(b bool) *bool { return &b }

type fakeMembers struct {
	members map[string]*models.Member
	err     error
}

func (f *fakeMembers) GetByID(_ context.Context, memberID string) (*models.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.members[memberID], nil
}

type fakeUtilization struct {
	utilization *models.PolicyUtilization
	err         error
}

func (f *fakeUtilization) GetUtilization(_ context.Context, policyID string) (*models.PolicyUtilization, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.utilization, nil
}

type fakeMatcher struct {
	matched bool
	err     error
	called  bool
}

func (f *fakeMatcher) MatchesCoveredTest(_ context.Context, _ string, _ []string) (bool, error) {
	f.called = true
	return f.matched, f.err
}

type fakeReviewer struct {
	assessment *models.NecessityAssessment
	err        error
}

func (f *fakeReviewer) Review(_ context.Context, _ *models.ClaimRecord) (*models.NecessityAssessment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.assessment, nil
}

type fakeIDChecker struct {
	collisions int
	calls      int
	err        error
}

func (f *fakeIDChecker) Exists(_ context.Context, _ string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.calls <= f.collisions, nil
}

var errCollaboratorDown = errors.New("collaborator unavailable")

func issueCodes(issues []models.Issue) []string {
	codes := make([]string, 0, len(issues))
	for _, issue := range issues {
		codes = append(codes, issue.Code)
	}
	return codes
}

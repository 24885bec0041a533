package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"claims-service/internal/models"
)

func TestValidation_CompleteClaimPasses(t *testing.T) {
	validator := NewDocumentValidator()

	result := validator.Validate(testPolicy(), testClaim())

	assert.True(t, result.IsValid)
	for _, issue := range result.Issues {
		assert.Equal(t, models.SeverityWarning, issue.Severity)
	}
}

func TestValidation_MissingRequiredDocumentType(t *testing.T) {
	claim := testClaim()
	claim.DocumentTypesSubmitted = []models.DocumentType{models.DocMedicalBill}

	result := NewDocumentValidator().Validate(testPolicy(), claim)

	assert.False(t, result.IsValid)
	assert.Contains(t, issueCodes(result.Issues), models.IssueMissingDocumentType)
}

func TestValidation_DocumentTypeComparisonIsNormalized(t *testing.T) {
	policy := testPolicy()
	policy.ClaimRequirements.RequiredDocumentTypes = []string{"Medical Bill", "PRESCRIPTION"}

	result := NewDocumentValidator().Validate(policy, testClaim())

	assert.NotContains(t, issueCodes(result.Issues), models.IssueMissingDocumentType)
}

func TestValidation_EssentialFieldsMissing(t *testing.T) {
	claim := testClaim()
	claim.PatientName = ""
	claim.TotalAmount = 0
	claim.Items = nil

	result := NewDocumentValidator().Validate(testPolicy(), claim)

	assert.False(t, result.IsValid)
	count := 0
	for _, issue := range result.Issues {
		if issue.Code == models.IssueMissingField {
			count++
		}
	}
	assert.Equal(t, 3, count)
}

func TestValidation_InvalidDoctorRegistrationIsWarning(t *testing.T) {
	claim := testClaim()
	claim.DoctorRegistration = "12345"

	result := NewDocumentValidator().Validate(testPolicy(), claim)

	assert.True(t, result.IsValid, "registration format problems never block a claim")
	assert.Contains(t, issueCodes(result.Issues), models.IssueDoctorRegInvalid)
}

func TestValidation_CustomRegistrationPattern(t *testing.T) {
	policy := testPolicy()
	policy.ClaimRequirements.DoctorRegistrationFormat = `^DOC-\d{4}$`
	claim := testClaim()
	claim.DoctorRegistration = "DOC-1234"

	result := NewDocumentValidator().Validate(policy, claim)

	assert.NotContains(t, issueCodes(result.Issues), models.IssueDoctorRegInvalid)
}

func TestValidation_ClaimDateBeforeTreatmentDate(t *testing.T) {
	claim := testClaim()
	claim.ClaimDate = "2024-06-10"

	result := NewDocumentValidator().Validate(testPolicy(), claim)

	assert.Contains(t, issueCodes(result.Issues), models.IssueDateMismatch)
}

func TestValidation_ShortPatientName(t *testing.T) {
	claim := testClaim()
	claim.PatientName = "RS"

	result := NewDocumentValidator().Validate(testPolicy(), claim)

	assert.Contains(t, issueCodes(result.Issues), models.IssuePatientNameShort)
}

func TestValidation_MissingProviderMetadataIsWarning(t *testing.T) {
	claim := testClaim()
	claim.DoctorName = ""
	claim.HospitalName = ""
	claim.DoctorRegistration = ""

	result := NewDocumentValidator().Validate(testPolicy(), claim)

	assert.True(t, result.IsValid)
	codes := issueCodes(result.Issues)
	assert.Contains(t, codes, models.IssueDoctorNameMissing)
	assert.Contains(t, codes, models.IssueHospitalNameMissing)
	assert.Contains(t, codes, models.IssueDoctorRegMissing)
}

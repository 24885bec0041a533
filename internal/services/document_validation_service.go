package services

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"claims-service/internal/models"
)

// DocumentValidator checks the merged record for completeness and internal
// consistency. Missing required documents or essential fields are critical;
// metadata gaps are warnings.
type DocumentValidator struct{}

func NewDocumentValidator() *DocumentValidator {
	return &DocumentValidator{}
}

func (v *DocumentValidator) Validate(policy *models.PolicyConfig, claim *models.ClaimRecord) models.ValidationResult {
	result := models.ValidationResult{IsValid: true, Issues: []models.Issue{}}

	submitted := map[string]bool{}
	for _, dt := range claim.DocumentTypesSubmitted {
		submitted[normalizeToken(string(dt))] = true
	}
	for _, required := range policy.RequiredDocuments() {
		if !submitted[normalizeToken(required)] {
			result.Issues = append(result.Issues, models.Issue{
				Code:     models.IssueMissingDocumentType,
				Severity: models.SeverityCritical,
				Message:  fmt.Sprintf("Required document type %s was not submitted", required),
				Step:     models.StepDocumentValidation,
			})
		}
	}

	if claim.PatientName == "" {
		result.Issues = append(result.Issues, essentialFieldIssue("patient_name"))
	}
	if claim.TreatmentDate == "" {
		result.Issues = append(result.Issues, essentialFieldIssue("treatment_date"))
	}
	if claim.TotalAmount <= 0 {
		result.Issues = append(result.Issues, essentialFieldIssue("total_amount"))
	}
	if len(claim.Items) == 0 {
		result.Issues = append(result.Issues, essentialFieldIssue("items"))
	}

	if claim.DoctorRegistration == "" {
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssueDoctorRegMissing,
			Severity: models.SeverityWarning,
			Message:  "Doctor registration number is missing",
			Step:     models.StepDocumentValidation,
		})
	} else if !v.registrationPattern(policy).MatchString(claim.DoctorRegistration) {
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssueDoctorRegInvalid,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("Doctor registration %q does not match the expected format", claim.DoctorRegistration),
			Step:     models.StepDocumentValidation,
		})
	}

	if claim.ClaimDate != "" && claim.TreatmentDate != "" {
		claimDate, errA := models.ParseDate(claim.ClaimDate)
		treatmentDate, errB := models.ParseDate(claim.TreatmentDate)
		if errA == nil && errB == nil && claimDate.Before(treatmentDate) {
			result.Issues = append(result.Issues, models.Issue{
				Code:     models.IssueDateMismatch,
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("Claim date %s is earlier than treatment date %s", claim.ClaimDate, claim.TreatmentDate),
				Step:     models.StepDocumentValidation,
			})
		}
	}

	if claim.PatientName != "" && len(strings.TrimSpace(claim.PatientName)) < 3 {
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssuePatientNameShort,
			Severity: models.SeverityWarning,
			Message:  "Patient name appears incomplete",
			Step:     models.StepDocumentValidation,
		})
	}
	if claim.DoctorName == "" {
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssueDoctorNameMissing,
			Severity: models.SeverityWarning,
			Message:  "Doctor name is missing from the submitted documents",
			Step:     models.StepDocumentValidation,
		})
	}
	if claim.HospitalName == "" {
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssueHospitalNameMissing,
			Severity: models.SeverityWarning,
			Message:  "Hospital name is missing from the submitted documents",
			Step:     models.StepDocumentValidation,
		})
	}

	for _, issue := range result.Issues {
		if issue.Severity == models.SeverityCritical {
			result.IsValid = false
			break
		}
	}
	return result
}

func (v *DocumentValidator) registrationPattern(policy *models.PolicyConfig) *regexp.Regexp {
	pattern, err := regexp.Compile(policy.DoctorRegistrationPattern())
	if err != nil {
		slog.Warn("invalid doctor registration pattern in policy, using default",
			"pattern", policy.DoctorRegistrationPattern(), "error", err)
		return regexp.MustCompile(models.DefaultDoctorRegistrationFormat)
	}
	return pattern
}

func essentialFieldIssue(field string) models.Issue {
	return models.Issue{
		Code:     models.IssueMissingField,
		Severity: models.SeverityCritical,
		Message:  fmt.Sprintf("Essential field %s is missing", field),
		Step:     models.StepDocumentValidation,
	}
}

// normalizeToken lower-cases and strips punctuation so document type names
// compare loosely ("Medical Bill" == "medical_bill").
func normalizeToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

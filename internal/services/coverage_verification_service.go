package services

import (
	"fmt"
	"strings"

	"claims-service/internal/models"
)

// preAuthKeywords are the service descriptions that trigger the
// pre-authorization requirement when the category demands it.
var preAuthKeywords = []string{"mri", "ct scan", "ct ", "surgery", "angiography"}

// CoverageVerifier screens every item against policy exclusions, category
// coverage flags and pre-authorization requirements.
type CoverageVerifier struct{}

func NewCoverageVerifier() *CoverageVerifier {
	return &CoverageVerifier{}
}

func (v *CoverageVerifier) Verify(policy *models.PolicyConfig, claim *models.ClaimRecord) models.CoverageVerification {
	result := models.CoverageVerification{CoverageValid: true, Issues: []models.Issue{}}
	diagnosis := strings.ToLower(claim.Diagnosis)

	for _, item := range claim.Items {
		desc := strings.ToLower(item.Description)

		if term := matchExclusion(policy.Exclusions, desc, diagnosis); term != "" {
			result.Issues = append(result.Issues, models.Issue{
				Code:     models.IssueExcludedCondition,
				Severity: models.SeverityCritical,
				Message:  fmt.Sprintf("%s matches policy exclusion %q", item.Description, term),
				Step:     models.StepCoverage,
				Item:     item.Description,
			})
			continue
		}

		rule := policy.CoverageDetails.RuleFor(item.Category)
		if rule == nil || !rule.Covered {
			result.Issues = append(result.Issues, models.Issue{
				Code:     models.IssueServiceNotCovered,
				Severity: models.SeverityCritical,
				Message:  fmt.Sprintf("Category %s is not covered under this policy", item.Category),
				Step:     models.StepCoverage,
				Item:     item.Description,
			})
			continue
		}

		if rule.PreAuthorizationRequired && needsPreAuth(desc) && claim.PreAuthorization == "" {
			result.Issues = append(result.Issues, models.Issue{
				Code:     models.IssuePreAuthMissing,
				Severity: models.SeverityCritical,
				Message:  fmt.Sprintf("%s requires pre-authorization but no authorization number was provided", item.Description),
				Step:     models.StepCoverage,
				Item:     item.Description,
			})
		}
	}

	for _, issue := range result.Issues {
		if issue.Severity == models.SeverityCritical {
			result.CoverageValid = false
			break
		}
	}
	return result
}

// matchExclusion returns the first exclusion term found in the item
// description or the claim diagnosis, or "" when none match.
func matchExclusion(exclusions []string, desc, diagnosis string) string {
	for _, term := range exclusions {
		lowered := strings.ToLower(term)
		if lowered == "" {
			continue
		}
		if strings.Contains(desc, lowered) || (diagnosis != "" && strings.Contains(diagnosis, lowered)) {
			return term
		}
	}
	return ""
}

func needsPreAuth(desc string) bool {
	for _, kw := range preAuthKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"claims-service/internal/models"
)

// MedicalNecessityReviewer screens items against cosmetic and experimental
// keyword lists and delegates the semantic judgement to an external reviewer.
type MedicalNecessityReviewer struct {
	reviewer NecessityReviewer
}

func NewMedicalNecessityReviewer(reviewer NecessityReviewer) *MedicalNecessityReviewer {
	return &MedicalNecessityReviewer{reviewer: reviewer}
}

func (r *MedicalNecessityReviewer) Review(ctx context.Context, policy *models.PolicyConfig, claim *models.ClaimRecord) (models.NecessityResult, error) {
	result := models.NecessityResult{IsNecessary: true, Issues: []models.Issue{}}

	for _, item := range claim.Items {
		desc := strings.ToLower(item.Description)
		if kw := firstKeywordMatch(desc, policy.CosmeticKeywords()); kw != "" {
			result.Issues = append(result.Issues, models.Issue{
				Code:     models.IssueCosmeticProcedure,
				Severity: models.SeverityCritical,
				Message:  fmt.Sprintf("%s appears to be a cosmetic procedure (%q)", item.Description, kw),
				Step:     models.StepNecessity,
				Item:     item.Description,
			})
			continue
		}
		if kw := firstKeywordMatch(desc, policy.ExperimentalKeywords()); kw != "" {
			result.Issues = append(result.Issues, models.Issue{
				Code:     models.IssueExperimental,
				Severity: models.SeverityCritical,
				Message:  fmt.Sprintf("%s appears to be an experimental treatment (%q)", item.Description, kw),
				Step:     models.StepNecessity,
				Item:     item.Description,
			})
		}
	}

	if claim.Diagnosis == "" {
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssueNecessityWarning,
			Severity: models.SeverityWarning,
			Message:  "No diagnosis provided; medical necessity cannot be fully assessed",
			Step:     models.StepNecessity,
		})
	}

	if claim.Diagnosis != "" && len(claim.Items) > 0 && r.reviewer != nil {
		if err := r.delegate(ctx, policy, claim, &result); err != nil {
			return result, err
		}
	}

	for _, issue := range result.Issues {
		if issue.Severity == models.SeverityCritical {
			result.IsNecessary = false
			break
		}
	}
	return result, nil
}

// delegate calls the semantic reviewer. An unusable response fails open when
// the policy says so, recorded as a warning rather than an error.
func (r *MedicalNecessityReviewer) delegate(ctx context.Context, policy *models.PolicyConfig, claim *models.ClaimRecord, result *models.NecessityResult) error {
	assessment, err := r.reviewer.Review(ctx, claim)
	if err != nil || assessment == nil {
		if !policy.NecessityFailOpen() {
			return collaboratorFailure(err, "medical necessity review for claim %s", claim.ClaimID)
		}
		slog.Warn("necessity reviewer unavailable, failing open", "claim_id", claim.ClaimID, "error", err)
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssueNecessityUnreviewed,
			Severity: models.SeverityWarning,
			Message:  "Semantic necessity review was unavailable; claim treated as medically necessary",
			Step:     models.StepNecessity,
		})
		return nil
	}

	if !assessment.IsNecessary {
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssueNotNecessary,
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("Treatment deemed not medically necessary: %s", assessment.Reason),
			Step:     models.StepNecessity,
		})
	}
	for _, warning := range assessment.Warnings {
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssueNecessityWarning,
			Severity: models.SeverityWarning,
			Message:  warning,
			Step:     models.StepNecessity,
		})
	}
	return nil
}

func firstKeywordMatch(desc string, keywords []string) string {
	for _, kw := range keywords {
		lowered := strings.ToLower(kw)
		if lowered != "" && strings.Contains(desc, lowered) {
			return kw
		}
	}
	return ""
}

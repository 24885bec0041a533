package services

import (
	"context"
	"fmt"

	"claims-service/internal/models"
)

// LimitValidator checks the claim against monetary limits and the submission
// timeline, using year-to-date utilization fetched from storage.
type LimitValidator struct {
	utilization UtilizationSource
}

func NewLimitValidator(utilization UtilizationSource) *LimitValidator {
	return &LimitValidator{utilization: utilization}
}

func (v *LimitValidator) Validate(ctx context.Context, policy *models.PolicyConfig, claim *models.ClaimRecord, analysis models.CoverageAnalysis) (models.LimitValidation, error) {
	result := models.LimitValidation{LimitsValid: true, Issues: []models.Issue{}}
	req := policy.ClaimRequirements
	details := policy.CoverageDetails

	if req.MinimumClaimAmount > 0 && claim.TotalAmount < req.MinimumClaimAmount {
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssueBelowMinAmount,
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("Claimed amount %.2f is below the minimum claim amount %.2f", claim.TotalAmount, req.MinimumClaimAmount),
			Step:     models.StepLimits,
		})
	}

	if details.PerClaimLimit > 0 && claim.TotalAmount > details.PerClaimLimit {
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssuePerClaimExceeded,
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("Claimed amount %.2f exceeds the per-claim limit %.2f", claim.TotalAmount, details.PerClaimLimit),
			Step:     models.StepLimits,
		})
	}

	utilization, err := v.fetchUtilization(ctx, policy.PolicyID)
	if err != nil {
		return result, err
	}

	if details.AnnualLimit > 0 && utilization.TotalApprovedYTD+claim.TotalAmount > details.AnnualLimit {
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssueAnnualLimitExceeded,
			Severity: models.SeverityCritical,
			Message: fmt.Sprintf("Claim would exceed the annual limit %.2f (%.2f already used this year)",
				details.AnnualLimit, utilization.TotalApprovedYTD),
			Step: models.StepLimits,
		})
	}

	if req.SubmissionTimelineDays > 0 && claim.TreatmentDate != "" && claim.ClaimDate != "" {
		treatment, errA := models.ParseDate(claim.TreatmentDate)
		claimDate, errB := models.ParseDate(claim.ClaimDate)
		if errA == nil && errB == nil {
			gap := int(claimDate.Sub(treatment).Hours() / 24)
			if gap > req.SubmissionTimelineDays {
				result.Issues = append(result.Issues, models.Issue{
					Code:     models.IssueLateSubmission,
					Severity: models.SeverityCritical,
					Message:  fmt.Sprintf("Claim submitted %d days after treatment, exceeding the %d-day limit", gap, req.SubmissionTimelineDays),
					Step:     models.StepLimits,
				})
			}
		}
	}

	// Category sub-limit checks against year-to-date usage are informational.
	categoryTotals := map[models.ClaimCategory]float64{}
	for _, item := range analysis.ItemAnalysis {
		categoryTotals[item.Category] += item.ClaimedAmount
	}
	for category, claimed := range categoryTotals {
		rule := details.RuleFor(category)
		if rule == nil || rule.SubLimit <= 0 {
			continue
		}
		used := utilization.CategoryUsage[category]
		if used+claimed > rule.SubLimit {
			result.Issues = append(result.Issues, models.Issue{
				Code:     models.IssueSubLimitExceeded,
				Severity: models.SeverityWarning,
				Message: fmt.Sprintf("Category %s would exceed its sub-limit %.2f (%.2f already used this year)",
					category, rule.SubLimit, used),
				Step: models.StepLimits,
			})
		}
	}

	for _, issue := range result.Issues {
		if issue.Severity == models.SeverityCritical {
			result.LimitsValid = false
			break
		}
	}
	return result, nil
}

func (v *LimitValidator) fetchUtilization(ctx context.Context, policyID string) (*models.PolicyUtilization, error) {
	empty := &models.PolicyUtilization{PolicyID: policyID, CategoryUsage: map[models.ClaimCategory]float64{}}
	if v.utilization == nil || policyID == "" {
		return empty, nil
	}
	utilization, err := v.utilization.GetUtilization(ctx, policyID)
	if err != nil {
		return nil, collaboratorFailure(err, "fetching utilization for policy %s", policyID)
	}
	if utilization == nil {
		return empty, nil
	}
	if utilization.CategoryUsage == nil {
		utilization.CategoryUsage = map[models.ClaimCategory]float64{}
	}
	return utilization, nil
}

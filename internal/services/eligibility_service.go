package services

import (
	"context"
	"fmt"

	"claims-service/internal/models"
)

// EligibilityChecker runs the policy-activity, waiting-period and member
// checks. All checks run and accumulate issues; nothing short-circuits.
type EligibilityChecker struct {
	members MemberLookup
}

func NewEligibilityChecker(members MemberLookup) *EligibilityChecker {
	return &EligibilityChecker{members: members}
}

func (c *EligibilityChecker) Check(ctx context.Context, policy *models.PolicyConfig, claim *models.ClaimRecord) (models.EligibilityResult, error) {
	result := models.EligibilityResult{IsEligible: true, Issues: []models.Issue{}}

	effective, err := models.ParseDate(policy.EffectiveDate)
	if err != nil {
		return result, malformedInput("policy effective_date: %v", err)
	}

	treatmentRaw := claim.TreatmentDate
	if treatmentRaw == "" {
		treatmentRaw = claim.ClaimDate
	}
	treatment, err := models.ParseDate(treatmentRaw)
	if err != nil {
		return result, malformedInput("treatment date: %v", err)
	}

	if treatment.Before(effective) {
		result.Issues = append(result.Issues, models.Issue{
			Code:     models.IssuePolicyInactive,
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("Treatment date %s is before policy effective date %s", treatmentRaw, policy.EffectiveDate),
			Step:     models.StepEligibility,
		})
	}

	if policy.PolicyEndDate != "" {
		endDate, err := models.ParseDate(policy.PolicyEndDate)
		if err != nil {
			return result, malformedInput("policy_end_date: %v", err)
		}
		if treatment.After(endDate) {
			result.Issues = append(result.Issues, models.Issue{
				Code:     models.IssuePolicyExpired,
				Severity: models.SeverityCritical,
				Message:  fmt.Sprintf("Treatment date %s is after policy end date %s", treatmentRaw, policy.PolicyEndDate),
				Step:     models.StepEligibility,
			})
		}
	}

	waiting := policy.WaitingPeriods.InitialWaiting
	if waiting > 0 {
		daysSinceStart := int(treatment.Sub(effective).Hours() / 24)
		if daysSinceStart >= 0 && daysSinceStart < waiting {
			result.Issues = append(result.Issues, models.Issue{
				Code:     models.IssueWaitingPeriod,
				Severity: models.SeverityCritical,
				Message:  fmt.Sprintf("Treatment within initial waiting period (%d of %d days served)", daysSinceStart, waiting),
				Step:     models.StepEligibility,
			})
		}
	}

	if claim.MemberID != "" && c.members != nil {
		member, err := c.members.GetByID(ctx, claim.MemberID)
		if err != nil {
			return result, collaboratorFailure(err, "member lookup for %s", claim.MemberID)
		}
		if member == nil || !member.Active {
			result.Issues = append(result.Issues, models.Issue{
				Code:     models.IssueMemberNotCovered,
				Severity: models.SeverityCritical,
				Message:  fmt.Sprintf("Member %s is not covered under this policy", claim.MemberID),
				Step:     models.StepEligibility,
			})
		}
	}

	result.IsEligible = len(result.Issues) == 0
	return result, nil
}

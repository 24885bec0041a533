package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claims-service/internal/models"
)

func cleanOutputs() *PipelineOutputs {
	return &PipelineOutputs{
		Eligibility: models.EligibilityResult{IsEligible: true},
		Validation:  models.ValidationResult{IsValid: true},
		Coverage:    models.CoverageVerification{CoverageValid: true},
		Limits:      models.LimitValidation{LimitsValid: true},
		Necessity:   models.NecessityResult{IsNecessary: true},
	}
}

func criticalIssue(code string) models.Issue {
	return models.Issue{Code: code, Severity: models.SeverityCritical, Message: code + " occurred"}
}

// ============================================================================
// PRECEDENCE RULES
// ============================================================================

func TestDecision_WaitingPeriodHardRejection(t *testing.T) {
	outputs := cleanOutputs()
	outputs.Eligibility = models.EligibilityResult{
		IsEligible: false,
		Issues:     []models.Issue{criticalIssue(models.IssueWaitingPeriod)},
	}
	outputs.Analysis = models.CoverageAnalysis{TotalApproved: 720, TotalCopay: 80}

	decision := NewDecisionEngine().Decide(testPolicy(), testClaim(), outputs)

	assert.Equal(t, models.DecisionRejected, decision.Decision)
	assert.Equal(t, 0.0, decision.ApprovedAmount)
	assert.Contains(t, decision.RejectionReasons, models.IssueWaitingPeriod)
}

func TestDecision_LateSubmissionHardRejection(t *testing.T) {
	outputs := cleanOutputs()
	outputs.Limits = models.LimitValidation{
		LimitsValid: false,
		Issues:      []models.Issue{criticalIssue(models.IssueLateSubmission)},
	}

	decision := NewDecisionEngine().Decide(testPolicy(), testClaim(), outputs)

	assert.Equal(t, models.DecisionRejected, decision.Decision)
	assert.Contains(t, decision.RejectionReasons, models.IssueLateSubmission)
}

func TestDecision_ExcludedConditionHardRejection(t *testing.T) {
	outputs := cleanOutputs()
	outputs.Coverage = models.CoverageVerification{
		CoverageValid: false,
		Issues:        []models.Issue{criticalIssue(models.IssueExcludedCondition)},
	}

	decision := NewDecisionEngine().Decide(testPolicy(), testClaim(), outputs)

	assert.Equal(t, models.DecisionRejected, decision.Decision)
	assert.Equal(t, 0.0, decision.ApprovedAmount)
}

func TestDecision_HighValueRoutesToManualReview(t *testing.T) {
	claim := testClaim()
	claim.TotalAmount = 30000
	outputs := cleanOutputs()
	outputs.Analysis = models.CoverageAnalysis{TotalApproved: 30000}
	outputs.Fraud = models.FraudResult{
		FraudScore: 0.24,
		Indicators: []models.FraudIndicator{{Type: models.FraudHighValue, Score: 0.24}},
	}

	decision := NewDecisionEngine().Decide(testPolicy(), claim, outputs)

	assert.Equal(t, models.DecisionManualReview, decision.Decision)
	assert.Contains(t, decision.Reason, "High-value claim")
}

func TestDecision_FraudScoreRoutesToManualReview(t *testing.T) {
	outputs := cleanOutputs()
	outputs.Analysis = models.CoverageAnalysis{TotalApproved: 800}
	outputs.Fraud = models.FraudResult{FraudScore: 0.8}

	decision := NewDecisionEngine().Decide(testPolicy(), testClaim(), outputs)

	assert.Equal(t, models.DecisionManualReview, decision.Decision)
	assert.Contains(t, decision.Reason, "Fraud score")
}

func TestDecision_SuspiciousIndicatorRoutesToManualReview(t *testing.T) {
	outputs := cleanOutputs()
	outputs.Analysis = models.CoverageAnalysis{TotalApproved: 800}
	outputs.Fraud = models.FraudResult{
		FraudScore: 0.1,
		Indicators: []models.FraudIndicator{{Type: models.FraudDocumentModified, Message: "metadata altered"}},
	}

	decision := NewDecisionEngine().Decide(testPolicy(), testClaim(), outputs)

	assert.Equal(t, models.DecisionManualReview, decision.Decision)
}

func TestDecision_EssentialMissingRejects(t *testing.T) {
	outputs := cleanOutputs()
	outputs.Validation = models.ValidationResult{
		IsValid: false,
		Issues:  []models.Issue{criticalIssue(models.IssueMissingDocumentType)},
	}
	outputs.Analysis = models.CoverageAnalysis{TotalApproved: 720}

	decision := NewDecisionEngine().Decide(testPolicy(), testClaim(), outputs)

	assert.Equal(t, models.DecisionRejected, decision.Decision)
	assert.Equal(t, 0.0, decision.ApprovedAmount)
}

func TestDecision_NothingCoveredRejects(t *testing.T) {
	outputs := cleanOutputs()
	outputs.Analysis = models.CoverageAnalysis{TotalApproved: 0, TotalRejected: 800}

	decision := NewDecisionEngine().Decide(testPolicy(), testClaim(), outputs)

	assert.Equal(t, models.DecisionRejected, decision.Decision)
	assert.Equal(t, "No items are covered under this policy", decision.Reason)
}

func TestDecision_PartialOnRejectedAmount(t *testing.T) {
	claim := testClaim()
	claim.TotalAmount = 1500
	outputs := cleanOutputs()
	outputs.Analysis = models.CoverageAnalysis{
		ItemAnalysis: []models.ItemAnalysis{{
			Description: "Specialist consultation", Category: models.CategoryConsultation,
			ClaimedAmount: 1500, ApprovedAmount: 900, RejectedAmount: 500, CopayAmount: 100,
			Status: models.ItemPartial, SubLimitExceeded: true,
		}},
		TotalApproved: 900, TotalRejected: 500, TotalCopay: 100,
	}

	decision := NewDecisionEngine().Decide(testPolicy(), claim, outputs)

	assert.Equal(t, models.DecisionPartial, decision.Decision)
	assert.Equal(t, 900.0, decision.ApprovedAmount)
	assert.Equal(t, 600.0, decision.PatientPayable)
	assert.Equal(t, 900.0, decision.InsurancePayable)
}

func TestDecision_ApprovedWithStandardCopay(t *testing.T) {
	outputs := cleanOutputs()
	outputs.Analysis = models.CoverageAnalysis{
		ItemAnalysis: []models.ItemAnalysis{{
			Description: "General consultation", Category: models.CategoryConsultation,
			ClaimedAmount: 800, ApprovedAmount: 720, CopayAmount: 80,
			Status: models.ItemApproved,
		}},
		TotalApproved: 720, TotalCopay: 80,
	}

	decision := NewDecisionEngine().Decide(testPolicy(), testClaim(), outputs)

	assert.Equal(t, models.DecisionApproved, decision.Decision)
	assert.Equal(t, 720.0, decision.ApprovedAmount)
	assert.Equal(t, 80.0, decision.Deductions.Copay)
}

// ============================================================================
// CONFIGURABLE PRECEDENCE
// ============================================================================

func TestDecision_CustomPrecedencePutsReviewFirst(t *testing.T) {
	policy := testPolicy()
	policy.AdjudicationRules.DecisionPrecedence = []string{
		models.RuleManualReview,
		models.RuleHardRejection,
		models.RuleEssentialMissing,
		models.RuleNoCoverage,
		models.RulePartial,
		models.RuleApproved,
	}
	claim := testClaim()
	claim.TotalAmount = 30000
	outputs := cleanOutputs()
	outputs.Coverage = models.CoverageVerification{
		CoverageValid: false,
		Issues:        []models.Issue{criticalIssue(models.IssueExcludedCondition)},
	}
	outputs.Analysis = models.CoverageAnalysis{TotalApproved: 0, TotalRejected: 30000}

	decision := NewDecisionEngine().Decide(policy, claim, outputs)

	assert.Equal(t, models.DecisionManualReview, decision.Decision,
		"review-first lineages escalate high-value claims before exclusions reject them")
}

func TestDecision_UnknownPrecedenceRuleIgnored(t *testing.T) {
	policy := testPolicy()
	policy.AdjudicationRules.DecisionPrecedence = []string{"nonexistent_rule", models.RuleApproved}
	outputs := cleanOutputs()
	outputs.Analysis = models.CoverageAnalysis{TotalApproved: 800}

	decision := NewDecisionEngine().Decide(policy, testClaim(), outputs)

	assert.Equal(t, models.DecisionApproved, decision.Decision)
}

// ============================================================================
// CONFIDENCE AND PROJECTION
// ============================================================================

func TestDecision_ConfidenceWithinBounds(t *testing.T) {
	claim := testClaim()
	claim.DoctorRegistration = ""
	claim.HospitalName = ""
	claim.DoctorName = ""
	claim.Diagnosis = ""
	outputs := cleanOutputs()
	outputs.Validation.Issues = []models.Issue{
		{Code: models.IssueDoctorRegMissing, Severity: models.SeverityWarning},
		{Code: models.IssueHospitalNameMissing, Severity: models.SeverityWarning},
	}
	outputs.Fraud = models.FraudResult{FraudScore: 1.0}
	outputs.Analysis = models.CoverageAnalysis{TotalApproved: 800}

	decision := NewDecisionEngine().Decide(testPolicy(), claim, outputs)

	assert.GreaterOrEqual(t, decision.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, decision.ConfidenceScore, 1.0)
}

func TestDecision_ConfidencePenalties(t *testing.T) {
	claim := testClaim()
	claim.DoctorRegistration = "" // -0.1
	outputs := cleanOutputs()
	outputs.Validation.Issues = []models.Issue{
		{Code: models.IssueDoctorRegMissing, Severity: models.SeverityWarning}, // -0.05
	}
	outputs.Analysis = models.CoverageAnalysis{TotalApproved: 800}
	outputs.Fraud = models.FraudResult{FraudScore: 0.2} // -0.06

	decision := NewDecisionEngine().Decide(testPolicy(), claim, outputs)

	assert.InDelta(t, 0.79, decision.ConfidenceScore, 0.001)
}

func TestDecision_RejectedClaimZeroesItemBreakdown(t *testing.T) {
	outputs := cleanOutputs()
	outputs.Eligibility = models.EligibilityResult{
		IsEligible: false,
		Issues:     []models.Issue{criticalIssue(models.IssuePolicyExpired)},
	}
	outputs.Analysis = models.CoverageAnalysis{
		ItemAnalysis: []models.ItemAnalysis{{
			Description: "Consultation", ClaimedAmount: 800, ApprovedAmount: 720, CopayAmount: 80,
			Status: models.ItemApproved,
		}},
		TotalApproved: 720, TotalCopay: 80,
	}

	decision := NewDecisionEngine().Decide(testPolicy(), testClaim(), outputs)

	require.Len(t, decision.ItemBreakdown, 1)
	item := decision.ItemBreakdown[0]
	assert.Equal(t, string(models.ItemRejected), item.FinalStatus)
	assert.Equal(t, 0.0, item.FinalApprovedAmount)
	assert.True(t, item.CoverageEligible, "item was eligible even though the claim failed")
}

func TestDecision_ManualReviewSuspendsItems(t *testing.T) {
	claim := testClaim()
	claim.TotalAmount = 30000
	outputs := cleanOutputs()
	outputs.Analysis = models.CoverageAnalysis{
		ItemAnalysis: []models.ItemAnalysis{{
			Description: "Surgery package", ClaimedAmount: 30000, ApprovedAmount: 30000,
			Status: models.ItemApproved,
		}},
		TotalApproved: 30000,
	}

	decision := NewDecisionEngine().Decide(testPolicy(), claim, outputs)

	require.Equal(t, models.DecisionManualReview, decision.Decision)
	assert.Equal(t, "pending_review", decision.ItemBreakdown[0].FinalStatus)
	assert.Equal(t, 0.0, decision.ItemBreakdown[0].FinalApprovedAmount)
}

func TestDecision_ApprovedAmountCappedAtPerClaimLimit(t *testing.T) {
	policy := testPolicy()
	policy.CoverageDetails.PerClaimLimit = 500
	outputs := cleanOutputs()
	outputs.Analysis = models.CoverageAnalysis{TotalApproved: 720, TotalCopay: 80}

	decision := NewDecisionEngine().Decide(policy, testClaim(), outputs)

	assert.LessOrEqual(t, decision.ApprovedAmount, 500.0)
}

func TestDecision_ReasoningReflectsStepOutcomes(t *testing.T) {
	outputs := cleanOutputs()
	outputs.Limits = models.LimitValidation{
		LimitsValid: false,
		Issues:      []models.Issue{criticalIssue(models.IssueLateSubmission)},
	}

	decision := NewDecisionEngine().Decide(testPolicy(), testClaim(), outputs)

	assert.Equal(t, "fail", decision.Reasoning.ValidationSteps[string(models.StepLimits)])
	assert.Equal(t, "pass", decision.Reasoning.ValidationSteps[string(models.StepEligibility)])
	assert.NotEmpty(t, decision.Reasoning.Summary)
	assert.NotEmpty(t, decision.NextSteps)
}

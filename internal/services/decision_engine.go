package services

import (
	"fmt"
	"strings"
	"time"

	"claims-service/internal/models"
)

// hardRejectionCodes are the issue codes that terminate a claim outright,
// before manual-review routing is considered under the default precedence.
var hardRejectionCodes = map[string]bool{
	models.IssuePolicyInactive:      true,
	models.IssuePolicyExpired:       true,
	models.IssueWaitingPeriod:       true,
	models.IssueMemberNotCovered:    true,
	models.IssueExcludedCondition:   true,
	models.IssueCosmeticProcedure:   true,
	models.IssueExperimental:        true,
	models.IssueLateSubmission:      true,
	models.IssuePerClaimExceeded:    true,
	models.IssueAnnualLimitExceeded: true,
	models.IssueBelowMinAmount:      true,
}

// essentialMissingCodes are the documentation gaps that still reject a claim
// after the hard-rejection and review checks have passed.
var essentialMissingCodes = map[string]bool{
	models.IssueMissingDocumentType: true,
	models.IssueMissingField:        true,
}

// suspiciousIndicatorTypes route a claim to manual review regardless of the
// overall fraud score.
var suspiciousIndicatorTypes = map[string]bool{
	models.FraudDocumentModified: true,
	models.FraudUnusualPattern:   true,
}

// PipelineOutputs bundles every step result the engine needs. All fields are
// values produced by the steps; the engine never mutates them.
type PipelineOutputs struct {
	Eligibility models.EligibilityResult
	Validation  models.ValidationResult
	Coverage    models.CoverageVerification
	Analysis    models.CoverageAnalysis
	Limits      models.LimitValidation
	Necessity   models.NecessityResult
	Fraud       models.FraudResult
}

// AllIssues concatenates the step issues in pipeline order.
func (o *PipelineOutputs) AllIssues() []models.Issue {
	issues := make([]models.Issue, 0,
		len(o.Eligibility.Issues)+len(o.Validation.Issues)+len(o.Coverage.Issues)+
			len(o.Limits.Issues)+len(o.Necessity.Issues))
	issues = append(issues, o.Eligibility.Issues...)
	issues = append(issues, o.Validation.Issues...)
	issues = append(issues, o.Coverage.Issues...)
	issues = append(issues, o.Limits.Issues...)
	issues = append(issues, o.Necessity.Issues...)
	return issues
}

// DecisionEngine synthesizes the terminal decision. The rule evaluation order
// comes from the policy's decision precedence, first match wins.
type DecisionEngine struct{}

func NewDecisionEngine() *DecisionEngine {
	return &DecisionEngine{}
}

type decisionContext struct {
	policy     *models.PolicyConfig
	claim      *models.ClaimRecord
	outputs    *PipelineOutputs
	critical   []models.Issue
	warnings   []models.Issue
	confidence float64
}

type ruleOutcome struct {
	decision models.Decision
	approved float64
	reason   string
}

func (e *DecisionEngine) Decide(policy *models.PolicyConfig, claim *models.ClaimRecord, outputs *PipelineOutputs) *models.DecisionRecord {
	dc := &decisionContext{policy: policy, claim: claim, outputs: outputs}
	for _, issue := range outputs.AllIssues() {
		if issue.Severity == models.SeverityCritical {
			dc.critical = append(dc.critical, issue)
		} else {
			dc.warnings = append(dc.warnings, issue)
		}
	}
	dc.confidence = e.confidenceScore(dc)

	outcome := ruleOutcome{
		decision: models.DecisionRejected,
		reason:   "Unable to process claim",
	}
	rules := map[string]func(*decisionContext) (ruleOutcome, bool){
		models.RuleHardRejection:    e.ruleHardRejection,
		models.RuleManualReview:     e.ruleManualReview,
		models.RuleEssentialMissing: e.ruleEssentialMissing,
		models.RuleNoCoverage:       e.ruleNoCoverage,
		models.RulePartial:          e.rulePartial,
		models.RuleApproved:         e.ruleApproved,
	}
	for _, name := range policy.Precedence() {
		rule, ok := rules[name]
		if !ok {
			continue
		}
		if result, matched := rule(dc); matched {
			outcome = result
			break
		}
	}

	return e.buildRecord(dc, outcome)
}

func (e *DecisionEngine) ruleHardRejection(dc *decisionContext) (ruleOutcome, bool) {
	for _, issue := range dc.critical {
		if hardRejectionCodes[issue.Code] {
			return ruleOutcome{decision: models.DecisionRejected, reason: issue.Message}, true
		}
	}
	return ruleOutcome{}, false
}

func (e *DecisionEngine) ruleManualReview(dc *decisionContext) (ruleOutcome, bool) {
	reasons := e.manualReviewReasons(dc)
	if len(reasons) == 0 {
		return ruleOutcome{}, false
	}
	return ruleOutcome{decision: models.DecisionManualReview, reason: strings.Join(reasons, "; ")}, true
}

func (e *DecisionEngine) manualReviewReasons(dc *decisionContext) []string {
	var reasons []string
	fraud := dc.outputs.Fraud
	if fraud.FraudScore > dc.policy.FraudThreshold() {
		reasons = append(reasons, fmt.Sprintf("Fraud score %.2f exceeds threshold %.2f", fraud.FraudScore, dc.policy.FraudThreshold()))
	}
	if dc.claim.TotalAmount > dc.policy.HighValueThreshold() {
		reasons = append(reasons, fmt.Sprintf("High-value claim: %.2f exceeds %.2f", dc.claim.TotalAmount, dc.policy.HighValueThreshold()))
	}
	if dc.confidence < dc.policy.ConfidenceThreshold() {
		reasons = append(reasons, fmt.Sprintf("Confidence %.2f is below threshold %.2f", dc.confidence, dc.policy.ConfidenceThreshold()))
	}
	for _, indicator := range fraud.Indicators {
		if suspiciousIndicatorTypes[indicator.Type] {
			reasons = append(reasons, fmt.Sprintf("Suspicious indicator: %s", indicator.Message))
		}
	}
	return reasons
}

func (e *DecisionEngine) ruleEssentialMissing(dc *decisionContext) (ruleOutcome, bool) {
	for _, issue := range dc.critical {
		if essentialMissingCodes[issue.Code] {
			return ruleOutcome{decision: models.DecisionRejected, reason: issue.Message}, true
		}
	}
	return ruleOutcome{}, false
}

func (e *DecisionEngine) ruleNoCoverage(dc *decisionContext) (ruleOutcome, bool) {
	analysis := dc.outputs.Analysis
	if analysis.TotalApproved == 0 && dc.claim.TotalAmount > 0 {
		return ruleOutcome{decision: models.DecisionRejected, reason: "No items are covered under this policy"}, true
	}
	return ruleOutcome{}, false
}

func (e *DecisionEngine) rulePartial(dc *decisionContext) (ruleOutcome, bool) {
	analysis := dc.outputs.Analysis
	capped := false
	for _, item := range analysis.ItemAnalysis {
		if item.SubLimitExceeded {
			capped = true
			break
		}
	}
	if analysis.TotalRejected <= 0 && !capped {
		return ruleOutcome{}, false
	}
	return ruleOutcome{
		decision: models.DecisionPartial,
		approved: e.capApproved(dc, analysis.TotalApproved),
		reason:   "Some items were reduced or rejected under policy limits",
	}, true
}

func (e *DecisionEngine) ruleApproved(dc *decisionContext) (ruleOutcome, bool) {
	return ruleOutcome{
		decision: models.DecisionApproved,
		approved: e.capApproved(dc, dc.outputs.Analysis.TotalApproved),
		reason:   "All items covered under the policy",
	}, true
}

func (e *DecisionEngine) capApproved(dc *decisionContext, approved float64) float64 {
	limit := dc.policy.CoverageDetails.PerClaimLimit
	if limit > 0 && approved > limit {
		return limit
	}
	return approved
}

// confidenceScore starts at 1.0 and subtracts configurable penalties for
// missing key fields, accumulated warnings and the fraud score.
func (e *DecisionEngine) confidenceScore(dc *decisionContext) float64 {
	claim := dc.claim
	policy := dc.policy
	score := 1.0
	if claim.DoctorRegistration == "" {
		score -= policy.MissingFieldPenalty()
	}
	if claim.HospitalName == "" {
		score -= policy.MissingFieldPenalty() / 2
	}
	if claim.DoctorName == "" {
		score -= policy.MissingFieldPenalty() / 2
	}
	if claim.Diagnosis == "" {
		score -= policy.MissingFieldPenalty()
	}
	score -= float64(len(dc.warnings)) * policy.WarningPenalty()
	score -= dc.outputs.Fraud.FraudScore * policy.FraudImpact()
	return round2(clamp01(score))
}

func (e *DecisionEngine) buildRecord(dc *decisionContext, outcome ruleOutcome) *models.DecisionRecord {
	claim := dc.claim
	analysis := dc.outputs.Analysis
	approved := round2(outcome.approved)

	record := &models.DecisionRecord{
		ClaimID:          claim.ClaimID,
		Decision:         outcome.decision,
		ApprovedAmount:   approved,
		RejectionReasons: rejectionReasons(dc.critical),
		ConfidenceScore:  dc.confidence,
		FraudScore:       dc.outputs.Fraud.FraudScore,
		Notes:            e.buildNotes(dc),
		NextSteps:        nextSteps(outcome.decision),
		Reasoning:        e.buildReasoning(dc, outcome, approved),
		PatientName:      claim.PatientName,
		EmployeeID:       claim.EmployeeID,
		Reason:           outcome.reason,
		TotalClaimed:     claim.TotalAmount,
		Deductions: models.Deductions{
			Copay:         analysis.TotalCopay,
			RejectedItems: analysis.TotalRejected,
		},
		PatientPayable:   round2(claim.TotalAmount - approved),
		InsurancePayable: approved,
		CriticalIssues:   emptyIfNil(dc.critical),
		Warnings:         emptyIfNil(dc.warnings),
		ItemBreakdown:    e.finalizeItems(outcome.decision, analysis.ItemAnalysis),
		FraudIndicators:  dc.outputs.Fraud.Indicators,
		AdjudicationDate: time.Now().UTC(),
		PolicyID:         claim.PolicyID,
	}
	return record
}

// finalizeItems projects each item analysis under the claim-level decision:
// a rejected claim zeroes all items and a manual review suspends them.
func (e *DecisionEngine) finalizeItems(decision models.Decision, items []models.ItemAnalysis) []models.ItemAnalysis {
	finalized := make([]models.ItemAnalysis, len(items))
	for i, item := range items {
		item.CoverageEligible = item.Status != models.ItemRejected
		switch decision {
		case models.DecisionRejected:
			item.FinalStatus = string(models.ItemRejected)
			item.FinalApprovedAmount = 0
			item.FinalReason = "Claim rejected"
		case models.DecisionManualReview:
			item.FinalStatus = "pending_review"
			item.FinalApprovedAmount = 0
			item.FinalReason = "Awaiting manual review"
		default:
			item.FinalStatus = string(item.Status)
			item.FinalApprovedAmount = item.ApprovedAmount
			item.FinalReason = item.Reason
		}
		finalized[i] = item
	}
	return finalized
}

func (e *DecisionEngine) buildNotes(dc *decisionContext) string {
	var parts []string
	for i, issue := range dc.warnings {
		if i == 3 {
			break
		}
		parts = append(parts, issue.Message)
	}
	if n := len(dc.outputs.Fraud.Indicators); n > 0 {
		parts = append(parts, fmt.Sprintf("%d fraud indicator(s) recorded", n))
	}
	return strings.Join(parts, ". ")
}

func (e *DecisionEngine) buildReasoning(dc *decisionContext, outcome ruleOutcome, approved float64) models.Reasoning {
	analysis := dc.outputs.Analysis
	reasoning := models.Reasoning{
		Summary: fmt.Sprintf("Claim %s: %s. %s", dc.claim.ClaimID, outcome.decision, outcome.reason),
		ValidationSteps: map[string]string{
			string(models.StepEligibility):        passFail(dc.outputs.Eligibility.IsEligible),
			string(models.StepDocumentValidation): passFail(dc.outputs.Validation.IsValid),
			string(models.StepCoverage):           passFail(dc.outputs.Coverage.CoverageValid),
			string(models.StepLimits):             passFail(dc.outputs.Limits.LimitsValid),
			string(models.StepNecessity):          passFail(dc.outputs.Necessity.IsNecessary),
			string(models.StepFraud):              passFail(!dc.outputs.Fraud.RequiresManualReview),
		},
		CoverageSummary: models.CoverageSummary{
			TotalClaimed:   dc.claim.TotalAmount,
			EligibleAmount: analysis.TotalApproved,
			CopayDeduction: analysis.TotalCopay,
			NotCovered:     analysis.TotalRejected,
			FinalApproved:  approved,
		},
		Recommendation: nextSteps(outcome.decision),
	}

	if len(dc.critical) > 0 {
		factor := models.DecisionFactor{
			Type:        "critical_issues",
			Impact:      "blocking",
			Description: fmt.Sprintf("%d critical issue(s) found", len(dc.critical)),
		}
		for _, issue := range dc.critical {
			factor.Details = append(factor.Details, fmt.Sprintf("%s: %s", issue.Code, issue.Message))
		}
		reasoning.DecisionFactors = append(reasoning.DecisionFactors, factor)
	}
	if len(dc.warnings) > 0 {
		factor := models.DecisionFactor{
			Type:        "warnings",
			Impact:      "reduces_confidence",
			Description: fmt.Sprintf("%d warning(s) recorded", len(dc.warnings)),
		}
		for _, issue := range dc.warnings {
			factor.Details = append(factor.Details, fmt.Sprintf("%s: %s", issue.Code, issue.Message))
		}
		reasoning.DecisionFactors = append(reasoning.DecisionFactors, factor)
	}
	if fraud := dc.outputs.Fraud; len(fraud.Indicators) > 0 {
		factor := models.DecisionFactor{
			Type:        "fraud_signals",
			Impact:      "review_routing",
			Description: fmt.Sprintf("Fraud score %.2f from %d indicator(s)", fraud.FraudScore, len(fraud.Indicators)),
		}
		for _, indicator := range fraud.Indicators {
			factor.Details = append(factor.Details, fmt.Sprintf("%s: %s", indicator.Type, indicator.Message))
		}
		reasoning.DecisionFactors = append(reasoning.DecisionFactors, factor)
	}
	if analysis.TotalCopay > 0 || analysis.TotalRejected > 0 {
		reasoning.DecisionFactors = append(reasoning.DecisionFactors, models.DecisionFactor{
			Type:        "financial_adjustments",
			Impact:      "reduces_payout",
			Description: fmt.Sprintf("Copay %.2f and rejected amounts %.2f deducted from the claimed total", analysis.TotalCopay, analysis.TotalRejected),
		})
	}
	return reasoning
}

func nextSteps(decision models.Decision) string {
	switch decision {
	case models.DecisionApproved:
		return "Payment will be processed to the registered account within 5-7 business days."
	case models.DecisionPartial:
		return "Partial payment will be processed. Review the item breakdown for amounts not covered."
	case models.DecisionManualReview:
		return "The claim has been routed to a claims officer. Expect a response within 3 business days."
	default:
		return "The claim cannot be paid. Review the rejection reasons and resubmit with corrected documents if applicable."
	}
}

func rejectionReasons(critical []models.Issue) []string {
	seen := map[string]bool{}
	reasons := []string{}
	for _, issue := range critical {
		if !seen[issue.Code] {
			seen[issue.Code] = true
			reasons = append(reasons, issue.Code)
		}
	}
	return reasons
}

func passFail(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

func emptyIfNil(issues []models.Issue) []models.Issue {
	if issues == nil {
		return []models.Issue{}
	}
	return issues
}

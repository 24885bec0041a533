package models

import "time"

// Issue is one problem found by a pipeline step.
type Issue struct {
	Code     string        `json:"code"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
	Step     PipelineStep  `json:"step,omitempty"`
	Item     string        `json:"item,omitempty"`
}

// ItemAnalysis is the per-item financial adjudication result. The amounts
// always satisfy claimed == approved + rejected + copay within rounding.
type ItemAnalysis struct {
	Description      string        `json:"description"`
	Category         ClaimCategory `json:"category"`
	ClaimedAmount    float64       `json:"claimed_amount"`
	ApprovedAmount   float64       `json:"approved_amount"`
	RejectedAmount   float64       `json:"rejected_amount"`
	CopayAmount      float64       `json:"copay_amount"`
	Status           ItemStatus    `json:"status"`
	Reason           string        `json:"reason"`
	SubLimitExceeded bool          `json:"sub_limit_exceeded"`

	// Final projection under the claim-level decision.
	FinalStatus         string  `json:"final_status,omitempty"`
	FinalApprovedAmount float64 `json:"final_approved_amount"`
	FinalReason         string  `json:"final_reason,omitempty"`
	CoverageEligible    bool    `json:"coverage_eligible"`
}

// FraudIndicator is one heuristic fraud signal.
type FraudIndicator struct {
	Type     string  `json:"type"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Score    float64 `json:"score"`
}

// Per-step result values. Each step returns one of these; nothing is
// accumulated on shared state between claims.

type EligibilityResult struct {
	IsEligible bool    `json:"is_eligible"`
	Issues     []Issue `json:"issues"`
}

type ValidationResult struct {
	IsValid bool    `json:"is_valid"`
	Issues  []Issue `json:"issues"`
}

type CoverageVerification struct {
	CoverageValid bool    `json:"coverage_valid"`
	Issues        []Issue `json:"issues"`
}

type CoverageAnalysis struct {
	ItemAnalysis  []ItemAnalysis `json:"item_analysis"`
	TotalApproved float64        `json:"total_approved"`
	TotalRejected float64        `json:"total_rejected"`
	TotalCopay    float64        `json:"total_copay"`
}

type LimitValidation struct {
	LimitsValid bool    `json:"limits_valid"`
	Issues      []Issue `json:"issues"`
}

type NecessityResult struct {
	IsNecessary bool    `json:"is_necessary"`
	Issues      []Issue `json:"issues"`
}

// NecessityAssessment is the semantic reviewer's response contract.
type NecessityAssessment struct {
	IsNecessary bool     `json:"is_necessary"`
	Reason      string   `json:"reason"`
	Warnings    []string `json:"warnings"`
	Confidence  float64  `json:"confidence"`
}

type FraudResult struct {
	FraudScore           float64          `json:"fraud_score"`
	Indicators           []FraudIndicator `json:"indicators"`
	RequiresManualReview bool             `json:"requires_manual_review"`
}

// DecisionFactor explains one input into the final decision.
type DecisionFactor struct {
	Type        string   `json:"type"`
	Impact      string   `json:"impact"`
	Description string   `json:"description"`
	Details     []string `json:"details,omitempty"`
}

// CoverageSummary is the monetary roll-up attached to the reasoning.
type CoverageSummary struct {
	TotalClaimed   float64 `json:"total_claimed"`
	EligibleAmount float64 `json:"eligible_amount"`
	CopayDeduction float64 `json:"copay_deduction"`
	NotCovered     float64 `json:"not_covered"`
	FinalApproved  float64 `json:"final_approved"`
}

// Reasoning is the structured explanation of a decision.
type Reasoning struct {
	Summary         string            `json:"summary"`
	DecisionFactors []DecisionFactor  `json:"decision_factors"`
	ValidationSteps map[string]string `json:"validation_steps"`
	CoverageSummary CoverageSummary   `json:"coverage_summary"`
	Recommendation  string            `json:"recommendation"`
}

type Deductions struct {
	Copay         float64 `json:"copay"`
	RejectedItems float64 `json:"rejected_items"`
}

// DecisionRecord is the terminal adjudication output. Created exactly once.
type DecisionRecord struct {
	ClaimID          string           `json:"claim_id"`
	Decision         Decision         `json:"decision"`
	ApprovedAmount   float64          `json:"approved_amount"`
	RejectionReasons []string         `json:"rejection_reasons"`
	ConfidenceScore  float64          `json:"confidence_score"`
	FraudScore       float64          `json:"fraud_score"`
	Notes            string           `json:"notes"`
	NextSteps        string           `json:"next_steps"`
	Reasoning        Reasoning        `json:"reasoning"`
	PatientName      string           `json:"patient_name,omitempty"`
	EmployeeID       string           `json:"employee_id,omitempty"`
	Reason           string           `json:"reason"`
	TotalClaimed     float64          `json:"total_claimed"`
	Deductions       Deductions       `json:"deductions"`
	PatientPayable   float64          `json:"patient_payable"`
	InsurancePayable float64          `json:"insurance_payable"`
	CriticalIssues   []Issue          `json:"critical_issues"`
	Warnings         []Issue          `json:"warnings"`
	ItemBreakdown    []ItemAnalysis   `json:"item_breakdown"`
	FraudIndicators  []FraudIndicator `json:"fraud_indicators"`
	AdjudicationDate time.Time        `json:"adjudication_date"`
	PolicyID         string           `json:"policy_id,omitempty"`
}

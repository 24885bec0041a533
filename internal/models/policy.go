package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for all policy and claim dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", value, err)
	}
	return t, nil
}

// PolicyConfig is the insurance contract configuration governing a
// processing session. Loaded once, read-only during a run.
type PolicyConfig struct {
	PolicyID             string                `json:"policy_id"`
	PolicyNumber         string                `json:"policy_number,omitempty"`
	EffectiveDate        string                `json:"effective_date"`
	PolicyEndDate        string                `json:"policy_end_date,omitempty"`
	WaitingPeriods       WaitingPeriods        `json:"waiting_periods"`
	CoverageDetails      CoverageDetails       `json:"coverage_details"`
	Exclusions           []string              `json:"exclusions"`
	ClaimRequirements    ClaimRequirements     `json:"claim_requirements"`
	MedicalNecessityRule MedicalNecessityRules `json:"medical_necessity_rules"`
	FraudDetection       FraudDetectionConfig  `json:"fraud_detection"`
	AdjudicationRules    AdjudicationRules     `json:"adjudication_rules"`
}

type WaitingPeriods struct {
	InitialWaiting int `json:"initial_waiting"`
}

// CoverageRule is the per-category coverage configuration.
type CoverageRule struct {
	Covered                  bool     `json:"covered"`
	SubLimit                 float64  `json:"sub_limit,omitempty"`
	CopayPercentage          float64  `json:"copay_percentage,omitempty"`
	BrandedDrugsCopay        float64  `json:"branded_drugs_copay,omitempty"`
	CoveredTests             []string `json:"covered_tests,omitempty"`
	ProceduresCovered        []string `json:"procedures_covered,omitempty"`
	CoveredTreatments        []string `json:"covered_treatments,omitempty"`
	PreAuthorizationRequired bool     `json:"pre_authorization_required,omitempty"`
}

// CoverageDetails maps each coverage category to its rule plus the claim-wide
// monetary limits. The category mapping is a fixed table, not a string lookup.
type CoverageDetails struct {
	ConsultationFees    *CoverageRule `json:"consultation_fees,omitempty"`
	DiagnosticTests     *CoverageRule `json:"diagnostic_tests,omitempty"`
	Pharmacy            *CoverageRule `json:"pharmacy,omitempty"`
	Dental              *CoverageRule `json:"dental,omitempty"`
	Vision              *CoverageRule `json:"vision,omitempty"`
	AlternativeMedicine *CoverageRule `json:"alternative_medicine,omitempty"`
	AnnualLimit         float64       `json:"annual_limit,omitempty"`
	PerClaimLimit       float64       `json:"per_claim_limit,omitempty"`
}

// RuleFor resolves the coverage rule for a category. Returns nil for
// categories absent from the policy (treated as not covered).
func (c *CoverageDetails) RuleFor(category ClaimCategory) *CoverageRule {
	switch category {
	case CategoryConsultation:
		return c.ConsultationFees
	case CategoryDiagnostic:
		return c.DiagnosticTests
	case CategoryPharmacy:
		return c.Pharmacy
	case CategoryDental:
		return c.Dental
	case CategoryVision:
		return c.Vision
	case CategoryAlternative:
		return c.AlternativeMedicine
	}
	return nil
}

type ClaimRequirements struct {
	RequiredDocumentTypes    []string `json:"required_document_types,omitempty"`
	DoctorRegistrationFormat string   `json:"doctor_registration_format,omitempty"`
	MinimumClaimAmount       float64  `json:"minimum_claim_amount,omitempty"`
	SubmissionTimelineDays   int      `json:"submission_timeline_days,omitempty"`
}

type MedicalNecessityRules struct {
	CosmeticKeywords     []string `json:"cosmetic_keywords,omitempty"`
	ExperimentalKeywords []string `json:"experimental_keywords,omitempty"`
	// FailOpen controls the behavior when the semantic reviewer returns
	// unusable output. Defaults to true, matching the historical system.
	FailOpen *bool `json:"fail_open,omitempty"`
}

type FraudDetectionConfig struct {
	HighValueThreshold    float64  `json:"high_value_threshold,omitempty"`
	CriticalFields        []string `json:"critical_fields,omitempty"`
	ManualReviewThreshold float64  `json:"manual_review_threshold,omitempty"`
	FraudThreshold        float64  `json:"fraud_threshold,omitempty"`
}

type ConfidenceWeights struct {
	MissingFieldPenalty float64 `json:"missing_field_penalty,omitempty"`
	WarningPenalty      float64 `json:"warning_penalty,omitempty"`
	FraudImpact         float64 `json:"fraud_impact,omitempty"`
}

type AdjudicationRules struct {
	ConfidenceThreshold float64           `json:"confidence_threshold,omitempty"`
	ConfidenceWeights   ConfidenceWeights `json:"confidence_weights,omitempty"`
	// DecisionPrecedence is the ordered list of decision rules the engine
	// evaluates, first match wins. Empty means DefaultDecisionPrecedence.
	DecisionPrecedence []string `json:"decision_precedence,omitempty"`
}

// Decision rule names usable in AdjudicationRules.DecisionPrecedence.
const (
	RuleHardRejection    = "hard_rejection"
	RuleManualReview     = "manual_review"
	RuleEssentialMissing = "essential_missing"
	RuleNoCoverage       = "no_coverage"
	RulePartial          = "partial"
	RuleApproved         = "approved"
)

// DefaultDecisionPrecedence is the historical evaluation order.
var DefaultDecisionPrecedence = []string{
	RuleHardRejection,
	RuleManualReview,
	RuleEssentialMissing,
	RuleNoCoverage,
	RulePartial,
	RuleApproved,
}

// Documented defaults for optional policy fields.
const (
	DefaultDoctorRegistrationFormat = `^[A-Z]{2}/\d+/\d{4}$`
	DefaultHighValueThreshold       = 25000
	DefaultManualReviewThreshold    = 0.5
	DefaultFraudThreshold           = 0.7
	DefaultConfidenceThreshold      = 0.7
	DefaultMissingFieldPenalty      = 0.1
	DefaultWarningPenalty           = 0.05
	DefaultFraudImpact              = 0.3
)

var (
	DefaultRequiredDocumentTypes = []string{"prescription", "medical_bill"}
	DefaultCriticalFields        = []string{"doctor_registration", "hospital_name"}
	DefaultCosmeticKeywords      = []string{"whitening", "bleaching", "cosmetic", "aesthetic", "beauty"}
	DefaultExperimentalKeywords  = []string{"experimental", "investigational", "trial", "unproven"}
)

// Validate checks the mandatory fields of a policy configuration.
func (p *PolicyConfig) Validate() error {
	if p.PolicyID == "" {
		return fmt.Errorf("policy_id is required")
	}
	if p.EffectiveDate == "" {
		return fmt.Errorf("effective_date is required")
	}
	if _, err := ParseDate(p.EffectiveDate); err != nil {
		return fmt.Errorf("effective_date: %w", err)
	}
	if p.PolicyEndDate != "" {
		if _, err := ParseDate(p.PolicyEndDate); err != nil {
			return fmt.Errorf("policy_end_date: %w", err)
		}
	}
	return nil
}

// DoctorRegistrationPattern returns the configured registration regex or the
// documented default.
func (p *PolicyConfig) DoctorRegistrationPattern() string {
	if p.ClaimRequirements.DoctorRegistrationFormat != "" {
		return p.ClaimRequirements.DoctorRegistrationFormat
	}
	return DefaultDoctorRegistrationFormat
}

// RequiredDocuments returns the policy-declared document types or the
// default minimum set.
func (p *PolicyConfig) RequiredDocuments() []string {
	if len(p.ClaimRequirements.RequiredDocumentTypes) > 0 {
		return p.ClaimRequirements.RequiredDocumentTypes
	}
	return DefaultRequiredDocumentTypes
}

func (p *PolicyConfig) CosmeticKeywords() []string {
	if len(p.MedicalNecessityRule.CosmeticKeywords) > 0 {
		return p.MedicalNecessityRule.CosmeticKeywords
	}
	return DefaultCosmeticKeywords
}

func (p *PolicyConfig) ExperimentalKeywords() []string {
	if len(p.MedicalNecessityRule.ExperimentalKeywords) > 0 {
		return p.MedicalNecessityRule.ExperimentalKeywords
	}
	return DefaultExperimentalKeywords
}

// NecessityFailOpen reports whether an unusable necessity-review response is
// treated as "necessary". Defaults to true.
func (p *PolicyConfig) NecessityFailOpen() bool {
	if p.MedicalNecessityRule.FailOpen == nil {
		return true
	}
	return *p.MedicalNecessityRule.FailOpen
}

func (p *PolicyConfig) HighValueThreshold() float64 {
	if p.FraudDetection.HighValueThreshold > 0 {
		return p.FraudDetection.HighValueThreshold
	}
	return DefaultHighValueThreshold
}

func (p *PolicyConfig) CriticalFields() []string {
	if len(p.FraudDetection.CriticalFields) > 0 {
		return p.FraudDetection.CriticalFields
	}
	return DefaultCriticalFields
}

func (p *PolicyConfig) ManualReviewThreshold() float64 {
	if p.FraudDetection.ManualReviewThreshold > 0 {
		return p.FraudDetection.ManualReviewThreshold
	}
	return DefaultManualReviewThreshold
}

func (p *PolicyConfig) FraudThreshold() float64 {
	if p.FraudDetection.FraudThreshold > 0 {
		return p.FraudDetection.FraudThreshold
	}
	return DefaultFraudThreshold
}

func (p *PolicyConfig) ConfidenceThreshold() float64 {
	if p.AdjudicationRules.ConfidenceThreshold > 0 {
		return p.AdjudicationRules.ConfidenceThreshold
	}
	return DefaultConfidenceThreshold
}

func (p *PolicyConfig) MissingFieldPenalty() float64 {
	if p.AdjudicationRules.ConfidenceWeights.MissingFieldPenalty > 0 {
		return p.AdjudicationRules.ConfidenceWeights.MissingFieldPenalty
	}
	return DefaultMissingFieldPenalty
}

func (p *PolicyConfig) WarningPenalty() float64 {
	if p.AdjudicationRules.ConfidenceWeights.WarningPenalty > 0 {
		return p.AdjudicationRules.ConfidenceWeights.WarningPenalty
	}
	return DefaultWarningPenalty
}

func (p *PolicyConfig) FraudImpact() float64 {
	if p.AdjudicationRules.ConfidenceWeights.FraudImpact > 0 {
		return p.AdjudicationRules.ConfidenceWeights.FraudImpact
	}
	return DefaultFraudImpact
}

// Precedence returns the configured decision rule order, falling back to the
// default when unset. Unknown rule names are ignored by the engine.
func (p *PolicyConfig) Precedence() []string {
	if len(p.AdjudicationRules.DecisionPrecedence) > 0 {
		return p.AdjudicationRules.DecisionPrecedence
	}
	return DefaultDecisionPrecedence
}

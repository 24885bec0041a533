package models

// ClaimCategory is the closed set of coverage categories. Anything outside
// this set is rejected outright during analysis.
type ClaimCategory string

const (
	CategoryConsultation ClaimCategory = "consultation"
	CategoryDiagnostic   ClaimCategory = "diagnostic"
	CategoryPharmacy     ClaimCategory = "pharmacy"
	CategoryDental       ClaimCategory = "dental"
	CategoryVision       ClaimCategory = "vision"
	CategoryAlternative  ClaimCategory = "alternative_medicine"
)

// AllCategories lists every valid category in a stable order.
var AllCategories = []ClaimCategory{
	CategoryConsultation,
	CategoryDiagnostic,
	CategoryPharmacy,
	CategoryDental,
	CategoryVision,
	CategoryAlternative,
}

// IsValid reports whether the category belongs to the closed enumeration.
func (c ClaimCategory) IsValid() bool {
	switch c {
	case CategoryConsultation, CategoryDiagnostic, CategoryPharmacy,
		CategoryDental, CategoryVision, CategoryAlternative:
		return true
	}
	return false
}

type DocumentType string

const (
	DocPrescription     DocumentType = "prescription"
	DocMedicalBill      DocumentType = "medical_bill"
	DocPharmacyBill     DocumentType = "pharmacy_bill"
	DocLabResults       DocumentType = "lab_results"
	DocDiagnosticReport DocumentType = "diagnostic_report"
)

// DocumentMergeOrder is the fixed priority in which per-document extracts
// are folded into one claim record, independent of arrival order.
var DocumentMergeOrder = []DocumentType{
	DocPrescription,
	DocMedicalBill,
	DocPharmacyBill,
	DocLabResults,
	DocDiagnosticReport,
}

// IsValid reports whether the document type is one the pipeline accepts.
func (d DocumentType) IsValid() bool {
	switch d {
	case DocPrescription, DocMedicalBill, DocPharmacyBill, DocLabResults, DocDiagnosticReport:
		return true
	}
	return false
}

// Billable reports whether items from this document type carry real cost.
// Prescription and lab-result items are reference material only.
func (d DocumentType) Billable() bool {
	return d == DocMedicalBill || d == DocPharmacyBill
}

type Decision string

const (
	DecisionApproved     Decision = "APPROVED"
	DecisionPartial      Decision = "PARTIAL"
	DecisionRejected     Decision = "REJECTED"
	DecisionManualReview Decision = "MANUAL_REVIEW"
)

type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "critical"
	SeverityWarning  IssueSeverity = "warning"
)

type ItemStatus string

const (
	ItemApproved ItemStatus = "approved"
	ItemPartial  ItemStatus = "partial"
	ItemRejected ItemStatus = "rejected"
)

// Issue codes emitted by the pipeline steps.
const (
	IssuePolicyInactive      = "POLICY_INACTIVE"
	IssuePolicyExpired       = "POLICY_EXPIRED"
	IssueWaitingPeriod       = "WAITING_PERIOD"
	IssueMemberNotCovered    = "MEMBER_NOT_COVERED"
	IssueMissingDocumentType = "MISSING_DOCUMENT_TYPE"
	IssueMissingField        = "MISSING_REQUIRED_FIELD"
	IssueDoctorRegInvalid    = "DOCTOR_REG_INVALID"
	IssueDoctorRegMissing    = "DOCTOR_REG_MISSING"
	IssueDateMismatch        = "DATE_MISMATCH"
	IssuePatientNameShort    = "PATIENT_NAME_INCOMPLETE"
	IssueDoctorNameMissing   = "DOCTOR_NAME_MISSING"
	IssueHospitalNameMissing = "HOSPITAL_NAME_MISSING"
	IssueExcludedCondition   = "EXCLUDED_CONDITION"
	IssueServiceNotCovered   = "SERVICE_NOT_COVERED"
	IssuePreAuthMissing      = "PRE_AUTH_MISSING"
	IssueBelowMinAmount      = "BELOW_MIN_AMOUNT"
	IssuePerClaimExceeded    = "PER_CLAIM_EXCEEDED"
	IssueAnnualLimitExceeded = "ANNUAL_LIMIT_EXCEEDED"
	IssueSubLimitExceeded    = "SUB_LIMIT_EXCEEDED"
	IssueLateSubmission      = "LATE_SUBMISSION"
	IssueCosmeticProcedure   = "COSMETIC_PROCEDURE"
	IssueExperimental        = "EXPERIMENTAL_TREATMENT"
	IssueNotNecessary        = "NOT_MEDICALLY_NECESSARY"
	IssueNecessityWarning    = "MEDICAL_REVIEW_WARNING"
	IssueNecessityUnreviewed = "NECESSITY_REVIEW_UNAVAILABLE"
)

// PipelineStep names the originating step recorded on each issue.
type PipelineStep string

const (
	StepEligibility        PipelineStep = "basic_eligibility"
	StepDocumentValidation PipelineStep = "document_validation"
	StepCoverage           PipelineStep = "coverage_verification"
	StepLimits             PipelineStep = "limit_validation"
	StepNecessity          PipelineStep = "medical_necessity"
	StepFraud              PipelineStep = "fraud_detection"
)

// Fraud indicator types.
const (
	FraudHighValue         = "HIGH_VALUE"
	FraudMissingInfo       = "MISSING_INFO"
	FraudSuspiciousAmounts = "SUSPICIOUS_AMOUNTS"
	FraudDocumentModified  = "DOCUMENT_MODIFIED"
	FraudUnusualPattern    = "UNUSUAL_PATTERN"
)

// Audit log actions.
const (
	AuditCreated = "CREATED"
	AuditError   = "ERROR"
)

package models

import (
	"time"

	"claims-service/internal/utils"
)

// LineItem is one billed service or product on a claim.
type LineItem struct {
	Description    string        `json:"description"`
	Category       ClaimCategory `json:"category"`
	Amount         float64       `json:"amount"`
	Quantity       float64       `json:"quantity,omitempty"`
	UnitPrice      float64       `json:"unit_price,omitempty"`
	SourceDocument DocumentType  `json:"source_document,omitempty"`
}

type BillingDetails struct {
	Subtotal float64 `json:"subtotal,omitempty"`
	Tax      float64 `json:"tax,omitempty"`
	Discount float64 `json:"discount,omitempty"`
}

// ExtractedDocument is the typed response of the extraction collaborator
// for a single document.
type ExtractedDocument struct {
	PatientName          string          `json:"patient_name,omitempty"`
	PatientAge           int             `json:"patient_age,omitempty"`
	PatientGender        string          `json:"patient_gender,omitempty"`
	PatientDOB           string          `json:"patient_dob,omitempty"`
	EmployeeID           string          `json:"employee_id,omitempty"`
	PolicyNumber         string          `json:"policy_number,omitempty"`
	TreatmentDate        string          `json:"treatment_date,omitempty"`
	Items                []LineItem      `json:"items,omitempty"`
	TotalAmount          float64         `json:"total_amount,omitempty"`
	HospitalName         string          `json:"hospital_name,omitempty"`
	HospitalRegistration string          `json:"hospital_registration,omitempty"`
	HospitalAddress      string          `json:"hospital_address,omitempty"`
	DoctorName           string          `json:"doctor_name,omitempty"`
	DoctorRegistration   string          `json:"doctor_registration,omitempty"`
	DoctorSpecialization string          `json:"doctor_specialization,omitempty"`
	Diagnosis            string          `json:"diagnosis,omitempty"`
	DiagnosisCode        string          `json:"diagnosis_code,omitempty"`
	Symptoms             string          `json:"symptoms,omitempty"`
	PrescriptionDetails  string          `json:"prescription_details,omitempty"`
	TestResults          string          `json:"test_results,omitempty"`
	TreatmentSummary     string          `json:"treatment_summary,omitempty"`
	PreAuthorization     string          `json:"pre_authorization_number,omitempty"`
	EmergencyTreatment   bool            `json:"emergency_treatment,omitempty"`
	FollowUpRequired     bool            `json:"follow_up_required,omitempty"`
	Billing              *BillingDetails `json:"billing_details,omitempty"`
}

// ClaimRecord is the merged, pipeline-facing claim. It is assembled by the
// document merger and is immutable once decision synthesis starts.
type ClaimRecord struct {
	ClaimID                string                   `json:"claim_id"`
	PolicyID               string                   `json:"policy_id,omitempty"`
	MemberID               string                   `json:"member_id,omitempty"`
	PatientName            string                   `json:"patient_name,omitempty"`
	PatientAge             int                      `json:"patient_age,omitempty"`
	PatientGender          string                   `json:"patient_gender,omitempty"`
	PatientDOB             string                   `json:"patient_dob,omitempty"`
	EmployeeID             string                   `json:"employee_id,omitempty"`
	PolicyNumber           string                   `json:"policy_number,omitempty"`
	TreatmentDate          string                   `json:"treatment_date,omitempty"`
	ClaimDate              string                   `json:"claim_date"`
	DocumentTypesSubmitted []DocumentType           `json:"document_types_submitted"`
	Items                  []LineItem               `json:"items"`
	PrescriptionItems      []LineItem               `json:"prescription_items,omitempty"`
	LabItems               []LineItem               `json:"lab_items,omitempty"`
	BillTotals             map[DocumentType]float64 `json:"bill_totals,omitempty"`
	TotalAmount            float64                  `json:"total_amount"`
	HospitalName           string                   `json:"hospital_name,omitempty"`
	HospitalRegistration   string                   `json:"hospital_registration,omitempty"`
	DoctorName             string                   `json:"doctor_name,omitempty"`
	DoctorRegistration     string                   `json:"doctor_registration,omitempty"`
	DoctorSpecialization   string                   `json:"doctor_specialization,omitempty"`
	Diagnosis              string                   `json:"diagnosis,omitempty"`
	DiagnosisCode          string                   `json:"diagnosis_code,omitempty"`
	Symptoms               string                   `json:"symptoms,omitempty"`
	PrescriptionDetails    string                   `json:"prescription_details,omitempty"`
	TestResults            string                   `json:"test_results,omitempty"`
	TreatmentSummary       string                   `json:"treatment_summary,omitempty"`
	PreAuthorization       string                   `json:"pre_authorization_number,omitempty"`
	EmergencyTreatment     bool                     `json:"emergency_treatment,omitempty"`
}

// Member is a covered person on a policy.
type Member struct {
	MemberID   string     `json:"member_id" db:"member_id"`
	PolicyID   string     `json:"policy_id" db:"policy_id"`
	EmployeeID *string    `json:"employee_id,omitempty" db:"employee_id"`
	Name       string     `json:"name" db:"name"`
	DateJoined *time.Time `json:"date_joined,omitempty" db:"date_joined"`
	Active     bool       `json:"active" db:"active"`
}

// PolicyUtilization is the year-to-date usage snapshot for a policy.
type PolicyUtilization struct {
	PolicyID         string                    `json:"policy_id"`
	TotalApprovedYTD float64                   `json:"total_approved_ytd"`
	CategoryUsage    map[ClaimCategory]float64 `json:"category_usage"`
}

// PolicyRow is the stored form of a policy configuration.
type PolicyRow struct {
	PolicyID     string        `db:"policy_id"`
	PolicyNumber *string       `db:"policy_number"`
	Config       utils.JSONMap `db:"policy_config"`
	ClaimsYTD    float64       `db:"claims_ytd"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

// ClaimRow is the stored form of a claim.
type ClaimRow struct {
	ClaimID            string        `db:"claim_id"`
	PolicyID           *string       `db:"policy_id"`
	MemberID           *string       `db:"member_id"`
	PatientName        *string       `db:"patient_name"`
	TreatmentDate      *string       `db:"treatment_date"`
	ClaimDate          *string       `db:"claim_date"`
	TotalClaimedAmount float64       `db:"total_claimed_amount"`
	ApprovedAmount     *float64      `db:"approved_amount"`
	Decision           *string       `db:"decision"`
	ConfidenceScore    *float64      `db:"confidence_score"`
	FraudScore         *float64      `db:"fraud_score"`
	ClaimData          utils.JSONMap `db:"claim_data"`
	DecisionData       utils.JSONMap `db:"decision_data"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

// ClaimStatistics aggregates decision counts and amounts for reporting.
type ClaimStatistics struct {
	TotalClaims   int     `json:"total_claims" db:"total_claims"`
	Approved      int     `json:"approved" db:"approved"`
	Partial       int     `json:"partial" db:"partial"`
	Rejected      int     `json:"rejected" db:"rejected"`
	ManualReview  int     `json:"manual_review" db:"manual_review"`
	TotalClaimed  float64 `json:"total_claimed" db:"total_claimed"`
	TotalApproved float64 `json:"total_approved" db:"total_approved"`
}

// DocumentUpload records one stored source document for a claim.
type DocumentUpload struct {
	ID           string       `json:"id" db:"id"`
	ClaimID      string       `json:"claim_id" db:"claim_id"`
	DocumentType DocumentType `json:"document_type" db:"document_type"`
	FileName     string       `json:"file_name" db:"file_name"`
	FileType     string       `json:"file_type" db:"file_type"`
	ObjectKey    string       `json:"object_key" db:"object_key"`
	FileSize     int64        `json:"file_size" db:"file_size"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

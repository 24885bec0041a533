package models

// DocumentInput is one uploaded source document handed to the pipeline.
type DocumentInput struct {
	Type     DocumentType
	FileName string
	Data     []byte
}

// ProcessClaimInput is the full intake for one claim run.
type ProcessClaimInput struct {
	Documents []DocumentInput
	ClaimDate string
	PolicyID  string
	MemberID  string
}

// ExtractRequest is the single-document extraction debug surface.
type ExtractRequest struct {
	DocumentType DocumentType `json:"document_type"`
	ClaimDate    string       `json:"claim_date,omitempty"`
}

// ValidatePolicyResponse reports structural problems in a policy config.
type ValidatePolicyResponse struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

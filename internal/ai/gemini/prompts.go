package gemini

import "fmt"

// ExtractionPrompt builds the field-extraction prompt for one document type.
// The model must answer with the bare JSON object and nothing else.
func ExtractionPrompt(docType string) string {
	basePrompt := "Extract medical claim information from this document and return ONLY a JSON object."

	var specificFields string
	switch docType {
	case "prescription":
		specificFields = `
Focus on extracting:
- Doctor details (name, registration, specialization)
- Diagnosis and symptoms
- Prescribed medicines with dosage
- Follow-up requirements
`
	case "medical_bill":
		specificFields = `
Focus on extracting:
- Hospital/clinic details
- Consultation fees
- Itemized charges
- Total amount
- Tax and billing details
`
	case "pharmacy_bill":
		specificFields = `
Focus on extracting:
- Pharmacy details
- Individual medicine items with batch numbers
- Quantities and prices
- Total amount
`
	case "lab_results", "diagnostic_report":
		specificFields = `
Focus on extracting:
- Diagnostic center details
- Test names and results
- Reference ranges
- Pathologist details
`
	}

	return basePrompt + specificFields + `

{
"patient_name": "string",
"patient_age": "number (if present)",
"patient_gender": "string (Male/Female/Other if present)",
"patient_dob": "YYYY-MM-DD (if present)",
"employee_id": "string (if present)",
"policy_number": "string (if present)",
"treatment_date": "YYYY-MM-DD",
"items": [
    {
    "description": "string (detailed description of service/medicine)",
    "category": "consultation|diagnostic|pharmacy|dental|vision|alternative_medicine",
    "amount": number,
    "quantity": number (if applicable),
    "unit_price": number (if applicable)
    }
],
"total_amount": number,
"hospital_name": "string (if present)",
"hospital_registration": "string (if present)",
"hospital_address": "string (if present)",
"doctor_name": "string (if present)",
"doctor_registration": "string (format: XX/123456/2020, if present)",
"doctor_specialization": "string (if present)",
"diagnosis": "string (primary diagnosis/reason for visit)",
"diagnosis_code": "string (ICD code if present)",
"symptoms": "string (patient symptoms if mentioned)",
"prescription_details": "string (medicines prescribed with dosage)",
"test_results": "string (diagnostic test results if present)",
"treatment_summary": "string (summary of treatment provided)",
"pre_authorization_number": "string (if present)",
"emergency_treatment": boolean,
"follow_up_required": boolean,
"billing_details": {
    "subtotal": number (if itemized),
    "tax": number (if present),
    "discount": number (if present)
}
}

IMPORTANT INSTRUCTIONS:
- DO NOT include a "claim_id" field - the system will generate this
- Extract ALL line items separately with detailed descriptions
- Categorize each item correctly based on the service type
- Capture all medical information including diagnosis, symptoms, and treatment details
- If a field is not present in the document, omit it or set to null
- Ensure all amounts are numeric values (not strings)
- Return ONLY the JSON, no additional text or explanations`
}

// NecessityPromptInput carries the claim context the reviewer needs.
type NecessityPromptInput struct {
	Diagnosis           string
	Symptoms            string
	TreatmentSummary    string
	PatientAge          string
	PatientGender       string
	EmergencyTreatment  bool
	ItemsJSON           string
	PrescriptionDetails string
	TestResults         string
}

// NecessityPrompt builds the medical necessity evaluation prompt.
func NecessityPrompt(in NecessityPromptInput) string {
	return fmt.Sprintf(`You are a medical claim reviewer. Evaluate if the treatment was medically necessary based on the following claim information:

CLAIM DETAILS:
- Diagnosis: %s
- Symptoms: %s
- Treatment Summary: %s
- Patient Age: %s
- Patient Gender: %s
- Emergency Treatment: %t

TREATMENTS/SERVICES PROVIDED:
%s

PRESCRIPTION DETAILS:
%s

TEST RESULTS:
%s

Evaluate the following:
1. Does the diagnosis justify the treatments provided?
2. Are the prescribed medications appropriate for the diagnosis?
3. Are diagnostic tests relevant to the diagnosis?
4. Is the treatment following standard medical protocols?
5. Are there any red flags indicating unnecessary procedures?

Return ONLY a JSON object with this structure:
{
  "is_necessary": true/false,
  "reason": "Brief explanation of your assessment",
  "warnings": ["List of any concerns or warnings"],
  "confidence": 0.0-1.0
}`,
		orNotProvided(in.Diagnosis),
		orNotProvided(in.Symptoms),
		orNotProvided(in.TreatmentSummary),
		orNotProvided(in.PatientAge),
		orNotProvided(in.PatientGender),
		in.EmergencyTreatment,
		in.ItemsJSON,
		orNotProvided(in.PrescriptionDetails),
		orNotProvided(in.TestResults),
	)
}

// TestMatchPrompt asks whether an item description refers to one of the
// covered diagnostic tests. The model must answer only 'true' or 'false'.
func TestMatchPrompt(description string, coveredTests []string) string {
	return fmt.Sprintf(`Determine if the medical test description refers to one of the covered diagnostic tests.
Return only 'true' or 'false'.

Item: %q
Covered: %v`, description, coveredTests)
}

func orNotProvided(v string) string {
	if v == "" {
		return "Not provided"
	}
	return v
}

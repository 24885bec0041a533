package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"claims-service/internal/models"
)

const claimIDMaxAttempts = 3

// ExtractedDocumentPair ties one extraction record to the document type it
// came from.
type ExtractedDocumentPair struct {
	Type models.DocumentType
	Doc  *models.ExtractedDocument
}

// DocumentMerger folds per-document extraction records into a single claim
// record. Merging happens in the fixed document-type priority order, so the
// result does not depend on the order documents were uploaded or extracted.
type DocumentMerger struct {
	ids ClaimIDChecker
}

func NewDocumentMerger(ids ClaimIDChecker) *DocumentMerger {
	return &DocumentMerger{ids: ids}
}

// Merge builds the claim record. The claim id is always freshly generated;
// ids present in extracted data are never trusted.
func (m *DocumentMerger) Merge(ctx context.Context, docs []ExtractedDocumentPair, claimDate string) (*models.ClaimRecord, error) {
	claimID, err := m.generateClaimID(ctx)
	if err != nil {
		return nil, err
	}

	claim := &models.ClaimRecord{
		ClaimID:    claimID,
		ClaimDate:  claimDate,
		Items:      []models.LineItem{},
		BillTotals: map[models.DocumentType]float64{},
	}
	if claim.ClaimDate == "" {
		claim.ClaimDate = time.Now().Format(models.DateLayout)
	}

	ordered := orderByPriority(docs)
	for _, pair := range ordered {
		claim.DocumentTypesSubmitted = append(claim.DocumentTypesSubmitted, pair.Type)
	}
	for _, pair := range ordered {
		mergeScalars(claim, pair.Doc)
		mergeItems(claim, pair)
	}

	if total := sumBillTotals(claim.BillTotals); total > 0 {
		claim.TotalAmount = round2(total)
	} else {
		var sum float64
		for _, item := range claim.Items {
			sum += item.Amount
		}
		claim.TotalAmount = round2(sum)
	}
	return claim, nil
}

// generateClaimID produces CLM_<timestamp>_<suffix> and retries a bounded
// number of times on storage collisions.
func (m *DocumentMerger) generateClaimID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < claimIDMaxAttempts; attempt++ {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
		id := fmt.Sprintf("CLM_%s_%s", time.Now().Format("20060102150405"), suffix)
		if m.ids == nil {
			return id, nil
		}
		taken, err := m.ids.Exists(ctx, id)
		if err != nil {
			return "", collaboratorFailure(err, "checking claim id uniqueness")
		}
		if !taken {
			return id, nil
		}
	}
	return "", collaboratorFailure(nil, "could not generate a unique claim id after %d attempts", claimIDMaxAttempts)
}

// orderByPriority reorders pairs into the fixed merge priority. Documents of
// the same type keep their relative order.
func orderByPriority(docs []ExtractedDocumentPair) []ExtractedDocumentPair {
	ordered := make([]ExtractedDocumentPair, 0, len(docs))
	for _, dt := range models.DocumentMergeOrder {
		for _, pair := range docs {
			if pair.Type == dt && pair.Doc != nil {
				ordered = append(ordered, pair)
			}
		}
	}
	return ordered
}

// mergeScalars applies first-non-empty-wins for scalar fields, in priority
// order since callers feed documents through orderByPriority.
func mergeScalars(claim *models.ClaimRecord, doc *models.ExtractedDocument) {
	setIfEmpty(&claim.PatientName, doc.PatientName)
	setIfEmpty(&claim.PatientGender, doc.PatientGender)
	setIfEmpty(&claim.PatientDOB, doc.PatientDOB)
	setIfEmpty(&claim.EmployeeID, doc.EmployeeID)
	setIfEmpty(&claim.PolicyNumber, doc.PolicyNumber)
	setIfEmpty(&claim.TreatmentDate, doc.TreatmentDate)
	setIfEmpty(&claim.HospitalName, doc.HospitalName)
	setIfEmpty(&claim.HospitalRegistration, doc.HospitalRegistration)
	setIfEmpty(&claim.DoctorName, doc.DoctorName)
	setIfEmpty(&claim.DoctorRegistration, doc.DoctorRegistration)
	setIfEmpty(&claim.DoctorSpecialization, doc.DoctorSpecialization)
	setIfEmpty(&claim.Diagnosis, doc.Diagnosis)
	setIfEmpty(&claim.DiagnosisCode, doc.DiagnosisCode)
	setIfEmpty(&claim.Symptoms, doc.Symptoms)
	setIfEmpty(&claim.PrescriptionDetails, doc.PrescriptionDetails)
	setIfEmpty(&claim.TestResults, doc.TestResults)
	setIfEmpty(&claim.TreatmentSummary, doc.TreatmentSummary)
	setIfEmpty(&claim.PreAuthorization, doc.PreAuthorization)
	if claim.PatientAge == 0 && doc.PatientAge > 0 {
		claim.PatientAge = doc.PatientAge
	}
	if doc.EmergencyTreatment {
		claim.EmergencyTreatment = true
	}
}

// mergeItems routes items to the billable list or the reference lists
// depending on the source document type.
func mergeItems(claim *models.ClaimRecord, pair ExtractedDocumentPair) {
	doc := pair.Doc
	switch {
	case pair.Type.Billable():
		for _, item := range doc.Items {
			if item.Amount <= 0 {
				continue
			}
			item.SourceDocument = pair.Type
			claim.Items = append(claim.Items, item)
		}
		if doc.TotalAmount > 0 {
			claim.BillTotals[pair.Type] += doc.TotalAmount
		}
	case pair.Type == models.DocPrescription:
		claim.PrescriptionItems = append(claim.PrescriptionItems, doc.Items...)
	default:
		claim.LabItems = append(claim.LabItems, doc.Items...)
	}
}

func sumBillTotals(totals map[models.DocumentType]float64) float64 {
	var sum float64
	for _, v := range totals {
		sum += v
	}
	return sum
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}

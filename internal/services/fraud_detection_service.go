package services

import (
	"fmt"
	"math"

	"claims-service/internal/models"
)

const (
	missingFieldScore     = 0.2
	suspiciousAmountScore = 0.1
	highValueScoreCap     = 0.3
)

// FraudDetector runs the heuristic fraud checks. It is a pure function of the
// policy and claim; indicators are returned, never stored on the detector.
type FraudDetector struct{}

func NewFraudDetector() *FraudDetector {
	return &FraudDetector{}
}

func (d *FraudDetector) Detect(policy *models.PolicyConfig, claim *models.ClaimRecord) models.FraudResult {
	result := models.FraudResult{Indicators: []models.FraudIndicator{}}

	threshold := policy.HighValueThreshold()
	if claim.TotalAmount > threshold {
		score := math.Min(highValueScoreCap, claim.TotalAmount/threshold*0.2)
		result.Indicators = append(result.Indicators, models.FraudIndicator{
			Type:     models.FraudHighValue,
			Severity: string(models.SeverityWarning),
			Message:  fmt.Sprintf("Claim amount %.2f exceeds the high-value threshold %.2f", claim.TotalAmount, threshold),
			Score:    round2(score),
		})
	}

	for _, field := range policy.CriticalFields() {
		if criticalFieldValue(claim, field) == "" {
			result.Indicators = append(result.Indicators, models.FraudIndicator{
				Type:     models.FraudMissingInfo,
				Severity: string(models.SeverityWarning),
				Message:  fmt.Sprintf("Critical field %s is missing", field),
				Score:    missingFieldScore,
			})
		}
	}

	if allRoundAmounts(claim.Items) {
		result.Indicators = append(result.Indicators, models.FraudIndicator{
			Type:     models.FraudSuspiciousAmounts,
			Severity: string(models.SeverityWarning),
			Message:  "All item amounts are round multiples of 1000",
			Score:    suspiciousAmountScore,
		})
	}

	var total float64
	for _, indicator := range result.Indicators {
		total += indicator.Score
	}
	result.FraudScore = round2(clamp01(total))
	result.RequiresManualReview = result.FraudScore > policy.ManualReviewThreshold()
	return result
}

func criticalFieldValue(claim *models.ClaimRecord, field string) string {
	switch field {
	case "doctor_registration":
		return claim.DoctorRegistration
	case "hospital_name":
		return claim.HospitalName
	case "doctor_name":
		return claim.DoctorName
	case "diagnosis":
		return claim.Diagnosis
	case "patient_name":
		return claim.PatientName
	case "treatment_date":
		return claim.TreatmentDate
	}
	return "unknown"
}

// allRoundAmounts is only meaningful with enough items to make the pattern
// suspicious.
func allRoundAmounts(items []models.LineItem) bool {
	if len(items) <= 2 {
		return false
	}
	for _, item := range items {
		if item.Amount <= 0 || math.Mod(item.Amount, 1000) != 0 {
			return false
		}
	}
	return true
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claims-service/internal/models"
)

func indicatorTypes(indicators []models.FraudIndicator) []string {
	types := make([]string, 0, len(indicators))
	for _, indicator := range indicators {
		types = append(types, indicator.Type)
	}
	return types
}

func TestFraud_CleanClaimScoresZero(t *testing.T) {
	result := NewFraudDetector().Detect(testPolicy(), testClaim())

	assert.Equal(t, 0.0, result.FraudScore)
	assert.Empty(t, result.Indicators)
	assert.False(t, result.RequiresManualReview)
}

func TestFraud_HighValueClaim(t *testing.T) {
	claim := testClaim()
	claim.TotalAmount = 30000 // threshold is 25000

	result := NewFraudDetector().Detect(testPolicy(), claim)

	require.Contains(t, indicatorTypes(result.Indicators), models.FraudHighValue)
	assert.InDelta(t, 0.24, result.FraudScore, 0.001, "30000/25000 * 0.2")
	assert.LessOrEqual(t, result.FraudScore, 0.3)
}

func TestFraud_HighValueContributionIsCapped(t *testing.T) {
	claim := testClaim()
	claim.TotalAmount = 500000

	result := NewFraudDetector().Detect(testPolicy(), claim)

	require.Len(t, result.Indicators, 1)
	assert.Equal(t, 0.3, result.Indicators[0].Score)
}

func TestFraud_MissingCriticalFields(t *testing.T) {
	claim := testClaim()
	claim.DoctorRegistration = ""
	claim.HospitalName = ""

	result := NewFraudDetector().Detect(testPolicy(), claim)

	types := indicatorTypes(result.Indicators)
	assert.Equal(t, 2, countOf(types, models.FraudMissingInfo))
	assert.InDelta(t, 0.4, result.FraudScore, 0.001)
}

func TestFraud_AllRoundAmounts(t *testing.T) {
	claim := testClaim()
	claim.Items = []models.LineItem{
		{Description: "Consultation", Category: models.CategoryConsultation, Amount: 1000},
		{Description: "Blood test", Category: models.CategoryDiagnostic, Amount: 2000},
		{Description: "Medication", Category: models.CategoryPharmacy, Amount: 3000},
	}

	result := NewFraudDetector().Detect(testPolicy(), claim)

	assert.Contains(t, indicatorTypes(result.Indicators), models.FraudSuspiciousAmounts)
}

func TestFraud_RoundAmountsNeedMoreThanTwoItems(t *testing.T) {
	claim := testClaim()
	claim.Items = []models.LineItem{
		{Description: "Consultation", Category: models.CategoryConsultation, Amount: 1000},
		{Description: "Blood test", Category: models.CategoryDiagnostic, Amount: 2000},
	}

	result := NewFraudDetector().Detect(testPolicy(), claim)

	assert.NotContains(t, indicatorTypes(result.Indicators), models.FraudSuspiciousAmounts)
}

func TestFraud_ScoreIsClamped(t *testing.T) {
	policy := testPolicy()
	policy.FraudDetection.CriticalFields = []string{
		"doctor_registration", "hospital_name", "doctor_name", "diagnosis", "patient_name",
	}
	claim := testClaim()
	claim.TotalAmount = 500000
	claim.DoctorRegistration = ""
	claim.HospitalName = ""
	claim.DoctorName = ""
	claim.Diagnosis = ""
	claim.PatientName = ""

	result := NewFraudDetector().Detect(policy, claim)

	assert.Equal(t, 1.0, result.FraudScore)
	assert.True(t, result.RequiresManualReview)
}

func countOf(values []string, target string) int {
	count := 0
	for _, v := range values {
		if v == target {
			count++
		}
	}
	return count
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"claims-service/internal/ai/gemini"
	"claims-service/internal/models"
	"claims-service/internal/utils"
)

// GeminiNecessityReviewer implements NecessityReviewer on top of the Gemini
// client pool.
type GeminiNecessityReviewer struct {
	selector *gemini.GeminiClientSelector
}

func NewGeminiNecessityReviewer(selector *gemini.GeminiClientSelector) *GeminiNecessityReviewer {
	return &GeminiNecessityReviewer{selector: selector}
}

func (r *GeminiNecessityReviewer) Review(ctx context.Context, claim *models.ClaimRecord) (*models.NecessityAssessment, error) {
	itemsJSON, err := json.MarshalIndent(claim.Items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling claim items: %w", err)
	}

	age := ""
	if claim.PatientAge > 0 {
		age = strconv.Itoa(claim.PatientAge)
	}
	prompt := gemini.NecessityPrompt(gemini.NecessityPromptInput{
		Diagnosis:           claim.Diagnosis,
		Symptoms:            claim.Symptoms,
		TreatmentSummary:    claim.TreatmentSummary,
		PatientAge:          age,
		PatientGender:       claim.PatientGender,
		EmergencyTreatment:  claim.EmergencyTreatment,
		ItemsJSON:           string(itemsJSON),
		PrescriptionDetails: claim.PrescriptionDetails,
		TestResults:         claim.TestResults,
	})

	var raw map[string]any
	err = r.selector.TryAllClients(func(client *gemini.GeminiClient, _ int) error {
		result, err := client.SendTextJSON(ctx, prompt)
		if err != nil {
			return err
		}
		raw = result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("necessity review request failed: %w", err)
	}

	var assessment models.NecessityAssessment
	if err := utils.FromJSONMap(raw, &assessment); err != nil {
		return nil, fmt.Errorf("decoding necessity assessment: %w", err)
	}
	return &assessment, nil
}

// GeminiTestMatcher implements TestMatcher for near-miss diagnostic test
// descriptions.
type GeminiTestMatcher struct {
	selector *gemini.GeminiClientSelector
}

func NewGeminiTestMatcher(selector *gemini.GeminiClientSelector) *GeminiTestMatcher {
	return &GeminiTestMatcher{selector: selector}
}

func (m *GeminiTestMatcher) MatchesCoveredTest(ctx context.Context, description string, coveredTests []string) (bool, error) {
	prompt := gemini.TestMatchPrompt(description, coveredTests)

	var answer string
	err := m.selector.TryAllClients(func(client *gemini.GeminiClient, _ int) error {
		result, err := client.SendText(ctx, prompt)
		if err != nil {
			return err
		}
		answer = result
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("test match request failed: %w", err)
	}
	return strings.Contains(strings.ToLower(answer), "true"), nil
}

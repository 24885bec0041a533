package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"claims-service/internal/ai/gemini"
	"claims-service/internal/models"
	"claims-service/internal/utils"
)

// ExtractionService reads raw documents with Gemini and returns typed
// extraction records. PDFs are structurally validated before upload.
type ExtractionService struct {
	selector *gemini.GeminiClientSelector
}

func NewExtractionService(selector *gemini.GeminiClientSelector) *ExtractionService {
	return &ExtractionService{selector: selector}
}

// Extract runs one document through field extraction.
func (s *ExtractionService) Extract(ctx context.Context, doc models.DocumentInput, claimDate string) (*models.ExtractedDocument, error) {
	if !doc.Type.IsValid() {
		return nil, malformedInput("unsupported document type %q", string(doc.Type))
	}
	if len(doc.Data) == 0 {
		return nil, malformedInput("document %s is empty", doc.FileName)
	}

	prompt := gemini.ExtractionPrompt(string(doc.Type))
	ext := strings.ToLower(filepath.Ext(doc.FileName))

	var raw map[string]any
	var opErr error
	err := s.selector.TryAllClients(func(client *gemini.GeminiClient, _ int) error {
		switch ext {
		case ".pdf":
			if err := api.Validate(bytes.NewReader(doc.Data), nil); err != nil {
				opErr = malformedInput("document %s is not a readable PDF: %v", doc.FileName, err)
				return nil
			}
			result, err := client.SendWithPDF(ctx, prompt, doc.Data)
			if err != nil {
				return err
			}
			raw = result
		case ".jpg", ".jpeg", ".png", ".gif", ".bmp":
			result, err := client.SendWithImage(ctx, prompt, doc.Data)
			if err != nil {
				return err
			}
			raw = result
		case ".txt", ".text", "":
			result, err := client.SendTextJSON(ctx, prompt+"\n\nDOCUMENT TEXT:\n"+string(doc.Data))
			if err != nil {
				return err
			}
			raw = result
		default:
			opErr = malformedInput("unsupported file extension %q for document %s", ext, doc.FileName)
		}
		return nil
	})
	if opErr != nil {
		return nil, opErr
	}
	if err != nil {
		return nil, collaboratorFailure(err, "extracting %s document %s", doc.Type, doc.FileName)
	}

	return decodeExtraction(raw, claimDate)
}

// ExtractAll fans extraction out per document and returns the records in the
// caller's order. Any single failure fails the batch.
func (s *ExtractionService) ExtractAll(ctx context.Context, docs []models.DocumentInput, claimDate string) ([]ExtractedDocumentPair, error) {
	pairs := make([]ExtractedDocumentPair, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc models.DocumentInput) {
			defer wg.Done()
			extracted, err := s.Extract(ctx, doc, claimDate)
			if err != nil {
				errs[i] = err
				return
			}
			pairs[i] = ExtractedDocumentPair{Type: doc.Type, Doc: extracted}
			slog.Info("document extracted", "document_type", doc.Type, "file_name", doc.FileName)
		}(i, doc)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return pairs, nil
}

// decodeExtraction converts the raw model response into the typed record,
// coercing null amounts and recomputing the total when absent.
func decodeExtraction(raw map[string]any, claimDate string) (*models.ExtractedDocument, error) {
	delete(raw, "claim_id")
	normalizeItemAmounts(raw)

	var doc models.ExtractedDocument
	if err := utils.FromJSONMap(raw, &doc); err != nil {
		return nil, collaboratorFailure(err, "decoding extraction response")
	}
	if doc.TreatmentDate == "" {
		doc.TreatmentDate = claimDate
	}
	if doc.TotalAmount == 0 {
		var sum float64
		for _, item := range doc.Items {
			sum += item.Amount
		}
		doc.TotalAmount = sum
	}
	return &doc, nil
}

// normalizeItemAmounts rewrites null or string numerics inside items so the
// typed decode does not fail on a sloppy model response.
func normalizeItemAmounts(raw map[string]any) {
	items, ok := raw["items"].([]any)
	if !ok {
		return
	}
	for _, entry := range items {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range []string{"amount", "quantity", "unit_price"} {
			switch v := item[key].(type) {
			case nil:
				item[key] = 0.0
			case string:
				var parsed float64
				if _, err := fmt.Sscanf(strings.ReplaceAll(v, ",", ""), "%f", &parsed); err == nil {
					item[key] = parsed
				} else {
					item[key] = 0.0
				}
			}
		}
	}
}

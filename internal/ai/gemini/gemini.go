package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	Client     *genai.Client
	FlashModel *genai.GenerativeModel
	ProModel   *genai.GenerativeModel
}

func NewGenAIClient(apiKey, flashModelName, proModelName string) (*GeminiClient, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}

	return &GeminiClient{
		Client:     client,
		FlashModel: client.GenerativeModel(flashModelName),
		ProModel:   client.GenerativeModel(proModelName),
	}, nil
}

// SendText sends a text-only prompt and returns the raw text response.
func (g *GeminiClient) SendText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.FlashModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return firstTextPart(resp)
}

// SendTextJSON sends a text-only prompt and parses the JSON response.
func (g *GeminiClient) SendTextJSON(ctx context.Context, prompt string) (map[string]any, error) {
	raw, err := g.SendText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseJSONResponse(raw)
}

// SendWithPDF sends a prompt plus a PDF blob and parses the JSON response.
func (g *GeminiClient) SendWithPDF(ctx context.Context, prompt string, pdfData []byte) (map[string]any, error) {
	resp, err := g.ProModel.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{
			MIMEType: "application/pdf",
			Data:     pdfData,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	raw, err := firstTextPart(resp)
	if err != nil {
		return nil, err
	}
	return parseJSONResponse(raw)
}

// SendWithImage sends a prompt plus a single image blob and parses the JSON response.
func (g *GeminiClient) SendWithImage(ctx context.Context, prompt string, imageData []byte) (map[string]any, error) {
	resp, err := g.ProModel.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{
			MIMEType: detectImageMIMEType(imageData),
			Data:     imageData,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with image: %w", err)
	}
	raw, err := firstTextPart(resp)
	if err != nil {
		return nil, err
	}
	return parseJSONResponse(raw)
}

func firstTextPart(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content returned from AI")
	}
	textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("response part is not text, received %T", resp.Candidates[0].Content.Parts[0])
	}
	return string(textPart), nil
}

// parseJSONResponse strips the markdown fence models like to add and decodes.
func parseJSONResponse(aiResponse string) (map[string]any, error) {
	if strings.HasPrefix(aiResponse, "```json") {
		aiResponse = strings.TrimPrefix(aiResponse, "```json\n")
		aiResponse = strings.TrimSuffix(aiResponse, "\n```")
	} else if strings.HasPrefix(aiResponse, "```") {
		aiResponse = strings.TrimPrefix(aiResponse, "```\n")
		aiResponse = strings.TrimSuffix(aiResponse, "\n```")
	}
	aiResponse = strings.TrimSpace(aiResponse)

	var resultMap map[string]any
	err := json.Unmarshal([]byte(aiResponse), &resultMap)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal AI response to JSON: %w. \nRaw response was: %s", err, aiResponse)
	}
	return resultMap, nil
}

// detectImageMIMEType detects the MIME type of an image based on magic bytes
func detectImageMIMEType(data []byte) string {
	if len(data) < 8 {
		return "image/jpeg" // default fallback
	}

	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}

	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}

	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}

	// BMP: 42 4D
	if data[0] == 0x42 && data[1] == 0x4D {
		return "image/bmp"
	}

	return "image/jpeg"
}

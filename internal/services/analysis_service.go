package services

import (
	"context"
	"encoding/json"
	"log"
	"regexp"
	"strings"

	"motormart/internal/models"
)

// extractionPrompt pins the exact JSON shape the model must return. The
// response is still treated as untrusted and validated after parsing.
const extractionPrompt = `
Analyze this car image and extract the following information:
1. Make (manufacturer)
2. Model
3. Year (approximately)
4. Color
5. Body type (SUV, Sedan, Hatchback, etc.)
6. Mileage
7. Fuel type (your best guess)
8. Transmission type (your best guess)
9. Price (your best guess)
10. Short description as to be added to a car listing

Format your response as a clean JSON object with these fields:
{
  "make": "",
  "model": "",
  "year": 0000,
  "color": "",
  "price": "",
  "mileage": "",
  "bodyType": "",
  "fuelType": "",
  "transmission": "",
  "description": "",
  "confidence": 0.0
}

For confidence, provide a value between 0 and 1 representing how confident you are in your overall identification.
Only respond with the JSON object, nothing else.
`

// requiredAttributeKeys must all be present in the parsed response.
var requiredAttributeKeys = []string{
	"make", "model", "year", "color", "price", "mileage",
	"bodyType", "fuelType", "transmission", "description", "confidence",
}

var codeFencePattern = regexp.MustCompile("```(?:json)?\n?")

type AnalysisService interface {
	// AnalyzeCarImage turns one image into structured car attributes.
	// Malformed or incomplete model output yields a failed
	// AnalysisResult; configuration and upstream failures yield an error.
	AnalyzeCarImage(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error)
}

type analysisService struct {
	vision VisionClient
}

func NewAnalysisService(vision VisionClient) AnalysisService {
	return &analysisService{vision: vision}
}

func (s *analysisService) AnalyzeCarImage(ctx context.Context, data []byte, mimeType string) (*models.AnalysisResult, error) {
	text, err := s.vision.AnalyzeImage(ctx, data, mimeType, extractionPrompt)
	if err != nil {
		return nil, err
	}

	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(text, ""))

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		log.Printf("failed to parse AI response: %v", err)
		return &models.AnalysisResult{Success: false, Error: "failed to parse AI response"}, nil
	}

	var missing []string
	for _, key := range requiredAttributeKeys {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &models.AnalysisResult{
			Success: false,
			Error:   "AI response missing required fields: " + strings.Join(missing, ", "),
		}, nil
	}

	attrs := &models.CarAttributes{}
	if err := json.Unmarshal([]byte(cleaned), attrs); err != nil {
		log.Printf("failed to decode AI response fields: %v", err)
		return &models.AnalysisResult{Success: false, Error: "failed to parse AI response"}, nil
	}

	return &models.AnalysisResult{Success: true, Data: attrs}, nil
}

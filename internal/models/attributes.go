package models

import "net/url"

// CarAttributes is the structured record extracted from one car photo.
// Price and mileage stay strings because the model is asked for a best
// guess, not a number it can be held to.
type CarAttributes struct {
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Year         int     `json:"year"`
	Color        string  `json:"color"`
	Price        string  `json:"price"`
	Mileage      string  `json:"mileage"`
	BodyType     string  `json:"bodyType"`
	FuelType     string  `json:"fuelType"`
	Transmission string  `json:"transmission"`
	Description  string  `json:"description"`
	Confidence   float64 `json:"confidence"`
}

// SearchParams derives the exact-match listing filter parameters from the
// extracted attributes. Empty fields are omitted.
func (a *CarAttributes) SearchParams() url.Values {
	params := url.Values{}
	if a.Make != "" {
		params.Set("make", a.Make)
	}
	if a.BodyType != "" {
		params.Set("bodyType", a.BodyType)
	}
	if a.Color != "" {
		params.Set("color", a.Color)
	}
	return params
}

// AnalysisResult is what image analysis hands back to callers. A malformed
// or incomplete model response is a failed result, not an error, so the UI
// can show the message without special-casing.
type AnalysisResult struct {
	Success bool           `json:"success"`
	Data    *CarAttributes `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

package services

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const imagePayloadPrefix = "data:image/"

// imagePayload is one embedded image decoded out of its transport form.
type imagePayload struct {
	data        []byte
	ext         string
	contentType string
}

// parseImagePayload decodes a data-URL image payload
// (data:image/<ext>;base64,<body>). Anything without the embedded-image
// prefix, or with an undecodable body, is rejected.
func parseImagePayload(payload string) (*imagePayload, error) {
	if !strings.HasPrefix(payload, imagePayloadPrefix) {
		return nil, fmt.Errorf("not an embedded image payload")
	}

	header, body, found := strings.Cut(payload, ",")
	if !found || body == "" {
		return nil, fmt.Errorf("embedded image payload has no data")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("embedded image payload is not base64 encoded")
	}

	ext := strings.TrimSuffix(strings.TrimPrefix(header, imagePayloadPrefix), ";base64")
	if ext == "" || strings.ContainsAny(ext, "/\\ ") {
		ext = "jpeg"
	}

	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("decode embedded image payload: %w", err)
	}

	return &imagePayload{
		data:        data,
		ext:         ext,
		contentType: "image/" + ext,
	}, nil
}

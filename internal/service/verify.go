package service

import (
	"context"
	"encoding/base64"
	"strings"

	"unimarket-backend/internal/logger"
)

// minRealImageBytes is the smallest decoded payload we accept as a genuine
// photo. Anything smaller is a placeholder or a probe, not a camera image.
const minRealImageBytes = 1000

type heuristicVerifier struct{}

// NewHeuristicVerifier returns a local RealnessVerifier that screens profile
// images by size and encoding without calling an external service.
func NewHeuristicVerifier() RealnessVerifier {
	return &heuristicVerifier{}
}

func (v *heuristicVerifier) VerifyImageRealness(_ context.Context, imageBase64 string) (bool, error) {
	payload := imageBase64
	if idx := strings.Index(payload, ";base64,"); idx >= 0 {
		payload = payload[idx+len(";base64,"):]
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		logger.Warn("image verification rejected: not valid base64")
		return false, nil
	}
	if len(decoded) < minRealImageBytes {
		logger.Warn("image verification rejected: payload too small", "bytes", len(decoded))
		return false, nil
	}
	return true, nil
}

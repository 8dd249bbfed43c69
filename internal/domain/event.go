package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// AnalysisRequest asks for one hotspot analysis of a sample grid.
type AnalysisRequest struct {
	ID      string   `json:"id"`
	Profile string   `json:"profile"`
	Samples []Sample `json:"samples"`
}

// AnalysisResult is an analysis outcome addressed to the request that produced it.
type AnalysisResult struct {
	RequestID string `json:"request_id"`
	Profile   string `json:"profile"`
	Result
}

// ParseRawRequest deserializes a RawEvent's value into an AnalysisRequest.
// A missing id falls back to the message key.
func ParseRawRequest(raw RawEvent) (AnalysisRequest, error) {
	var req AnalysisRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return AnalysisRequest{}, fmt.Errorf("parse analysis request: %w", err)
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if req.Profile == "" {
		return AnalysisRequest{}, errors.New("parse analysis request: profile is required")
	}
	return req, nil
}

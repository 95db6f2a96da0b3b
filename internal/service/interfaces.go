// Package service defines the contracts between the transport, domain
// service, and session layers.
package service

import (
	"context"

	"github.com/Veraticus/stocklens/internal/model"
)

// Transport performs a single bounded call against the analysis backend.
// The response body is decoded into out when out is non-nil. Every failure
// is a *common.APIError.
type Transport interface {
	Call(ctx context.Context, method, endpoint string, body, out any) error
}

// Analyzer requests a fresh analysis for a ticker.
type Analyzer interface {
	RequestAnalysis(ctx context.Context, ticker string, depth model.Depth) (model.AnalysisResult, error)
}

// Chatter asks a follow-up question about a previously returned result.
type Chatter interface {
	SendChatMessage(ctx context.Context, resultID, question string) (model.ChatReply, error)
}

// HealthChecker probes backend availability.
type HealthChecker interface {
	Health(ctx context.Context) (model.Health, error)
}

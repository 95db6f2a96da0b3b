package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/stocklens/internal/common"
	"github.com/Veraticus/stocklens/internal/journal"
	"github.com/Veraticus/stocklens/internal/model"
	"github.com/Veraticus/stocklens/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func sampleResult() model.AnalysisResult {
	return model.AnalysisResult{
		ResultID: "R1",
		Ticker:   "AAPL",
		Recommendation: model.Recommendation{
			Stance:        model.StanceBuy,
			Confidence:    82,
			Reasoning:     "Strong services growth",
			Opportunities: []string{"Services", "Emerging markets"},
			Risks:         []string{"Regulation"},
			TargetPrice:   decimal.RequireFromString("215.5"),
		},
	}
}

func TestRenderRecommendation(t *testing.T) {
	out := RenderRecommendation(sampleResult())

	for _, want := range []string{"AAPL", "BUY", "Confidence 82%", "Strong services growth",
		"Opportunities", "Services", "Emerging markets", "Risks", "Regulation",
		"$215.50", "n/a", "result R1"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderRecommendation_OmitsEmptySections(t *testing.T) {
	result := sampleResult()
	result.Recommendation.Opportunities = nil
	result.Recommendation.Risks = nil
	result.Recommendation.TargetPrice = decimal.Zero

	out := RenderRecommendation(result)
	assert.NotContains(t, out, "Opportunities")
	assert.NotContains(t, out, "Risks")
	assert.NotContains(t, out, "Stop loss")
}

func TestRenderTranscript(t *testing.T) {
	out := RenderTranscript([]model.ChatTurn{
		{Role: model.RoleUser, Text: "Why buy?"},
		{Role: model.RoleAssistant, Text: "Momentum."},
	})
	assert.Contains(t, out, "You: ")
	assert.Contains(t, out, "Why buy?")
	assert.Contains(t, out, "Momentum.")
	assert.Less(t, strings.Index(out, "Why buy?"), strings.Index(out, "Momentum."))

	assert.Empty(t, RenderTranscript(nil))
}

func TestRenderStaleWarning(t *testing.T) {
	result := sampleResult()

	assert.Empty(t, RenderStaleWarning(session.Snapshot{Result: &result}))

	out := RenderStaleWarning(session.Snapshot{
		Result: &result,
		Ticker: "TSLA",
		Err:    errors.New("boom"),
	})
	assert.Contains(t, out, "TSLA failed")
	assert.Contains(t, out, "earlier result for AAPL")
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "timeout", err: common.NewTimeoutError(context.DeadlineExceeded), want: "Request timeout"},
		{name: "network", err: common.NewNetworkError(errors.New("connection refused")), want: "Cannot reach the analysis backend"},
		{name: "http", err: common.NewHTTPError(404, "Ticker not found", nil), want: "Ticker not found"},
		{name: "wrapped http", err: fmt.Errorf("analyze: %w", common.NewHTTPError(500, "", nil)), want: "HTTP error! status: 500"},
		{name: "user", err: common.NewUserError("Pick a ticker first", errors.New("x")), want: "Pick a ticker first"},
		{name: "plain", err: errors.New("plain failure"), want: "plain failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DescribeError(tt.err)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestRenderHealth(t *testing.T) {
	out := RenderHealth(model.Health{Status: "healthy", Version: "1.0.0", JacEnabled: true})
	assert.Contains(t, out, "backend healthy")
	assert.Contains(t, out, "version 1.0.0")
	assert.Contains(t, out, "agents enabled")

	out = RenderHealth(model.Health{Status: "degraded"})
	assert.Contains(t, out, "backend degraded")
}

func TestRenderJournal(t *testing.T) {
	assert.Contains(t, RenderJournal(nil), "No journal entries")

	out := RenderJournal([]journal.Entry{
		{
			RecordedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			State:      "failed",
			Ticker:     "TSLA",
			Depth:      "quick",
			ResultID:   "R1",
			ErrorKind:  "http",
			Error:      "Analysis failed",
		},
		{State: "ready", Ticker: "AAPL", ResultID: "R1"},
	})

	for _, want := range []string{"STATE", "TICKER", "failed", "TSLA", "http: Analysis failed", "ready", "AAPL"} {
		assert.Contains(t, out, want)
	}
}

package model

import (
	"encoding/json"
	"testing"

	"github.com/Veraticus/stocklens/internal/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDepth(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Depth
		wantErr bool
	}{
		{name: "empty defaults to quick", input: "", want: DepthQuick},
		{name: "quick", input: "quick", want: DepthQuick},
		{name: "mixed case standard", input: " Standard ", want: DepthStandard},
		{name: "comprehensive", input: "COMPREHENSIVE", want: DepthComprehensive},
		{name: "unknown", input: "deep", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDepth(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrPreconditionFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewAnalysisRequest(t *testing.T) {
	req, err := NewAnalysisRequest("  aapl ", "")
	require.NoError(t, err)
	assert.Equal(t, AnalysisRequest{Ticker: "AAPL", Depth: DepthQuick}, req)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ticker":"AAPL","depth":"quick"}`, string(data))

	_, err = NewAnalysisRequest("   ", DepthQuick)
	assert.ErrorIs(t, err, common.ErrPreconditionFailed)

	_, err = NewAnalysisRequest("MSFT", Depth("turbo"))
	assert.ErrorIs(t, err, common.ErrPreconditionFailed)
}

const recommendationJSON = `{
	"id": "rec-1",
	"context": {
		"recommendation": "BUY",
		"confidence_score": 82.5,
		"reasoning": "Strong services growth",
		"key_risks": ["Regulatory pressure", "China exposure"],
		"key_opportunities": ["AI features", "Buybacks"],
		"target_price": 245.5,
		"stop_loss": 190
	}
}`

func TestRecommendation_WireRoundTrip(t *testing.T) {
	var rec Recommendation
	require.NoError(t, json.Unmarshal([]byte(recommendationJSON), &rec))

	want := Recommendation{
		ID:            "rec-1",
		Stance:        StanceBuy,
		Confidence:    82.5,
		Reasoning:     "Strong services growth",
		Risks:         []string{"Regulatory pressure", "China exposure"},
		Opportunities: []string{"AI features", "Buybacks"},
		TargetPrice:   decimal.RequireFromString("245.5"),
		StopLoss:      decimal.RequireFromString("190"),
	}
	assert.Equal(t, want, rec)

	encoded, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, recommendationJSON, string(encoded))
}

func TestRecommendation_CloneIsIndependent(t *testing.T) {
	original := Recommendation{Risks: []string{"a"}, Opportunities: []string{"b"}}
	clone := original.Clone()
	clone.Risks[0] = "changed"
	clone.Opportunities[0] = "changed"

	assert.Equal(t, "a", original.Risks[0])
	assert.Equal(t, "b", original.Opportunities[0])
}

func TestAnalysisResult_Decode(t *testing.T) {
	body := `{"result_id":"R1","ticker":"AAPL","final_recommendation":` + recommendationJSON + `}`

	var result AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.Equal(t, "R1", result.ResultID)
	assert.Equal(t, "AAPL", result.Ticker)
	assert.Equal(t, StanceBuy, result.Recommendation.Stance)
	assert.Equal(t, []string{"AI features", "Buybacks"}, result.Recommendation.Opportunities)
}

package model

import (
	"fmt"
	"strings"

	"github.com/Veraticus/stocklens/internal/common"
)

// Depth is the requested thoroughness tier of an analysis.
type Depth string

// Analysis depths understood by the backend.
const (
	DepthQuick         Depth = "quick"
	DepthStandard      Depth = "standard"
	DepthComprehensive Depth = "comprehensive"
)

// Depths lists every valid depth, cheapest first.
var Depths = []Depth{DepthQuick, DepthStandard, DepthComprehensive}

// ParseDepth normalizes a user-supplied depth. Empty input means quick.
func ParseDepth(s string) (Depth, error) {
	d := Depth(strings.ToLower(strings.TrimSpace(s)))
	if d == "" {
		return DepthQuick, nil
	}
	if !d.Valid() {
		return "", common.NewPreconditionError(fmt.Sprintf("invalid depth %q: use quick, standard, or comprehensive", s))
	}
	return d, nil
}

// Valid reports whether d is one of the known depths.
func (d Depth) Valid() bool {
	switch d {
	case DepthQuick, DepthStandard, DepthComprehensive:
		return true
	default:
		return false
	}
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// AnalysisRequest is the payload posted to the analysis endpoint.
type AnalysisRequest struct {
	Ticker string `json:"ticker"`
	Depth  Depth  `json:"depth"`
}

// NewAnalysisRequest builds a normalized request, rejecting empty tickers
// and unknown depths.
func NewAnalysisRequest(ticker string, depth Depth) (AnalysisRequest, error) {
	symbol := NormalizeTicker(ticker)
	if symbol == "" {
		return AnalysisRequest{}, common.NewPreconditionError("ticker is required")
	}

	d, err := ParseDepth(string(depth))
	if err != nil {
		return AnalysisRequest{}, err
	}

	return AnalysisRequest{Ticker: symbol, Depth: d}, nil
}

// AnalysisResult binds a recommendation to the backend-minted result id that
// follow-up chat calls must reference.
type AnalysisResult struct {
	ResultID       string         `json:"result_id"`
	Ticker         string         `json:"ticker"`
	Recommendation Recommendation `json:"final_recommendation"`
}

// Clone returns a deep copy of the result.
func (r AnalysisResult) Clone() AnalysisResult {
	r.Recommendation = r.Recommendation.Clone()
	return r
}

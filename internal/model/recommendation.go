package model

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Stance is the direction of an investment recommendation.
type Stance string

// Recommendation stances.
const (
	StanceBuy  Stance = "BUY"
	StanceSell Stance = "SELL"
	StanceHold Stance = "HOLD"
)

// Recommendation is the structured outcome of a successful analysis. It is
// never mutated locally; a new analysis replaces it wholesale.
type Recommendation struct {
	ID            string
	Stance        Stance
	Reasoning     string
	Opportunities []string
	Risks         []string
	TargetPrice   decimal.Decimal
	StopLoss      decimal.Decimal
	Confidence    float64
}

// recommendationWire is the backend representation, with the analysis
// fields nested under "context".
type recommendationWire struct {
	ID      string                `json:"id"`
	Context recommendationContext `json:"context"`
}

type recommendationContext struct {
	Recommendation   Stance      `json:"recommendation"`
	Reasoning        string      `json:"reasoning"`
	KeyRisks         []string    `json:"key_risks"`
	KeyOpportunities []string    `json:"key_opportunities"`
	TargetPrice      json.Number `json:"target_price"`
	StopLoss         json.Number `json:"stop_loss"`
	ConfidenceScore  float64     `json:"confidence_score"`
}

// MarshalJSON encodes the recommendation in its wire shape.
func (r Recommendation) MarshalJSON() ([]byte, error) {
	return json.Marshal(recommendationWire{
		ID: r.ID,
		Context: recommendationContext{
			Recommendation:   r.Stance,
			ConfidenceScore:  r.Confidence,
			Reasoning:        r.Reasoning,
			KeyRisks:         r.Risks,
			KeyOpportunities: r.Opportunities,
			TargetPrice:      json.Number(r.TargetPrice.String()),
			StopLoss:         json.Number(r.StopLoss.String()),
		},
	})
}

// UnmarshalJSON decodes the wire shape.
func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var wire recommendationWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	target, err := parsePrice(wire.Context.TargetPrice)
	if err != nil {
		return fmt.Errorf("decoding target_price: %w", err)
	}
	stop, err := parsePrice(wire.Context.StopLoss)
	if err != nil {
		return fmt.Errorf("decoding stop_loss: %w", err)
	}

	*r = Recommendation{
		ID:            wire.ID,
		Stance:        wire.Context.Recommendation,
		Confidence:    wire.Context.ConfidenceScore,
		Reasoning:     wire.Context.Reasoning,
		Risks:         wire.Context.KeyRisks,
		Opportunities: wire.Context.KeyOpportunities,
		TargetPrice:   target,
		StopLoss:      stop,
	}
	return nil
}

// parsePrice keeps the backend's decimal digits exactly. A missing price is
// zero.
func parsePrice(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Decimal{}, nil
	}
	return decimal.NewFromString(n.String())
}

// Clone returns a deep copy so callers never share slices with the store.
func (r Recommendation) Clone() Recommendation {
	r.Opportunities = slices.Clone(r.Opportunities)
	r.Risks = slices.Clone(r.Risks)
	return r
}

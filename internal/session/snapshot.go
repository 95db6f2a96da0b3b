package session

import (
	"slices"

	"github.com/Veraticus/stocklens/internal/model"
)

// State is the projection of a snapshot onto the session lifecycle.
type State string

// Session lifecycle states.
const (
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
	StateReady     State = "ready"
	StateFailed    State = "failed"
)

// Snapshot is an immutable view of the session. Result and Err may both be
// set: the result is then stale, left over from an earlier success. Loading
// takes precedence over both.
type Snapshot struct {
	Result     *model.AnalysisResult
	Err        error
	ChatErr    error
	Ticker     string
	Depth      model.Depth
	Transcript []model.ChatTurn
	Version    uint64
	Loading    bool
	Chatting   bool
}

// State returns the active lifecycle state.
func (s Snapshot) State() State {
	switch {
	case s.Loading:
		return StateAnalyzing
	case s.Err != nil:
		return StateFailed
	case s.Result != nil:
		return StateReady
	default:
		return StateIdle
	}
}

// Stale reports whether the held result predates a failed analysis.
func (s Snapshot) Stale() bool {
	return s.Result != nil && s.Err != nil
}

// ResultID returns the id chat calls are bound to, or "".
func (s Snapshot) ResultID() string {
	if s.Result == nil {
		return ""
	}
	return s.Result.ResultID
}

func (s Snapshot) clone() Snapshot {
	if s.Result != nil {
		r := s.Result.Clone()
		s.Result = &r
	}
	s.Transcript = slices.Clone(s.Transcript)
	return s
}

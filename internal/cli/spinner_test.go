package cli

import (
	"testing"
	"time"

	"github.com/Veraticus/stocklens/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestSpinner_StartStop(t *testing.T) {
	output := &syncBuffer{}
	sp := NewSpinner(output)

	sp.Stop()
	assert.False(t, sp.Running())

	sp.Start("Analyzing AAPL")
	sp.Start("ignored while running")
	assert.True(t, sp.Running())

	time.Sleep(3 * spinnerInterval)
	sp.Stop()
	sp.Stop()
	assert.False(t, sp.Running())
	assert.NotEmpty(t, output.String())

	sp.Start("again")
	assert.True(t, sp.Running())
	sp.Stop()
}

// fakeSource replays snapshots to the registered subscriber on demand.
type fakeSource struct {
	fn           func(session.Snapshot)
	unsubscribed bool
}

func (f *fakeSource) Subscribe(fn func(session.Snapshot)) func() {
	f.fn = fn
	fn(session.Snapshot{})
	return func() { f.unsubscribed = true }
}

func TestFollowLoading(t *testing.T) {
	src := &fakeSource{}
	sp := NewSpinner(&syncBuffer{})

	detach := FollowLoading(src, sp)
	assert.False(t, sp.Running())

	src.fn(session.Snapshot{Loading: true, Ticker: "AAPL"})
	assert.True(t, sp.Running())

	src.fn(session.Snapshot{Ticker: "AAPL"})
	assert.False(t, sp.Running())

	src.fn(session.Snapshot{Loading: true, Ticker: "TSLA"})
	detach()
	assert.False(t, sp.Running())
	assert.True(t, src.unsubscribed)
}

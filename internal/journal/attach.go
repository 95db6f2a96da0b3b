package journal

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/stocklens/internal/common"
	"github.com/Veraticus/stocklens/internal/session"
)

const recordTimeout = 5 * time.Second

// Source is anything that publishes session snapshots.
type Source interface {
	Subscribe(fn func(session.Snapshot)) (unsubscribe func())
}

type transitionKey struct {
	state     session.State
	ticker    string
	resultID  string
	errorKind string
}

func keyOf(s session.Snapshot) transitionKey {
	return transitionKey{
		state:     s.State(),
		ticker:    s.Ticker,
		resultID:  s.ResultID(),
		errorKind: common.KindOf(s.Err),
	}
}

// Attach records every lifecycle transition published by src until the
// returned detach function is called. The state at attach time is the
// baseline and is not recorded. Chat activity does not count as a
// transition.
func (j *Journal) Attach(src Source) (detach func()) {
	var (
		mu   sync.Mutex
		last transitionKey
		seen bool
	)

	return src.Subscribe(func(snap session.Snapshot) {
		key := keyOf(snap)

		mu.Lock()
		if seen && key == last {
			mu.Unlock()
			return
		}
		first := !seen
		seen = true
		last = key
		mu.Unlock()

		if first {
			return
		}

		entry := Entry{
			State:     string(key.state),
			Ticker:    snap.Ticker,
			Depth:     string(snap.Depth),
			ResultID:  key.resultID,
			ErrorKind: key.errorKind,
			Version:   snap.Version,
		}
		if snap.Err != nil {
			entry.Error = snap.Err.Error()
		}

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := j.Record(ctx, entry); err != nil {
			j.logger.Warn("Failed to journal session transition",
				"state", entry.State,
				"ticker", entry.Ticker,
				"error", err)
		}
	})
}

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/stocklens/internal/session"
	"github.com/schollz/progressbar/v3"
)

const spinnerInterval = 100 * time.Millisecond

// Spinner is an indeterminate progress indicator shown while an analysis is
// loading. Start and Stop may be called repeatedly and concurrently.
type Spinner struct {
	writer  io.Writer
	bar     *progressbar.ProgressBar
	done    chan struct{}
	stopped chan struct{}
	mu      sync.Mutex
}

// NewSpinner creates a stopped spinner that draws to w.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{writer: w}
}

// Start shows the spinner with description. It is a no-op if already running.
func (s *Spinner) Start(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		return
	}

	s.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(s.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]%s[reset]", description)),
	)
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	bar, done, stopped := s.bar, s.done, s.stopped
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := bar.Add(1); err != nil {
					slog.Debug("Failed to update spinner", "error", err)
				}
			}
		}
	}()
}

// Stop hides the spinner. It is a no-op if not running.
func (s *Spinner) Stop() {
	s.mu.Lock()
	bar, done, stopped := s.bar, s.done, s.stopped
	s.bar, s.done, s.stopped = nil, nil, nil
	s.mu.Unlock()

	if bar == nil {
		return
	}
	close(done)
	<-stopped
	if err := bar.Finish(); err != nil {
		slog.Debug("Failed to finish spinner", "error", err)
	}
}

// Running reports whether the spinner is shown.
func (s *Spinner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bar != nil
}

// LoadingSource publishes session snapshots.
type LoadingSource interface {
	Subscribe(fn func(session.Snapshot)) (unsubscribe func())
}

// FollowLoading runs sp while src reports an analysis in flight. The returned
// function detaches and stops the spinner.
func FollowLoading(src LoadingSource, sp *Spinner) (detach func()) {
	unsubscribe := src.Subscribe(func(snap session.Snapshot) {
		if snap.Loading {
			sp.Start(fmt.Sprintf("Analyzing %s (%s)...", snap.Ticker, snap.Depth))
			return
		}
		sp.Stop()
	})
	return func() {
		unsubscribe()
		sp.Stop()
	}
}

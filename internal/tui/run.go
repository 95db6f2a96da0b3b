package tui

import (
	"context"
	"fmt"

	"github.com/Veraticus/stocklens/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the interactive screen on store and blocks until the user quits
// or ctx is canceled.
func Run(ctx context.Context, store Controller, opts ...Option) error {
	if store == nil {
		return fmt.Errorf("session store is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	snapshots, unsubscribe := subscribeLatest(store)
	defer unsubscribe()

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	p := tea.NewProgram(newModel(ctx, store, snapshots, cfg), programOpts...)
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// subscribeLatest bridges store callbacks onto a channel that always holds
// the newest snapshot. Older undelivered snapshots are dropped so the
// callback never blocks the store.
func subscribeLatest(store Controller) (<-chan session.Snapshot, func()) {
	ch := make(chan session.Snapshot, 1)
	unsubscribe := store.Subscribe(func(snap session.Snapshot) {
		for {
			select {
			case ch <- snap:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})
	return ch, unsubscribe
}

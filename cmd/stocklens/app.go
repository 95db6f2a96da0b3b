package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/stocklens/internal/analysis"
	"github.com/Veraticus/stocklens/internal/config"
	"github.com/Veraticus/stocklens/internal/journal"
	"github.com/Veraticus/stocklens/internal/session"
	"github.com/Veraticus/stocklens/internal/transport"
)

// app is the wired object graph shared by commands.
type app struct {
	service *analysis.Service
	store   *session.Store
	journal *journal.Journal
	detach  func()
	cfg     config.Config
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client, err := transport.New(cfg.BaseURL,
		transport.WithTimeout(cfg.Timeout),
		transport.WithLogger(slog.Default()),
		transport.WithUserAgent("stocklens/"+version),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	svc, err := analysis.New(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis service: %w", err)
	}

	store, err := session.New(svc, svc,
		session.WithLogger(slog.Default()),
		session.WithRetry(cfg.Retry),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	a := &app{
		cfg:     cfg,
		service: svc,
		store:   store,
	}

	if cfg.JournalPath != "" {
		j, err := openJournal(ctx, cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		a.journal = j
		a.detach = j.Attach(store)
		slog.Debug("Journal attached", "path", cfg.JournalPath)
	}

	return a, nil
}

func openJournal(ctx context.Context, path string) (*journal.Journal, error) {
	j, err := journal.Open(path, journal.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := j.Migrate(ctx); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return j, nil
}

// Close detaches and closes the journal, if any.
func (a *app) Close() error {
	var errs []error
	if a.detach != nil {
		a.detach()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close journal: %w", err))
		}
	}
	return errors.Join(errs...)
}

package main

import (
	"fmt"

	"github.com/Veraticus/stocklens/internal/cli"
	"github.com/Veraticus/stocklens/internal/common"
	"github.com/Veraticus/stocklens/internal/journal"
	"github.com/spf13/cobra"
)

func journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent session transitions",
		Long: `List recorded analysis lifecycle transitions, newest first.

The journal is off unless journal.path (or STOCKLENS_JOURNAL_PATH) is set.
It stores states, tickers, result ids and error kinds only.`,
		Args: cobra.NoArgs,
		RunE: runJournal,
	}
	cmd.Flags().IntP("limit", "n", journal.DefaultLimit, "number of entries to show")
	return cmd
}

func runJournal(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.JournalPath == "" {
		return common.NewUserError("The journal is disabled. Set journal.path or STOCKLENS_JOURNAL_PATH to enable it.", nil)
	}

	j, err := openJournal(cmd.Context(), cfg.JournalPath)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	entries, err := j.Recent(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	if _, err := fmt.Fprintln(cmd.OutOrStdout(), cli.RenderJournal(entries)); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}
	return nil
}

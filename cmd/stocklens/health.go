package main

import (
	"encoding/json"
	"fmt"

	"github.com/Veraticus/stocklens/internal/cli"
	"github.com/Veraticus/stocklens/internal/common"
	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the analysis backend is reachable",
		Args:  cobra.NoArgs,
		RunE:  runHealth,
	}
	cmd.Flags().Bool("json", false, "print the raw health report as JSON")
	return cmd
}

func runHealth(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	health, err := a.service.Health(cmd.Context())
	if err != nil {
		return common.NewUserError(fmt.Sprintf("Backend at %s is unreachable: %s", a.cfg.BaseURL, cli.DescribeError(err)), err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(health); err != nil {
			return fmt.Errorf("failed to encode health: %w", err)
		}
	} else if _, err := fmt.Fprintln(out, cli.RenderHealth(health)); err != nil {
		return fmt.Errorf("failed to write health: %w", err)
	}

	if !health.Healthy() {
		return common.NewUserError(fmt.Sprintf("Backend reports status %q", health.Status), nil)
	}
	return nil
}

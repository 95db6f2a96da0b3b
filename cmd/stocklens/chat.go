package main

import (
	"log/slog"

	"github.com/Veraticus/stocklens/internal/cli"
	"github.com/Veraticus/stocklens/internal/common"
	"github.com/Veraticus/stocklens/internal/model"
	"github.com/Veraticus/stocklens/internal/tui"
	"github.com/Veraticus/stocklens/internal/tui/themes"
	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [TICKER]",
		Short: "Open the interactive analysis and chat screen",
		Long: `Open an interactive session. If TICKER is given, its analysis starts
immediately. Type /analyze TICKER [depth] to switch tickers, /reset to clear,
/quit to leave; anything else is a question about the current result.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().StringP("depth", "d", string(model.DepthQuick), "depth for the initial analysis")
	cmd.Flags().String("theme", "default", "color theme (default, catppuccin-mocha)")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	depthFlag, _ := cmd.Flags().GetString("depth")
	themeName, _ := cmd.Flags().GetString("theme")

	depth, err := model.ParseDepth(depthFlag)
	if err != nil {
		return common.NewUserError(cli.DescribeError(err), err)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("Failed to close app", "error", closeErr)
		}
	}()

	opts := []tui.Option{tui.WithTheme(themes.GetTheme(themeName))}
	if len(args) == 1 {
		opts = append(opts, tui.WithInitialAnalysis(args[0], depth))
	}

	return tui.Run(ctx, a.store, opts...)
}

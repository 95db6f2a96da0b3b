package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Veraticus/stocklens/internal/cli"
	"github.com/Veraticus/stocklens/internal/common"
	"github.com/Veraticus/stocklens/internal/model"
	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze TICKER",
		Short: "Request a recommendation for a ticker",
		Long: `Run a multi-agent analysis of TICKER and print the recommendation.

Each --ask question is sent as a follow-up about the returned result, in order.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringP("depth", "d", string(model.DepthQuick), "analysis depth (quick, standard, comprehensive)")
	cmd.Flags().StringArrayP("ask", "a", nil, "follow-up question about the result (repeatable)")
	cmd.Flags().Bool("json", false, "print the result and transcript as JSON")

	return cmd
}

type analyzeOutput struct {
	Result     model.AnalysisResult `json:"result"`
	Transcript []model.ChatTurn     `json:"transcript,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	depthFlag, _ := cmd.Flags().GetString("depth")
	questions, _ := cmd.Flags().GetStringArray("ask")
	asJSON, _ := cmd.Flags().GetBool("json")

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

	if !asJSON {
		detach := cli.FollowLoading(a.store, cli.NewSpinner(cmd.ErrOrStderr()))
		defer detach()
	}

	result, err := a.store.Analyze(ctx, args[0], depth)
	if err != nil {
		return common.NewUserError(fmt.Sprintf("Analysis of %s failed: %s", model.NormalizeTicker(args[0]), cli.DescribeError(err)), err)
	}

	for _, q := range questions {
		if _, err := a.store.Chat(ctx, q); err != nil {
			return common.NewUserError(fmt.Sprintf("Follow-up %q failed: %s", q, cli.DescribeError(err)), err)
		}
	}

	out := cmd.OutOrStdout()
	snap := a.store.Snapshot()

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(analyzeOutput{Result: result, Transcript: snap.Transcript})
	}

	if _, err := fmt.Fprintln(out, cli.RenderRecommendation(result)); err != nil {
		return fmt.Errorf("failed to write recommendation: %w", err)
	}
	if len(snap.Transcript) > 0 {
		if _, err := fmt.Fprintln(out, cli.RenderTranscript(snap.Transcript)); err != nil {
			return fmt.Errorf("failed to write transcript: %w", err)
		}
	}
	return nil
}

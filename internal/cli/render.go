package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/stocklens/internal/common"
	"github.com/Veraticus/stocklens/internal/journal"
	"github.com/Veraticus/stocklens/internal/model"
	"github.com/Veraticus/stocklens/internal/session"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04:05"

// RenderRecommendation renders an analysis result as a boxed card.
func RenderRecommendation(result model.AnalysisResult) string {
	rec := result.Recommendation

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n",
		StanceStyle(rec.Stance).Render(string(rec.Stance)),
		BoldStyle.Render(fmt.Sprintf("Confidence %.0f%%", rec.Confidence)))

	if rec.TargetPrice.IsPositive() || rec.StopLoss.IsPositive() {
		fmt.Fprintf(&b, "Target %s   Stop loss %s\n\n", formatPrice(rec.TargetPrice), formatPrice(rec.StopLoss))
	}

	if rec.Reasoning != "" {
		b.WriteString(rec.Reasoning)
		b.WriteString("\n")
	}

	writeList(&b, "Opportunities", SuccessStyle, rec.Opportunities)
	writeList(&b, "Risks", ErrorStyle, rec.Risks)

	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render("result " + result.ResultID))

	return RenderBox(ChartIcon+" "+result.Ticker, strings.TrimRight(b.String(), "\n"))
}

func writeList(b *strings.Builder, title string, style lipgloss.Style, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(style.Render(title))
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("  • ")
		b.WriteString(item)
		b.WriteString("\n")
	}
}

func formatPrice(p decimal.Decimal) string {
	if !p.IsPositive() {
		return "n/a"
	}
	return "$" + p.StringFixed(2)
}

// RenderTranscript renders chat turns in order.
func RenderTranscript(turns []model.ChatTurn) string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case model.RoleUser:
			lines = append(lines, UserStyle.Render("You: ")+turn.Text)
		default:
			lines = append(lines, AssistantStyle.Render(ChatIcon+" ")+turn.Text)
		}
	}
	return strings.Join(lines, "\n")
}

// RenderStaleWarning explains that the visible result predates a failure.
func RenderStaleWarning(snap session.Snapshot) string {
	if !snap.Stale() {
		return ""
	}
	return FormatWarning(fmt.Sprintf("Analysis of %s failed; showing the earlier result for %s.",
		snap.Ticker, snap.Result.Ticker))
}

// DescribeError turns an error into a one-line message for the terminal.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}

	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch {
		case errors.Is(err, common.ErrTimeout):
			return "Request timeout: the backend did not answer in time."
		case errors.Is(err, common.ErrNetwork):
			return "Cannot reach the analysis backend: " + apiErr.Error()
		default:
			return apiErr.Error()
		}
	}

	return err.Error()
}

// RenderHealth renders a health probe result.
func RenderHealth(h model.Health) string {
	status := FormatError("backend " + h.Status)
	if h.Healthy() {
		status = FormatSuccess("backend healthy")
	}

	details := []string{status}
	if h.Version != "" {
		details = append(details, SubtleStyle.Render("version "+h.Version))
	}
	if h.Timestamp != "" {
		details = append(details, SubtleStyle.Render("at "+h.Timestamp))
	}
	if h.JacEnabled {
		details = append(details, SubtleStyle.Render("agents enabled"))
	}
	return strings.Join(details, "  ")
}

// RenderJournal renders journal entries as a table, newest first.
func RenderJournal(entries []journal.Entry) string {
	if len(entries) == 0 {
		return SubtleStyle.Render("No journal entries yet.")
	}

	headers := []string{"TIME", "STATE", "TICKER", "DEPTH", "RESULT", "ERROR"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		errText := e.ErrorKind
		if e.Error != "" {
			errText = e.ErrorKind + ": " + e.Error
		}
		rows = append(rows, []string{
			e.RecordedAt.Local().Format(timeLayout),
			e.State,
			e.Ticker,
			e.Depth,
			e.ResultID,
			errText,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	b.WriteString(renderRow(headers, widths, TableHeaderStyle))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(renderRow(row, widths, TableCellStyle))
	}
	return b.String()
}

func renderRow(cells []string, widths []int, style lipgloss.Style) string {
	rendered := make([]string, len(cells))
	for i, cell := range cells {
		rendered[i] = style.Width(widths[i] + 2).Render(cell)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/stocklens/internal/cli"
	"github.com/Veraticus/stocklens/internal/session"
	"github.com/charmbracelet/lipgloss"
)

const helpText = `/analyze TICKER [quick|standard|comprehensive]  run a new analysis
/reset                                          clear the session
/quit                                           leave
anything else                                   ask about the current result`

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.theme.Title.Render(cli.ChartIcon + " stocklens"),
		m.renderStatus(),
	}

	if m.snap.Result != nil {
		sections = append(sections, cli.RenderRecommendation(*m.snap.Result))
	}
	if warning := cli.RenderStaleWarning(m.snap); warning != "" {
		sections = append(sections, warning)
	}
	if transcript := m.renderTranscript(); transcript != "" {
		sections = append(sections, transcript)
	}
	if m.snap.ChatErr != nil {
		sections = append(sections, m.theme.StatusError.Render("Chat failed: "+cli.DescribeError(m.snap.ChatErr)))
	}
	if m.notice != "" {
		sections = append(sections, m.theme.StatusWarning.Render(m.notice))
	}

	sections = append(sections, m.input.View())
	if m.showHelp {
		sections = append(sections, m.theme.Subtitle.Render(helpText))
	}
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStatus() string {
	switch m.snap.State() {
	case session.StateAnalyzing:
		return fmt.Sprintf("%s %s", m.spinner.View(),
			m.theme.StatusPending.Render(fmt.Sprintf("Analyzing %s (%s)...", m.snap.Ticker, m.snap.Depth)))
	case session.StateFailed:
		return m.theme.StatusError.Render(cli.ErrorIcon + " " + cli.DescribeError(m.snap.Err))
	case session.StateReady:
		return m.theme.StatusSuccess.Render(fmt.Sprintf("%s %s ready", cli.SuccessIcon, m.snap.Ticker))
	default:
		return m.theme.StatusInfo.Render("Type /analyze TICKER to begin.")
	}
}

func (m Model) renderTranscript() string {
	if len(m.snap.Transcript) == 0 && !m.snap.Chatting {
		return ""
	}

	var b strings.Builder
	b.WriteString(cli.RenderTranscript(m.snap.Transcript))
	if m.snap.Chatting {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.theme.StatusPending.Render("thinking..."))
	}
	return m.theme.RoundedBox.Render(b.String())
}

func (m Model) renderFooter() string {
	bindings := m.keymap.ShortHelp()
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.theme.Subtitle.Render(strings.Join(parts, " • "))
}

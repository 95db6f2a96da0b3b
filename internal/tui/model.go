// Package tui implements the interactive analysis and chat screen. It is a
// subscriber of the session store: every render reflects the latest
// snapshot, and store operations run as commands so the UI never blocks.
package tui

import (
	"context"
	"errors"

	"github.com/Veraticus/stocklens/internal/cli"
	"github.com/Veraticus/stocklens/internal/common"
	"github.com/Veraticus/stocklens/internal/session"
	"github.com/Veraticus/stocklens/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Model holds the TUI state.
type Model struct {
	ctx       context.Context
	store     Controller
	snapshots <-chan session.Snapshot
	theme     themes.Theme
	keymap    KeyMap
	config    Config
	notice    string
	snap      session.Snapshot
	input     textinput.Model
	spinner   spinner.Model
	width     int
	height    int
	showHelp  bool
	quitting  bool
}

func newModel(ctx context.Context, store Controller, snapshots <-chan session.Snapshot, cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "Ask about the analysis, or /analyze TICKER [depth]"
	input.Prompt = "› "
	input.PromptStyle = cfg.Theme.Prompt
	input.CharLimit = 500
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cfg.Theme.Spinner

	return Model{
		ctx:       ctx,
		store:     store,
		snapshots: snapshots,
		theme:     cfg.Theme,
		keymap:    DefaultKeyMap(),
		config:    cfg,
		input:     input,
		spinner:   sp,
		width:     cfg.Width,
		height:    cfg.Height,
	}
}

// Init starts listening for snapshots and kicks off the initial analysis.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.spinner.Tick,
		waitForSnapshot(m.snapshots),
	}
	if m.config.InitialTicker != "" {
		cmds = append(cmds, analyzeCmd(m.ctx, m.store, m.config.InitialTicker, m.config.InitialDepth))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-4)
		return m, nil

	case snapshotMsg:
		m.snap = msg.snap
		return m, waitForSnapshot(m.snapshots)

	case subscriptionClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case operationDoneMsg:
		m.handleOperationDone(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.ToggleHelp):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keymap.ClearScreen):
		return m, tea.ClearScreen
	case key.Matches(msg, m.keymap.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	m.input.Reset()
	m.notice = ""

	c, err := parseInput(line)
	if err != nil {
		m.notice = cli.DescribeError(err)
		return m, nil
	}

	switch c.kind {
	case cmdAnalyze:
		return m, analyzeCmd(m.ctx, m.store, c.ticker, c.depth)
	case cmdChat:
		return m, chatCmd(m.ctx, m.store, c.text)
	case cmdReset:
		m.store.Reset()
	case cmdQuit:
		m.quitting = true
		return m, tea.Quit
	case cmdHelp:
		m.showHelp = !m.showHelp
	case cmdNone:
	}
	return m, nil
}

// handleOperationDone surfaces errors that the snapshot does not carry.
// Failures the store records (analysis and chat errors) are rendered from
// the snapshot instead; superseded outcomes are silent.
func (m *Model) handleOperationDone(msg operationDoneMsg) {
	switch {
	case msg.err == nil, errors.Is(msg.err, session.ErrSuperseded):
	case errors.Is(msg.err, common.ErrPreconditionFailed):
		m.notice = cli.DescribeError(msg.err)
	}
}

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/stocklens/internal/model"
	"github.com/Veraticus/stocklens/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

// Controller is the part of the session store the UI drives.
type Controller interface {
	Analyze(ctx context.Context, ticker string, depth model.Depth) (model.AnalysisResult, error)
	Chat(ctx context.Context, question string) (model.ChatReply, error)
	Reset()
	Subscribe(fn func(session.Snapshot)) (unsubscribe func())
}

type commandKind int

const (
	cmdNone commandKind = iota
	cmdAnalyze
	cmdChat
	cmdReset
	cmdQuit
	cmdHelp
)

type command struct {
	ticker string
	depth  model.Depth
	text   string
	kind   commandKind
}

// parseInput interprets one line typed at the prompt. Lines starting with
// "/" are commands; anything else is a chat question.
func parseInput(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{kind: cmdNone}, nil
	}
	if !strings.HasPrefix(line, "/") {
		return command{kind: cmdChat, text: line}, nil
	}

	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "/analyze", "/a":
		if len(fields) < 2 || len(fields) > 3 {
			return command{}, fmt.Errorf("usage: /analyze TICKER [quick|standard|comprehensive]")
		}
		depth := model.DepthQuick
		if len(fields) == 3 {
			d, err := model.ParseDepth(fields[2])
			if err != nil {
				return command{}, err
			}
			depth = d
		}
		return command{kind: cmdAnalyze, ticker: fields[1], depth: depth}, nil
	case "/reset":
		return command{kind: cmdReset}, nil
	case "/quit", "/exit", "/q":
		return command{kind: cmdQuit}, nil
	case "/help", "/?":
		return command{kind: cmdHelp}, nil
	default:
		return command{}, fmt.Errorf("unknown command %s", fields[0])
	}
}

func analyzeCmd(ctx context.Context, store Controller, ticker string, depth model.Depth) tea.Cmd {
	return func() tea.Msg {
		_, err := store.Analyze(ctx, ticker, depth)
		return operationDoneMsg{op: "analyze", err: err}
	}
}

func chatCmd(ctx context.Context, store Controller, question string) tea.Cmd {
	return func() tea.Msg {
		_, err := store.Chat(ctx, question)
		return operationDoneMsg{op: "chat", err: err}
	}
}

// waitForSnapshot blocks until the next store update.
func waitForSnapshot(snapshots <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-snapshots
		if !ok {
			return subscriptionClosedMsg{}
		}
		return snapshotMsg{snap: snap}
	}
}

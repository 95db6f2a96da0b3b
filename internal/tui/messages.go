package tui

import "github.com/Veraticus/stocklens/internal/session"

// snapshotMsg carries a store update into the program.
type snapshotMsg struct {
	snap session.Snapshot
}

// subscriptionClosedMsg is sent when the snapshot channel is closed.
type subscriptionClosedMsg struct{}

// operationDoneMsg reports the outcome of an analyze or chat command. State
// changes arrive separately as snapshots.
type operationDoneMsg struct {
	err error
	op  string
}

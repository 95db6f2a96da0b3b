package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/stocklens/internal/common"
	"github.com/Veraticus/stocklens/internal/model"
	"github.com/Veraticus/stocklens/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestJournal(t *testing.T, opts ...Option) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"), opts...)
	require.NoError(t, err)
	require.NoError(t, j.Migrate(context.Background()))
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestOpen(t *testing.T) {
	_, err := Open("  ")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	j := createTestJournal(t)
	assert.Equal(t, "journal.db", filepath.Base(j.Path()))

	// Migrating an up-to-date database is a no-op.
	require.NoError(t, j.Migrate(context.Background()))

	var version int
	require.NoError(t, j.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestJournal_RecordAndRecent(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	j := createTestJournal(t, WithClock(clock))
	ctx := context.Background()

	require.Error(t, j.Record(ctx, Entry{}))

	for i, ticker := range []string{"AAPL", "TSLA", "MSFT"} {
		require.NoError(t, j.Record(ctx, Entry{
			State:    "ready",
			Ticker:   ticker,
			Depth:    "quick",
			ResultID: "R-" + ticker,
			Version:  uint64(i + 1),
		}))
	}

	entries, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "MSFT", entries[0].Ticker)
	assert.Equal(t, "TSLA", entries[1].Ticker)
	assert.Equal(t, uint64(3), entries[0].Version)
	assert.True(t, entries[0].RecordedAt.Equal(base.Add(3*time.Minute)))
	assert.Greater(t, entries[0].ID, entries[1].ID)

	all, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

type stubAnalyzer struct{}

func (stubAnalyzer) RequestAnalysis(_ context.Context, ticker string, _ model.Depth) (model.AnalysisResult, error) {
	if ticker == "FAIL" {
		return model.AnalysisResult{}, common.NewHTTPError(500, "Analysis failed", nil)
	}
	return model.AnalysisResult{
		ResultID: "R-" + ticker,
		Ticker:   ticker,
		Recommendation: model.Recommendation{
			Stance:    model.StanceSell,
			Reasoning: "private reasoning",
		},
	}, nil
}

func (stubAnalyzer) SendChatMessage(_ context.Context, resultID, _ string) (model.ChatReply, error) {
	return model.ChatReply{ResultID: resultID, Answer: "private answer"}, nil
}

func TestJournal_Attach(t *testing.T) {
	j := createTestJournal(t)
	store, err := session.New(stubAnalyzer{}, stubAnalyzer{})
	require.NoError(t, err)
	ctx := context.Background()

	detach := j.Attach(store)

	_, err = store.Analyze(ctx, "aapl", model.DepthStandard)
	require.NoError(t, err)
	_, err = store.Chat(ctx, "private question")
	require.NoError(t, err)
	_, err = store.Analyze(ctx, "FAIL", model.DepthQuick)
	require.Error(t, err)
	store.Reset()

	detach()
	_, err = store.Analyze(ctx, "MSFT", model.DepthQuick)
	require.NoError(t, err)

	entries, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	// Oldest first for readability.
	for i, k := 0, len(entries)-1; i < k; i, k = i+1, k-1 {
		entries[i], entries[k] = entries[k], entries[i]
	}

	states := make([]string, len(entries))
	for i, e := range entries {
		states[i] = e.State
	}
	assert.Equal(t, []string{"analyzing", "ready", "analyzing", "failed", "idle"}, states)

	assert.Equal(t, "AAPL", entries[1].Ticker)
	assert.Equal(t, "standard", entries[1].Depth)
	assert.Equal(t, "R-AAPL", entries[1].ResultID)

	assert.Equal(t, "FAIL", entries[3].Ticker)
	assert.Equal(t, "R-AAPL", entries[3].ResultID, "the stale result id is kept")
	assert.Equal(t, "http", entries[3].ErrorKind)
	assert.Contains(t, entries[3].Error, "Analysis failed")

	var leaked int
	require.NoError(t, j.db.QueryRow(`
		SELECT COUNT(*) FROM transitions
		WHERE error LIKE '%private%' OR ticker LIKE '%private%'`).Scan(&leaked))
	assert.Zero(t, leaked)
}

func TestJournal_AttachLogsWriteFailures(t *testing.T) {
	j := createTestJournal(t)
	store, err := session.New(stubAnalyzer{}, stubAnalyzer{})
	require.NoError(t, err)

	detach := j.Attach(store)
	defer detach()
	require.NoError(t, j.Close())

	// Writes now fail; the store must still complete normally.
	_, err = store.Analyze(context.Background(), "AAPL", model.DepthQuick)
	assert.NoError(t, err)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/stocklens/internal/common"
	"github.com/Veraticus/stocklens/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, healthStatus string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/walker/orchestrator", func(w http.ResponseWriter, r *http.Request) {
		var req model.AnalysisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Ticker == "FAIL" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"Analysis failed. Please try again."}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":200,"reports":[{"result_id":"R-` + req.Ticker + `","ticker":"` + req.Ticker + `",
			"final_recommendation":{"id":"rec","context":{"recommendation":"BUY","confidence_score":70,
			"reasoning":"Depth ` + string(req.Depth) + `","key_risks":["Valuation"],"key_opportunities":["AI"],
			"target_price":150,"stop_loss":120}}}]}`))
	})
	mux.HandleFunc("/walker/chat", func(w http.ResponseWriter, r *http.Request) {
		var req model.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, _ = w.Write([]byte(`{"status":200,"reports":[{"result_id":"` + req.ResultID + `","answer":"About ` + req.ResultID + `: ` + req.Query + `"}]}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"` + healthStatus + `","timestamp":"2025-01-01T00:00:00","version":"1.0.0","jac_enabled":true}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("STOCKLENS_LOGGING_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "stocklens version dev")
}

func TestAnalyzeCmd_JSON(t *testing.T) {
	server := newBackend(t, "healthy")
	t.Setenv("STOCKLENS_API_BASE_URL", server.URL)

	out, _, err := runCLI(t, "analyze", "aapl", "--depth", "standard", "--json",
		"--ask", "why buy?", "--ask", "and the risks?")
	require.NoError(t, err)

	var decoded analyzeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "R-AAPL", decoded.Result.ResultID)
	assert.Equal(t, model.StanceBuy, decoded.Result.Recommendation.Stance)
	assert.Equal(t, "Depth standard", decoded.Result.Recommendation.Reasoning)
	assert.Equal(t, []model.ChatTurn{
		{Role: model.RoleUser, Text: "why buy?"},
		{Role: model.RoleAssistant, Text: "About R-AAPL: why buy?"},
		{Role: model.RoleUser, Text: "and the risks?"},
		{Role: model.RoleAssistant, Text: "About R-AAPL: and the risks?"},
	}, decoded.Transcript)
}

func TestAnalyzeCmd_Rendered(t *testing.T) {
	server := newBackend(t, "healthy")

	out, _, err := runCLI(t, "--api-url", server.URL, "analyze", "msft")
	require.NoError(t, err)
	assert.Contains(t, out, "MSFT")
	assert.Contains(t, out, "BUY")
	assert.Contains(t, out, "Depth quick")
	assert.Contains(t, out, "result R-MSFT")
}

func TestAnalyzeCmd_Errors(t *testing.T) {
	server := newBackend(t, "healthy")
	t.Setenv("STOCKLENS_API_BASE_URL", server.URL)

	_, _, err := runCLI(t, "analyze", "aapl", "--depth", "deep")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPreconditionFailed)

	_, _, err = runCLI(t, "analyze", "fail", "--json")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrHTTP)
	assert.Contains(t, err.Error(), "Analysis of FAIL failed")
	assert.Contains(t, err.Error(), "Analysis failed. Please try again.")

	_, _, err = runCLI(t, "analyze")
	assert.Error(t, err)
}

func TestAnalyzeCmd_InvalidConfig(t *testing.T) {
	t.Setenv("STOCKLENS_API_TIMEOUT_MS", "0")

	_, _, err := runCLI(t, "analyze", "aapl")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestAnalyzeCmd_ConfigFile(t *testing.T) {
	server := newBackend(t, "healthy")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("api:\n  base_url: "+server.URL+"\n"), 0600))

	out, _, err := runCLI(t, "--config", cfgPath, "analyze", "nvda", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "R-NVDA")
}

func TestHealthCmd(t *testing.T) {
	healthy := newBackend(t, "healthy")
	out, _, err := runCLI(t, "--api-url", healthy.URL, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "backend healthy")
	assert.Contains(t, out, "version 1.0.0")

	degraded := newBackend(t, "degraded")
	_, _, err = runCLI(t, "--api-url", degraded.URL, "health", "--json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "degraded")

	_, _, err = runCLI(t, "--api-url", "http://127.0.0.1:1", "health")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNetwork)
}

func TestJournalCmd(t *testing.T) {
	server := newBackend(t, "healthy")
	t.Setenv("STOCKLENS_API_BASE_URL", server.URL)

	_, _, err := runCLI(t, "journal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal is disabled")

	t.Setenv("STOCKLENS_JOURNAL_PATH", filepath.Join(t.TempDir(), "journal.db"))

	_, _, err = runCLI(t, "analyze", "aapl", "--json")
	require.NoError(t, err)
	_, _, err = runCLI(t, "analyze", "fail", "--json")
	require.Error(t, err)

	out, _, err := runCLI(t, "journal", "--limit", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "http")
	assert.NotContains(t, out, "Valuation", "recommendation content is never journaled")
}

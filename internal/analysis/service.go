// Package analysis provides the request/response calls to the multi-agent
// analysis backend. It holds no state between calls.
package analysis

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/stocklens/internal/common"
	"github.com/Veraticus/stocklens/internal/model"
	"github.com/Veraticus/stocklens/internal/service"
)

// Backend endpoints, relative to the configured base URL.
const (
	AnalysisEndpoint = "/walker/orchestrator"
	ChatEndpoint     = "/walker/chat"
	HealthEndpoint   = "/health"
)

var (
	_ service.Analyzer      = (*Service)(nil)
	_ service.Chatter       = (*Service)(nil)
	_ service.HealthChecker = (*Service)(nil)
)

// Service issues analysis and chat requests over a Transport.
type Service struct {
	transport service.Transport
}

// New creates a Service.
func New(transport service.Transport) (*Service, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport dependency is required")
	}
	return &Service{transport: transport}, nil
}

type analysisResponse struct {
	Reports []model.AnalysisResult `json:"reports"`
	Status  int                    `json:"status"`
}

type chatResponse struct {
	Reports []model.ChatReply `json:"reports"`
	Status  int               `json:"status"`
}

// RequestAnalysis submits ticker and depth and returns the first report.
func (s *Service) RequestAnalysis(ctx context.Context, ticker string, depth model.Depth) (model.AnalysisResult, error) {
	req, err := model.NewAnalysisRequest(ticker, depth)
	if err != nil {
		return model.AnalysisResult{}, err
	}

	var resp analysisResponse
	if err := s.transport.Call(ctx, http.MethodPost, AnalysisEndpoint, req, &resp); err != nil {
		return model.AnalysisResult{}, err
	}

	if len(resp.Reports) == 0 {
		return model.AnalysisResult{}, common.NewProtocolError(common.ErrEmptyResponse.Error(), common.ErrEmptyResponse)
	}

	result := resp.Reports[0]
	if result.ResultID == "" {
		return model.AnalysisResult{}, common.NewProtocolError("analysis report is missing result_id", nil)
	}
	if result.Ticker == "" {
		result.Ticker = req.Ticker
	}

	return result, nil
}

// QuickAnalysis requests a quick analysis.
func (s *Service) QuickAnalysis(ctx context.Context, ticker string) (model.AnalysisResult, error) {
	return s.RequestAnalysis(ctx, ticker, model.DepthQuick)
}

// StandardAnalysis requests a standard analysis.
func (s *Service) StandardAnalysis(ctx context.Context, ticker string) (model.AnalysisResult, error) {
	return s.RequestAnalysis(ctx, ticker, model.DepthStandard)
}

// ComprehensiveAnalysis requests a comprehensive analysis.
func (s *Service) ComprehensiveAnalysis(ctx context.Context, ticker string) (model.AnalysisResult, error) {
	return s.RequestAnalysis(ctx, ticker, model.DepthComprehensive)
}

// SendChatMessage asks question about the analysis identified by resultID.
func (s *Service) SendChatMessage(ctx context.Context, resultID, question string) (model.ChatReply, error) {
	if strings.TrimSpace(resultID) == "" {
		return model.ChatReply{}, common.NewPreconditionError("result id is required to chat")
	}
	if strings.TrimSpace(question) == "" {
		return model.ChatReply{}, common.NewPreconditionError("question is required")
	}

	req := model.ChatRequest{ResultID: resultID, Query: question}

	var resp chatResponse
	if err := s.transport.Call(ctx, http.MethodPost, ChatEndpoint, req, &resp); err != nil {
		return model.ChatReply{}, err
	}

	if len(resp.Reports) == 0 {
		return model.ChatReply{}, common.NewProtocolError(common.ErrEmptyResponse.Error(), common.ErrEmptyResponse)
	}

	reply := resp.Reports[0]
	if reply.ResultID == "" {
		reply.ResultID = resultID
	}

	return reply, nil
}

// Health probes the backend.
func (s *Service) Health(ctx context.Context) (model.Health, error) {
	var health model.Health
	if err := s.transport.Call(ctx, http.MethodGet, HealthEndpoint, nil, &health); err != nil {
		return model.Health{}, err
	}
	return health, nil
}

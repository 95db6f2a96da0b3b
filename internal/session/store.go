// Package session holds the shared analysis session: the current ticker, the
// most recent analysis result, the chat transcript bound to that result, and
// loading/error flags. It is the single source of truth that any number of
// UI consumers observe through immutable snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/Veraticus/stocklens/internal/common"
	"github.com/Veraticus/stocklens/internal/model"
	"github.com/Veraticus/stocklens/internal/service"
)

// ErrSuperseded is returned by an operation whose outcome was discarded
// because a newer analyze or a reset was issued while it was in flight.
var ErrSuperseded = errors.New("superseded by a newer request")

// exchange is one question in the transcript and, once answered, its reply.
type exchange struct {
	question string
	answer   string
	seq      uint64
	answered bool
}

type subscriber struct {
	fn func(Snapshot)
	id uint64
}

// Store is the session state machine. All methods are safe for concurrent use.
//
// Subscribers are invoked synchronously, one snapshot at a time, in
// non-decreasing Version order. A subscriber must not call Analyze, Chat,
// Reset, or Subscribe from inside its callback; it may call Snapshot.
type Store struct {
	analyzer service.Analyzer
	chatter  service.Chatter
	logger   *slog.Logger
	err      error
	chatErr  error
	result   *model.AnalysisResult
	retry    common.RetryOptions

	ticker      string
	depth       model.Depth
	exchanges   []exchange
	subscribers []subscriber

	// issue is the token of the most recently issued analyze or reset; a
	// completion is applied only while its token is still current.
	issue uint64
	// epoch changes whenever the transcript binding is retired.
	epoch        uint64
	chatSeq      uint64
	pendingChats int
	version      uint64
	delivered    uint64
	nextSubID    uint64

	mu       sync.Mutex
	notifyMu sync.Mutex
	loading  bool
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger used for transition logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetry enables caller-level retries of analyze and chat calls that fail
// with a network error or timeout.
func WithRetry(opts common.RetryOptions) Option {
	return func(s *Store) {
		s.retry = opts
	}
}

// New creates an idle store.
func New(analyzer service.Analyzer, chatter service.Chatter, opts ...Option) (*Store, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer dependency is required")
	}
	if chatter == nil {
		return nil, fmt.Errorf("chatter dependency is required")
	}

	s := &Store{
		analyzer: analyzer,
		chatter:  chatter,
		logger:   slog.Default(),
		retry:    common.RetryOptions{MaxAttempts: 1},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Analyze requests a new analysis. An empty ticker or unknown depth is
// rejected without a network call and without touching the state.
//
// On success the new result replaces any previous one wholesale. On failure
// the error is recorded and a previously held result stays in place.
func (s *Store) Analyze(ctx context.Context, ticker string, depth model.Depth) (model.AnalysisResult, error) {
	symbol := model.NormalizeTicker(ticker)
	if symbol == "" {
		return model.AnalysisResult{}, common.NewPreconditionError("ticker is required")
	}
	d, err := model.ParseDepth(string(depth))
	if err != nil {
		return model.AnalysisResult{}, err
	}

	s.mu.Lock()
	s.issue++
	token := s.issue
	s.epoch++
	s.ticker = symbol
	s.depth = d
	s.loading = true
	s.err = nil
	s.exchanges = nil
	s.chatErr = nil
	s.version++
	s.mu.Unlock()
	s.notify()

	s.logger.Debug("Analysis started", "ticker", symbol, "depth", d, "issue", token)

	result, callErr := s.requestAnalysis(ctx, symbol, d)

	s.mu.Lock()
	if token != s.issue {
		current := s.issue
		s.mu.Unlock()
		s.logger.Info("Discarding superseded analysis",
			"ticker", symbol,
			"issue", token,
			"current_issue", current)
		if callErr != nil {
			return model.AnalysisResult{}, fmt.Errorf("%w: %w", ErrSuperseded, callErr)
		}
		return model.AnalysisResult{}, ErrSuperseded
	}

	s.loading = false
	if callErr != nil {
		s.err = callErr
	} else {
		installed := result.Clone()
		s.result = &installed
	}
	s.version++
	s.mu.Unlock()
	s.notify()

	if callErr != nil {
		s.logger.Debug("Analysis failed", "ticker", symbol, "issue", token, "error", callErr)
		return model.AnalysisResult{}, callErr
	}

	s.logger.Debug("Analysis installed", "ticker", symbol, "issue", token, "result_id", result.ResultID)
	return result.Clone(), nil
}

// Chat asks a follow-up question about the currently held result. It is
// refused when no result is held, while an analysis is loading, and for blank
// questions. The answer is recorded only if the same result is still current
// when the reply arrives.
func (s *Store) Chat(ctx context.Context, question string) (model.ChatReply, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return model.ChatReply{}, common.NewPreconditionError("question is required")
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return model.ChatReply{}, common.NewPreconditionError("an analysis is in progress")
	}
	if s.result == nil {
		s.mu.Unlock()
		return model.ChatReply{}, common.NewPreconditionError("no analysis result to chat about")
	}
	resultID := s.result.ResultID
	epoch := s.epoch
	s.chatSeq++
	seq := s.chatSeq
	s.exchanges = append(s.exchanges, exchange{seq: seq, question: q})
	s.pendingChats++
	s.chatErr = nil
	s.version++
	s.mu.Unlock()
	s.notify()

	reply, callErr := s.sendChat(ctx, resultID, q)

	s.mu.Lock()
	s.pendingChats--
	s.version++
	if epoch != s.epoch || s.result == nil || s.result.ResultID != resultID {
		s.mu.Unlock()
		s.notify()
		s.logger.Info("Discarding chat reply for a retired result", "result_id", resultID)
		if callErr != nil {
			return model.ChatReply{}, fmt.Errorf("%w: %w", ErrSuperseded, callErr)
		}
		return model.ChatReply{}, ErrSuperseded
	}

	idx := slices.IndexFunc(s.exchanges, func(e exchange) bool { return e.seq == seq })
	if callErr != nil {
		if idx >= 0 {
			s.exchanges = slices.Delete(s.exchanges, idx, idx+1)
		}
		s.chatErr = callErr
	} else if idx >= 0 {
		s.exchanges[idx].answer = reply.Answer
		s.exchanges[idx].answered = true
	}
	s.mu.Unlock()
	s.notify()

	if callErr != nil {
		return model.ChatReply{}, callErr
	}
	return reply.Clone(), nil
}

// Reset returns the store to idle. Any in-flight analyze or chat completes
// into the void.
func (s *Store) Reset() {
	s.mu.Lock()
	s.issue++
	s.epoch++
	s.ticker = ""
	s.depth = ""
	s.result = nil
	s.err = nil
	s.loading = false
	s.exchanges = nil
	s.chatErr = nil
	s.version++
	s.mu.Unlock()
	s.notify()

	s.logger.Debug("Session reset")
}

// Snapshot returns an immutable copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change. fn
// is called once immediately with the current state. The returned function
// removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	sub := subscriber{id: id, fn: fn}
	s.subscribers = append(s.subscribers, sub)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.deliver(sub, snap)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.subscribers = slices.DeleteFunc(s.subscribers, func(other subscriber) bool { return other.id == id })
		})
	}
}

// notify delivers the latest snapshot to every subscriber unless a newer one
// has already gone out.
func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.version <= s.delivered {
		s.mu.Unlock()
		return
	}
	s.delivered = s.version
	snap := s.snapshotLocked()
	subs := slices.Clone(s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		s.deliver(sub, snap.clone())
	}
}

// deliver calls one subscriber. A panicking subscriber is logged and skipped
// so the others and the operation in progress are unaffected.
func (s *Store) deliver(sub subscriber, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Session subscriber panicked",
				"subscriber", sub.id,
				"version", snap.Version,
				"panic", r)
		}
	}()
	sub.fn(snap)
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Ticker:   s.ticker,
		Depth:    s.depth,
		Loading:  s.loading,
		Chatting: s.pendingChats > 0,
		Err:      s.err,
		ChatErr:  s.chatErr,
		Version:  s.version,
	}
	if s.result != nil {
		r := s.result.Clone()
		snap.Result = &r
	}
	if len(s.exchanges) > 0 {
		snap.Transcript = make([]model.ChatTurn, 0, len(s.exchanges)*2)
		for _, e := range s.exchanges {
			snap.Transcript = append(snap.Transcript, model.ChatTurn{Role: model.RoleUser, Text: e.question})
			if e.answered {
				snap.Transcript = append(snap.Transcript, model.ChatTurn{Role: model.RoleAssistant, Text: e.answer})
			}
		}
	}
	return snap
}

func (s *Store) requestAnalysis(ctx context.Context, ticker string, depth model.Depth) (result model.AnalysisResult, err error) {
	defer recoverInto(&err, "analysis request")

	err = common.WithRetry(ctx, func() error {
		var callErr error
		result, callErr = s.analyzer.RequestAnalysis(ctx, ticker, depth)
		return callErr
	}, s.retry)
	return result, err
}

func (s *Store) sendChat(ctx context.Context, resultID, question string) (reply model.ChatReply, err error) {
	defer recoverInto(&err, "chat request")

	err = common.WithRetry(ctx, func() error {
		var callErr error
		reply, callErr = s.chatter.SendChatMessage(ctx, resultID, question)
		return callErr
	}, s.retry)
	return reply, err
}

// recoverInto turns a collaborator panic into a protocol error so the state
// machine always leaves the loading state.
func recoverInto(err *error, op string) {
	if r := recover(); r != nil {
		*err = common.NewProtocolError(fmt.Sprintf("%s panicked: %v", op, r), nil)
	}
}

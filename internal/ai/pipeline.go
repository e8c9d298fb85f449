package ai

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
)

// Config carries the pipeline's tunable defaults. Timeouts and budgets are
// configuration, not load-bearing constants; the only guarantee is bounded,
// monotonic backoff.
type Config struct {
	StructuredTimeout     time.Duration
	ConversationTimeout   time.Duration
	MaxTokensStructured   int
	MaxTokensConversation int
	// ContractRetryBudget bounds re-invocations on malformed output. It is
	// deliberately independent from the network retry budget inside Client so
	// faults attribute cleanly.
	ContractRetryBudget int
	// ConversationWindow bounds how many recent turns are sent upstream.
	ConversationWindow int
}

func DefaultConfig() Config {
	return Config{
		StructuredTimeout:     10 * time.Second,
		ConversationTimeout:   15 * time.Second,
		MaxTokensStructured:   900,
		MaxTokensConversation: 500,
		ContractRetryBudget:   2,
		ConversationWindow:    10,
	}
}

// CallRecord summarizes one pipeline run for the diagnostics log.
type CallRecord struct {
	UserID            uuid.UUID
	Mode              Mode
	Success           bool
	Err               error
	ProviderCalls     int
	ContractRetries   int
	CrisisIntercepted bool
	Latency           time.Duration
}

// CallRecorder receives run outcomes. Implementations must not fail the
// pipeline; recording is best-effort.
type CallRecorder interface {
	Record(ctx context.Context, rec CallRecord)
}

// ConverseInput is a conversation-mode request. History is the caller's
// append-only message sequence; the pipeline reads a bounded recent window
// and never mutates it.
type ConverseInput struct {
	UserID  uuid.UUID
	Message string
	Type    ConversationType
	History []Message
}

// ConversationReply is the conversation-mode output. CrisisIntercepted marks
// the fixed referral path; no generation call happened for such replies.
type ConversationReply struct {
	Response          string
	CrisisIntercepted bool
	MatchedTerms      []string
}

// Pipeline wires the aggregator, safety interceptor, prompt builder,
// resilient client, validator and projector into the per-request flow.
type Pipeline struct {
	aggregator *ContextAggregator
	detector   *CrisisDetector
	client     *Client
	recorder   CallRecorder
	cfg        Config
	log        *logger.Logger
}

func NewPipeline(
	aggregator *ContextAggregator,
	detector *CrisisDetector,
	client *Client,
	recorder CallRecorder,
	cfg Config,
	baseLog *logger.Logger,
) *Pipeline {
	if cfg.StructuredTimeout <= 0 {
		cfg.StructuredTimeout = DefaultConfig().StructuredTimeout
	}
	if cfg.ConversationTimeout <= 0 {
		cfg.ConversationTimeout = DefaultConfig().ConversationTimeout
	}
	if cfg.MaxTokensStructured <= 0 {
		cfg.MaxTokensStructured = DefaultConfig().MaxTokensStructured
	}
	if cfg.MaxTokensConversation <= 0 {
		cfg.MaxTokensConversation = DefaultConfig().MaxTokensConversation
	}
	if cfg.ContractRetryBudget < 0 {
		cfg.ContractRetryBudget = 0
	}
	if cfg.ConversationWindow <= 0 {
		cfg.ConversationWindow = DefaultConfig().ConversationWindow
	}
	return &Pipeline{
		aggregator: aggregator,
		detector:   detector,
		client:     client,
		recorder:   recorder,
		cfg:        cfg,
		log:        baseLog.With("component", "AIPipeline"),
	}
}

func (p *Pipeline) Guidance(ctx context.Context, in ContextInput) ([]ProjectedRecord, error) {
	return p.runStructured(ctx, ModeGuidance, in)
}

func (p *Pipeline) ReflectionPrompts(ctx context.Context, in ContextInput) ([]ProjectedRecord, error) {
	return p.runStructured(ctx, ModeReflectionPrompts, in)
}

func (p *Pipeline) Insights(ctx context.Context, in ContextInput) ([]ProjectedRecord, error) {
	return p.runStructured(ctx, ModeInsights, in)
}

func (p *Pipeline) Recommendations(ctx context.Context, in ContextInput) ([]ProjectedRecord, error) {
	return p.runStructured(ctx, ModeRecommendations, in)
}

func (p *Pipeline) runStructured(ctx context.Context, mode Mode, in ContextInput) ([]ProjectedRecord, error) {
	start := time.Now()

	tc := p.aggregator.BuildContext(ctx, in)
	msgs := BuildPrompt(mode, tc, nil)
	req := CompletionRequest{
		Messages:          msgs,
		MaxTokens:         p.cfg.MaxTokensStructured,
		RequireStructured: true,
	}

	var (
		result          *CompletionResult
		lastErr         error
		providerCalls   int
		contractRetries int
	)

	for try := 0; try <= p.cfg.ContractRetryBudget; try++ {
		raw, err := p.client.Complete(ctx, req, p.cfg.StructuredTimeout)
		providerCalls++
		if err != nil {
			// Network-level failure: already retried inside the client, not
			// charged against the contract budget.
			p.record(ctx, CallRecord{
				UserID: in.UserID, Mode: mode, Success: false, Err: err,
				ProviderCalls: providerCalls, ContractRetries: contractRetries,
				Latency: time.Since(start),
			})
			return nil, err
		}

		res, verr := Validate(raw, mode)
		if verr == nil {
			result = res
			break
		}
		lastErr = verr
		if try < p.cfg.ContractRetryBudget {
			contractRetries++
			p.log.Warn("Malformed model output, re-invoking with same prompt",
				"mode", string(mode),
				"user", truncateID(in.UserID),
				"contract_retry", contractRetries,
				"error", verr.Error(),
			)
		}
	}

	if result == nil {
		p.record(ctx, CallRecord{
			UserID: in.UserID, Mode: mode, Success: false, Err: lastErr,
			ProviderCalls: providerCalls, ContractRetries: contractRetries,
			Latency: time.Since(start),
		})
		return nil, lastErr
	}

	p.record(ctx, CallRecord{
		UserID: in.UserID, Mode: mode, Success: true,
		ProviderCalls: providerCalls, ContractRetries: contractRetries,
		Latency: time.Since(start),
	})

	return Project(result, Identifiers{UserID: in.UserID, ChapterID: in.ChapterID, SectionID: in.SectionID}), nil
}

// Converse runs the conversation-mode flow. The crisis check runs first,
// synchronously, before any context assembly or network call: a triggered
// message terminates the turn with the fixed referral text and the generation
// service is never invoked for it.
func (p *Pipeline) Converse(ctx context.Context, in ConverseInput) (*ConversationReply, error) {
	start := time.Now()

	decision := p.detector.Check(in.Message)
	if decision.Triggered {
		p.log.Info("Crisis language intercepted, returning referral response",
			"user", truncateID(in.UserID),
			"matched_terms", len(decision.MatchedTerms),
		)
		p.record(ctx, CallRecord{
			UserID: in.UserID, Mode: ModeConversation, Success: true,
			CrisisIntercepted: true, Latency: time.Since(start),
		})
		return &ConversationReply{
			Response:          CrisisReferralMessage,
			CrisisIntercepted: true,
			MatchedTerms:      decision.MatchedTerms,
		}, nil
	}

	tc := p.aggregator.BuildContext(ctx, ContextInput{UserID: in.UserID})
	extra := &PromptExtra{
		Message:          in.Message,
		History:          recentWindow(in.History, p.cfg.ConversationWindow),
		ConversationType: in.Type,
	}
	msgs := BuildPrompt(ModeConversation, tc, extra)
	req := CompletionRequest{
		Messages:  msgs,
		MaxTokens: p.cfg.MaxTokensConversation,
	}

	providerCalls := 0
	contractRetries := 0

	// An empty reply is worth exactly one re-invocation before the caller's
	// placeholder fallback kicks in.
	var lastErr error
	for try := 0; try <= 1; try++ {
		raw, err := p.client.Complete(ctx, req, p.cfg.ConversationTimeout)
		providerCalls++
		if err != nil {
			p.record(ctx, CallRecord{
				UserID: in.UserID, Mode: ModeConversation, Success: false, Err: err,
				ProviderCalls: providerCalls, ContractRetries: contractRetries,
				Latency: time.Since(start),
			})
			return nil, err
		}
		res, verr := Validate(raw, ModeConversation)
		if verr == nil {
			p.record(ctx, CallRecord{
				UserID: in.UserID, Mode: ModeConversation, Success: true,
				ProviderCalls: providerCalls, ContractRetries: contractRetries,
				Latency: time.Since(start),
			})
			return &ConversationReply{Response: res.Text}, nil
		}
		lastErr = verr
		if try == 0 {
			contractRetries++
			p.log.Warn("Empty conversation reply, re-invoking once",
				"user", truncateID(in.UserID))
		}
	}

	p.record(ctx, CallRecord{
		UserID: in.UserID, Mode: ModeConversation, Success: false, Err: lastErr,
		ProviderCalls: providerCalls, ContractRetries: contractRetries,
		Latency: time.Since(start),
	})
	return nil, lastErr
}

func (p *Pipeline) record(ctx context.Context, rec CallRecord) {
	if p.recorder == nil {
		return
	}
	p.recorder.Record(ctx, rec)
}

func recentWindow(history []Message, n int) []Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

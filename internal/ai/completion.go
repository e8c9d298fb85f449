package ai

import (
	"context"
	"errors"
	"time"

	"github.com/cedarwell/actbridge-backend/internal/pkg/httpx"
	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
)

// CompletionRequest describes one upstream generation call.
type CompletionRequest struct {
	Messages          []Message
	MaxTokens         int
	RequireStructured bool
}

// CompletionProvider issues exactly one attempt against the text-generation
// service. Provider identity and model name are configuration of the
// implementation; the pipeline only depends on this interface, which also
// makes test doubles trivial.
type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// attemptOutcome is the state an attempt lands in. The transition logic lives
// in classifyAttempt so it can be unit-tested without a network.
type attemptOutcome int

const (
	attemptSuccess attemptOutcome = iota
	attemptTimeout
	attemptTransient
	attemptFatal
)

// classifyAttempt maps an attempt error onto the state machine:
// nil -> SUCCESS, deadline -> TIMEOUT, retryable -> TRANSIENT_ERROR,
// everything else -> FATAL_ERROR.
func classifyAttempt(err error) attemptOutcome {
	if err == nil {
		return attemptSuccess
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return attemptTimeout
	}
	var sc httpx.HTTPStatusCoder
	if errors.As(err, &sc) && httpx.IsFatalHTTPStatus(sc.HTTPStatusCode()) {
		return attemptFatal
	}
	if httpx.IsRetryableError(err) {
		return attemptTransient
	}
	return attemptFatal
}

// RetryPolicy bounds transient retries. Budget counts additional attempts
// beyond the first; backoff grows base * 2^attempt with ±20% jitter, clamped
// at Cap. These are tunable defaults, not guarantees beyond "bounded and
// monotonic".
type RetryPolicy struct {
	Budget      int
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Budget: 2, BackoffBase: 500 * time.Millisecond, BackoffCap: 8 * time.Second}
}

// Client wraps a CompletionProvider with per-attempt timeouts, bounded
// sequential retries and explicit cancellation. At most one upstream call is
// in flight per invocation; retries never run in parallel.
type Client struct {
	provider CompletionProvider
	policy   RetryPolicy
	log      *logger.Logger

	// Injected for tests; defaults to time.Sleep / httpx.Jitter.
	sleep  func(time.Duration)
	jitter func(time.Duration) time.Duration
}

func NewClient(provider CompletionProvider, policy RetryPolicy, baseLog *logger.Logger) *Client {
	if policy.Budget < 0 {
		policy.Budget = 0
	}
	if policy.BackoffBase <= 0 {
		policy.BackoffBase = DefaultRetryPolicy().BackoffBase
	}
	if policy.BackoffCap <= 0 {
		policy.BackoffCap = DefaultRetryPolicy().BackoffCap
	}
	return &Client{
		provider: provider,
		policy:   policy,
		log:      baseLog.With("component", "CompletionClient"),
		sleep:    time.Sleep,
		jitter:   httpx.Jitter,
	}
}

// Complete runs the attempt state machine. timeout is the hard wall clock per
// attempt; the attempt context is cancelled on expiry so the in-flight HTTP
// request is aborted rather than abandoned.
func (c *Client) Complete(ctx context.Context, req CompletionRequest, timeout time.Duration) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.policy.Budget; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", &GenerationError{Fatal: true, Attempts: attempt, Err: err}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		raw, err := c.provider.Complete(attemptCtx, req)
		cancel()

		switch outcome := classifyAttempt(err); outcome {
		case attemptSuccess:
			return raw, nil

		case attemptFatal:
			return "", &GenerationError{Fatal: true, Attempts: attempt + 1, Err: err}

		case attemptTimeout, attemptTransient:
			lastErr = err
			// Caller cancellation looks like a deadline from inside the
			// attempt; do not keep retrying a dead request.
			if ctx.Err() != nil {
				return "", &GenerationError{Fatal: true, Attempts: attempt + 1, Err: ctx.Err()}
			}
			if attempt == c.policy.Budget {
				break
			}
			delay := c.policy.BackoffBase << attempt
			if delay > c.policy.BackoffCap {
				delay = c.policy.BackoffCap
			}
			delay = c.jitter(delay)
			c.log.Warn("Completion attempt failed, retrying",
				"attempt", attempt+1,
				"budget", c.policy.Budget,
				"sleep", delay.String(),
				"timeout", outcome == attemptTimeout,
				"error", err.Error(),
			)
			c.sleep(delay)
		}
	}

	return "", &GenerationError{Fatal: false, Attempts: c.policy.Budget + 1, Err: lastErr}
}

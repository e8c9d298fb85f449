package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return fmt.Sprintf("upstream status %d", e.code) }
func (e *statusErr) HTTPStatusCode() int { return e.code }

// scriptedProvider returns one scripted result per call, in order. Calls past
// the end of the script reuse the last entry.
type scriptedProvider struct {
	calls   int
	replies []string
	errs    []error
}

func (p *scriptedProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	i := p.calls
	if i >= len(p.errs) {
		i = len(p.errs) - 1
	}
	p.calls++
	return p.replies[i], p.errs[i]
}

func newTestClient(p CompletionProvider, policy RetryPolicy) (*Client, *[]time.Duration) {
	c := NewClient(p, policy, logger.NewNop())
	var delays []time.Duration
	c.sleep = func(d time.Duration) { delays = append(delays, d) }
	c.jitter = func(d time.Duration) time.Duration { return d }
	return c, &delays
}

func TestCompleteRetriesUpToBudgetThenFails(t *testing.T) {
	p := &scriptedProvider{
		replies: []string{""},
		errs:    []error{&statusErr{code: 503}},
	}
	client, delays := newTestClient(p, RetryPolicy{Budget: 2, BackoffBase: 500 * time.Millisecond, BackoffCap: 8 * time.Second})

	_, err := client.Complete(context.Background(), CompletionRequest{}, time.Second)
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if p.calls != 3 {
		t.Fatalf("expected budget+1 = 3 provider calls, got %d", p.calls)
	}
	if !IsTransientGeneration(err) {
		t.Fatalf("expected transient generation error, got %v", err)
	}
	var ge *GenerationError
	if !errors.As(err, &ge) || ge.Attempts != 3 {
		t.Fatalf("expected Attempts=3, got %+v", ge)
	}

	want := []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(*delays))
	}
	for i, d := range *delays {
		if d != want[i] {
			t.Fatalf("sleep %d: expected %s, got %s", i, want[i], d)
		}
		if i > 0 && d <= (*delays)[i-1] {
			t.Fatalf("backoff not monotonically increasing: %v", *delays)
		}
	}
}

func TestCompleteBackoffClampedAtCap(t *testing.T) {
	p := &scriptedProvider{
		replies: []string{""},
		errs:    []error{&statusErr{code: 500}},
	}
	client, delays := newTestClient(p, RetryPolicy{Budget: 4, BackoffBase: 500 * time.Millisecond, BackoffCap: 1 * time.Second})

	_, err := client.Complete(context.Background(), CompletionRequest{}, time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, d := range *delays {
		if d > time.Second {
			t.Fatalf("delay %s exceeds cap", d)
		}
	}
}

func TestCompleteFatalErrorShortCircuits(t *testing.T) {
	for _, code := range []int{400, 401, 403} {
		t.Run(fmt.Sprintf("status_%d", code), func(t *testing.T) {
			p := &scriptedProvider{
				replies: []string{""},
				errs:    []error{&statusErr{code: code}},
			}
			client, delays := newTestClient(p, DefaultRetryPolicy())

			_, err := client.Complete(context.Background(), CompletionRequest{}, time.Second)
			if !IsFatalGeneration(err) {
				t.Fatalf("expected fatal generation error, got %v", err)
			}
			if p.calls != 1 {
				t.Fatalf("fatal error must not retry: got %d calls", p.calls)
			}
			if len(*delays) != 0 {
				t.Fatalf("fatal error must not back off: got %v", *delays)
			}
		})
	}
}

func TestCompleteSucceedsAfterTransientFailure(t *testing.T) {
	p := &scriptedProvider{
		replies: []string{"", "hello"},
		errs:    []error{&statusErr{code: 429}, nil},
	}
	client, delays := newTestClient(p, DefaultRetryPolicy())

	raw, err := client.Complete(context.Background(), CompletionRequest{}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != "hello" {
		t.Fatalf("expected recovered reply, got %q", raw)
	}
	if p.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", p.calls)
	}
	if len(*delays) != 1 {
		t.Fatalf("expected one backoff sleep, got %d", len(*delays))
	}
}

func TestCompleteTimeoutIsRetried(t *testing.T) {
	p := &scriptedProvider{
		replies: []string{"", "ok"},
		errs:    []error{context.DeadlineExceeded, nil},
	}
	client, _ := newTestClient(p, DefaultRetryPolicy())

	raw, err := client.Complete(context.Background(), CompletionRequest{}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != "ok" {
		t.Fatalf("expected reply after timeout retry, got %q", raw)
	}
}

func TestCompleteStopsWhenCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &scriptedProvider{
		replies: []string{""},
		errs:    []error{context.DeadlineExceeded},
	}
	client, _ := newTestClient(p, DefaultRetryPolicy())
	cancel()

	_, err := client.Complete(ctx, CompletionRequest{}, time.Second)
	if !IsFatalGeneration(err) {
		t.Fatalf("cancelled caller context must not be retried, got %v", err)
	}
	if p.calls != 0 {
		t.Fatalf("no attempt should run after cancellation, got %d", p.calls)
	}
}

func TestClassifyAttempt(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want attemptOutcome
	}{
		{"nil", nil, attemptSuccess},
		{"deadline", context.DeadlineExceeded, attemptTimeout},
		{"status_500", &statusErr{code: 500}, attemptTransient},
		{"status_429", &statusErr{code: 429}, attemptTransient},
		{"status_408", &statusErr{code: 408}, attemptTransient},
		{"status_400", &statusErr{code: 400}, attemptFatal},
		{"status_401", &statusErr{code: 401}, attemptFatal},
		{"status_403", &statusErr{code: 403}, attemptFatal},
		{"opaque", errors.New("boom"), attemptFatal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyAttempt(tc.err); got != tc.want {
				t.Fatalf("classifyAttempt(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

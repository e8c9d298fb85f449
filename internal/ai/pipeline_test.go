package ai

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
)

type recordingRecorder struct {
	records []CallRecord
}

func (r *recordingRecorder) Record(ctx context.Context, rec CallRecord) {
	r.records = append(r.records, rec)
}

func newTestPipeline(p CompletionProvider, policy RetryPolicy) (*Pipeline, *recordingRecorder) {
	client, _ := newTestClient(p, policy)
	agg := NewContextAggregator(&fakeHistoryStore{}, DefaultHistoryCaps(), logger.NewNop())
	detector := NewCrisisDetector(DefaultCrisisPhrases())
	recorder := &recordingRecorder{}
	pipeline := NewPipeline(agg, detector, client, recorder, DefaultConfig(), logger.NewNop())
	return pipeline, recorder
}

func TestConverseCrisisInterceptsBeforeAnyCall(t *testing.T) {
	p := &scriptedProvider{replies: []string{"should never be returned"}, errs: []error{nil}}
	pipeline, recorder := newTestPipeline(p, DefaultRetryPolicy())

	reply, err := pipeline.Converse(context.Background(), ConverseInput{
		UserID:  uuid.New(),
		Message: "lately I just want to die",
		Type:    ConversationTherapeuticGuidance,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reply.CrisisIntercepted {
		t.Fatal("expected crisis interception")
	}
	if reply.Response != CrisisReferralMessage {
		t.Fatal("referral message must reach the caller verbatim")
	}
	if p.calls != 0 {
		t.Fatalf("generation service must not be invoked on interception, got %d calls", p.calls)
	}
	if len(recorder.records) != 1 || !recorder.records[0].CrisisIntercepted {
		t.Fatalf("interception must be recorded, got %+v", recorder.records)
	}
}

func TestConverseReturnsModelReply(t *testing.T) {
	p := &scriptedProvider{replies: []string{"That sounds like real progress."}, errs: []error{nil}}
	pipeline, _ := newTestPipeline(p, DefaultRetryPolicy())

	reply, err := pipeline.Converse(context.Background(), ConverseInput{
		UserID:  uuid.New(),
		Message: "I finished the values chapter today",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.CrisisIntercepted {
		t.Fatal("benign message must not trigger interception")
	}
	if reply.Response != "That sounds like real progress." {
		t.Fatalf("unexpected reply %q", reply.Response)
	}
}

func TestConverseEmptyReplyRetriedExactlyOnce(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		p := &scriptedProvider{
			replies: []string{"", "Second try reply."},
			errs:    []error{nil, nil},
		}
		pipeline, _ := newTestPipeline(p, DefaultRetryPolicy())

		reply, err := pipeline.Converse(context.Background(), ConverseInput{
			UserID:  uuid.New(),
			Message: "hello",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Response != "Second try reply." {
			t.Fatalf("unexpected reply %q", reply.Response)
		}
		if p.calls != 2 {
			t.Fatalf("expected exactly 2 calls, got %d", p.calls)
		}
	})

	t.Run("persistently_empty", func(t *testing.T) {
		p := &scriptedProvider{replies: []string{""}, errs: []error{nil}}
		pipeline, recorder := newTestPipeline(p, DefaultRetryPolicy())

		_, err := pipeline.Converse(context.Background(), ConverseInput{
			UserID:  uuid.New(),
			Message: "hello",
		})
		ce, ok := AsContractError(err)
		if !ok || ce.Kind != EmptyResponse {
			t.Fatalf("expected empty_response contract error, got %v", err)
		}
		if p.calls != 2 {
			t.Fatalf("empty reply is worth one re-invocation only, got %d calls", p.calls)
		}
		last := recorder.records[len(recorder.records)-1]
		if last.Success {
			t.Fatal("failed run must be recorded as failure")
		}
	})
}

func TestRunStructuredContractRecovery(t *testing.T) {
	p := &scriptedProvider{
		replies: []string{
			"not json at all",
			`{"insights": [{"insight_type": "pattern", "title": "a", "description": "d", "confidence": 0.8}, {"insight_type": "strength", "title": "b", "description": "d", "confidence": 0.6}]}`,
		},
		errs: []error{nil, nil},
	}
	pipeline, recorder := newTestPipeline(p, DefaultRetryPolicy())

	userID := uuid.New()
	records, err := pipeline.Insights(context.Background(), ContextInput{UserID: userID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 projected records, got %d", len(records))
	}
	for _, rec := range records {
		if rec["user_id"] != userID.String() {
			t.Fatal("projected records must carry user_id")
		}
	}
	if p.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", p.calls)
	}

	last := recorder.records[len(recorder.records)-1]
	if !last.Success || last.ContractRetries != 1 {
		t.Fatalf("expected success with 1 contract retry, got %+v", last)
	}
}

func TestRunStructuredContractBudgetExhausted(t *testing.T) {
	p := &scriptedProvider{replies: []string{"still not json"}, errs: []error{nil}}
	pipeline, _ := newTestPipeline(p, DefaultRetryPolicy())

	_, err := pipeline.Guidance(context.Background(), ContextInput{UserID: uuid.New()})
	ce, ok := AsContractError(err)
	if !ok || ce.Kind != ParseError {
		t.Fatalf("expected parse_error after exhausted budget, got %v", err)
	}
	// Budget 2 means the initial call plus two re-invocations.
	if p.calls != 3 {
		t.Fatalf("expected 3 provider calls, got %d", p.calls)
	}
}

func TestRunStructuredNetworkErrorNotChargedToContractBudget(t *testing.T) {
	p := &scriptedProvider{replies: []string{""}, errs: []error{&statusErr{code: 503}}}
	pipeline, recorder := newTestPipeline(p, RetryPolicy{Budget: 1, BackoffBase: time.Millisecond, BackoffCap: time.Millisecond})

	_, err := pipeline.Guidance(context.Background(), ContextInput{UserID: uuid.New()})
	if !IsTransientGeneration(err) {
		t.Fatalf("expected transient generation error, got %v", err)
	}
	// Network retries live inside the client (budget 1 -> 2 calls); the
	// contract loop must not re-enter on a network failure.
	if p.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", p.calls)
	}
	last := recorder.records[len(recorder.records)-1]
	if last.ContractRetries != 0 {
		t.Fatalf("network failure must not consume contract budget, got %+v", last)
	}
}

func TestRunStructuredFatalPropagates(t *testing.T) {
	p := &scriptedProvider{replies: []string{""}, errs: []error{&statusErr{code: 401}}}
	pipeline, _ := newTestPipeline(p, DefaultRetryPolicy())

	_, err := pipeline.Recommendations(context.Background(), ContextInput{UserID: uuid.New()})
	if !IsFatalGeneration(err) {
		t.Fatalf("expected fatal generation error, got %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("fatal error must not be retried anywhere, got %d calls", p.calls)
	}
}

func TestRecentWindow(t *testing.T) {
	msgs := make([]Message, 15)
	for i := range msgs {
		msgs[i] = Message{Role: RoleUser, Content: string(rune('a' + i))}
	}
	got := recentWindow(msgs, 10)
	if len(got) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(got))
	}
	if got[0].Content != msgs[5].Content {
		t.Fatal("window must keep the most recent messages")
	}
	if len(recentWindow(msgs[:3], 10)) != 3 {
		t.Fatal("short history must pass through unchanged")
	}
}

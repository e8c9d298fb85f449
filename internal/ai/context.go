package ai

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cedarwell/actbridge-backend/internal/pkg/logger"
)

// HistoryStore is the read-only boundary to the user's historical data. The
// store returns newest-first summaries; the aggregator applies the hard caps
// and flips to chronological order. Implementations must already minimize the
// records: raw per-question responses never cross this interface.
type HistoryStore interface {
	RecentAssessments(ctx context.Context, userID uuid.UUID, limit int) ([]AssessmentSummary, error)
	RecentProgress(ctx context.Context, userID uuid.UUID, chapterID *int, limit int) ([]ProgressSummary, error)
	RecentInsights(ctx context.Context, userID uuid.UUID, limit int) ([]InsightSummary, error)
}

// HistoryCaps bounds each history category regardless of store size, keeping
// prompt token cost deterministic.
type HistoryCaps struct {
	Assessments int
	Progress    int
	Insights    int
}

func DefaultHistoryCaps() HistoryCaps {
	return HistoryCaps{Assessments: 5, Progress: 10, Insights: 5}
}

// ContextInput is what the caller supplies to scope a context build.
type ContextInput struct {
	UserID        uuid.UUID
	ChapterID     *int
	SectionID     *string
	UserResponses json.RawMessage
}

// ContextAggregator assembles the bounded TherapeuticContext. A failed fetch
// degrades its category to empty rather than failing the build: the AI layer
// is advisory, partial context beats blocking the caller.
type ContextAggregator struct {
	store HistoryStore
	caps  HistoryCaps
	log   *logger.Logger
}

func NewContextAggregator(store HistoryStore, caps HistoryCaps, baseLog *logger.Logger) *ContextAggregator {
	if caps.Assessments <= 0 {
		caps.Assessments = DefaultHistoryCaps().Assessments
	}
	if caps.Progress <= 0 {
		caps.Progress = DefaultHistoryCaps().Progress
	}
	if caps.Insights <= 0 {
		caps.Insights = DefaultHistoryCaps().Insights
	}
	return &ContextAggregator{
		store: store,
		caps:  caps,
		log:   baseLog.With("component", "ContextAggregator"),
	}
}

// BuildContext fetches the three history categories concurrently. It never
// returns an error: each category independently falls back to empty on fetch
// failure, and the fault is logged with a truncated user id.
func (a *ContextAggregator) BuildContext(ctx context.Context, in ContextInput) *TherapeuticContext {
	tc := &TherapeuticContext{
		UserID:            in.UserID,
		ChapterID:         in.ChapterID,
		SectionID:         in.SectionID,
		UserResponses:     in.UserResponses,
		AssessmentHistory: []AssessmentSummary{},
		ProgressHistory:   []ProgressSummary{},
		PreviousInsights:  []InsightSummary{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := a.store.RecentAssessments(gctx, in.UserID, a.caps.Assessments)
		if err != nil {
			a.log.Warn("Assessment history fetch failed, continuing with empty category",
				"user", truncateID(in.UserID), "error", err)
			return nil
		}
		tc.AssessmentHistory = capAndReverse(rows, a.caps.Assessments)
		return nil
	})

	g.Go(func() error {
		rows, err := a.store.RecentProgress(gctx, in.UserID, in.ChapterID, a.caps.Progress)
		if err != nil {
			a.log.Warn("Progress history fetch failed, continuing with empty category",
				"user", truncateID(in.UserID), "error", err)
			return nil
		}
		tc.ProgressHistory = capAndReverse(rows, a.caps.Progress)
		return nil
	})

	g.Go(func() error {
		rows, err := a.store.RecentInsights(gctx, in.UserID, a.caps.Insights)
		if err != nil {
			a.log.Warn("Insight history fetch failed, continuing with empty category",
				"user", truncateID(in.UserID), "error", err)
			return nil
		}
		tc.PreviousInsights = capAndReverse(rows, a.caps.Insights)
		return nil
	})

	// Goroutines only ever return nil; Wait is for joining.
	_ = g.Wait()
	return tc
}

// capAndReverse takes the newest `limit` items from a newest-first slice and
// returns them oldest-first, so interpolated prompt text reads chronologically.
func capAndReverse[T any](rows []T, limit int) []T {
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]T, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r
	}
	return out
}

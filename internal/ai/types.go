package ai

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is one role-tagged turn in a prompt or conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AssessmentSummary is the minimized projection of a completed assessment.
// Raw per-question responses are deliberately absent.
type AssessmentSummary struct {
	AssessmentType string    `json:"assessment_type"`
	AverageScore   float64   `json:"average_score"`
	ResponseCount  int       `json:"response_count"`
	CompletedAt    time.Time `json:"completed_at"`
}

// ProgressSummary is the minimized projection of a chapter progress entry.
type ProgressSummary struct {
	ChapterID int       `json:"chapter_id"`
	SectionID string    `json:"section_id"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InsightSummary is the minimized projection of a prior generated insight.
type InsightSummary struct {
	InsightType string    `json:"insight_type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

// TherapeuticContext is the bounded, privacy-minimized view of a user's
// history assembled per call. It is never persisted. History sequences are
// hard-capped (5/10/5) and ordered oldest to newest so prompt text reads
// chronologically.
type TherapeuticContext struct {
	UserID            uuid.UUID
	ChapterID         *int
	SectionID         *string
	UserResponses     json.RawMessage
	AssessmentHistory []AssessmentSummary
	ProgressHistory   []ProgressSummary
	PreviousInsights  []InsightSummary
}

// CrisisDecision is computed fresh per inbound message and never stored.
type CrisisDecision struct {
	Triggered    bool
	MatchedTerms []string
}

// CompletionResult is the validated output of one completion call.
type CompletionResult struct {
	Mode Mode
	// Items holds the elements of the required top-level array for
	// structured modes.
	Items []any
	// Text holds the freeform reply for conversation mode.
	Text string
}

// truncateID shortens a user id for logs. Full ids are sensitive and must not
// appear in log output.
func truncateID(id uuid.UUID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

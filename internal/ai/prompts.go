package ai

import (
	"fmt"
	"strings"
)

// PromptExtra carries the mode-specific inputs that are not part of the
// aggregated context: the latest conversation message, the bounded recent
// window, and the conversation framing sub-type.
type PromptExtra struct {
	Message          string
	History          []Message
	ConversationType ConversationType
}

const baseSystemPrompt = `You are a supportive companion inside a guided self-help workbook based on
Acceptance and Commitment Therapy (ACT). You help users notice their thoughts
and feelings with openness, clarify their values, and take committed action.
You are not a therapist and you never diagnose, prescribe, or present yourself
as a replacement for professional care. Keep responses warm, concrete, and
grounded in the user's own workbook history.`

// BuildPrompt renders the mode template into an ordered message sequence. It
// is a pure function of its inputs: identical inputs produce identical output,
// which the golden tests rely on.
func BuildPrompt(mode Mode, tc *TherapeuticContext, extra *PromptExtra) []Message {
	switch mode {
	case ModeGuidance:
		return guidancePrompt(tc)
	case ModeReflectionPrompts:
		return reflectionPromptsPrompt(tc)
	case ModeInsights:
		return insightsPrompt(tc)
	case ModeRecommendations:
		return recommendationsPrompt(tc)
	case ModeConversation:
		return conversationPrompt(tc, extra)
	default:
		return nil
	}
}

func guidancePrompt(tc *TherapeuticContext) []Message {
	system := baseSystemPrompt + `

Task: offer personalized guidance for the user's current chapter and section.
Respond with ONLY a JSON object of the form
{"guidance": [{"title": string, "body": string, "act_principle": string}]}
with 2 to 4 items. No markdown, no prose outside the JSON object.`

	var b strings.Builder
	b.WriteString(renderScope(tc))
	b.WriteString(renderContext(tc))
	if len(tc.UserResponses) > 0 {
		b.WriteString("Current exercise responses:\n")
		b.WriteString(string(tc.UserResponses))
		b.WriteString("\n\n")
	}
	b.WriteString("Task: based on this history, give guidance for the current chapter work.")

	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: b.String()},
	}
}

func reflectionPromptsPrompt(tc *TherapeuticContext) []Message {
	system := baseSystemPrompt + `

Task: write reflective journaling prompts tailored to the user's progress.
Respond with ONLY a JSON object of the form
{"prompts": [{"prompt": string, "focus_area": string}]}
with 3 to 5 items. No markdown, no prose outside the JSON object.`

	var b strings.Builder
	b.WriteString(renderScope(tc))
	b.WriteString(renderContext(tc))
	b.WriteString("Task: write reflection prompts that meet the user where they are.")

	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: b.String()},
	}
}

func insightsPrompt(tc *TherapeuticContext) []Message {
	system := baseSystemPrompt + `

Task: analyze the user's assessment and progress history for meaningful
patterns. Respond with ONLY a JSON object of the form
{"insights": [{"insight_type": string, "title": string, "description": string, "confidence": number}]}
where insight_type is one of "pattern", "progress", "strength", "suggestion"
and confidence is between 0 and 1. No markdown, no prose outside the JSON object.`

	var b strings.Builder
	b.WriteString(renderScope(tc))
	b.WriteString(renderContext(tc))
	b.WriteString("Task: surface the most useful patterns in this history. Avoid repeating previous insights.")

	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: b.String()},
	}
}

func recommendationsPrompt(tc *TherapeuticContext) []Message {
	system := baseSystemPrompt + `

Task: recommend which workbook exercises or chapters the user should revisit
or try next. Respond with ONLY a JSON object of the form
{"recommendations": [{"title": string, "reason": string, "chapter_id": number}]}
with 2 to 4 items and chapter_id between 1 and 7. No markdown, no prose outside
the JSON object.`

	var b strings.Builder
	b.WriteString(renderScope(tc))
	b.WriteString(renderContext(tc))
	b.WriteString("Task: recommend the next most valuable workbook steps for this user.")

	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: b.String()},
	}
}

func conversationPrompt(tc *TherapeuticContext, extra *PromptExtra) []Message {
	system := baseSystemPrompt + `

You are having an open supportive conversation. Reply in plain text, two to
four short paragraphs at most. Ask at most one gentle question.`

	if extra != nil {
		if framing := conversationFraming(extra.ConversationType); framing != "" {
			system += "\n\n" + framing
		}
	}

	msgs := []Message{{Role: RoleSystem, Content: system}}

	var b strings.Builder
	b.WriteString(renderContext(tc))
	if b.Len() > 0 {
		msgs = append(msgs, Message{Role: RoleSystem, Content: "Workbook history for context:\n\n" + b.String()})
	}

	if extra != nil {
		msgs = append(msgs, extra.History...)
		if strings.TrimSpace(extra.Message) != "" {
			msgs = append(msgs, Message{Role: RoleUser, Content: extra.Message})
		}
	}
	return msgs
}

func conversationFraming(t ConversationType) string {
	switch t {
	case ConversationCrisisSupport:
		return `The user has opened the crisis-support area. Lead with validation and
grounding. Mention that the 988 lifeline and Crisis Text Line (text HOME to
741741) exist. Do not probe for details of self-harm plans.`
	case ConversationReflection:
		return `Framing: help the user reflect on recent workbook experiences. Mirror
their words back before offering any observation.`
	case ConversationGoalSetting:
		return `Framing: help the user set one small, values-aligned committed action.
Keep goals concrete and achievable within a week.`
	default:
		return ""
	}
}

func renderScope(tc *TherapeuticContext) string {
	var b strings.Builder
	if tc.ChapterID != nil {
		fmt.Fprintf(&b, "Current chapter: %d\n", *tc.ChapterID)
	}
	if tc.SectionID != nil && *tc.SectionID != "" {
		fmt.Fprintf(&b, "Current section: %s\n", *tc.SectionID)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

// renderContext interpolates the bounded history chronologically. Output is
// deterministic for a given context.
func renderContext(tc *TherapeuticContext) string {
	var b strings.Builder

	if len(tc.AssessmentHistory) > 0 {
		b.WriteString("Assessment history (oldest first):\n")
		for _, a := range tc.AssessmentHistory {
			fmt.Fprintf(&b, "- %s: average score %.1f across %d responses (completed %s)\n",
				a.AssessmentType, a.AverageScore, a.ResponseCount, a.CompletedAt.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}

	if len(tc.ProgressHistory) > 0 {
		b.WriteString("Recent workbook progress (oldest first):\n")
		for _, p := range tc.ProgressHistory {
			state := "in progress"
			if p.Completed {
				state = "completed"
			}
			fmt.Fprintf(&b, "- chapter %d, section %s: %s (%s)\n",
				p.ChapterID, p.SectionID, state, p.UpdatedAt.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}

	if len(tc.PreviousInsights) > 0 {
		b.WriteString("Previously generated insights (oldest first):\n")
		for _, i := range tc.PreviousInsights {
			fmt.Fprintf(&b, "- [%s] %s: %s (confidence %.2f)\n",
				i.InsightType, i.Title, i.Description, i.Confidence)
		}
		b.WriteString("\n")
	}

	return b.String()
}

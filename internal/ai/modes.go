package ai

// Mode selects which generation pipeline a request runs through. The set is
// closed: handlers map inbound strings onto these constants and reject
// anything else before the pipeline is invoked.
type Mode string

const (
	ModeGuidance          Mode = "guidance"
	ModeReflectionPrompts Mode = "reflection_prompts"
	ModeInsights          Mode = "insights"
	ModeRecommendations   Mode = "recommendations"
	ModeConversation      Mode = "conversation"
)

// Structured reports whether the mode requires a JSON object reply with a
// named top-level array.
func (m Mode) Structured() bool {
	return m != ModeConversation
}

// PayloadKey is the required top-level array key for structured modes. The
// prompt templates instruct the model to emit exactly this shape and the
// validator enforces it.
func (m Mode) PayloadKey() string {
	switch m {
	case ModeGuidance:
		return "guidance"
	case ModeReflectionPrompts:
		return "prompts"
	case ModeInsights:
		return "insights"
	case ModeRecommendations:
		return "recommendations"
	default:
		return ""
	}
}

func (m Mode) Valid() bool {
	switch m {
	case ModeGuidance, ModeReflectionPrompts, ModeInsights, ModeRecommendations, ModeConversation:
		return true
	}
	return false
}

// ConversationType adjusts the framing of conversation-mode prompts. The
// crisis_support type is selectable by the caller (e.g. the user opened the
// crisis-support screen) independently of the denylist interceptor.
type ConversationType string

const (
	ConversationTherapeuticGuidance ConversationType = "therapeutic_guidance"
	ConversationCrisisSupport       ConversationType = "crisis_support"
	ConversationReflection          ConversationType = "reflection"
	ConversationGoalSetting         ConversationType = "goal_setting"
)

func (t ConversationType) Valid() bool {
	switch t {
	case ConversationTherapeuticGuidance, ConversationCrisisSupport, ConversationReflection, ConversationGoalSetting:
		return true
	}
	return false
}

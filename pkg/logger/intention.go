package logger

// Intention represents the semantic intent of a log line, orthogonal to
// level. It keeps emojis out of call sites while still emitting meaningful
// icons at the console and structured attributes in files.
type Intention string

const (
	IntentionTool    Intention = "tool"
	IntentionStatus  Intention = "status"
	IntentionSuccess Intention = "success"
	IntentionDebug   Intention = "debug"
	IntentionCancel  Intention = "cancel"
	IntentionConfig  Intention = "config"
)

// iconFor returns a short emoji string for console output for the intention.
func iconFor(i Intention) string {
	switch i {
	case IntentionTool:
		return "🔧"
	case IntentionStatus:
		return "ℹ️"
	case IntentionSuccess:
		return "✅"
	case IntentionDebug:
		return "🛠️"
	case IntentionCancel:
		return "🛑"
	case IntentionConfig:
		return "⚙️"
	default:
		return "➤"
	}
}

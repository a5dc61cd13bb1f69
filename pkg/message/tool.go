package message

import "context"

type ToolName string
type ToolDescription string
type ToolArgumentValues map[string]any

func (t ToolName) String() string        { return string(t) }
func (t ToolDescription) String() string { return string(t) }

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	Text  string // Text content of the result
	Error string // Error message (if any)
}

// NewToolResultText creates a tool result with text content.
func NewToolResultText(text string) ToolResult {
	return ToolResult{Text: text}
}

// NewToolResultError creates a tool result carrying an error description.
func NewToolResultError(errorMsg string) ToolResult {
	return ToolResult{Error: errorMsg}
}

// Tool represents a registered tool definition.
type Tool interface {
	Name() ToolName
	Description() ToolDescription
	Arguments() []ToolArgument
	Handler() func(ctx context.Context, args ToolArgumentValues) (ToolResult, error)
}

// ToolArgument declares one parameter of a tool's schema.
type ToolArgument struct {
	Name        ToolName
	Description ToolDescription
	Required    bool
	Type        string // "string", "number", "boolean"
}

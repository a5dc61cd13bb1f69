package domain

import (
	"context"

	"github.com/vaultpilot/vaultpilot/pkg/message"
)

// ToolManager owns a set of registered tools and dispatches invocations to
// their handlers. A failed or unknown invocation is reported as an error
// ToolResult, never as a Go error, so the loop can feed it back to the model.
type ToolManager interface {
	// RegisterTool registers a new tool with the manager.
	RegisterTool(name message.ToolName, description message.ToolDescription, arguments []message.ToolArgument, handler func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error))

	// GetTools returns all registered tools.
	GetTools() map[message.ToolName]message.Tool

	// CallTool executes a tool with the provided arguments.
	CallTool(ctx context.Context, name message.ToolName, args message.ToolArgumentValues) (message.ToolResult, error)
}

package tool

import (
	"context"
	"fmt"

	"github.com/vaultpilot/vaultpilot/pkg/agent/domain"
	"github.com/vaultpilot/vaultpilot/pkg/message"
)

// CompositeToolManager combines multiple tool managers into one registry.
// Later managers win on name collisions.
type CompositeToolManager struct {
	managers []domain.ToolManager
	toolsMap map[message.ToolName]message.Tool
}

func NewCompositeToolManager(managers ...domain.ToolManager) *CompositeToolManager {
	composite := &CompositeToolManager{
		managers: managers,
		toolsMap: make(map[message.ToolName]message.Tool),
	}
	for _, manager := range managers {
		for _, t := range manager.GetTools() {
			composite.toolsMap[t.Name()] = t
		}
	}
	return composite
}

func (c *CompositeToolManager) GetTools() map[message.ToolName]message.Tool {
	return c.toolsMap
}

func (c *CompositeToolManager) CallTool(ctx context.Context, name message.ToolName, args message.ToolArgumentValues) (message.ToolResult, error) {
	tool, exists := c.toolsMap[name]
	if !exists {
		return message.NewToolResultError(fmt.Sprintf("unrecognized tool: %s", name)), nil
	}
	return tool.Handler()(ctx, args)
}

// RegisterTool is not supported on composite managers; register on the
// underlying managers instead.
func (c *CompositeToolManager) RegisterTool(name message.ToolName, description message.ToolDescription, args []message.ToolArgument, handler func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error)) {
	panic("RegisterTool not supported on CompositeToolManager - register on underlying managers instead")
}

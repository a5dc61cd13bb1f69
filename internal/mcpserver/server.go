// Package mcpserver exposes the vault tool registry over the Model
// Context Protocol so external MCP clients can operate on the vault
// through the same tools the agent uses, via stdio transport.
package mcpserver

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	agentdomain "github.com/vaultpilot/vaultpilot/pkg/agent/domain"
	"github.com/vaultpilot/vaultpilot/pkg/logger"
	"github.com/vaultpilot/vaultpilot/pkg/message"
)

const (
	serverName    = "VaultPilot"
	serverVersion = "1.0.0"
)

var log = logger.NewComponentLogger("mcpserver")

// Server bridges registered vault tools onto an MCP server.
type Server struct {
	mcp     *server.MCPServer
	manager agentdomain.ToolManager
}

// New builds an MCP server mirroring every tool the manager exposes.
// Tool names, argument schemas, and results pass through unchanged, so
// MCP clients see the exact surface the agent loop does.
func New(manager agentdomain.ToolManager) *Server {
	s := &Server{manager: manager}

	s.mcp = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	tools := manager.GetTools()
	names := make([]message.ToolName, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, name := range names {
		s.mcp.AddTool(toMCPTool(tools[name]), s.dispatch(name))
	}
	return s
}

// ServeStdio starts the MCP server on stdin/stdout and blocks until the
// client disconnects.
func (s *Server) ServeStdio() error {
	log.InfoWithIntention(logger.IntentionStatus, "serving MCP on stdio")
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) dispatch(name message.ToolName) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.manager.CallTool(ctx, name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if result.Error != "" {
			return mcp.NewToolResultError(result.Error), nil
		}
		return mcp.NewToolResultText(result.Text), nil
	}
}

func toMCPTool(t message.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description().String())}
	for _, arg := range t.Arguments() {
		opts = append(opts, toMCPOption(arg))
	}
	return mcp.NewTool(t.Name().String(), opts...)
}

func toMCPOption(arg message.ToolArgument) mcp.ToolOption {
	var props []mcp.PropertyOption
	if arg.Required {
		props = append(props, mcp.Required())
	}
	props = append(props, mcp.Description(arg.Description.String()))

	switch arg.Type {
	case "number":
		return mcp.WithNumber(arg.Name.String(), props...)
	case "boolean":
		return mcp.WithBoolean(arg.Name.String(), props...)
	default:
		return mcp.WithString(arg.Name.String(), props...)
	}
}

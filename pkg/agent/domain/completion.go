// Package domain declares the interfaces the agent core depends on. Concrete
// transports and tool managers live elsewhere and are injected.
package domain

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vaultpilot/vaultpilot/pkg/message"
)

// ErrConfigurationMissing indicates a required credential or setting is not
// configured. It surfaces before any service call is attempted.
var ErrConfigurationMissing = errors.New("completion service configuration missing")

// ErrTimeout indicates a single service call exceeded its configured deadline.
var ErrTimeout = errors.New("completion service call timed out")

// CompletionService is the black-box capability of submitting a conversation
// plus a tool registry and receiving back an assistant turn containing text
// and/or structured tool invocations.
type CompletionService interface {
	// Complete submits the conversation and returns the service's reply as an
	// assistant turn with its content blocks in their original order.
	Complete(ctx context.Context, system string, conversation []message.Message, tools []message.Tool) (message.Message, error)

	// ModelID returns a stable identifier for the underlying model.
	ModelID() string
}

// Package message defines the neutral conversation format exchanged with the
// completion service: role-tagged turns made of ordered content blocks.
package message

import (
	"strings"
	"time"
)

type Role int

const (
	RoleUser Role = iota
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// StopReason reports why the completion service ended an assistant turn.
type StopReason string

const (
	StopReasonEndTurn   StopReason = "end_turn"
	StopReasonToolUse   StopReason = "tool_use"
	StopReasonMaxTokens StopReason = "max_tokens"
	StopReasonUnknown   StopReason = ""
)

// Block is one content block inside a turn. Implementations are TextBlock,
// ToolUseBlock and ToolResultBlock.
type Block interface {
	blockKind() string
}

// TextBlock carries plain prose.
type TextBlock struct {
	Text string
}

func (TextBlock) blockKind() string { return "text" }

// ToolUseBlock is a tool invocation requested by the service. The ID
// correlates the invocation with its eventual result.
type ToolUseBlock struct {
	ID        string
	Name      ToolName
	Arguments ToolArgumentValues
}

func (ToolUseBlock) blockKind() string { return "tool_use" }

// ToolResultBlock carries the outcome of one tool invocation back to the
// service, matched by ToolUseID.
type ToolResultBlock struct {
	ToolUseID string
	Content   string
	IsError   bool
}

func (ToolResultBlock) blockKind() string { return "tool_result" }

// Message is one turn of a conversation. Turns are append-only for the
// duration of a run and discarded afterwards.
type Message struct {
	Role       Role
	Blocks     []Block
	StopReason StopReason // assistant turns only
	Timestamp  time.Time
}

// NewUserText creates a user turn holding a single text block.
func NewUserText(text string) Message {
	return Message{
		Role:      RoleUser,
		Blocks:    []Block{TextBlock{Text: text}},
		Timestamp: time.Now(),
	}
}

// NewAssistant creates an assistant turn from the service's content blocks,
// preserving their order.
func NewAssistant(blocks []Block, stop StopReason) Message {
	return Message{
		Role:       RoleAssistant,
		Blocks:     blocks,
		StopReason: stop,
		Timestamp:  time.Now(),
	}
}

// NewToolResults collects the results of one round's tool invocations into a
// single user turn. The caller is responsible for keeping the blocks in the
// original invocation order.
func NewToolResults(results []ToolResultBlock) Message {
	blocks := make([]Block, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, r)
	}
	return Message{
		Role:      RoleUser,
		Blocks:    blocks,
		Timestamp: time.Now(),
	}
}

// Text concatenates every text block without inserting separators. Segments
// may represent prose interleaved with citation fragments that must read as
// continuous text.
func (m Message) Text() string {
	var b strings.Builder
	for _, blk := range m.Blocks {
		if t, ok := blk.(TextBlock); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// ToolUses returns the tool invocation blocks of the turn in order.
func (m Message) ToolUses() []ToolUseBlock {
	var uses []ToolUseBlock
	for _, blk := range m.Blocks {
		if u, ok := blk.(ToolUseBlock); ok {
			uses = append(uses, u)
		}
	}
	return uses
}

// HasText reports whether the turn contains at least one text block.
func (m Message) HasText() bool {
	for _, blk := range m.Blocks {
		if _, ok := blk.(TextBlock); ok {
			return true
		}
	}
	return false
}

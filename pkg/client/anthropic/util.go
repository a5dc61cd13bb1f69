package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/pkg/errors"

	"github.com/vaultpilot/vaultpilot/pkg/message"
)

// toAnthropicMessages converts neutral turns to Anthropic message params,
// preserving block order within each turn.
func toAnthropicMessages(conversation []message.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(conversation))
	for _, msg := range conversation {
		blocks := toAnthropicBlocks(msg.Blocks)
		if len(blocks) == 0 {
			continue
		}
		switch msg.Role {
		case message.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		default:
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

func toAnthropicBlocks(blocks []message.Block) []anthropic.ContentBlockParamUnion {
	var out []anthropic.ContentBlockParamUnion
	for _, blk := range blocks {
		switch b := blk.(type) {
		case message.TextBlock:
			if b.Text == "" {
				continue
			}
			out = append(out, anthropic.NewTextBlock(b.Text))
		case message.ToolUseBlock:
			out = append(out, anthropic.NewToolUseBlock(b.ID, map[string]any(b.Arguments), string(b.Name)))
		case message.ToolResultBlock:
			out = append(out, anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: b.ToolUseID,
					IsError:   anthropic.Bool(b.IsError),
					Content: []anthropic.ToolResultBlockParamContentUnion{
						{OfText: &anthropic.TextBlockParam{Text: b.Content}},
					},
				},
			})
		}
	}
	return out
}

// convertTools maps the tool registry to Anthropic tool params. The last tool
// is marked with cache_control: ephemeral so the full tool list is cached
// across the rounds of a run.
func convertTools(tools []message.Tool) []anthropic.ToolUnionParam {
	var out []anthropic.ToolUnionParam
	for _, tool := range tools {
		properties := make(map[string]any, len(tool.Arguments()))
		var required []string
		for _, arg := range tool.Arguments() {
			properties[string(arg.Name)] = map[string]any{
				"type":        arg.Type,
				"description": arg.Description.String(),
			}
			if arg.Required {
				required = append(required, string(arg.Name))
			}
		}

		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        string(tool.Name()),
				Description: anthropic.String(tool.Description().String()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}

	if len(out) > 0 {
		last := out[len(out)-1]
		if last.OfTool != nil {
			last.OfTool.CacheControl = anthropic.NewCacheControlEphemeralParam()
		}
	}
	return out
}

// fromAnthropicMessage converts an API response to a neutral assistant turn.
// Text and tool_use blocks keep their original order; server-side tool blocks
// (web search, web fetch) are dropped because their usable output is already
// folded into the surrounding text blocks.
func fromAnthropicMessage(resp *anthropic.Message) (message.Message, error) {
	var blocks []message.Block
	for _, contentBlock := range resp.Content {
		switch variant := contentBlock.AsAny().(type) {
		case anthropic.TextBlock:
			blocks = append(blocks, message.TextBlock{Text: variant.Text})
		case anthropic.ToolUseBlock:
			args := make(message.ToolArgumentValues)
			if len(variant.Input) > 0 {
				if err := json.Unmarshal(variant.Input, &args); err != nil {
					return message.Message{}, errors.Wrapf(err, "failed to parse arguments of tool %s", variant.Name)
				}
			}
			blocks = append(blocks, message.ToolUseBlock{
				ID:        variant.ID,
				Name:      message.ToolName(variant.Name),
				Arguments: args,
			})
		}
	}
	return message.NewAssistant(blocks, convertStopReason(resp.StopReason)), nil
}

func convertStopReason(reason anthropic.StopReason) message.StopReason {
	switch reason {
	case anthropic.StopReasonEndTurn:
		return message.StopReasonEndTurn
	case anthropic.StopReasonToolUse:
		return message.StopReasonToolUse
	case anthropic.StopReasonMaxTokens:
		return message.StopReasonMaxTokens
	default:
		return message.StopReasonUnknown
	}
}

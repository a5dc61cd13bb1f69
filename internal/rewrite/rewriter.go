// Package rewrite implements the single-document rewrite mode: one
// request/response round trip that turns the current body of a document plus
// a free-text instruction into the complete replacement body. No tool
// dispatch loop runs in this mode.
package rewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/vaultpilot/vaultpilot/pkg/agent/domain"
	pkgLogger "github.com/vaultpilot/vaultpilot/pkg/logger"
	"github.com/vaultpilot/vaultpilot/pkg/message"
)

// CapabilityMarker is the reserved escape response: when the model decides
// the request needs cross-document operations this mode does not offer, it
// replies with this prefix instead of document content.
const CapabilityMarker = "[VAULT_ACCESS_REQUIRED]"

var (
	// ErrEmptyResponse reports a reply with no text segments at all.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrVaultAccessRequired reports that the request needs the agent mode's
	// vault operations, which the rewrite mode does not have.
	ErrVaultAccessRequired = errors.New("request requires vault access not available in rewrite mode")
)

var logger = pkgLogger.NewComponentLogger("rewrite")

const systemPrompt = `You rewrite a single document. You are given the document's name, its current content, and an instruction. Reply with the complete new content of the document.

Rules:
- Modify only what the instruction explicitly asks for. Preserve everything else exactly, including formatting and whitespace.
- If the document is empty, write new content from scratch.
- Otherwise prefer inserting or appending over rewriting, unless the instruction explicitly asks for a rewrite.
- Reply with the raw document content only. Never wrap it in a fenced code block.
- Never add a top-level heading that repeats the document's name, unless the instruction asks for one or the document already has one.
- If the instruction requires reading, creating, or modifying OTHER documents, do not attempt it. Reply with exactly "` + CapabilityMarker + `" followed by a one-line explanation.`

// Rewriter produces replacement document bodies through a completion
// service. The service may resolve read-only web capabilities on its own
// within the single round; their output arrives already folded into the
// reply's text blocks.
type Rewriter struct {
	svc domain.CompletionService
}

func New(svc domain.CompletionService) *Rewriter {
	return &Rewriter{svc: svc}
}

// Rewrite returns the complete replacement body for the document. The reply's
// text blocks are concatenated without separators: segments may be prose
// interleaved with citation fragments that must read as continuous text.
func (r *Rewriter) Rewrite(ctx context.Context, docName, body, instruction string) (string, error) {
	prompt := buildPrompt(docName, body, instruction)

	reply, err := r.svc.Complete(ctx, systemPrompt, []message.Message{message.NewUserText(prompt)}, nil)
	if err != nil {
		return "", errors.Wrap(err, "rewrite request failed")
	}

	text := reply.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	if detail, ok := capabilityEscape(text); ok {
		logger.InfoWithIntention(pkgLogger.IntentionStatus, "rewrite declined, vault access required", "detail", detail)
		if detail != "" {
			return "", errors.Wrap(ErrVaultAccessRequired, detail)
		}
		return "", ErrVaultAccessRequired
	}

	return cleanup(text, docName, body), nil
}

func buildPrompt(docName, body, instruction string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document name: %s\n\n", docName)
	if body == "" {
		b.WriteString("The document is currently empty.\n\n")
	} else {
		fmt.Fprintf(&b, "Current content:\n%s\n\n", body)
	}
	fmt.Fprintf(&b, "Instruction: %s", instruction)
	return b.String()
}

// capabilityEscape recognizes the reserved marker reply and extracts the
// model's explanation.
func capabilityEscape(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, CapabilityMarker) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, CapabilityMarker)), true
}

// cleanup normalizes model output that violates the reply rules anyway: a
// reply that is entirely one fenced code block is unwrapped, and a top-level
// heading repeating the document name is dropped when the original body did
// not start with one.
func cleanup(text, docName, originalBody string) string {
	out := strings.TrimSpace(text)
	out = unwrapFence(out)

	if !hasTitleHeading(originalBody, docName) && hasTitleHeading(out, docName) {
		lines := strings.SplitN(out, "\n", 2)
		if len(lines) == 2 {
			out = strings.TrimLeft(lines[1], "\n")
		} else {
			out = ""
		}
	}
	return out
}

// unwrapFence strips a fenced code block that wraps the entire reply.
// Fences inside the document are left alone.
func unwrapFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[len(lines)-1]) != "```" {
		return text
	}
	inner := lines[1 : len(lines)-1]
	for _, line := range inner {
		if strings.HasPrefix(line, "```") {
			return text
		}
	}
	return strings.Join(inner, "\n")
}

func hasTitleHeading(text, docName string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		trimmed := strings.TrimSpace(line)
		return strings.HasPrefix(trimmed, "# ") && strings.TrimSpace(trimmed[2:]) == docName
	}
	return false
}

package rewrite

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/vaultpilot/vaultpilot/pkg/message"
)

// scriptedService returns a fixed reply and captures what it was asked.
type scriptedService struct {
	reply message.Message
	err   error

	gotSystem string
	gotConv   []message.Message
	gotTools  []message.Tool
}

func (s *scriptedService) Complete(ctx context.Context, system string, conversation []message.Message, tools []message.Tool) (message.Message, error) {
	s.gotSystem = system
	s.gotConv = conversation
	s.gotTools = tools
	return s.reply, s.err
}

func (s *scriptedService) ModelID() string { return "scripted" }

func assistantText(blocks ...message.Block) message.Message {
	return message.NewAssistant(blocks, message.StopReasonEndTurn)
}

func TestRewriteReturnsReplyBody(t *testing.T) {
	svc := &scriptedService{reply: assistantText(message.TextBlock{Text: "new body"})}
	r := New(svc)

	got, err := r.Rewrite(context.Background(), "Note", "old body", "replace everything")
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if got != "new body" {
		t.Errorf("Rewrite() = %q, want %q", got, "new body")
	}
	if len(svc.gotConv) != 1 || svc.gotConv[0].Role != message.RoleUser {
		t.Errorf("expected a single user turn, got %d turns", len(svc.gotConv))
	}
	if len(svc.gotTools) != 0 {
		t.Error("rewrite mode must not register dispatchable tools")
	}
}

func TestRewriteConcatenatesTextSegments(t *testing.T) {
	svc := &scriptedService{reply: assistantText(
		message.TextBlock{Text: "According to the forecast"},
		message.TextBlock{Text: ", rain is expected"},
		message.TextBlock{Text: " tomorrow."},
	)}
	r := New(svc)

	got, err := r.Rewrite(context.Background(), "Weather", "", "add the forecast")
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	want := "According to the forecast, rain is expected tomorrow."
	if got != want {
		t.Errorf("Rewrite() = %q, want segments joined without separators", got)
	}
}

func TestRewriteEmptyInputGenerates(t *testing.T) {
	svc := &scriptedService{reply: assistantText(message.TextBlock{Text: "soft rain falling\non the quiet morning streets\npuddles hold the sky"})}
	r := New(svc)

	got, err := r.Rewrite(context.Background(), "Haiku", "", "write a haiku about rain")
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if got == "" {
		t.Fatal("expected generated content for empty document")
	}
}

func TestRewriteEmptyResponse(t *testing.T) {
	svc := &scriptedService{reply: message.NewAssistant(nil, message.StopReasonEndTurn)}
	r := New(svc)

	_, err := r.Rewrite(context.Background(), "Note", "body", "do something")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestRewriteCapabilityEscape(t *testing.T) {
	svc := &scriptedService{reply: assistantText(
		message.TextBlock{Text: CapabilityMarker + " This requires reading other notes."},
	)}
	r := New(svc)

	_, err := r.Rewrite(context.Background(), "Note", "body", "summarize my whole vault")
	if !errors.Is(err, ErrVaultAccessRequired) {
		t.Fatalf("error = %v, want ErrVaultAccessRequired", err)
	}
}

func TestRewriteTransportFailure(t *testing.T) {
	wantErr := errors.New("connection refused")
	svc := &scriptedService{err: wantErr}
	r := New(svc)

	_, err := r.Rewrite(context.Background(), "Note", "body", "edit")
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped transport error", err)
	}
}

func TestCleanupUnwrapsFence(t *testing.T) {
	got := cleanup("```markdown\nline one\nline two\n```", "Note", "old")
	if got != "line one\nline two" {
		t.Errorf("cleanup() = %q, want fence removed", got)
	}

	// A fence inside the document is content, not a wrapper.
	content := "```go\ncode\n```\nprose after"
	if got := cleanup(content, "Note", "old"); got != content {
		t.Errorf("cleanup() = %q, want untouched", got)
	}
}

func TestCleanupDropsDuplicateHeading(t *testing.T) {
	got := cleanup("# Note\n\nbody", "Note", "plain body")
	if got != "body" {
		t.Errorf("cleanup() = %q, want heading dropped", got)
	}

	// The original already opened with the heading, so it stays.
	got = cleanup("# Note\n\nbody", "Note", "# Note\n\nold body")
	if got != "# Note\n\nbody" {
		t.Errorf("cleanup() = %q, want heading kept", got)
	}
}

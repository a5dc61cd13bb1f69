// Package loop implements the bounded, round-based agent controller. Each
// round submits the accumulated conversation to the completion service,
// dispatches any requested tool invocations, and feeds the results back until
// the service signals completion or the round cap is reached.
package loop

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vaultpilot/vaultpilot/pkg/agent/audit"
	"github.com/vaultpilot/vaultpilot/pkg/agent/domain"
	pkgLogger "github.com/vaultpilot/vaultpilot/pkg/logger"
	"github.com/vaultpilot/vaultpilot/pkg/message"
)

// DefaultMaxRounds bounds how many service round-trips a single run may make.
const DefaultMaxRounds = 50

// ErrMaxRounds is returned when a run hits the round cap. Work already done is
// not discarded: the accumulated audit log is still returned to the caller.
var ErrMaxRounds = errors.New("agent exceeded maximum rounds")

var loopLogger = pkgLogger.NewComponentLogger("agent")

// DocumentContext is the optional current-document context a run is launched
// from. When present it is prefixed to the instruction so the model knows
// which document the user is looking at.
type DocumentContext struct {
	Path string
	Body string
}

// Config carries per-run tuning for a Loop.
type Config struct {
	System      string        // system instructions submitted with every round
	MaxRounds   int           // 0 means DefaultMaxRounds
	CallTimeout time.Duration // 0 means no per-call deadline
}

// Loop drives one agent run. It is single-use: create a new Loop per run.
type Loop struct {
	svc      domain.CompletionService
	tools    domain.ToolManager
	recorder *audit.Recorder

	system      string
	maxRounds   int
	callTimeout time.Duration

	status domain.AgentStatus
}

func New(svc domain.CompletionService, tools domain.ToolManager, cfg Config) *Loop {
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Loop{
		svc:         svc,
		tools:       tools,
		recorder:    audit.NewRecorder(),
		system:      cfg.System,
		maxRounds:   maxRounds,
		callTimeout: cfg.CallTimeout,
		status:      domain.AgentStatusRunning,
	}
}

// Status returns the lifecycle state of the run.
func (l *Loop) Status() domain.AgentStatus {
	return l.status
}

// Run executes the agent loop until the service stops issuing tool calls,
// the round cap is hit, or a fatal transport failure occurs. The accumulated
// audit log is returned in every outcome; on a round-cap abort the log is
// paired with ErrMaxRounds so the caller can still present partial work.
func (l *Loop) Run(ctx context.Context, instruction string, docCtx *DocumentContext) ([]audit.Record, error) {
	conversation := []message.Message{seedTurn(instruction, docCtx)}
	registry := registeredTools(l.tools)

	for round := 0; round < l.maxRounds; round++ {
		// Cancel signal is checked at the top of each round.
		select {
		case <-ctx.Done():
			l.status = domain.AgentStatusFailed
			return l.recorder.Records(), ctx.Err()
		default:
		}

		reply, err := l.complete(ctx, conversation, registry)
		if err != nil {
			// Transport-level failures are fatal to the run; no retry here.
			l.status = domain.AgentStatusFailed
			return l.recorder.Records(), err
		}

		// The reply is appended verbatim, text and tool_use blocks together in
		// their original order, so later rounds retain full context.
		conversation = append(conversation, reply)

		uses := reply.ToolUses()
		if len(uses) == 0 || reply.StopReason == message.StopReasonEndTurn {
			// Any trailing text is the final human-readable summary.
			l.status = domain.AgentStatusDone
			loopLogger.InfoWithIntention(pkgLogger.IntentionStatus, "agent run complete",
				"rounds", round+1, "operations", l.recorder.Len())
			return l.recorder.Records(), nil
		}

		// Every attempted mutating/read primitive is logged before dispatch,
		// in invocation order, regardless of whether it will succeed.
		for _, use := range uses {
			if rec, ok := audit.ForInvocation(string(use.Name), use.Arguments); ok {
				l.recorder.Append(rec)
			}
		}

		results, err := l.dispatchRound(ctx, uses)
		if err != nil {
			l.status = domain.AgentStatusFailed
			return l.recorder.Records(), err
		}
		conversation = append(conversation, message.NewToolResults(results))
	}

	l.status = domain.AgentStatusAbortedMax
	loopLogger.InfoWithIntention(pkgLogger.IntentionCancel, "agent run aborted at round cap",
		"max_rounds", l.maxRounds, "operations", l.recorder.Len())
	return l.recorder.Records(), errors.Wrapf(ErrMaxRounds, "after %d rounds", l.maxRounds)
}

// complete performs one service call, applying the optional per-call timeout.
func (l *Loop) complete(ctx context.Context, conversation []message.Message, tools []message.Tool) (message.Message, error) {
	callCtx := ctx
	if l.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, l.callTimeout)
		defer cancel()
	}

	reply, err := l.svc.Complete(callCtx, l.system, conversation, tools)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return message.Message{}, errors.Wrapf(domain.ErrTimeout, "after %s", l.callTimeout)
		}
		return message.Message{}, errors.Wrap(err, "completion service call failed")
	}
	return reply, nil
}

// dispatchRound executes every invocation of one round. Dispatches are
// independent and may run concurrently, but results are reassembled in the
// original invocation order before being returned.
func (l *Loop) dispatchRound(ctx context.Context, uses []message.ToolUseBlock) ([]message.ToolResultBlock, error) {
	results := make([]message.ToolResultBlock, len(uses))

	g, gctx := errgroup.WithContext(ctx)
	for i, use := range uses {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = l.dispatch(gctx, use)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// dispatch executes a single tool invocation. A failure is caught and wrapped
// into an error result carrying the description: it is reported back to the
// model exactly like a success, letting the model decide how to recover.
func (l *Loop) dispatch(ctx context.Context, use message.ToolUseBlock) message.ToolResultBlock {
	loopLogger.DebugWithIntention(pkgLogger.IntentionTool, "dispatching tool call",
		"tool", string(use.Name), "id", use.ID)

	result, err := l.tools.CallTool(ctx, use.Name, use.Arguments)
	if err != nil {
		return message.ToolResultBlock{
			ToolUseID: use.ID,
			Content:   fmt.Sprintf("Tool execution failed: %v", err),
			IsError:   true,
		}
	}
	if result.Error != "" {
		return message.ToolResultBlock{ToolUseID: use.ID, Content: result.Error, IsError: true}
	}
	return message.ToolResultBlock{ToolUseID: use.ID, Content: result.Text}
}

// seedTurn builds the initial user turn, optionally prefixed with the
// current-document context the run was launched from.
func seedTurn(instruction string, docCtx *DocumentContext) message.Message {
	if docCtx == nil {
		return message.NewUserText(instruction)
	}
	text := fmt.Sprintf("Currently open document: %s\n\n%s\n\n---\n\n%s",
		docCtx.Path, docCtx.Body, instruction)
	return message.NewUserText(text)
}

// registeredTools snapshots the tool registry once per run, in stable name
// order so the submitted tool list is identical across rounds.
func registeredTools(tm domain.ToolManager) []message.Tool {
	if tm == nil {
		return nil
	}
	tools := tm.GetTools()
	out := make([]message.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

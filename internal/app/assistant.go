// Package app wires the completion service, the vault store, and the tool
// registry into the two user-facing entry points: the bounded agent run and
// the single-document rewrite.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vaultpilot/vaultpilot/internal/config"
	"github.com/vaultpilot/vaultpilot/internal/rewrite"
	"github.com/vaultpilot/vaultpilot/internal/tool"
	"github.com/vaultpilot/vaultpilot/internal/vault"
	"github.com/vaultpilot/vaultpilot/pkg/agent/audit"
	"github.com/vaultpilot/vaultpilot/pkg/agent/domain"
	"github.com/vaultpilot/vaultpilot/pkg/agent/loop"
	pkgLogger "github.com/vaultpilot/vaultpilot/pkg/logger"
)

// Assistant handles one vault with one completion service. It is safe to run
// multiple sequential operations on the same Assistant; each agent run gets a
// fresh loop and audit log.
type Assistant struct {
	settings *config.Settings
	store    vault.Store
	svc      domain.CompletionService
	tools    domain.ToolManager
	rewriter *rewrite.Rewriter
	logger   *pkgLogger.Logger
	out      io.Writer
}

// RunResult is what an agent run hands back to the caller: the final
// lifecycle state and the ordered log of attempted vault operations.
type RunResult struct {
	Status  domain.AgentStatus
	Records []audit.Record
}

func NewAssistant(svc domain.CompletionService, store vault.Store, settings *config.Settings, out io.Writer) *Assistant {
	vaultManager := tool.NewVaultToolManager(store, settings.Agent.EnableDelete)
	return &Assistant{
		settings: settings,
		store:    store,
		svc:      svc,
		tools:    tool.NewCompositeToolManager(vaultManager),
		rewriter: rewrite.New(svc),
		logger:   pkgLogger.NewComponentLogger("app"),
		out:      out,
	}
}

// RunAgent executes one bounded agent run for the instruction. docCtx is the
// optional document the run was launched from. A round-cap abort still
// returns the accumulated records alongside the error.
func (a *Assistant) RunAgent(ctx context.Context, instruction string, docCtx *loop.DocumentContext) (*RunResult, error) {
	l := loop.New(a.svc, a.tools, loop.Config{
		System:      agentSystemPrompt,
		MaxRounds:   a.settings.Agent.MaxRounds,
		CallTimeout: time.Duration(a.settings.Agent.RequestTimeoutSeconds) * time.Second,
	})

	records, err := l.Run(ctx, instruction, docCtx)
	result := &RunResult{Status: l.Status(), Records: records}

	if a.out != nil && len(records) > 0 {
		fmt.Fprintln(a.out, SummarizeRecords(records))
	}
	if err != nil {
		return result, err
	}

	a.logger.InfoWithIntention(pkgLogger.IntentionSuccess, "agent run finished",
		"model", a.svc.ModelID(), "operations", len(records))
	return result, nil
}

// RewriteDocument rewrites one document in place: reads the current body,
// asks the service for the complete replacement, and stores it. Returns the
// new body and a character-level change summary.
func (a *Assistant) RewriteDocument(ctx context.Context, docPath, instruction string) (string, string, error) {
	body, err := a.store.Read(docPath)
	if err != nil && !errors.Is(err, vault.ErrNotFound) {
		return "", "", err
	}
	existed := err == nil

	name := docName(docPath)
	rewritten, err := a.rewriter.Rewrite(ctx, name, body, instruction)
	if err != nil {
		return "", "", err
	}

	if existed {
		err = a.store.Write(docPath, rewritten)
	} else {
		err = a.store.CreateDocument(docPath, rewritten)
	}
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to store rewritten %s", docPath)
	}

	summary := DiffSummary(body, rewritten)
	a.logger.InfoWithIntention(pkgLogger.IntentionSuccess, "document rewritten",
		"path", docPath, "change", summary)
	return rewritten, summary, nil
}

// SummarizeRecords renders the audit log as one line per attempted
// operation, in order.
func SummarizeRecords(records []audit.Record) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Operations attempted (%d):\n", len(records)))
	for _, rec := range records {
		b.WriteString("  " + rec.String() + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func docName(p string) string {
	name := p
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

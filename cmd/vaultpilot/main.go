package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/vaultpilot/vaultpilot/internal/app"
	"github.com/vaultpilot/vaultpilot/internal/config"
	"github.com/vaultpilot/vaultpilot/internal/mcpserver"
	"github.com/vaultpilot/vaultpilot/internal/tool"
	"github.com/vaultpilot/vaultpilot/internal/vault"
	"github.com/vaultpilot/vaultpilot/pkg/agent/loop"
	"github.com/vaultpilot/vaultpilot/pkg/client/anthropic"
	pkgLogger "github.com/vaultpilot/vaultpilot/pkg/logger"
)

func main() {
	cmd := &cli.Command{
		Name:  "vaultpilot",
		Usage: "LLM assistant for a Markdown vault: agent runs, single-document rewrites, and an MCP tool surface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "settings",
				Aliases: []string{"s"},
				Usage:   "Path to settings file",
				Sources: cli.EnvVars("VAULTPILOT_SETTINGS"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault root directory (overrides settings)",
				Sources: cli.EnvVars("VAULTPILOT_VAULT"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "agent",
				Usage:     "Run the agent loop against the vault with a natural-language instruction",
				ArgsUsage: "<instruction>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "doc",
						Usage: "Vault-relative path of the currently open document, seeded as context",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Watch the vault for external edits during the run",
					},
				},
				Action: runAgent,
			},
			{
				Name:      "rewrite",
				Usage:     "Rewrite a single document per an instruction, without vault tools",
				ArgsUsage: "<instruction>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "doc",
						Usage:    "Vault-relative path of the document to rewrite",
						Required: true,
					},
				},
				Action: runRewrite,
			},
			{
				Name:   "mcp",
				Usage:  "Expose the vault tools to MCP clients over stdio",
				Action: runMCP,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads settings and builds the vault store shared by every subcommand.
// Logs go to logWriter so the mcp subcommand can keep stdout clean for the
// stdio transport.
func setup(cmd *cli.Command, logWriter *os.File) (*config.Settings, *vault.FS, error) {
	settings, err := config.LoadSettings(cmd.String("settings"))
	if err != nil {
		fmt.Fprintf(logWriter, "Warning: failed to load settings: %v\n", err)
		settings = config.GetDefaultSettings()
	}
	if root := cmd.String("vault"); root != "" {
		settings.Vault.Root = root
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, err
	}

	logLevel := settings.Agent.LogLevel
	if cmd.Bool("verbose") {
		logLevel = "debug"
	}
	pkgLogger.SetGlobalLoggerWithConsoleWriter(pkgLogger.LogLevel(logLevel), logWriter)

	store, err := vault.NewFS(settings.Vault.Root, settings.Vault.ExcludePatterns)
	if err != nil {
		return nil, nil, err
	}
	return settings, store, nil
}

func completionService(settings *config.Settings) (*anthropic.Service, error) {
	opts := []anthropic.Option{}
	if settings.LLM.MaxTokens > 0 {
		opts = append(opts, anthropic.WithMaxTokens(settings.LLM.MaxTokens))
	}
	if settings.Agent.EnableWebTools {
		opts = append(opts, anthropic.WithWebTools())
	}
	return anthropic.New(settings.LLM.Model, opts...)
}

func instructionArg(cmd *cli.Command) (string, error) {
	instruction := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if instruction == "" {
		return "", fmt.Errorf("an instruction is required")
	}
	return instruction, nil
}

func runAgent(ctx context.Context, cmd *cli.Command) error {
	instruction, err := instructionArg(cmd)
	if err != nil {
		return err
	}
	settings, store, err := setup(cmd, os.Stdout)
	if err != nil {
		return err
	}
	svc, err := completionService(settings)
	if err != nil {
		return err
	}

	if cmd.Bool("watch") {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if watchErr := vault.Watch(watchCtx, store); watchErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: vault watcher stopped: %v\n", watchErr)
			}
		}()
	}

	var docCtx *loop.DocumentContext
	if docPath := cmd.String("doc"); docPath != "" {
		body, readErr := store.Read(docPath)
		if readErr != nil {
			return fmt.Errorf("open document %s: %w", docPath, readErr)
		}
		docCtx = &loop.DocumentContext{Path: docPath, Body: body}
	}

	assistant := app.NewAssistant(svc, store, settings, os.Stdout)
	result, err := assistant.RunAgent(ctx, instruction, docCtx)
	if result != nil {
		fmt.Printf("Status: %s\n", result.Status)
	}
	return err
}

func runRewrite(ctx context.Context, cmd *cli.Command) error {
	instruction, err := instructionArg(cmd)
	if err != nil {
		return err
	}
	settings, store, err := setup(cmd, os.Stdout)
	if err != nil {
		return err
	}
	svc, err := completionService(settings)
	if err != nil {
		return err
	}

	assistant := app.NewAssistant(svc, store, settings, os.Stdout)
	docPath := cmd.String("doc")
	_, summary, err := assistant.RewriteDocument(ctx, docPath, instruction)
	if err != nil {
		return err
	}
	fmt.Printf("Rewrote %s (%s)\n", docPath, summary)
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	settings, store, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}
	manager := tool.NewVaultToolManager(store, settings.Agent.EnableDelete)
	srv := mcpserver.New(manager)
	return srv.ServeStdio()
}

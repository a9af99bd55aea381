package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmhooper/vikunja-mcp/internal/config"
	"github.com/jmhooper/vikunja-mcp/internal/db"
	"github.com/jmhooper/vikunja-mcp/internal/mcp"
	"github.com/jmhooper/vikunja-mcp/internal/ops"
	"github.com/jmhooper/vikunja-mcp/internal/remote"
	"github.com/jmhooper/vikunja-mcp/internal/session"
	"github.com/jmhooper/vikunja-mcp/internal/task"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"validate": true, "query": true, "filters": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  __   _____ _  ___   _ _  _    _  _
  \ \ / /_ _| |/ / | | | \| |  | |/_\
   \ V / | || ' <| |_| | .' | )| / _ \
    \_/ |___|_|\_\\___/|_|\_|\__/_/ \_\

  Filtered task queries over MCP

  Usage: vikunja-mcp <command> [options]
         vikunja-mcp --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before any initialization
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".vikunja-mcp")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, err := session.NewStore(database, cfg.SessionIdle(), cfg.SweepInterval())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load saved filters: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	client := remote.NewHTTPClient(cfg.APIBaseURL, os.Getenv("VIKUNJA_TOKEN"), cfg.RemoteTimeout())
	deps := &ops.Deps{
		Cfg:    cfg,
		Remote: remote.NewBreaker(client, cfg.BreakerFailureThreshold, cfg.BreakerCooldown()),
		Store:  store,
		Schema: task.DefaultSchema(),
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(deps)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'vikunja-mcp --help' for usage.\n")
		os.Exit(1)
	}

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		fmt.Fprintf(os.Stderr, "warning: unknown disabled tools: %v\n", unknown)
	}

	// MCP server mode (default)
	if err := mcp.Run(deps, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// ABOUTME: Entry point for the crmdesk MCP server and CLI
// ABOUTME: Loads .env and config, builds the logger and routes to subcommands
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/crmdesk/charm"
	"github.com/harperreed/crmdesk/cli"
	"github.com/harperreed/crmdesk/config"
	"github.com/harperreed/crmdesk/logging"
	"github.com/harperreed/crmdesk/telemetry"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const version = "0.2.0"

type command func(ctx context.Context, app *cli.App, args []string) error

var crmCommands = map[string]command{
	"add-contact":    cli.AddContactCommand,
	"list-contacts":  cli.ListContactsCommand,
	"update-contact": cli.UpdateContactCommand,
	"delete-contact": cli.DeleteContactCommand,
	"log":            cli.LogInteractionCommand,
	"add-company":    cli.AddCompanyCommand,
	"list-companies": cli.ListCompaniesCommand,
	"update-company": cli.UpdateCompanyCommand,
	"delete-company": cli.DeleteCompanyCommand,
	"add-deal":       cli.AddDealCommand,
	"list-deals":     cli.ListDealsCommand,
	"move-deal":      cli.MoveDealCommand,
	"delete-deal":    cli.DeleteDealCommand,
	"add-task":       cli.AddTaskCommand,
	"list-tasks":     cli.ListTasksCommand,
	"complete-task":  cli.CompleteTaskCommand,
	"delete-task":    cli.DeleteTaskCommand,
	"list-quotes":    cli.ListQuotesCommand,
	"quote-status":   cli.SetQuoteStatusCommand,
	"delete-quotes":  cli.DeleteQuotesCommand,
}

var vizCommands = map[string]command{
	"dashboard": cli.DashboardCommand,
	"timeline":  cli.TimelineCommand,
	"board":     cli.BoardCommand,
	"graph":     cli.GraphCommand,
}

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "Show version and exit")
	backend := flag.String("backend", "", "Storage backend: memory, sqlite, postgres or charm")
	dbPath := flag.String("db-path", "", "SQLite database path")
	fixtures := flag.String("fixtures", "", "Seed empty stores from this fixtures directory")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn or error")
	flag.Parse()

	if *showVersion {
		fmt.Printf("crmdesk version %s\n", version)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	// The device id tags outbox events, so it is written on first run.
	if cfg.EnsureDeviceID() {
		if err := cfg.Save(); err != nil {
			fatal(err)
		}
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *fixtures != "" {
		cfg.FixturesDir = *fixtures
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, args); err != nil {
		logger.Error("command failed", zap.String("command", args[0]), zap.Error(err))
		stop()
		fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	name, rest := args[0], args[1:]

	switch name {
	case "config":
		return configCommand(cfg, rest)
	case "sync":
		// Reload so settings saved here carry no command-line overrides.
		fileCfg, err := config.Load()
		if err != nil {
			return err
		}
		return cli.SyncCommand(os.Stdout, fileCfg, rest, charm.GetClient)
	case "fixtures":
		if len(rest) == 0 || rest[0] != "validate" {
			return errors.New("usage: crmdesk fixtures validate [dir]")
		}
		return cli.ValidateFixturesCommand(os.Stdout, rest[1:])
	}

	var cmd command
	var cmdArgs []string
	switch name {
	case "mcp":
		cmd = func(ctx context.Context, app *cli.App, a []string) error {
			return cli.MCPCommand(ctx, app, version, a)
		}
		cmdArgs = rest
	case "crm", "viz":
		if len(rest) == 0 {
			printUsage()
			return fmt.Errorf("%s requires a subcommand", name)
		}
		table := crmCommands
		if name == "viz" {
			table = vizCommands
		}
		var ok bool
		if cmd, ok = table[rest[0]]; !ok {
			printUsage()
			return fmt.Errorf("unknown %s command: %s", name, rest[0])
		}
		cmdArgs = rest[1:]
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", name)
	}

	app, err := cli.Open(ctx, cfg, logger, cli.WithTelemetry(telemetry.New()))
	if err != nil {
		return err
	}
	defer app.Close()
	return cmd(ctx, app, cmdArgs)
}

// configCommand shows the effective config or writes it to disk.
func configCommand(cfg *config.Config, args []string) error {
	if len(args) > 0 && args[0] == "init" {
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Config written to %s\n", config.Path())
		return nil
	}
	fmt.Printf("Config file:   %s\n", config.Path())
	fmt.Printf("Backend:       %s\n", cfg.Backend)
	switch cfg.Backend {
	case config.BackendSQLite:
		fmt.Printf("Database:      %s\n", cfg.DBPath)
	case config.BackendPostgres:
		fmt.Println("Database:      postgres (dsn from config)")
	}
	fmt.Printf("Stage policy:  %s\n", cfg.StagePolicy)
	fmt.Printf("Latency:       %v\n", cfg.Latency)
	fmt.Printf("Log level:     %s\n", cfg.LogLevel)
	fmt.Printf("User:          %s\n", cfg.User)
	fmt.Printf("Device ID:     %s\n", cfg.DeviceID)
	fmt.Printf("Charm host:    %s (auto-sync %v)\n", cfg.Charm.Host, cfg.Charm.AutoSync)
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Printf(`crmdesk v%s - CRM core with MCP tools

USAGE:
  crmdesk [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --backend <name>       memory, sqlite, postgres or charm (default: sqlite)
  --db-path <path>       SQLite path (default: ~/.local/share/crmdesk/crmdesk.db)
  --fixtures <dir>       Seed empty stores from JSON fixtures
  --log-level <level>    debug, info, warn or error

COMMANDS:
  mcp                    Start MCP server on stdio
    --metrics-addr <addr>   Serve prometheus metrics
    --retry-interval <d>    Activity event retry interval (default: 30s)
  crm                    Record management commands
  viz                    Dashboard, timeline, board and graph commands
  sync                   Charm sync: status, now, wipe --confirm, auto --enable|--disable, host <name>
  fixtures validate      Check fixture files (embedded when no dir given)
  config [init]          Show config, or write it to disk

CRM COMMANDS (flags come before positional ids):
  crmdesk crm add-contact --name --email --phone [--company | --company-id]
  crmdesk crm list-contacts [--query] [--sort] [--desc] [--page]
  crmdesk crm update-contact [flags] <id>
  crmdesk crm delete-contact <id>
  crmdesk crm log [--kind call|email] [--deal] [--subject] [--notes] [--duration] <contact-id>

  crmdesk crm add-company --name --industry [--website] [--address] [--notes]
  crmdesk crm list-companies [--query]
  crmdesk crm update-company [flags] <id>
  crmdesk crm delete-company <id>

  crmdesk crm add-deal --company --value --close YYYY-MM-DD [--stage] [--contact]
  crmdesk crm list-deals [--query] [--stage] [--company]
  crmdesk crm move-deal <id> <stage>
  crmdesk crm delete-deal <id>

  crmdesk crm add-task --title --due YYYY-MM-DD (--contact | --deal) [--type] [--priority]
  crmdesk crm list-tasks [--status] [--contact] [--deal] [--page]
  crmdesk crm complete-task [--reopen] <id>
  crmdesk crm delete-task <id>

  crmdesk crm list-quotes [--status] [--query] [--page]
  crmdesk crm quote-status --status <status> <id>...
  crmdesk crm delete-quotes <id>...

VIZ COMMANDS:
  crmdesk viz dashboard [--range thisMonth|thisQuarter|thisYear|all]
  crmdesk viz timeline [--contact <id>] [--deal <id>]
  crmdesk viz board [--move <id> --to <stage>]
  crmdesk viz graph [--output <file>] pipeline|accounts

EXAMPLES:
  # Try it without touching disk
  crmdesk --backend memory viz dashboard

  # Start MCP server with metrics
  crmdesk mcp --metrics-addr :9090

  # Move a deal through the pipeline
  crmdesk crm move-deal 3 Qualified

`, version)
}

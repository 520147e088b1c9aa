// ABOUTME: Sync and fixture CLI commands
// ABOUTME: Routes charm KV sync subcommands and validates seed fixture files
package cli

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/harperreed/crmdesk/charm"
	"github.com/harperreed/crmdesk/config"
	"github.com/harperreed/crmdesk/seed"
)

// SyncCommand handles: sync status|now|wipe|auto|host. Settings changes are
// saved to cfg's file; the client is opened only for subcommands that talk
// to the KV store.
func SyncCommand(out io.Writer, cfg *config.Config, args []string, open func(*charm.Config) (*charm.Client, error)) error {
	if len(args) == 0 {
		return fmt.Errorf("sync requires a subcommand (status, now, wipe, auto, host)")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "auto":
		return setAutoSync(out, cfg, rest)
	case "host":
		return setCharmHost(out, cfg, rest)
	}

	c, err := open(charm.ConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("failed to open charm client: %w", err)
	}
	switch sub {
	case "status":
		if err := charm.SyncStatusCommand(c, out, rest); err != nil {
			return err
		}
		fmt.Fprintf(out, "Device:    %s\n", dash(cfg.DeviceID))
		return nil
	case "now":
		return charm.SyncNowCommand(c, out, rest)
	case "wipe":
		return charm.SyncWipeCommand(c, out, rest)
	default:
		return fmt.Errorf("unknown sync command: %s", sub)
	}
}

func setAutoSync(out io.Writer, cfg *config.Config, args []string) error {
	flags := newFlagSet("sync auto")
	enable := flags.Bool("enable", false, "Enable auto-sync")
	disable := flags.Bool("disable", false, "Disable auto-sync")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *enable == *disable {
		return fmt.Errorf("usage: crmdesk sync auto --enable|--disable")
	}

	cfg.Charm.AutoSync = *enable
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save auto-sync: %w", err)
	}
	if *enable {
		fmt.Fprintln(out, "✓ Auto-sync enabled")
	} else {
		fmt.Fprintln(out, "✓ Auto-sync disabled")
	}
	return nil
}

func setCharmHost(out io.Writer, cfg *config.Config, args []string) error {
	flags := newFlagSet("sync host")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: crmdesk sync host <hostname>")
	}
	cfg.Charm.Host = flags.Arg(0)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save charm host: %w", err)
	}
	fmt.Fprintf(out, "✓ Charm host set to %s\n", cfg.Charm.Host)
	return nil
}

// ValidateFixturesCommand checks fixture files in a directory, or the
// embedded fixtures when no directory is given.
func ValidateFixturesCommand(out io.Writer, args []string) error {
	flags := newFlagSet("validate-fixtures")
	if err := flags.Parse(args); err != nil {
		return err
	}
	var fsys fs.FS = seed.Fixtures()
	source := "embedded fixtures"
	if flags.NArg() > 0 {
		fsys = os.DirFS(flags.Arg(0))
		source = flags.Arg(0)
	}

	problems, err := seed.Validate(fsys)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		fmt.Fprintf(out, "✓ %s are valid\n", source)
		return nil
	}
	keys := make([]string, 0, len(problems))
	for k := range problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "✗ %s: %v\n", k, problems[k])
	}
	return fmt.Errorf("%d invalid fixture record(s) in %s", len(problems), source)
}

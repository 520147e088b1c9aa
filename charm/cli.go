// ABOUTME: CLI commands for Charm KV sync operations
// ABOUTME: SSH key auth means no login/logout; these only inspect, sync or wipe the KV

package charm

import (
	"flag"
	"fmt"
	"io"
	"time"
)

// SyncStatusCommand shows sync configuration and snapshot counts.
func SyncStatusCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := c.Config()
	fmt.Fprintln(out, "Charm Sync Status")
	fmt.Fprintln(out, "─────────────────")
	fmt.Fprintf(out, "Server:    %s\n", cfg.Host)
	fmt.Fprintf(out, "Auto-sync: %v\n", cfg.AutoSync)
	fmt.Fprintf(out, "Stale at:  %s\n", cfg.StaleThreshold)
	if last := c.LastSync(); last.IsZero() {
		fmt.Fprintln(out, "Last sync: never")
	} else {
		fmt.Fprintf(out, "Last sync: %s\n", last.Format(time.RFC3339))
	}

	if id, err := c.ID(); err != nil {
		fmt.Fprintln(out, "Status:    Not connected")
	} else {
		fmt.Fprintf(out, "Status:    Connected (%s)\n", id)
	}

	buckets, err := NewPersister(c).Buckets()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	fmt.Fprintf(out, "Buckets:   %d\n", len(buckets))
	for _, b := range buckets {
		fmt.Fprintf(out, "  - %s\n", b)
	}
	return nil
}

// SyncNowCommand performs an immediate sync.
func SyncNowCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync now", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Fprintln(out, "✓ Synced")
	return nil
}

// SyncWipeCommand completely resets the KV store.
func SyncWipeCommand(c *Client, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("sync wipe", flag.ContinueOnError)
	confirm := fs.Bool("confirm", false, "Confirm data wipe")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*confirm {
		fmt.Fprintln(out, "WARNING: This will delete ALL local data!")
		fmt.Fprintln(out, "To confirm, run:")
		fmt.Fprintln(out, "  crmdesk sync wipe --confirm")
		return nil
	}

	if err := c.Reset(); err != nil {
		return fmt.Errorf("failed to reset KV store: %w", err)
	}
	fmt.Fprintln(out, "✓ All data wiped")
	return nil
}

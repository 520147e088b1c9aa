// ABOUTME: Shared flag parsing helpers for CLI subcommands
// ABOUTME: Positional record ids, optional ids and dash placeholders for empty cells
package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// positionalID reads the first positional argument as a record id.
func positionalID(fs *flag.FlagSet, kind string) (int64, error) {
	if fs.NArg() < 1 {
		return 0, fmt.Errorf("%s ID is required", kind)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", kind, fs.Arg(0))
	}
	return id, nil
}

// flagSet reports whether name was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// command is one node of the CLI tree.
type command struct {
	Name    string
	Summary string
	Usage   string

	// Flags returns a fresh flag set bound to the command's options. Nil means no flags.
	Flags func() *pflag.FlagSet

	Subcommands []*command
	Run         func(args []string) error
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

// execute dispatches args to a subcommand or parses flags and runs c.
func (c *command) execute(args []string, help io.Writer) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.printHelp(help)
		return nil
	}

	if len(c.Subcommands) > 0 {
		if len(args) == 0 || strings.HasPrefix(args[0], "-") {
			c.printHelp(help)
			return usageError{"subcommand required"}
		}
		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				return sub.execute(args[1:], help)
			}
		}
		return usageError{fmt.Sprintf("unknown command %q, run '%s --help' for usage", args[0], c.Name)}
	}

	if c.Flags != nil {
		fs := c.Flags()
		fs.SetOutput(io.Discard)
		if err := fs.Parse(args); err != nil {
			if err == pflag.ErrHelp {
				c.printHelp(help)
				return nil
			}
			return usageError{fmt.Sprintf("%s: %v", c.Name, err)}
		}
		args = fs.Args()
	}
	return c.Run(args)
}

func (c *command) printHelp(w io.Writer) {
	if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}
	usage := c.Usage
	if usage == "" {
		usage = c.Name + " <command> [flags]"
	}
	fmt.Fprintf(w, "Usage:\n  %s\n", usage)

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}
	if c.Flags != nil {
		var b strings.Builder
		fs := c.Flags()
		fs.SetOutput(&b)
		fs.PrintDefaults()
		if b.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", b.String())
		}
	}
}

// exactArgs checks the positional argument count.
func exactArgs(name string, args []string, n int, what string) error {
	if len(args) != n {
		return usageError{fmt.Sprintf("usage: companion %s %s", name, what)}
	}
	return nil
}

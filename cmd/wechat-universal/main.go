// Package main provides the multi-call entrypoint for wechat-universal.
//
// The binary is installed under the names "start" and "stop"; the name it
// is invoked by selects the applet.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/wechat-universal/internal/applet"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

const exitFailure = 1

// Global configuration and state
var (
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)
)

func main() {
	os.Exit(run(os.Args, os.Stdout))
}

// run dispatches to the applet named by args[0] and returns the exit code.
func run(args []string, stdout io.Writer) int {
	setupLogger(stdout)

	if len(args) < 1 {
		fmt.Fprintln(stdout, "Error: arguments too few, couldn't get even applet")
		return exitFailure
	}

	which, err := applet.FromArg0(args[0])
	if err != nil {
		fmt.Fprintln(stdout, "Error:", err)
		return exitFailure
	}

	// --help short-circuits before any option parsing, bus or list work.
	if wantsHelp(args[1:]) {
		printHelp(stdout, which, args[0], os.Getenv("LANG"))
		return 0
	}

	cmd := newAppletCmd(which, args[0])
	cmd.SetArgs(args[1:])
	cmd.SetOut(stdout)
	cmd.SetErr(stdout)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stdout, "Error:", err)
		return exitFailure
	}
	return 0
}

// newAppletCmd builds the command tree for one applet.
func newAppletCmd(which applet.Applet, arg0 string) *cobra.Command {
	var cmd *cobra.Command
	switch which {
	case applet.Start:
		cmd = newStartCmd(arg0)
	default:
		cmd = newStopCmd(arg0)
	}

	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalOpts.verbose {
			logLevel.Set(slog.LevelDebug)
		}
	}
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		printHelp(c.OutOrStdout(), which, arg0, os.Getenv("LANG"))
	})

	globalOpts.verbose = false
	globalOpts.configPath = ""
	cmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	cmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/wechat-universal/config.toml)")

	return cmd
}

// wantsHelp reports whether --help or -h appears before a "--" terminator.
func wantsHelp(args []string) bool {
	end := slices.Index(args, "--")
	if end < 0 {
		end = len(args)
	}
	return slices.ContainsFunc(args[:end], func(a string) bool {
		return a == "--help" || a == "-h"
	})
}

// setupLogger configures the global slog logger. Diagnostics go to stdout
// alongside the sandboxed application's own output.
func setupLogger(w io.Writer) {
	logLevel.Set(slog.LevelInfo)

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewTextHandler(w, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/wechat-universal/internal/binds"
	"github.com/jmylchreest/wechat-universal/internal/config"
	"github.com/jmylchreest/wechat-universal/internal/dbus"
	"github.com/jmylchreest/wechat-universal/internal/ime"
	"github.com/jmylchreest/wechat-universal/internal/sandbox"
	"github.com/jmylchreest/wechat-universal/internal/session"
)

type startOptions struct {
	data        string
	binds       []string
	bindsConfig string
	ime         imeValues
	dryRun      bool
}

var startOpts startOptions

// imeValues records every --ime value in order so they can be applied on
// top of the config and environment once those are loaded.
type imeValues []string

func (v *imeValues) String() string { return strings.Join(*v, ",") }
func (v *imeValues) Set(s string) error {
	*v = append(*v, s)
	return nil
}
func (v *imeValues) Type() string { return "ime" }

func newStartCmd(arg0 string) *cobra.Command {
	startOpts = startOptions{}

	cmd := &cobra.Command{
		Use:   arg0,
		Short: "Start WeChat Universal inside its sandbox",
		Args:  cobra.NoArgs,
		RunE:  runStart,
	}

	cmd.Flags().StringVar(&startOpts.data, "data", "",
		"Path to WeChat data folder, absolute or relative to home")
	cmd.Flags().StringArrayVar(&startOpts.binds, "bind", nil,
		"Custom bind, absolute or relative to home (repeatable)")
	cmd.Flags().StringVar(&startOpts.bindsConfig, "binds-config", "",
		"Text file with one --bind value per line")
	cmd.Flags().Var(&startOpts.ime, "ime",
		"IME workaround: none, auto, fcitx, ibus")
	cmd.Flags().BoolVar(&startOpts.dryRun, "dry-run", false,
		"Print the sandbox command instead of running it")

	return cmd
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(globalOpts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv, logger)
	applyStartFlags(cmd, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Start.ActivateExisting && !startOpts.dryRun && tryMoveForeground(ctx, cfg) {
		return nil
	}

	opts, err := planStart(cfg, startOpts.binds, os.Getenv)
	if err != nil {
		return err
	}

	if startOpts.dryRun {
		return printCommand(cmd.OutOrStdout(), opts)
	}
	return launch(ctx, opts)
}

// applyStartFlags layers command-line flags over cfg.
func applyStartFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("data") {
		cfg.Start.DataDir = startOpts.data
	}
	if cmd.Flags().Changed("binds-config") {
		cfg.Start.BindsConfig = startOpts.bindsConfig
	}
	for _, v := range startOpts.ime {
		ime.Update(&cfg.Start.IME, v, logger)
	}
}

// tryMoveForeground raises an already running WeChat by activating its tray
// icon. It reports whether a running session was found and activated.
func tryMoveForeground(ctx context.Context, cfg *config.Config) bool {
	logger.Info("trying to find existing WeChat session and move it to foreground if it exists")

	bus, err := dbus.Connect(logger)
	if err != nil {
		return false
	}
	defer bus.Close()

	ctx, cancel := context.WithTimeout(ctx, cfg.Bus.Timeout.Duration())
	defer cancel()

	name, err := dbus.NewLocator(bus, logger).Locate(ctx)
	if err != nil {
		if errors.Is(err, dbus.ErrNotFound) {
			logger.Info("no running WeChat session found")
		}
		return false
	}

	return dbus.NewController(bus, logger).Activate(ctx, name) == nil
}

// planStart resolves the data directory, bind list and IME environment into
// sandbox options. Binds are taken from the config file, CUSTOM_BINDS, the
// binds config file and finally --bind flags, in that order.
func planStart(cfg *config.Config, flagBinds []string, getenv func(string) string) (*sandbox.Options, error) {
	list, err := binds.New(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init binds list: %w", err)
	}
	defer list.Free()

	for _, b := range cfg.Start.Binds {
		if err := list.Add(b); err != nil {
			return nil, fmt.Errorf("failed to add bind '%s' from config: %w", b, err)
		}
	}

	if env := getenv(config.EnvBinds); env != "" {
		if err := list.AddPathLike(env); err != nil {
			return nil, fmt.Errorf("failed to populate binds list from env %s: %w", config.EnvBinds, err)
		}
	}

	if err := loadBindsConfig(list, cfg.Start.BindsConfig); err != nil {
		return nil, err
	}

	for _, b := range flagBinds {
		if err := list.Add(b); err != nil {
			return nil, fmt.Errorf("failed to add bind '%s': %w", b, err)
		}
	}

	list.Log()

	home := list.Home()
	mode := ime.Resolve(cfg.Start.IME, getenv)
	logger.Debug("resolved IME workaround", "configured", cfg.Start.IME, "resolved", mode)

	return &sandbox.Options{
		Bwrap:        cfg.Sandbox.Bwrap,
		Command:      cfg.Sandbox.Command,
		Args:         cfg.Sandbox.Args,
		Home:         home,
		DataDir:      config.ExpandHome(cfg.Start.DataDir, home),
		Binds:        list.All(),
		Env:          ime.Env(mode),
		RuntimeDir:   getenv("XDG_RUNTIME_DIR"),
		ShareNetwork: cfg.Sandbox.ShareNetwork,
	}, nil
}

// loadBindsConfig reads the binds config file into list. The default file
// is optional; an explicitly configured one must exist.
func loadBindsConfig(list *binds.List, path string) error {
	explicit := path != ""
	if explicit {
		path = config.ExpandHome(path, list.Home())
	} else {
		path = config.BindsConfigPath()
	}

	err := list.LoadFile(path)
	switch {
	case err == nil:
		return nil
	case !explicit && errors.Is(err, os.ErrNotExist):
		logger.Debug("no binds config", "path", path)
		return nil
	default:
		return fmt.Errorf("failed to load binds config: %w", err)
	}
}

// launch runs the sandbox in the foreground and records the session while
// it is alive.
func launch(ctx context.Context, opts *sandbox.Options) error {
	path := session.Path()
	if err := session.Check(path); err != nil {
		return err
	}

	if err := os.MkdirAll(opts.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	cmd, err := sandbox.Command(ctx, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to build sandbox command: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start sandbox: %w", err)
	}

	sess := session.New(cmd.Process.Pid, opts.DataDir)
	if err := sess.Save(path); err != nil {
		logger.Warn("failed to save session record", "path", path, "error", err)
	}
	defer func() {
		if err := session.Remove(path); err != nil {
			logger.Warn("failed to remove session record", "path", path, "error", err)
		}
	}()

	logger.Info("started WeChat", "session", sess.ID, "pid", sess.PID, "data", opts.DataDir)

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("sandbox exited: %w", err)
	}
	logger.Info("WeChat exited", "session", sess.ID)
	return nil
}

// printCommand writes the sandbox command line, shell-quoted.
func printCommand(w io.Writer, opts *sandbox.Options) error {
	args, err := sandbox.Build(opts)
	if err != nil {
		return err
	}

	bwrap := opts.Bwrap
	if bwrap == "" {
		bwrap = config.DefaultBwrap
	}

	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, shellQuote(bwrap))
	for _, a := range args {
		quoted = append(quoted, shellQuote(a))
	}
	_, err = fmt.Fprintln(w, strings.Join(quoted, " "))
	return err
}

// shellQuote quotes s for a POSIX shell when it contains anything beyond
// plainly safe characters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			strings.ContainsRune("_@%+=:,./-", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

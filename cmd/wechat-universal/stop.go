package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/wechat-universal/internal/config"
	"github.com/jmylchreest/wechat-universal/internal/dbus"
	"github.com/jmylchreest/wechat-universal/internal/session"
)

var stopOpts struct {
	wait    bool
	timeout time.Duration
}

func newStopCmd(arg0 string) *cobra.Command {
	stopOpts.wait = false
	stopOpts.timeout = 0

	cmd := &cobra.Command{
		Use:   arg0,
		Short: "Quit the running WeChat Universal session",
		Args:  cobra.NoArgs,
		RunE:  runStop,
	}

	cmd.Flags().BoolVar(&stopOpts.wait, "wait", false,
		"Wait until the sandbox has exited")
	cmd.Flags().DurationVar(&stopOpts.timeout, "timeout", 30*time.Second,
		"Maximum time to wait with --wait")

	return cmd
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(globalOpts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	bus, err := dbus.Connect(logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := stopNotifier(context.Background(), bus, cfg.Bus.Timeout.Duration()); err != nil {
		return err
	}

	if !stopOpts.wait {
		return nil
	}
	return waitStopped(context.Background(), session.Path(), stopOpts.timeout)
}

// stopNotifier finds WeChat's tray item and clicks its Quit menu entry.
func stopNotifier(ctx context.Context, caller dbus.Caller, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name, err := dbus.NewLocator(caller, logger).Locate(ctx)
	if err != nil {
		if errors.Is(err, dbus.ErrNotFound) {
			logger.Warn("couldn't find notifier item of WeChat, either it was not started or our D-Bus queries failed")
		}
		return err
	}

	return dbus.NewController(caller, logger).RequestQuit(ctx, name)
}

// waitStopped blocks until the session record at path is removed by the
// start applet, or timeout passes.
func waitStopped(ctx context.Context, path string, timeout time.Duration) error {
	sess, err := session.Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("no session record to wait for", "path", path)
		return nil
	case err != nil:
		logger.Warn("failed to read session record", "path", path, "error", err)
	default:
		logger.Info("waiting for WeChat to exit", "session", sess.ID, "pid", sess.PID, "started", sess.Age())
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := session.WaitGone(ctx, path); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("WeChat did not exit within %s", timeout)
		}
		return err
	}

	logger.Info("WeChat exited")
	return nil
}

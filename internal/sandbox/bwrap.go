package sandbox

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"syscall"
)

// Options holds everything needed to build a bwrap command.
type Options struct {
	// Bwrap is the bubblewrap executable, looked up in PATH if relative.
	Bwrap string

	// Command and Args are run inside the sandbox.
	Command string
	Args    []string

	// Home is the user's home directory; DataDir is mounted over it.
	Home    string
	DataDir string

	// Binds are extra absolute host paths bind-mounted at the same location.
	Binds []string

	// Env holds variables set inside the sandbox (e.g. IME workaround).
	Env map[string]string

	// RuntimeDir is the host XDG_RUNTIME_DIR, shared for Wayland, PulseAudio
	// and the session bus. Skipped when empty.
	RuntimeDir string

	ShareNetwork bool
}

var (
	errNoCommand = errors.New("sandbox command is required")
	errNoHome    = errors.New("home directory is required")
	errNoData    = errors.New("data directory is required")
	errRelBind   = errors.New("bind paths must be absolute")
)

// Build returns the bwrap arguments for opts, not including the bwrap
// executable itself. Later mounts shadow earlier ones, so the data
// directory is mounted before the extra binds.
func Build(opts *Options) ([]string, error) {
	switch {
	case opts.Command == "":
		return nil, errNoCommand
	case opts.Home == "":
		return nil, errNoHome
	case opts.DataDir == "":
		return nil, errNoData
	}
	for _, b := range opts.Binds {
		if !strings.HasPrefix(b, "/") {
			return nil, errRelBind
		}
	}

	args := []string{
		"--die-with-parent",
		"--unshare-all",
	}
	if opts.ShareNetwork {
		args = append(args, "--share-net")
	}

	// System directories.
	args = append(args,
		"--ro-bind", "/usr", "/usr",
		"--symlink", "usr/lib", "/lib",
		"--symlink", "usr/lib", "/lib64",
		"--symlink", "usr/bin", "/bin",
		"--symlink", "usr/bin", "/sbin",
		"--ro-bind", "/etc", "/etc",
		"--ro-bind-try", "/opt", "/opt",
		"--proc", "/proc",
		"--dev", "/dev",
		"--dev-bind-try", "/dev/dri", "/dev/dri",
		"--ro-bind", "/sys", "/sys",
		"--tmpfs", "/tmp",
		"--ro-bind-try", "/tmp/.X11-unix", "/tmp/.X11-unix",
	)

	if opts.RuntimeDir != "" {
		args = append(args, "--bind", opts.RuntimeDir, opts.RuntimeDir)
	}

	args = append(args, "--bind", opts.DataDir, opts.Home)
	for _, b := range opts.Binds {
		args = append(args, "--bind", b, b)
	}
	args = append(args, "--chdir", opts.Home)

	keys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--setenv", k, opts.Env[k])
	}

	args = append(args, "--", opts.Command)
	args = append(args, opts.Args...)
	return args, nil
}

// Command builds an *exec.Cmd running bwrap with stdio attached to ours.
func Command(ctx context.Context, opts *Options, logger *slog.Logger) (*exec.Cmd, error) {
	if logger == nil {
		logger = slog.Default()
	}

	args, err := Build(opts)
	if err != nil {
		return nil, err
	}

	bwrap := opts.Bwrap
	if bwrap == "" {
		bwrap = "bwrap"
	}
	logger.Debug("built sandbox command", "bwrap", bwrap, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, bwrap, args...)
	// Let WeChat shut down cleanly when we are interrupted.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd, nil
}

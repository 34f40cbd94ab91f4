package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wechat-universal/internal/binds"
	"github.com/jmylchreest/wechat-universal/internal/config"
)

// isolateEnv clears the variables the start applet reads and points config
// lookups at an empty directory.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(dir, "run"))
	for _, k := range []string{config.EnvDataDir, config.EnvBinds, config.EnvBindsConfig, config.EnvIME,
		"XMODIFIERS", "QT_IM_MODULE", "GTK_IM_MODULE"} {
		t.Setenv(k, "")
	}
	return dir
}

func userHome(t *testing.T) string {
	t.Helper()
	setupLogger(io.Discard)
	l, err := binds.New(logger)
	require.NoError(t, err)
	defer l.Free()
	return l.Home()
}

func TestRun_NoArgs(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, exitFailure, run(nil, &out))
	assert.Contains(t, out.String(), "couldn't get even applet")
}

func TestRun_InvalidApplet(t *testing.T) {
	for _, arg0 := range []string{"/usr/bin/wechat-stop", "wechat-universal", "Start"} {
		t.Run(arg0, func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, exitFailure, run([]string{arg0}, &out))
			assert.Contains(t, out.String(), "unknown applet")
		})
	}
}

func TestRun_Help(t *testing.T) {
	tests := []struct {
		name string
		args []string
		lang string
		want string
	}{
		{"start english", []string{"start", "--help"}, "en_US.UTF-8", "Path to WeChat data folder"},
		{"start chinese", []string{"start", "--help"}, "zh_CN.UTF-8", "微信数据文件夹的路径"},
		{"stop english", []string{"/usr/lib/wechat-universal/stop", "-h"}, "", "Wait until the sandbox has exited"},
		{"stop chinese", []string{"stop", "--help"}, "zh_CN", "等待沙盒完全退出"},
		{"help wins over bad flag", []string{"start", "--bogus", "--help"}, "C", "--binds-config"},
		{"zh_TW is english", []string{"start", "--help"}, "zh_TW.UTF-8", "Custom bindings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LANG", tt.lang)
			var out bytes.Buffer
			assert.Equal(t, 0, run(tt.args, &out))
			assert.Contains(t, out.String(), tt.want)
			assert.Contains(t, out.String(), tt.args[0])
		})
	}
}

func TestRun_UnknownOption(t *testing.T) {
	isolateEnv(t)

	var out bytes.Buffer
	assert.Equal(t, exitFailure, run([]string{"start", "--bogus"}, &out))
	assert.Contains(t, out.String(), "unknown flag: --bogus")

	out.Reset()
	assert.Equal(t, exitFailure, run([]string{"stop", "--data", "x"}, &out))
	assert.Contains(t, out.String(), "unknown flag: --data")
}

func TestRun_StartDryRun(t *testing.T) {
	dir := isolateEnv(t)
	home := userHome(t)

	bindsFile := filepath.Join(dir, "binds.list")
	require.NoError(t, os.WriteFile(bindsFile, []byte("/mnt/fromfile\n"), 0644))

	t.Setenv(config.EnvBinds, "/mnt/a:Music")
	t.Setenv(config.EnvBindsConfig, bindsFile)
	t.Setenv(config.EnvIME, "fcitx")

	var out bytes.Buffer
	code := run([]string{
		"/usr/lib/wechat-universal/start",
		"--dry-run",
		"--bind", "/mnt/b",
		"--ime", "ibus",
		"--data", "/srv/wechat data",
	}, &out)
	require.Equal(t, 0, code, out.String())

	got := out.String()
	assert.Contains(t, got, "bwrap --die-with-parent")
	assert.Contains(t, got, "--bind '/srv/wechat data' "+shellQuote(home))
	assert.Contains(t, got, "--bind /mnt/a /mnt/a")
	assert.Contains(t, got, "--bind "+shellQuote(filepath.Join(home, "Music")))
	assert.Contains(t, got, "--bind /mnt/fromfile /mnt/fromfile")
	assert.Contains(t, got, "--bind /mnt/b /mnt/b")
	assert.Contains(t, got, "--setenv XMODIFIERS @im=ibus")
	assert.Contains(t, got, "-- /opt/wechat-universal/wechat")
}

func TestRun_StartDryRunBadBindsConfig(t *testing.T) {
	dir := isolateEnv(t)

	var out bytes.Buffer
	code := run([]string{"start", "--dry-run", "--binds-config", filepath.Join(dir, "missing.list")}, &out)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, out.String(), "failed to load binds config")
}

func TestRun_ConfigFile(t *testing.T) {
	dir := isolateEnv(t)

	path := filepath.Join(dir, "custom.toml")
	content := `
[start]
data_dir = "/srv/wc"
ime = "none"

[sandbox]
bwrap = "/usr/local/bin/bwrap"
command = "/usr/lib/wechat/wechat"
share_network = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	var out bytes.Buffer
	code := run([]string{"start", "--config", path, "--dry-run"}, &out)
	require.Equal(t, 0, code, out.String())

	got := out.String()
	assert.Contains(t, got, "/usr/local/bin/bwrap --die-with-parent")
	assert.Contains(t, got, "--bind /srv/wc ")
	assert.NotContains(t, got, "--share-net")
	assert.NotContains(t, got, "--setenv")
	assert.Contains(t, got, "-- /usr/lib/wechat/wechat")
}

func TestWantsHelp(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"--help"}, true},
		{[]string{"-h"}, true},
		{[]string{"--data", "x", "--help"}, true},
		{[]string{"--helpful"}, false},
		{[]string{"--", "--help"}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, wantsHelp(tt.args), "%v", tt.args)
	}
}

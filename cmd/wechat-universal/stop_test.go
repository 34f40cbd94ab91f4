package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wechat-universal/internal/dbus"
	"github.com/jmylchreest/wechat-universal/internal/session"
)

// trayBus is a minimal session bus with one tray item per entry in ids.
type trayBus struct {
	ids     map[string]string
	methods []string
}

func (b *trayBus) Call(ctx context.Context, dest string, path godbus.ObjectPath, method string, args ...any) *godbus.Call {
	b.methods = append(b.methods, method)

	switch method {
	case "org.freedesktop.DBus.ListNames":
		names := []string{"org.freedesktop.DBus"}
		for name := range b.ids {
			names = append(names, name)
		}
		return &godbus.Call{Body: []any{names}}
	case "org.freedesktop.DBus.Properties.Get":
		return &godbus.Call{Body: []any{godbus.MakeVariant(b.ids[dest])}}
	default:
		return &godbus.Call{}
	}
}

func TestStopNotifier(t *testing.T) {
	setupLogger(io.Discard)

	bus := &trayBus{ids: map[string]string{"org.kde.StatusNotifierItem-77-1": "wechat"}}
	require.NoError(t, stopNotifier(context.Background(), bus, time.Second))
	assert.Equal(t, "com.canonical.dbusmenu.Event", bus.methods[len(bus.methods)-1])
}

func TestStopNotifier_NotRunning(t *testing.T) {
	setupLogger(io.Discard)

	bus := &trayBus{ids: map[string]string{"org.kde.StatusNotifierItem-5-1": "telegram"}}
	err := stopNotifier(context.Background(), bus, time.Second)
	assert.ErrorIs(t, err, dbus.ErrNotFound)
	assert.NotContains(t, bus.methods, "com.canonical.dbusmenu.Event")
}

func TestWaitStopped_NoRecord(t *testing.T) {
	setupLogger(io.Discard)

	path := filepath.Join(t.TempDir(), "session.json")
	assert.NoError(t, waitStopped(context.Background(), path, time.Second))
}

func TestWaitStopped_Timeout(t *testing.T) {
	setupLogger(io.Discard)

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, session.New(1, "/data").Save(path))

	err := waitStopped(context.Background(), path, 50*time.Millisecond)
	assert.ErrorContains(t, err, "did not exit")
}

package dbus

import (
	"context"
	"strings"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	itemA = "org.kde.StatusNotifierItem-1001-1"
	itemB = "org.kde.StatusNotifierItem-2002-1"
	itemC = "org.kde.StatusNotifierItem-3003-1"
)

func TestLocate_NoNotifierNames(t *testing.T) {
	bus := &fakeBus{
		names: []string{"org.freedesktop.DBus", ":1.42", "org.freedesktop.Notifications"},
	}

	_, err := NewLocator(bus, discardLogger()).Locate(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, bus.propertyGets())
}

func TestLocate_MatchRegardlessOfOrder(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		gets  []string
	}{
		{
			name:  "match first",
			names: []string{":1.1", itemB, itemA},
			gets:  []string{itemB},
		},
		{
			name:  "match last",
			names: []string{":1.1", itemA, itemB},
			gets:  []string{itemA, itemB},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &fakeBus{
				names: tt.names,
				ids:   map[string]any{itemA: "fcitx", itemB: "wechat"},
			}

			got, err := NewLocator(bus, discardLogger()).Locate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, itemB, got)
			assert.Equal(t, tt.gets, bus.propertyGets())
		})
	}
}

func TestLocate_StopsCheckingAfterMatch(t *testing.T) {
	bus := &fakeBus{
		names: []string{itemA, itemB, itemC},
		ids:   map[string]any{itemA: "wechat", itemB: "wechat", itemC: "other"},
	}

	got, err := NewLocator(bus, discardLogger()).Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, itemA, got)
	assert.Equal(t, []string{itemA}, bus.propertyGets())
}

func TestLocate_ExactIDMatch(t *testing.T) {
	tests := []struct {
		id    string
		match bool
	}{
		{"wechat", true},
		{"wechat2", false},
		{"wechat ", false},
		{"wech", false},
		{"WeChat", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			bus := &fakeBus{
				names: []string{itemA},
				ids:   map[string]any{itemA: tt.id},
			}

			got, err := NewLocator(bus, discardLogger()).Locate(context.Background())
			if tt.match {
				require.NoError(t, err)
				assert.Equal(t, itemA, got)
				return
			}
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Empty(t, got)
		})
	}
}

func TestLocate_PropertyRequest(t *testing.T) {
	bus := &fakeBus{
		names: []string{itemA},
		ids:   map[string]any{itemA: "wechat"},
	}

	_, err := NewLocator(bus, discardLogger()).Locate(context.Background())
	require.NoError(t, err)
	require.Len(t, bus.calls, 2)

	list := bus.calls[0]
	assert.Equal(t, BusName, list.Dest)
	assert.Equal(t, dbus.ObjectPath(BusPath), list.Path)
	assert.Equal(t, "org.freedesktop.DBus.ListNames", list.Method)
	assert.Empty(t, list.Args)

	get := bus.calls[1]
	assert.Equal(t, itemA, get.Dest)
	assert.Equal(t, dbus.ObjectPath("/StatusNotifierItem"), get.Path)
	assert.Equal(t, "org.freedesktop.DBus.Properties.Get", get.Method)
	assert.Equal(t, []any{"org.kde.StatusNotifierItem", "Id"}, get.Args)
}

func TestLocate_ListNamesFails(t *testing.T) {
	bus := &fakeBus{listErr: errBoom}

	_, err := NewLocator(bus, discardLogger()).Locate(context.Background())
	assert.ErrorIs(t, err, ErrBusCall)
	assert.ErrorIs(t, err, errBoom)
}

func TestLocate_MalformedNameList(t *testing.T) {
	bus := &fakeBus{namesBody: []any{"not an array"}}

	_, err := NewLocator(bus, discardLogger()).Locate(context.Background())
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestLocate_PropertyFailureAbortsScan(t *testing.T) {
	bus := &fakeBus{
		names:  []string{itemA, itemB},
		ids:    map[string]any{itemB: "wechat"},
		getErr: map[string]error{itemA: errBoom},
	}

	got, err := NewLocator(bus, discardLogger()).Locate(context.Background())
	assert.ErrorIs(t, err, ErrBusCall)
	assert.Empty(t, got)
	assert.Equal(t, []string{itemA}, bus.propertyGets())
}

func TestLocate_NonStringIDIsProtocolError(t *testing.T) {
	bus := &fakeBus{
		names: []string{itemA},
		ids:   map[string]any{itemA: int32(7)},
	}

	_, err := NewLocator(bus, discardLogger()).Locate(context.Background())
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestIsNotifierName(t *testing.T) {
	assert.True(t, IsNotifierName(itemA))
	assert.False(t, IsNotifierName("org.kde.StatusNotifierItem-"))
	assert.False(t, IsNotifierName("org.kde.StatusNotifierWatcher"))
	assert.False(t, IsNotifierName(""))
	assert.False(t, IsNotifierName(":1.12"))
}

func TestBoundName(t *testing.T) {
	long := NotifierPrefix + strings.Repeat("x", 300)
	assert.Len(t, boundName(long), MaxNameLen)
	assert.Equal(t, itemA, boundName(itemA))
}

func TestRemoteErrorAttrs(t *testing.T) {
	err := dbus.Error{Name: "org.freedesktop.DBus.Error.UnknownMethod", Body: []any{"no such method"}}
	assert.Equal(t,
		[]any{"dbus_error", "org.freedesktop.DBus.Error.UnknownMethod", "description", "no such method"},
		remoteErrorAttrs(err))
	assert.Nil(t, remoteErrorAttrs(errBoom))
}

package dbus

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// recordedCall is one call seen by fakeBus.
type recordedCall struct {
	Dest   string
	Path   dbus.ObjectPath
	Method string
	Args   []any
}

// fakeBus answers ListNames from names and Properties.Get from ids.
type fakeBus struct {
	names     []string
	namesBody []any // overrides the ListNames reply body when set
	listErr   error
	ids       map[string]any // bus name -> Id payload (wrapped in a variant)
	getErr    map[string]error
	methodErr error // returned for Activate / Event

	calls []recordedCall
}

func (f *fakeBus) Call(ctx context.Context, dest string, path dbus.ObjectPath, method string, args ...any) *dbus.Call {
	f.calls = append(f.calls, recordedCall{Dest: dest, Path: path, Method: method, Args: args})

	switch method {
	case methodListNames:
		if f.listErr != nil {
			return &dbus.Call{Err: f.listErr}
		}
		if f.namesBody != nil {
			return &dbus.Call{Body: f.namesBody}
		}
		return &dbus.Call{Body: []any{f.names}}
	case methodGet:
		if err, ok := f.getErr[dest]; ok {
			return &dbus.Call{Err: err}
		}
		id, ok := f.ids[dest]
		if !ok {
			return &dbus.Call{Err: dbus.Error{
				Name: "org.freedesktop.DBus.Error.ServiceUnknown",
				Body: []any{"The name is not activatable"},
			}}
		}
		return &dbus.Call{Body: []any{dbus.MakeVariant(id)}}
	default:
		if f.methodErr != nil {
			return &dbus.Call{Err: f.methodErr}
		}
		return &dbus.Call{}
	}
}

// propertyGets returns the destinations of every Properties.Get call.
func (f *fakeBus) propertyGets() []string {
	var dests []string
	for _, c := range f.calls {
		if c.Method == methodGet {
			dests = append(dests, c.Dest)
		}
	}
	return dests
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBoom = errors.New("boom")

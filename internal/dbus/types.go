package dbus

import (
	"errors"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Bus registry.
const (
	BusName      = "org.freedesktop.DBus"
	BusPath      = "/org/freedesktop/DBus"
	BusInterface = "org.freedesktop.DBus"

	methodListNames = BusInterface + ".ListNames"
	methodGet       = "org.freedesktop.DBus.Properties.Get"
)

// StatusNotifierItem and dbusmenu surface of the tray icon.
const (
	NotifierInterface = "org.kde.StatusNotifierItem"
	NotifierPath      = "/StatusNotifierItem"
	// NotifierPrefix is the well-known name prefix tray items register under,
	// e.g. org.kde.StatusNotifierItem-1234-1.
	NotifierPrefix = NotifierInterface + "-"
	// NotifierIDProperty identifies the application owning the item.
	NotifierIDProperty = "Id"

	MenuInterface = "com.canonical.dbusmenu"
	MenuPath      = "/MenuBar"

	methodActivate = NotifierInterface + ".Activate"
	methodEvent    = MenuInterface + ".Event"
)

const (
	// TargetID is the Id property value exposed by WeChat's tray item.
	TargetID = "wechat"

	// MenuIDQuit is the dbusmenu item id of WeChat's "Quit" entry.
	MenuIDQuit int32 = 1
	// EventClicked is the dbusmenu event type for a left click.
	EventClicked = "clicked"
	// EventData is the event-specific payload; WeChat ignores it.
	EventData = ""
	// EventTimestamp of zero means the time is not available.
	EventTimestamp uint32 = 0

	// MaxNameLen bounds a bus name copied out of a reply.
	MaxNameLen = 255
)

var (
	// ErrConnection is returned when the session bus cannot be opened.
	ErrConnection = errors.New("session bus unavailable")
	// ErrNotFound is returned when no tray item belongs to WeChat.
	ErrNotFound = errors.New("wechat notifier item not found")
	// ErrBusCall is returned when a remote method or property call fails.
	ErrBusCall = errors.New("d-bus call failed")
	// ErrProtocol is returned when a reply does not have the expected shape.
	ErrProtocol = errors.New("malformed d-bus reply")
)

// remoteErrorAttrs returns log attributes describing a D-Bus error reply,
// or nothing if err did not come from the remote side.
func remoteErrorAttrs(err error) []any {
	var remote dbus.Error
	if !errors.As(err, &remote) {
		return nil
	}
	attrs := []any{"dbus_error", remote.Name}
	if len(remote.Body) > 0 {
		if desc, ok := remote.Body[0].(string); ok {
			attrs = append(attrs, "description", desc)
		}
	}
	return attrs
}

// logCallError reports a failed call at the point it was detected.
func logCallError(logger *slog.Logger, msg, op string, err error) {
	args := []any{"op", op, "error", err}
	args = append(args, remoteErrorAttrs(err)...)
	logger.Error(msg, args...)
}

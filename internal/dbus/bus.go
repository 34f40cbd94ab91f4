package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Caller issues one blocking method call on a remote object.
// *Bus implements it over a live connection; tests substitute a fake.
type Caller interface {
	Call(ctx context.Context, dest string, path dbus.ObjectPath, method string, args ...any) *dbus.Call
}

// Bus is a private connection to the user's session bus.
type Bus struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// Connect opens a private session bus connection. The caller must Close it.
func Connect(logger *slog.Logger) (*Bus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		logger.Error("failed to connect to user session bus", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if conn == nil {
		logger.Error("failed to connect to user session bus, unknown error")
		return nil, fmt.Errorf("%w: no connection returned", ErrConnection)
	}

	return &Bus{conn: conn, logger: logger}, nil
}

// Call implements Caller. Flags are left at zero so every call waits for
// its reply.
func (b *Bus) Call(ctx context.Context, dest string, path dbus.ObjectPath, method string, args ...any) *dbus.Call {
	b.logger.Debug("calling d-bus method", "dest", dest, "path", path, "method", method)
	return b.conn.Object(dest, path).CallWithContext(ctx, method, 0, args...)
}

// Close releases the connection. It is safe to call more than once.
func (b *Bus) Close() error {
	if b == nil || b.conn == nil {
		return nil
	}
	conn := b.conn
	b.conn = nil
	return conn.Close()
}

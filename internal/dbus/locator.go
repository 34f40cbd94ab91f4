package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Locator finds WeChat's tray item among the names on the bus.
type Locator struct {
	caller Caller
	logger *slog.Logger
}

// NewLocator creates a Locator that issues its calls through caller.
func NewLocator(caller Caller, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{caller: caller, logger: logger}
}

// Locate returns the bus name of WeChat's StatusNotifierItem.
//
// Only names carrying NotifierPrefix are queried for their Id property, and
// querying stops at the first item whose Id is exactly TargetID; WeChat
// refuses to run more than one session, so there is never a second match.
// Any failed call or malformed reply aborts the scan. ErrNotFound is
// returned when the scan completes without a match.
func (l *Locator) Locate(ctx context.Context) (string, error) {
	names, err := l.listNames(ctx)
	if err != nil {
		return "", err
	}

	for _, name := range names {
		if !IsNotifierName(name) {
			continue
		}
		ok, err := l.isTarget(ctx, name)
		if err != nil {
			return "", err
		}
		if ok {
			l.logger.Info("found wechat notifier item", "name", name)
			return boundName(name), nil
		}
	}

	return "", ErrNotFound
}

// IsNotifierName reports whether name is a StatusNotifierItem registration.
func IsNotifierName(name string) bool {
	return len(name) > len(NotifierPrefix) && strings.HasPrefix(name, NotifierPrefix)
}

// listNames returns every name currently owned on the bus.
func (l *Locator) listNames(ctx context.Context) ([]string, error) {
	call := l.caller.Call(ctx, BusName, BusPath, methodListNames)
	if call.Err != nil {
		logCallError(l.logger, "failed to list d-bus names", methodListNames, call.Err)
		return nil, fmt.Errorf("%w: list names: %w", ErrBusCall, call.Err)
	}

	var names []string
	if err := call.Store(&names); err != nil {
		l.logger.Error("failed to read d-bus array of names", "error", err)
		return nil, fmt.Errorf("%w: list names: %w", ErrProtocol, err)
	}

	return names, nil
}

// isTarget reads the Id property of the item owned by name and compares it
// with TargetID. The comparison is exact: "wechat2" is a different item.
func (l *Locator) isTarget(ctx context.Context, name string) (bool, error) {
	call := l.caller.Call(ctx, name, NotifierPath, methodGet, NotifierInterface, NotifierIDProperty)
	if call.Err != nil {
		logCallError(l.logger, "failed to get notifier id", methodGet, call.Err)
		return false, fmt.Errorf("%w: get %s id: %w", ErrBusCall, name, call.Err)
	}

	var value dbus.Variant
	if err := call.Store(&value); err != nil {
		l.logger.Error("failed to read notifier id variant", "name", name, "error", err)
		return false, fmt.Errorf("%w: %s id: %w", ErrProtocol, name, err)
	}

	id, ok := value.Value().(string)
	if !ok {
		l.logger.Error("notifier id is not a string", "name", name, "signature", value.Signature().String())
		return false, fmt.Errorf("%w: %s id has signature %s", ErrProtocol, name, value.Signature())
	}

	l.logger.Debug("checked notifier item", "name", name, "id", id)
	return id == TargetID, nil
}

// boundName copies name, truncated to MaxNameLen bytes.
func boundName(name string) string {
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	return strings.Clone(name)
}

package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// Controller drives a located WeChat tray item.
type Controller struct {
	caller Caller
	logger *slog.Logger
}

// NewController creates a Controller that issues its calls through caller.
func NewController(caller Caller, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{caller: caller, logger: logger}
}

// Activate emulates a left click on the tray icon, which brings the WeChat
// window to the foreground. The coordinates are required by the interface
// but ignored by WeChat.
func (c *Controller) Activate(ctx context.Context, name string) error {
	call := c.caller.Call(ctx, name, NotifierPath, methodActivate, int32(0), int32(0))
	if call.Err != nil {
		logCallError(c.logger, "failed to activate notifier item", methodActivate, call.Err)
		return fmt.Errorf("%w: activate %s: %w", ErrBusCall, name, call.Err)
	}

	c.logger.Info("activated wechat notifier item", "name", name)
	return nil
}

// RequestQuit emulates clicking "Quit" in the tray icon's menu.
func (c *Controller) RequestQuit(ctx context.Context, name string) error {
	call := c.caller.Call(ctx, name, MenuPath, methodEvent,
		MenuIDQuit,
		EventClicked,
		dbus.MakeVariant(EventData),
		EventTimestamp,
	)
	if call.Err != nil {
		logCallError(c.logger, "failed to send quit event to notifier menu", methodEvent, call.Err)
		return fmt.Errorf("%w: quit %s: %w", ErrBusCall, name, call.Err)
	}

	c.logger.Info("sent quit request to wechat", "name", name)
	return nil
}

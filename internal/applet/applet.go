// Package applet derives which applet to run from the invocation name, in
// the manner of busybox: the binary is installed under the names "start"
// and "stop" and behaves accordingly.
package applet

import (
	"errors"
	"fmt"
	"strings"
)

// Applet identifies a multi-call entry point.
type Applet int

const (
	Invalid Applet = iota
	Start
	Stop
)

// String returns the invocation name of the applet.
func (a Applet) String() string {
	switch a {
	case Start:
		return "start"
	case Stop:
		return "stop"
	default:
		return "invalid"
	}
}

// ErrInvalidApplet is returned for an invocation name that names no applet.
var ErrInvalidApplet = errors.New("unknown applet")

// FromArg0 returns the applet named by the final path segment of arg0.
// The segment must be exactly "start" or "stop".
func FromArg0(arg0 string) (Applet, error) {
	name := arg0
	if i := strings.LastIndexByte(arg0, '/'); i >= 0 {
		name = arg0[i+1:]
	}

	switch name {
	case "start":
		return Start, nil
	case "stop":
		return Stop, nil
	default:
		return Invalid, fmt.Errorf("%w '%s', allowed: '%s', '%s'", ErrInvalidApplet, name, Start, Stop)
	}
}

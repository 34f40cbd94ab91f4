// Package ime selects the input-method environment passed into the sandbox.
package ime

import (
	"log/slog"
	"strings"
)

// Mode is the input-method workaround to apply.
type Mode int

const (
	// None passes no input-method variables.
	None Mode = iota
	// Auto picks Fcitx or Ibus from the host environment.
	Auto
	// Fcitx covers both fcitx4 and fcitx5.
	Fcitx
	// Ibus is the IBus input method.
	Ibus
)

// String returns the name accepted by Update.
func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Auto:
		return "auto"
	case Fcitx:
		return "fcitx"
	case Ibus:
		return "ibus"
	default:
		return "unknown"
	}
}

// Parse maps an exact, case-sensitive name to its Mode.
func Parse(value string) (Mode, bool) {
	switch value {
	case "none":
		return None, true
	case "auto":
		return Auto, true
	case "fcitx":
		return Fcitx, true
	case "ibus":
		return Ibus, true
	default:
		return None, false
	}
}

// Update sets *m from value. Unknown values are logged and leave *m as is.
func Update(m *Mode, value string, logger *slog.Logger) {
	if mode, ok := Parse(value); ok {
		*m = mode
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("unknown IME workaround value", "value", value)
}

// UnmarshalText implements encoding.TextUnmarshaler for config parsing.
// Unknown names log a warning and keep the current value.
func (m *Mode) UnmarshalText(text []byte) error {
	Update(m, string(text), nil)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// hostVariables are inspected, in order, to resolve Auto.
var hostVariables = []string{"XMODIFIERS", "QT_IM_MODULE", "GTK_IM_MODULE"}

// Resolve turns Auto into a concrete mode by looking at the host's
// input-method variables. It returns None when nothing is recognised.
func Resolve(m Mode, getenv func(string) string) Mode {
	if m != Auto {
		return m
	}
	for _, name := range hostVariables {
		value := getenv(name)
		switch {
		case strings.Contains(value, "fcitx"):
			return Fcitx
		case strings.Contains(value, "ibus"):
			return Ibus
		}
	}
	return None
}

// Env returns the variables set inside the sandbox for a resolved mode.
// Auto must be resolved first; it yields no variables.
func Env(m Mode) map[string]string {
	switch m {
	case Fcitx:
		return map[string]string{
			"QT_IM_MODULE":   "fcitx",
			"GTK_IM_MODULE":  "fcitx",
			"XMODIFIERS":     "@im=fcitx",
			"SDL_IM_MODULE":  "fcitx",
			"GLFW_IM_MODULE": "ibus",
		}
	case Ibus:
		return map[string]string{
			"QT_IM_MODULE":   "ibus",
			"GTK_IM_MODULE":  "ibus",
			"XMODIFIERS":     "@im=ibus",
			"SDL_IM_MODULE":  "ibus",
			"GLFW_IM_MODULE": "ibus",
		}
	default:
		return nil
	}
}

// Package session records the running sandbox so that stop can tell when it
// has gone away and start can refuse to launch a second copy.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/wechat-universal/internal/config"
)

// ErrRunning is returned by Check when a live session is recorded.
var ErrRunning = errors.New("wechat-universal session already running")

// Session describes one running sandbox.
// This is persisted to $XDG_RUNTIME_DIR/wechat-universal/session.json
type Session struct {
	ID        ulid.ULID `json:"id"`
	PID       int       `json:"pid"`
	StartedAt int64     `json:"started_at"` // Unix timestamp
	DataDir   string    `json:"data_dir"`
}

// New creates a session record for the sandbox process pid.
func New(pid int, dataDir string) *Session {
	return &Session{
		ID:        ulid.Make(),
		PID:       pid,
		StartedAt: time.Now().Unix(),
		DataDir:   dataDir,
	}
}

// Path returns the default location of the session record.
func Path() string {
	return filepath.Join(config.RuntimeDir(), "session.json")
}

// Load reads a session record. A missing file yields an error matching
// os.ErrNotExist.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session record %s: %w", path, err)
	}
	return &s, nil
}

// Save writes the record atomically, creating the runtime directory.
func (s *Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Remove deletes the record at path. A missing record is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Alive reports whether the recorded process still exists.
func (s *Session) Alive() bool {
	if s.PID <= 0 {
		return false
	}
	err := syscall.Kill(s.PID, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Started returns the start time.
func (s *Session) Started() time.Time {
	return time.Unix(s.StartedAt, 0)
}

// Age returns a human-readable start time, e.g. "3 minutes ago".
func (s *Session) Age() string {
	return humanize.Time(s.Started())
}

// Check returns ErrRunning if path records a live session. A stale record
// left behind by a crashed launcher is removed.
func Check(path string) error {
	s, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if s.Alive() {
		return fmt.Errorf("%w: pid %d, started %s", ErrRunning, s.PID, s.Age())
	}
	return Remove(path)
}

package binds

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/user"
	"strings"
)

const (
	// initialBufferSize matches PATH_MAX so a typical list never regrows.
	initialBufferSize = 4096
	initialOffsets    = 16
)

var (
	// ErrNoHomeDirectory is returned when the current user has no home.
	ErrNoHomeDirectory = errors.New("current user does not have a valid home directory")
	// ErrCapacityExceeded is returned when the list cannot grow any further.
	ErrCapacityExceeded = errors.New("bind list capacity exceeded")
	// ErrOutOfMemory is returned when a larger backing array cannot be made.
	ErrOutOfMemory = errors.New("bind list allocation failed")
	// ErrFreed is returned when a freed list is used.
	ErrFreed = errors.New("bind list already freed")
)

// lookupHome resolves the home directory from the user database.
// Overridden in tests.
var lookupHome = func() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.HomeDir, nil
}

// List is an ordered list of absolute paths.
//
// Entries live back to back in a single byte buffer, each terminated by a
// NUL byte, and offsets holds the start of every entry in insertion order.
// The home directory is stored once at the front of the buffer and copied
// in front of relative entries. Capacity of both allocations only grows.
type List struct {
	buf     []byte
	offsets []int
	lenHome int
	logger  *slog.Logger
}

// New resolves the home directory and allocates an empty list.
func New(logger *slog.Logger) (*List, error) {
	l := &List{}
	if err := l.Init(logger); err != nil {
		return nil, err
	}
	return l, nil
}

// Init resolves the home directory and allocates the initial capacity.
func (l *List) Init(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	l.logger = logger

	home, err := lookupHome()
	if err != nil {
		logger.Error("failed to get passwd entry of current user", "error", err)
		return fmt.Errorf("%w: %w", ErrNoHomeDirectory, err)
	}
	if home == "" {
		logger.Error("current user does not have valid home directory")
		return ErrNoHomeDirectory
	}
	home = strings.TrimRight(home, "/")
	if home == "" {
		home = "/"
	}

	size := max(initialBufferSize, len(home)+1)
	l.buf = make([]byte, 0, size)
	l.buf = append(l.buf, home...)
	l.buf = append(l.buf, 0)
	l.lenHome = len(home)
	l.offsets = make([]int, 0, initialOffsets)
	return nil
}

// Home returns the cached home directory.
func (l *List) Home() string {
	return string(l.buf[:l.lenHome])
}

// Add appends path to the list. A path without a leading "/" is stored as
// <home>/<path>; an empty path stands for the home directory itself.
// On failure the stored entries are unchanged.
func (l *List) Add(path string) error {
	if l.buf == nil {
		return ErrFreed
	}

	needHome := !strings.HasPrefix(path, "/")
	entryLen := len(path)
	if needHome {
		entryLen = l.lenHome
		if path != "" {
			if len(path) > math.MaxInt-l.lenHome-1 {
				return l.overflow(path)
			}
			entryLen += 1 + len(path)
		}
	}
	if entryLen > math.MaxInt-len(l.buf)-1 {
		return l.overflow(path)
	}
	newUsed := len(l.buf) + entryLen + 1

	if err := l.growBuffer(newUsed); err != nil {
		return err
	}
	if err := l.growOffsets(len(l.offsets) + 1); err != nil {
		return err
	}

	l.offsets = append(l.offsets, len(l.buf))
	if needHome {
		l.buf = append(l.buf, l.buf[:l.lenHome]...)
		if path != "" {
			if l.lenHome > 1 {
				l.buf = append(l.buf, '/')
			}
			l.buf = append(l.buf, path...)
		}
	} else {
		l.buf = append(l.buf, path...)
	}
	l.buf = append(l.buf, 0)
	return nil
}

func (l *List) overflow(path string) error {
	l.logger.Error("bind entry size overflows", "length", len(path))
	return ErrCapacityExceeded
}

// AddPathLike splits s on ':' like PATH and adds every segment, stopping at
// the first failure. An empty segment between two colons adds the home
// directory; an empty string or a trailing colon adds nothing.
func (l *List) AddPathLike(s string) error {
	for s != "" {
		segment, rest, found := strings.Cut(s, ":")
		if err := l.Add(segment); err != nil {
			l.logger.Error("failed to add PATH-like string to binds list", "value", s, "error", err)
			return err
		}
		if !found {
			break
		}
		s = rest
	}
	return nil
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.offsets)
}

// At returns entry i.
func (l *List) At(i int) string {
	start := l.offsets[i]
	end := start
	for l.buf[end] != 0 {
		end++
	}
	return string(l.buf[start:end])
}

// All returns every entry in insertion order.
func (l *List) All() []string {
	paths := make([]string, 0, len(l.offsets))
	for i := range l.offsets {
		paths = append(paths, l.At(i))
	}
	return paths
}

// Cap returns the allocated capacity of the buffer and the offset array.
func (l *List) Cap() (buffer, offsets int) {
	return cap(l.buf), cap(l.offsets)
}

// Log prints every entry at info level.
func (l *List) Log() {
	for i := range l.offsets {
		l.logger.Info("custom bind", "path", l.At(i))
	}
}

// Free drops both allocations. Later calls are no-ops.
func (l *List) Free() {
	l.buf = nil
	l.offsets = nil
	l.lenHome = 0
}

// growBuffer makes room for need bytes, doubling the capacity and
// saturating at math.MaxInt.
func (l *List) growBuffer(need int) error {
	if need <= cap(l.buf) {
		return nil
	}
	size, err := nextCapacity(cap(l.buf), need)
	if err != nil {
		l.logger.Error("impossible to allocate memory for more buffer", "need", need)
		return err
	}
	buf, err := allocate[byte](len(l.buf), size)
	if err != nil {
		l.logger.Error("failed to allocate memory for bind buffer", "size", size, "error", err)
		return err
	}
	copy(buf, l.buf)
	l.buf = buf
	return nil
}

// growOffsets makes room for need offsets.
func (l *List) growOffsets(need int) error {
	if need <= cap(l.offsets) {
		return nil
	}
	size, err := nextCapacity(cap(l.offsets), need)
	if err != nil {
		l.logger.Error("impossible to allocate memory for more offsets", "need", need)
		return err
	}
	offsets, err := allocate[int](len(l.offsets), size)
	if err != nil {
		l.logger.Error("failed to allocate memory for bind offsets", "size", size, "error", err)
		return err
	}
	copy(offsets, l.offsets)
	l.offsets = offsets
	return nil
}

// nextCapacity doubles current until it reaches need, saturating at
// math.MaxInt. It fails once the capacity is already saturated.
func nextCapacity(current, need int) (int, error) {
	if current < 1 {
		current = 1
	}
	for current < need {
		switch {
		case current == math.MaxInt:
			return 0, ErrCapacityExceeded
		case current >= math.MaxInt/2:
			current = math.MaxInt
		default:
			current *= 2
		}
	}
	return current, nil
}

// allocate makes a slice, turning the runtime's out-of-range panic for
// oversized requests into ErrOutOfMemory.
func allocate[T any](length, capacity int) (s []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrOutOfMemory, r)
		}
	}()
	return make([]T, length, capacity), nil
}

package binds

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadFile adds every path listed in a binds config file: one --bind value
// per line. Surrounding whitespace is trimmed, and blank lines and lines
// starting with '#' are skipped.
func (l *List) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := l.Add(line); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read binds config %s: %w", path, err)
	}

	l.logger.Debug("loaded binds config", "path", path, "entries", l.Len())
	return nil
}

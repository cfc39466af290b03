package logtail

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Entry is one presented log line. Lines are not parsed; each entry gets a
// read-time timestamp and a fixed level.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Source    string `json:"source"`
}

// Tail returns the last n lines of the file at path, oldest first, framed as
// entries attributed to source. A missing file yields an empty result, not
// an error.
func Tail(path, source string, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return []Entry{}, nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	now := time.Now().UTC().Format(time.RFC3339)
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, Entry{
			Timestamp: now,
			Level:     "INFO",
			Message:   line,
			Source:    source,
		})
	}
	return entries, nil
}

// Truncate empties the file at path, creating it if absent.
func Truncate(path string) error {
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		return fmt.Errorf("failed to clear log file: %w", err)
	}
	return nil
}

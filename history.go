package stemshell

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// HistoryPath returns ~/.<shellName>/history.
func HistoryPath(shellName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, "."+shellName, "history"), nil
}

// History is the ordered log of entered lines backed by a file holding one
// line per entry. Appended lines are buffered until Flush.
type History struct {
	mu      sync.Mutex
	path    string
	entries []string
	pending []string
}

// OpenHistory loads the history file at path, creating it and its directory
// when absent.
func OpenHistory(path string) (*History, error) {
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("history directory %s exists and is not a directory", dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	h := &History{path: path}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		h.entries = append(h.entries, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	return h, nil
}

func (h *History) Path() string {
	return h.path
}

// Append records line as the newest entry. Line breaks inside line are
// replaced by spaces so that one entry stays one line in the file.
func (h *History) Append(line string) {
	line = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(line)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, line)
	h.pending = append(h.pending, line)
}

// Entries returns all entries, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := make([]string, len(h.entries))
	copy(entries, h.entries)
	return entries
}

// Flush appends the buffered entries to the history file.
func (h *History) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.pending) == 0 {
		return nil
	}

	f, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, line := range h.pending {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close history file: %w", err)
	}
	h.pending = nil
	return nil
}

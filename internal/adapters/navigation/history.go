// Package navigation provides a location history for the client.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// ErrInvalidPath is returned for paths that are not absolute.
var ErrInvalidPath = errors.New("path must start with /")

// History is a stack of visited locations. The top entry is the current one.
// Safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	entries []string
	logger  *slog.Logger
}

// NewHistory creates a history positioned at start.
func NewHistory(start string, logger *slog.Logger) *History {
	if start == "" {
		start = "/"
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &History{
		entries: []string{start},
		logger:  logger.With(slog.String("component", "navigation.History")),
	}
}

// Push moves to path, keeping the current entry.
func (h *History) Push(_ context.Context, path string) error {
	if err := validate(path); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, path)

	return nil
}

// Back returns to the previous entry. It reports false at the first entry.
func (h *History) Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 1 {
		return false
	}

	h.entries = h.entries[:len(h.entries)-1]

	return true
}

// ReplaceLocation moves to path and discards the current entry, so Back does
// not return to it. Replacing with the current location changes nothing.
func (h *History) ReplaceLocation(ctx context.Context, path string) error {
	if err := validate(path); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	last := len(h.entries) - 1
	if h.entries[last] == path {
		return nil
	}

	h.logger.DebugContext(ctx, "replacing location",
		slog.String("from", h.entries[last]),
		slog.String("to", path),
	)
	h.entries[last] = path

	return nil
}

// Current returns the current location.
func (h *History) Current() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.entries[len(h.entries)-1]
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

func validate(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	return nil
}

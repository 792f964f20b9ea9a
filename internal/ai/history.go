package ai

import "sync"

const (
	// DefaultHistorySize is how many results a History keeps.
	DefaultHistorySize = 50
	// DefaultHistoryLimit is how many results Recent returns for limit <= 0.
	DefaultHistoryLimit = 10
)

// History keeps the most recent AI results in memory. Older results are
// dropped once it holds size entries.
type History struct {
	mu    sync.Mutex
	size  int
	items []Result
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size}
}

func (h *History) Add(r Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, r)
	if over := len(h.items) - h.size; over > 0 {
		h.items = append([]Result(nil), h.items[over:]...)
	}
}

// Recent returns up to limit results, newest first.
func (h *History) Recent(limit int) []Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > len(h.items) {
		limit = len(h.items)
	}
	out := make([]Result, 0, limit)
	for i := len(h.items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.items[i])
	}
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

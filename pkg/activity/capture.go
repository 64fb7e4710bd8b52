package activity

import (
	"context"
	"sync"
)

// CaptureHook records selection events for assertions in tests.
type CaptureHook struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Notify records the event and returns any configured error.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Verbs returns the verbs of the recorded events in arrival order.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	verbs := make([]string, 0, len(h.Events))
	for _, event := range h.Events {
		verbs = append(verbs, event.Verb)
	}
	return verbs
}

// ForPage returns the recorded events of one session page.
func (h *CaptureHook) ForPage(session, page string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Event
	for _, event := range h.Events {
		if event.SessionID == session && event.Page == page {
			out = append(out, event)
		}
	}
	return out
}

package selections

import "sync"

type loadState uint8

const (
	loadPending loadState = iota + 1
	loadSettled
)

// InitialLoadTracker records, per page, whether the page is still on its
// first visit. A page is pending from its first MarkVisited until the first
// snapshot for it is settled.
type InitialLoadTracker struct {
	mu    sync.Mutex
	pages map[PageID]loadState
}

func NewInitialLoadTracker() *InitialLoadTracker {
	return &InitialLoadTracker{pages: map[PageID]loadState{}}
}

// MarkVisited reports whether this is the first visit to page. It returns
// true exactly once per page until Reset.
func (t *InitialLoadTracker) MarkVisited(page PageID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, seen := t.pages[page]; seen {
		return false
	}
	t.pages[page] = loadPending
	return true
}

// Pending reports whether page has not had a snapshot settled yet. Pages
// never visited are pending.
func (t *InitialLoadTracker) Pending(page PageID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pages[page] != loadSettled
}

// Settle marks the first snapshot of page as processed and reports whether
// the page was pending before the call.
func (t *InitialLoadTracker) Settle(page PageID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	pending := t.pages[page] != loadSettled
	t.pages[page] = loadSettled
	return pending
}

// Reset forgets every page.
func (t *InitialLoadTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pages = map[PageID]loadState{}
}

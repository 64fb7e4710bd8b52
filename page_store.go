package selections

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-selections/layering"
	"github.com/goliatone/go-selections/pkg/state"
)

// snapshotEquality compares the captured values of two snapshots. Trigger and
// Changed are bookkeeping and never count as a change.
var snapshotEquality = cmp.Options{
	cmpopts.IgnoreFields(Snapshot{}, "Trigger", "Changed"),
	cmpopts.EquateEmpty(),
}

// SnapshotsEqual reports whether a and b capture the same selector, filter and
// auxiliary values.
func SnapshotsEqual(a, b Snapshot) bool {
	return cmp.Equal(a, b, snapshotEquality)
}

// PageSelectionStore owns the snapshot of every page visited by one session.
// Snapshots are written through a state.Store and handed out as deep copies.
type PageSelectionStore struct {
	session string
	store   state.Store[Snapshot]
	pages   []PageID
}

func NewPageSelectionStore(session string, store state.Store[Snapshot]) *PageSelectionStore {
	if store == nil {
		store = state.NewMemoryStore[Snapshot]()
	}
	return &PageSelectionStore{session: session, store: store}
}

func (s *PageSelectionStore) ref(page PageID) state.Ref {
	return state.Ref{Session: s.session, Page: string(page)}
}

// Get returns a copy of the stored snapshot of page.
func (s *PageSelectionStore) Get(ctx context.Context, page PageID) (Snapshot, bool, error) {
	snapshot, _, ok, err := s.store.Load(ctx, s.ref(page))
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	return layering.Clone(snapshot), true, nil
}

// Reconcile stores next for page and reports whether it differs from the
// previous snapshot. A first visit always counts as changed. The snapshot is
// stored even when nothing changed.
func (s *PageSelectionStore) Reconcile(ctx context.Context, page PageID, next Snapshot, firstVisit bool) (Snapshot, state.Meta, error) {
	next = layering.Clone(next)
	stored, meta, err := state.Mutate(ctx, s.store, s.ref(page), state.Meta{}, func(current *Snapshot, exists bool) error {
		next.Changed = firstVisit || !exists || !SnapshotsEqual(*current, next)
		*current = next
		return nil
	})
	if err != nil {
		return Snapshot{}, state.Meta{}, fmt.Errorf("selections: reconcile page %q: %w", page, err)
	}
	s.track(page)
	return layering.Clone(stored), meta, nil
}

// Restore overwrites the snapshot of page without change detection.
func (s *PageSelectionStore) Restore(ctx context.Context, page PageID, snapshot Snapshot) error {
	_, _, err := state.Mutate(ctx, s.store, s.ref(page), state.Meta{}, func(current *Snapshot, _ bool) error {
		*current = layering.Clone(snapshot)
		return nil
	})
	if err != nil {
		return fmt.Errorf("selections: restore page %q: %w", page, err)
	}
	s.track(page)
	return nil
}

// Pages lists the pages with a stored snapshot in first-stored order.
func (s *PageSelectionStore) Pages() []PageID {
	return slices.Clone(s.pages)
}

// Reset deletes every stored snapshot.
func (s *PageSelectionStore) Reset(ctx context.Context) error {
	for _, page := range s.pages {
		if err := s.store.Delete(ctx, s.ref(page)); err != nil {
			return fmt.Errorf("selections: reset page %q: %w", page, err)
		}
	}
	s.pages = nil
	return nil
}

func (s *PageSelectionStore) track(page PageID) {
	if !slices.Contains(s.pages, page) {
		s.pages = append(s.pages, page)
	}
}

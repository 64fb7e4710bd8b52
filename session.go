package selections

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-selections/pkg/activity"
	"github.com/goliatone/go-selections/pkg/state"
)

// Session holds the per-user state of one dashboard session: the page
// snapshot store, the initial-load tracker and the pages whose selector
// defaults were already seeded. Entry points are serialized so one event is
// processed to completion before the next.
type Session struct {
	mu      sync.Mutex
	id      string
	engine  *Engine
	tracker *InitialLoadTracker
	pages   *PageSelectionStore
	seeded  map[PageID]bool
}

// NewSession starts an empty session with a fresh id.
func (e *Engine) NewSession() *Session {
	id := uuid.NewString()
	return &Session{
		id:      id,
		engine:  e,
		tracker: NewInitialLoadTracker(),
		pages:   NewPageSelectionStore(id, e.cfg.newStore()),
		seeded:  map[PageID]bool{},
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Reset forgets every page snapshot, visit and seeded default.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.reset(ctx); err != nil {
		return err
	}
	s.engine.emit(ctx, activity.BuildSessionResetEvent(activity.SelectionEventInput{SessionID: s.id}))
	return nil
}

func (s *Session) reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pages.Reset(ctx); err != nil {
		return err
	}
	s.tracker.Reset()
	s.seeded = map[PageID]bool{}
	return nil
}

// SwitchPage records a visit to page and reports whether it is the first.
func (s *Session) SwitchPage(ctx context.Context, page PageID) bool {
	first := s.switchPage(page)
	s.engine.emit(ctx, activity.BuildPageVisitedEvent(activity.SelectionEventInput{
		SessionID:  s.id,
		Page:       string(page),
		Trigger:    TriggerPageSelected,
		FirstVisit: first,
	}))
	return first
}

func (s *Session) switchPage(page PageID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	first := s.tracker.MarkVisited(page)
	s.engine.logger.Log(LogEvent{
		Op:       opSwitchPage,
		Session:  s.id,
		Page:     page,
		Trigger:  TriggerPageSelected,
		Changed:  first,
		Duration: time.Since(start),
	})
	return first
}

// Reconcile captures the controls of ev.Tab into a snapshot for ev.Page and
// stores it. The returned flag reports whether the snapshot differs from the
// previous one; it is always true on a page's first visit. An event without a
// real trigger fails with ErrNoOpTrigger and stores nothing.
//
// Activity hooks run after the session is released, so a hook may read the
// session back.
func (s *Session) Reconcile(ctx context.Context, ev Event) (Snapshot, bool, error) {
	snapshot, meta, err := s.reconcileLocked(ctx, ev)
	if err != nil {
		return Snapshot{}, false, err
	}
	s.engine.emit(ctx, activity.BuildSnapshotReconciledEvent(activity.SelectionEventInput{
		SessionID:  s.id,
		Tab:        string(ev.Tab),
		Page:       string(ev.Page),
		Trigger:    ev.Trigger,
		SnapshotID: meta.SnapshotID,
		Revision:   meta.Revision,
		Changed:    snapshot.Changed,
	}))
	return snapshot, snapshot.Changed, nil
}

func (s *Session) reconcileLocked(ctx context.Context, ev Event) (Snapshot, state.Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	snapshot, meta, err := s.reconcile(ctx, ev)
	s.engine.logger.Log(LogEvent{
		Op:       opReconcile,
		Session:  s.id,
		Tab:      ev.Tab,
		Page:     ev.Page,
		Trigger:  ev.Trigger,
		Changed:  snapshot.Changed,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return Snapshot{}, state.Meta{}, err
	}
	s.engine.metrics.recordReconcile(ctx, ev.Page, snapshot.Changed)
	return snapshot, meta, nil
}

func (s *Session) reconcile(ctx context.Context, ev Event) (Snapshot, state.Meta, error) {
	if ev.Trigger == "" || ev.Trigger == "." {
		s.engine.metrics.recordNoOp(ctx, opReconcile)
		return Snapshot{}, state.Meta{}, fmt.Errorf("%w: event on page %q", ErrNoOpTrigger, ev.Page)
	}

	next := Snapshot{
		Selectors: captureControls(ev.Tab, ev.Selectors),
		Filters:   captureControls(ev.Tab, ev.Filters),
		Aux:       ev.Aux,
		Trigger:   ev.Trigger,
	}
	first := s.tracker.Pending(ev.Page)
	stored, meta, err := s.pages.Reconcile(ctx, ev.Page, next, first)
	if err != nil {
		return Snapshot{}, state.Meta{}, err
	}
	s.tracker.Settle(ev.Page)
	return stored, meta, nil
}

func captureControls(tab TabID, controls []ControlValue) map[string]any {
	out := map[string]any{}
	for _, control := range controls {
		if control.ID.Tab != tab {
			continue
		}
		out[control.ID.Name] = control.Value
	}
	return out
}

// Snapshot returns a copy of the stored snapshot of page.
func (s *Session) Snapshot(ctx context.Context, page PageID) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages.Get(ctx, page)
}

// SelectorSettings runs the selector policy with the session's view of the
// page: whether its defaults still need seeding and its stored selections.
func (s *Session) SelectorSettings(ctx context.Context, in SelectorInput) (SelectorSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok, err := s.pages.Get(ctx, in.Page)
	if err != nil {
		return SelectorSettings{}, err
	}
	if ok {
		in.Stored = stored.Selectors
	}
	in.FirstVisit = !s.seeded[in.Page]

	out, err := s.engine.SelectorSettings(ctx, in)
	if err != nil {
		return SelectorSettings{}, err
	}
	s.seeded[in.Page] = true
	return out, nil
}

// InferRegions runs region inference over the stored filters of page.
func (s *Session) InferRegions(ctx context.Context, page PageID, in RegionInput) (RegionUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok, err := s.pages.Get(ctx, page)
	if err != nil {
		return RegionUpdate{}, err
	}
	if !ok {
		s.engine.metrics.recordNoOp(ctx, opRegions)
		return RegionUpdate{}, fmt.Errorf("%w: page %q has no stored filters", ErrNoOpTrigger, page)
	}
	in.Filters = stored.Filters
	return s.engine.InferRegions(ctx, in), nil
}

// RealizationWidget rebuilds the realization picker of page from the stored
// realization filter. Pages without a stored selection use every
// realization.
func (s *Session) RealizationWidget(ctx context.Context, page PageID, in WidgetInput) (RealizationWidgetUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok, err := s.pages.Get(ctx, page)
	if err != nil {
		return RealizationWidgetUpdate{}, err
	}
	in.Selected = nil
	if ok {
		selected, err := intValues(stored.Filters[s.engine.tables.Realizations.Filter])
		if err != nil {
			return RealizationWidgetUpdate{}, errors.Join(ErrInvalidRange, err)
		}
		in.Selected = selected
	}
	return s.engine.RealizationWidget(ctx, in)
}

package selections

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/goliatone/go-selections/internal/hydrate"
	"github.com/goliatone/go-selections/layering"
)

// Keys of an exported page payload that are not selector or auxiliary
// values.
const (
	payloadFilters = "filters"
	payloadTrigger = "ctx_clicked"
	payloadChanged = "update"
)

// Export renders every stored page as the runtime-store payload
// {page: {<selector>: v, "filters": {...}, <aux>: v, "ctx_clicked": t, "update": b}}.
func (s *Session) Export(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.pages.Pages()))
	for _, page := range s.pages.Pages() {
		snapshot, ok, err := s.pages.Get(ctx, page)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out[string(page)] = encodeSnapshot(snapshot)
	}
	return out, nil
}

func encodeSnapshot(snapshot Snapshot) map[string]any {
	payload := make(map[string]any, len(snapshot.Selectors)+len(snapshot.Aux)+3)
	for key, value := range snapshot.Selectors {
		payload[key] = value
	}
	for key, value := range snapshot.Aux {
		payload[key] = value
	}
	filters := snapshot.Filters
	if filters == nil {
		filters = map[string]any{}
	}
	payload[payloadFilters] = filters
	payload[payloadTrigger] = snapshot.Trigger
	payload[payloadChanged] = snapshot.Changed
	return payload
}

// Import restores pages from an exported payload. Keys absent from a page are
// filled from the snapshot already stored for it; keys present with a null
// value stay null. Imported pages count as visited and seeded.
func (s *Session) Import(ctx context.Context, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	err := s.importPayload(ctx, payload)
	s.engine.logger.Log(LogEvent{Op: opImport, Session: s.id, Duration: time.Since(start), Err: err})
	return err
}

func (s *Session) importPayload(ctx context.Context, payload map[string]any) error {
	pages := make([]string, 0, len(payload))
	for page := range payload {
		pages = append(pages, page)
	}
	slices.Sort(pages)

	for _, page := range pages {
		raw, ok := payload[page].(map[string]any)
		if !ok {
			return fmt.Errorf("selections: import page %q: payload is %T", page, payload[page])
		}
		decoder := hydrate.NewDecoder[Snapshot](
			hydrate.WithCustomDecoder[Snapshot](s.engine.decodeSnapshot),
			hydrate.WithPostHook[Snapshot](func(hctx hydrate.Context, snapshot *Snapshot) error {
				template, ok, err := s.pages.Get(ctx, PageID(hctx.Page))
				if err != nil || !ok {
					return err
				}
				*snapshot = layering.MergeLayers(*snapshot, absentFrom(template, raw))
				return nil
			}),
		)
		snapshot, err := decoder.Decode(hydrate.Context{Session: s.id, Page: page}, raw)
		if err != nil {
			return fmt.Errorf("selections: import page %q: %w", page, err)
		}
		if err := s.pages.Restore(ctx, PageID(page), snapshot); err != nil {
			return err
		}
		s.tracker.MarkVisited(PageID(page))
		s.tracker.Settle(PageID(page))
		s.seeded[PageID(page)] = true
	}
	return nil
}

// absentFrom narrows a stored snapshot to the entries the raw page does not
// carry. Only those may fill the imported snapshot.
func absentFrom(template Snapshot, raw map[string]any) Snapshot {
	fill := Snapshot{
		Selectors: omitPresent(template.Selectors, raw),
		Aux:       omitPresent(template.Aux, raw),
	}
	rawFilters, present := raw[payloadFilters]
	switch filters := rawFilters.(type) {
	case map[string]any:
		fill.Filters = omitPresent(template.Filters, filters)
	default:
		if !present {
			fill.Filters = template.Filters
		}
	}
	return fill
}

func omitPresent(values, raw map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		if _, present := raw[key]; !present {
			out[key] = value
		}
	}
	return out
}

func (e *Engine) decodeSnapshot(_ hydrate.Context, payload map[string]any) (Snapshot, error) {
	snapshot := Snapshot{
		Selectors: map[string]any{},
		Filters:   map[string]any{},
		Aux:       map[string]any{},
	}
	for key, value := range payload {
		switch {
		case key == payloadFilters:
			if value == nil {
				continue
			}
			filters, ok := value.(map[string]any)
			if !ok {
				return Snapshot{}, fmt.Errorf("%q is %T, want an object", key, value)
			}
			snapshot.Filters = filters
		case key == payloadTrigger:
			trigger, _ := value.(string)
			snapshot.Trigger = trigger
		case key == payloadChanged:
			changed, _ := value.(bool)
			snapshot.Changed = changed
		case e.tables.isAux(key):
			snapshot.Aux[key] = value
		default:
			snapshot.Selectors[key] = value
		}
	}
	return snapshot, nil
}

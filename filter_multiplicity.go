package selections

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// FilterState is the current state of one categorical filter widget.
type FilterState struct {
	ID      ComponentID
	Options []string
	Multi   bool
}

// MultiplicityInput carries the selector values of the active tab and every
// categorical filter widget. Filter identities are the broadcast targets.
type MultiplicityInput struct {
	Tab       TabID
	Selectors map[string]any
	Filters   []FilterState
}

// FilterAdjustment is the multiplicity and value write for one filter.
type FilterAdjustment struct {
	Multi  Patch[bool]
	Values Patch[[]string]
}

// FilterAdjustments holds per-filter adjustments and their broadcasts.
type FilterAdjustments struct {
	Adjustments map[string]FilterAdjustment
	Multi       []Patch[bool]
	Values      []Patch[[]string]
}

// AdjustFilters switches managed filters between single and multi select to
// follow what the tab plots or groups by. A filter turning multi-select gets
// every option; a filter turning single-select keeps its preferred option or
// the first one. On a locked tornado tab the fluid filter is forced from the
// right response. A tab without a drivers entry fails with ErrUnknownPolicy.
func (e *Engine) AdjustFilters(ctx context.Context, in MultiplicityInput) (FilterAdjustments, error) {
	start := time.Now()
	out, err := e.adjustFilters(ctx, in)
	e.logger.Log(LogEvent{Op: opFilters, Tab: in.Tab, Duration: time.Since(start), Err: err})
	return out, err
}

func (e *Engine) adjustFilters(ctx context.Context, in MultiplicityInput) (FilterAdjustments, error) {
	policy := e.tables.Multiplicity
	multiSet, err := e.multiSelectFilters(in)
	if err != nil {
		return FilterAdjustments{}, err
	}

	page := map[string]FilterState{}
	targets := make([]ComponentID, 0, len(in.Filters))
	for _, filter := range in.Filters {
		targets = append(targets, filter.ID)
		if filter.ID.Tab == in.Tab {
			page[filter.ID.Name] = filter
		}
	}

	adjustments := map[string]FilterAdjustment{}
	order := make([]string, 0, len(policy.Filters)+1)
	for _, name := range policy.Filters {
		filter, ok := page[name]
		if !ok {
			continue
		}
		order = append(order, name)
		multi := slices.Contains(multiSet, name)
		switch {
		case !multi && filter.Multi:
			adjustments[name] = FilterAdjustment{
				Multi:  SetTo(false),
				Values: SetTo(narrowTo(filter.Options, policy.Preferred[name])),
			}
		case multi && !filter.Multi:
			adjustments[name] = FilterAdjustment{
				Multi:  SetTo(true),
				Values: SetTo(slices.Clone(filter.Options)),
			}
		default:
			adjustments[name] = FilterAdjustment{}
		}
	}

	tornado := e.tables.Tornado
	if in.Tab == tornado.Tab && in.Selectors[tornado.ModeSelector] == string(TornadoLocked) {
		right, _ := in.Selectors[tornado.Right].(string)
		adjustments[tornado.Fluid.Filter] = FilterAdjustment{
			Values: SetTo([]string{tornado.fluidZone(right)}),
		}
		order = append(order, tornado.Fluid.Filter)
	}

	multi := make([]Update[bool], 0, len(order))
	values := make([]Update[[]string], 0, len(order))
	for _, name := range order {
		match := Match{Tab: in.Tab, Name: name}
		multi = append(multi, Update[bool]{Value: adjustments[name].Multi, Match: match})
		values = append(values, Update[[]string]{Value: adjustments[name].Values, Match: match})
	}
	e.metrics.recordBroadcast(ctx, opFilters, 2*len(targets))
	return FilterAdjustments{
		Adjustments: adjustments,
		Multi:       Broadcast(targets, multi),
		Values:      Broadcast(targets, values),
	}, nil
}

// multiSelectFilters lists the filter names that must be multi-select on the
// active tab. Tabs listed with no drivers keep every managed filter single.
func (e *Engine) multiSelectFilters(in MultiplicityInput) ([]string, error) {
	drivers, ok := e.tables.Multiplicity.Drivers[in.Tab]
	if !ok {
		return nil, fmt.Errorf("%w: no multiplicity drivers for tab %q", ErrUnknownPolicy, in.Tab)
	}
	out := slices.Clone(drivers.Fixed)
	for _, selector := range drivers.Selectors {
		out = append(out, stringValues(in.Selectors[selector])...)
	}
	return out, nil
}

func narrowTo(options []string, preferred string) []string {
	if preferred != "" && slices.Contains(options, preferred) {
		return []string{preferred}
	}
	if len(options) == 0 {
		return []string{}
	}
	return []string{options[0]}
}

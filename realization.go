package selections

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/goliatone/go-selections/rangecodec"
)

// RealizationMode is the state of the realization picker.
type RealizationMode string

const (
	RealizationRange RealizationMode = "range"
	RealizationList  RealizationMode = "select"
)

// RealizationWidget describes the picker to render. Range widgets use Min,
// Max, Marks and a two element Value; list widgets use Options, Size and the
// selected Value.
type RealizationWidget struct {
	Mode    RealizationMode
	Min     int
	Max     int
	Marks   []int
	Options []SelectOption
	Size    int
	Value   []int
}

// WidgetInput carries the picker mode toggle and the stored realization
// selection. Targets are the picker wrappers.
type WidgetInput struct {
	Tab      TabID
	Mode     RealizationMode
	Selected []int
	Targets  []ComponentID
}

// RealizationWidgetUpdate is the rebuilt picker and its broadcast.
type RealizationWidgetUpdate struct {
	Widget   RealizationWidget
	Wrappers []Patch[RealizationWidget]
}

// RealizationInput carries the raw picker value: two endpoints in range mode,
// the checked realizations in list mode.
type RealizationInput struct {
	Tab           TabID
	Mode          RealizationMode
	Values        []int
	FilterTargets []ComponentID
	TextTargets   []ComponentID
}

// RealizationSelection is the realization filter value, its display text and
// their broadcasts.
type RealizationSelection struct {
	Values       []int
	Text         string
	FilterValues []Patch[[]int]
	Texts        []Patch[string]
}

// RealizationWidget builds the picker for in.Mode. An empty selection falls
// back to every realization.
func (e *Engine) RealizationWidget(ctx context.Context, in WidgetInput) (RealizationWidgetUpdate, error) {
	start := time.Now()
	out, err := e.realizationWidget(ctx, in)
	e.logger.Log(LogEvent{Op: opRealization, Tab: in.Tab, Trigger: string(in.Mode), Duration: time.Since(start), Err: err})
	return out, err
}

func (e *Engine) realizationWidget(ctx context.Context, in WidgetInput) (RealizationWidgetUpdate, error) {
	if err := e.checkRealizationTab(ctx, in.Tab); err != nil {
		return RealizationWidgetUpdate{}, err
	}
	all := e.model.Realizations()
	if len(all) == 0 {
		return RealizationWidgetUpdate{}, fmt.Errorf("%w: model has no realizations", ErrInvalidRange)
	}
	selected := slices.Clone(in.Selected)
	if len(selected) == 0 {
		selected = slices.Clone(all)
	}

	widget := RealizationWidget{Mode: in.Mode}
	switch in.Mode {
	case RealizationRange:
		widget.Min, widget.Max = slices.Min(all), slices.Max(all)
		widget.Marks = slices.Compact([]int{widget.Min, widget.Max})
		widget.Value = []int{slices.Min(selected), slices.Max(selected)}
	case RealizationList:
		widget.Options = make([]SelectOption, 0, len(all))
		for _, number := range all {
			widget.Options = append(widget.Options, SelectOption{Label: strconv.Itoa(number), Value: number})
		}
		widget.Size = min(e.tables.Realizations.ListSize, len(all))
		widget.Value = selected
	default:
		return RealizationWidgetUpdate{}, fmt.Errorf("%w: realization mode %q", ErrUnknownPolicy, in.Mode)
	}

	e.metrics.recordBroadcast(ctx, opRealization, len(in.Targets))
	return RealizationWidgetUpdate{
		Widget: widget,
		Wrappers: Broadcast(in.Targets, []Update[RealizationWidget]{
			{Value: SetTo(widget), Match: Match{Tab: in.Tab}},
		}),
	}, nil
}

// SelectRealizations turns a picker edit into the realization filter value
// and its display text. Range edits expand to the full inclusive interval.
func (e *Engine) SelectRealizations(ctx context.Context, in RealizationInput) (RealizationSelection, error) {
	start := time.Now()
	out, err := e.selectRealizations(ctx, in)
	e.logger.Log(LogEvent{Op: opRealization, Tab: in.Tab, Trigger: string(in.Mode), Duration: time.Since(start), Err: err})
	return out, err
}

func (e *Engine) selectRealizations(ctx context.Context, in RealizationInput) (RealizationSelection, error) {
	if err := e.checkRealizationTab(ctx, in.Tab); err != nil {
		return RealizationSelection{}, err
	}

	var values []int
	var text string
	switch in.Mode {
	case RealizationRange:
		if len(in.Values) != 2 {
			return RealizationSelection{}, fmt.Errorf("%w: range needs two endpoints, got %d", ErrInvalidRange, len(in.Values))
		}
		values = rangecodec.Expand(in.Values[0], in.Values[1])
		text = rangecodec.Span(values[0], values[len(values)-1])
	case RealizationList:
		values = slices.Clone(in.Values)
		if values == nil {
			values = []int{}
		}
		text = rangecodec.Encode(values)
	default:
		return RealizationSelection{}, fmt.Errorf("%w: realization mode %q", ErrUnknownPolicy, in.Mode)
	}

	match := Match{Tab: in.Tab}
	e.metrics.recordBroadcast(ctx, opRealization, len(in.FilterTargets)+len(in.TextTargets))
	return RealizationSelection{
		Values:       values,
		Text:         text,
		FilterValues: Broadcast(in.FilterTargets, []Update[[]int]{{Value: SetTo(values), Match: match}}),
		Texts:        Broadcast(in.TextTargets, []Update[string]{{Value: SetTo(text), Match: match}}),
	}, nil
}

func (e *Engine) checkRealizationTab(ctx context.Context, tab TabID) error {
	if slices.Contains(e.tables.Realizations.InactiveTabs, tab) {
		e.metrics.recordNoOp(ctx, opRealization)
		return fmt.Errorf("%w: realization filter is inactive on tab %q", ErrNoOpTrigger, tab)
	}
	return nil
}

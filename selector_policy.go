package selections

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// SelectorInput carries everything the selector policy reads for one event.
// Current holds live widget values, Stored the page's stored selector values
// and Options the widgets' current option lists.
type SelectorInput struct {
	Page       PageID
	Trigger    string
	FirstVisit bool
	Current    map[string]any
	Stored     map[string]any
	Options    map[string][]SelectOption
	Targets    []ComponentID
}

// SelectorSetting is the derived state of one managed selector. Options is
// NoChange when the active rule does not derive options for the selector.
type SelectorSetting struct {
	Disabled bool
	Value    any
	Options  Patch[[]SelectOption]
}

// SelectorSettings is the settings table for one page plus its three
// broadcasts aligned to the input targets.
type SelectorSettings struct {
	Page     PageID
	Order    []string
	Settings map[string]SelectorSetting
	Disabled []Patch[bool]
	Values   []Patch[any]
	Options  []Patch[[]SelectOption]
}

// SelectorSettings derives disabled state, value and options for every
// managed selector. The result depends only on in and the policy tables.
func (e *Engine) SelectorSettings(ctx context.Context, in SelectorInput) (SelectorSettings, error) {
	start := time.Now()
	out, err := e.selectorSettings(ctx, in)
	e.logger.Log(LogEvent{
		Op:       opSelectors,
		Tab:      e.tables.SelectorPolicy.Tab,
		Page:     in.Page,
		Trigger:  in.Trigger,
		Duration: time.Since(start),
		Err:      err,
	})
	return out, err
}

func (e *Engine) selectorSettings(ctx context.Context, in SelectorInput) (SelectorSettings, error) {
	policy := e.tables.SelectorPolicy
	if err := e.checkSelectorTrigger(in); err != nil {
		e.metrics.recordNoOp(ctx, opSelectors)
		return SelectorSettings{}, err
	}

	selections := e.selectionsFor(in)
	names := e.tables.managedNames()
	settings := make(map[string]*SelectorSetting, len(names))
	for _, name := range names {
		disabled, err := e.tables.DisabledOn(name, in.Page)
		if err != nil {
			return SelectorSettings{}, err
		}
		setting := &SelectorSetting{Disabled: disabled}
		if !disabled {
			setting.Value = selections[name]
		}
		settings[name] = setting
	}

	if err := e.applyOverrides(ctx, in, settings); err != nil {
		return SelectorSettings{}, err
	}

	plotType, _ := settings[policy.PlotSelector].Value.(string)
	rule := e.tables.OptionSourcesFor(plotType)
	for target, source := range rule.DefaultFrom {
		setting := settings[target]
		if selections[target] == nil && !setting.Disabled {
			setting.Value = in.Current[source]
		}
	}
	for _, name := range names {
		sources, ok := rule.Options[name]
		if !ok {
			continue
		}
		settings[name].Options = SetTo(OptionsFrom(e.optionValues(sources)))
	}

	out := SelectorSettings{
		Page:     in.Page,
		Order:    names,
		Settings: make(map[string]SelectorSetting, len(names)),
	}
	disabled := make([]Update[bool], 0, len(names))
	values := make([]Update[any], 0, len(names))
	options := make([]Update[[]SelectOption], 0, len(names))
	for _, name := range names {
		setting := *settings[name]
		out.Settings[name] = setting
		match := Match{Tab: policy.Tab, Name: name}
		disabled = append(disabled, Update[bool]{Value: SetTo(setting.Disabled), Match: match})
		values = append(values, Update[any]{Value: SetTo(setting.Value), Match: match})
		options = append(options, Update[[]SelectOption]{Value: setting.Options, Match: match})
	}
	out.Disabled = Broadcast(in.Targets, disabled)
	out.Values = Broadcast(in.Targets, values)
	out.Options = Broadcast(in.Targets, options)
	e.metrics.recordBroadcast(ctx, opSelectors, 3*len(in.Targets))
	return out, nil
}

// checkSelectorTrigger accepts page switches and plot type changes. Any other
// trigger is honored only when the active option rule mirrors it into a
// default value.
func (e *Engine) checkSelectorTrigger(in SelectorInput) error {
	policy := e.tables.SelectorPolicy
	switch in.Trigger {
	case "", ".":
		return fmt.Errorf("%w: empty trigger", ErrNoOpTrigger)
	case TriggerPageSelected, policy.PlotSelector:
		return nil
	}
	plotType, _ := in.Current[policy.PlotSelector].(string)
	for _, source := range e.tables.OptionSourcesFor(plotType).DefaultFrom {
		if source == in.Trigger {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is ignored for plot type %q", ErrNoOpTrigger, in.Trigger, plotType)
}

func (e *Engine) selectionsFor(in SelectorInput) map[string]any {
	switch {
	case in.FirstVisit:
		seeded := map[string]any{}
		for _, selector := range e.tables.SelectorPolicy.Selectors {
			if selector.Seed != SeedFirstOption {
				seeded[selector.Name] = nil
				continue
			}
			var value any
			if options := in.Options[selector.Name]; len(options) > 0 {
				value = options[0].Value
			}
			seeded[selector.Name] = value
		}
		return seeded
	case in.Trigger == TriggerPageSelected:
		if in.Stored == nil {
			return map[string]any{}
		}
		return in.Stored
	default:
		if in.Current == nil {
			return map[string]any{}
		}
		return in.Current
	}
}

func (e *Engine) optionValues(sources []OptionSource) []string {
	var values []string
	for _, source := range sources {
		for _, value := range sourceValues(e.model, source) {
			if !slices.Contains(values, value) {
				values = append(values, value)
			}
		}
	}
	return values
}

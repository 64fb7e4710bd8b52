package selections

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// TornadoMode selects how the tornado response selectors behave.
type TornadoMode string

const (
	TornadoCustom TornadoMode = "custom"
	TornadoLocked TornadoMode = "locked"
)

// TornadoInput carries the mode selector value and the tornado selector
// identities.
type TornadoInput struct {
	Mode    TornadoMode
	Targets []ComponentID
}

// TornadoSetting is the derived state of one response selector.
type TornadoSetting struct {
	Options  Patch[[]SelectOption]
	Value    Patch[any]
	Disabled Patch[bool]
}

// TornadoSettings holds per-selector settings and the broadcasts in
// options, value, disabled order.
type TornadoSettings struct {
	Settings map[string]TornadoSetting
	Options  []Patch[[]SelectOption]
	Values   []Patch[any]
	Disabled []Patch[bool]
}

// TornadoSettings derives the response selectors for in.Mode. In custom mode
// both selectors offer every response and keep their values. In locked mode
// the left selector is pinned and the right offers the available volume
// responses.
func (e *Engine) TornadoSettings(ctx context.Context, in TornadoInput) (TornadoSettings, error) {
	start := time.Now()
	out, err := e.tornadoSettings(ctx, in)
	e.logger.Log(LogEvent{
		Op:       opTornado,
		Tab:      e.tables.Tornado.Tab,
		Trigger:  e.tables.Tornado.ModeSelector,
		Duration: time.Since(start),
		Err:      err,
	})
	return out, err
}

func (e *Engine) tornadoSettings(ctx context.Context, in TornadoInput) (TornadoSettings, error) {
	policy := e.tables.Tornado
	settings := map[string]TornadoSetting{}

	switch in.Mode {
	case TornadoCustom:
		all := SetTo(OptionsFrom(e.model.Responses()))
		for _, name := range []string{policy.Left, policy.Right} {
			settings[name] = TornadoSetting{Options: all, Disabled: SetTo(false)}
		}
	case TornadoLocked:
		responses := e.model.Responses()
		var volumes []string
		for _, candidate := range policy.VolumeResponses {
			if slices.Contains(responses, candidate) {
				volumes = append(volumes, candidate)
			}
		}
		if len(volumes) == 0 {
			return TornadoSettings{}, fmt.Errorf("%w: none of %v", ErrNoVolumeResponse, policy.VolumeResponses)
		}
		settings[policy.Left] = TornadoSetting{
			Options:  SetTo(OptionsFrom([]string{policy.LockedLeft})),
			Value:    SetTo[any](policy.LockedLeft),
			Disabled: SetTo(true),
		}
		settings[policy.Right] = TornadoSetting{
			Options:  SetTo(OptionsFrom(volumes)),
			Value:    SetTo[any](volumes[0]),
			Disabled: SetTo(len(volumes) == 1),
		}
	default:
		return TornadoSettings{}, fmt.Errorf("%w: tornado mode %q", ErrUnknownPolicy, in.Mode)
	}

	var options []Update[[]SelectOption]
	var values []Update[any]
	var disabled []Update[bool]
	for _, name := range []string{policy.Left, policy.Right} {
		setting := settings[name]
		match := Match{Tab: policy.Tab, Name: name}
		options = append(options, Update[[]SelectOption]{Value: setting.Options, Match: match})
		values = append(values, Update[any]{Value: setting.Value, Match: match})
		disabled = append(disabled, Update[bool]{Value: setting.Disabled, Match: match})
	}
	e.metrics.recordBroadcast(ctx, opTornado, 3*len(in.Targets))
	return TornadoSettings{
		Settings: settings,
		Options:  Broadcast(in.Targets, options),
		Values:   Broadcast(in.Targets, values),
		Disabled: Broadcast(in.Targets, disabled),
	}, nil
}

// fluidZone returns the fluid filter value forced by the right response in
// locked mode.
func (p TornadoPolicy) fluidZone(right string) string {
	if fluid, ok := p.Fluid.ByResponse[right]; ok {
		return fluid
	}
	return p.Fluid.Fallback
}

package selections

import (
	"context"
	"time"
)

// Style is the display style written to a filter wrapper.
type Style struct {
	Display string `json:"display"`
}

var (
	styleHidden  = Style{Display: "none"}
	styleVisible = Style{Display: "block"}
)

// RegionInput carries the region-selector mode and the stored filter values
// of the page. FilterTargets are the region filter widgets, WrapperTargets
// their wrappers.
type RegionInput struct {
	Tab            TabID
	Mode           string
	Filters        map[string]any
	FilterTargets  []ComponentID
	WrapperTargets []ComponentID
}

// RegionUpdate holds the derived values and visibility of the region filters
// and their broadcasts.
type RegionUpdate struct {
	Values       map[string][]string
	Visible      map[string]bool
	FilterValues []Patch[[]string]
	Styles       []Patch[Style]
}

// InferRegions derives the hidden representation of the region partition
// from the visible one. In FIPNUM mode the FIPNUM values are the FIPNUMs of
// rows matching the selected REGION and ZONE values; otherwise REGION and
// ZONE values are those of rows matching the selected FIPNUMs. The other
// representation is reset to all of its values. Wrappers are hidden, never
// removed.
func (e *Engine) InferRegions(ctx context.Context, in RegionInput) RegionUpdate {
	start := time.Now()
	policy := e.tables.Regions
	fipnumMode := in.Mode == policy.FIPNUMMode

	values := map[string][]string{}
	if fipnumMode {
		values[policy.Region] = e.model.Distinct(policy.Region)
		values[policy.Zone] = e.model.Distinct(policy.Zone)
		values[policy.FIPNUM] = e.model.DistinctWhere(policy.FIPNUM, map[string][]string{
			policy.Region: stringValues(in.Filters[policy.Region]),
			policy.Zone:   stringValues(in.Filters[policy.Zone]),
		})
	} else {
		values[policy.FIPNUM] = e.model.Distinct(policy.FIPNUM)
		where := map[string][]string{policy.FIPNUM: stringValues(in.Filters[policy.FIPNUM])}
		for _, column := range []string{policy.Region, policy.Zone} {
			values[column] = e.model.DistinctWhere(column, where)
		}
	}
	for name, list := range values {
		if list == nil {
			values[name] = []string{}
		}
	}

	visible := map[string]bool{
		policy.FIPNUM: fipnumMode,
		policy.Region: !fipnumMode,
		policy.Zone:   !fipnumMode,
	}

	order := []string{policy.FIPNUM, policy.Region, policy.Zone}
	valueUpdates := make([]Update[[]string], 0, len(order))
	styleUpdates := make([]Update[Style], 0, len(order))
	for _, name := range order {
		valueUpdates = append(valueUpdates, Update[[]string]{
			Value: SetTo(values[name]),
			Match: Match{Tab: in.Tab, Name: name},
		})
		style := styleHidden
		if visible[name] {
			style = styleVisible
		}
		styleUpdates = append(styleUpdates, Update[Style]{
			Value: SetTo(style),
			Match: Match{Tab: in.Tab, Wrapper: name},
		})
	}

	e.metrics.recordBroadcast(ctx, opRegions, len(in.FilterTargets)+len(in.WrapperTargets))
	e.logger.Log(LogEvent{Op: opRegions, Tab: in.Tab, Trigger: in.Mode, Duration: time.Since(start)})
	return RegionUpdate{
		Values:       values,
		Visible:      visible,
		FilterValues: Broadcast(in.FilterTargets, valueUpdates),
		Styles:       Broadcast(in.WrapperTargets, styleUpdates),
	}
}

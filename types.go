package selections

import "time"

// TabID identifies the widget-tree tab a control is rendered under.
type TabID string

const (
	TabVolumeDistribution TabID = "voldist"
	TabTornado            TabID = "tornado"
	TabTable              TabID = "table"
	TabSourceComparison   TabID = "src-comp"
	TabEnsembleComparison TabID = "ens-comp"
	TabFIPQC              TabID = "fipqc"
)

// PageID keys the per-page snapshot store. Most tabs use their tab name as the
// page; the distribution tab has sub-pages.
type PageID string

const (
	PageOnePlotOneTable PageID = "1p1t"
	PageCustom          PageID = "custom"
	PagePerZoneRegion   PageID = "per_zr"
	PageConvergence     PageID = "conv"
)

// TriggerPageSelected is the trigger identity of a page switch.
const TriggerPageSelected = "page-selected"

// Group separates selector controls from filter controls.
type Group string

const (
	GroupSelections Group = "selections"
	GroupFilters    Group = "filters"
)

// FilterKind distinguishes the structural handling of a filter.
type FilterKind string

const (
	KindCategorical FilterKind = "undef"
	KindRealization FilterKind = "REAL"
	KindRegion      FilterKind = "region"
)

// ComponentID is the identity of one dynamically-keyed widget. Only the fields
// relevant to a widget are set.
type ComponentID struct {
	Group   Group
	Tab     TabID
	Name    string
	Kind    FilterKind
	Wrapper string
	Element string
	Widget  string
	Setting string
}

// Match is a partial ComponentID. Zero fields are unconstrained.
type Match ComponentID

// Matches reports whether every constrained field of m equals the same field
// of id.
func (m Match) Matches(id ComponentID) bool {
	switch {
	case m.Group != "" && m.Group != id.Group:
		return false
	case m.Tab != "" && m.Tab != id.Tab:
		return false
	case m.Name != "" && m.Name != id.Name:
		return false
	case m.Kind != "" && m.Kind != id.Kind:
		return false
	case m.Wrapper != "" && m.Wrapper != id.Wrapper:
		return false
	case m.Element != "" && m.Element != id.Element:
		return false
	case m.Widget != "" && m.Widget != id.Widget:
		return false
	case m.Setting != "" && m.Setting != id.Setting:
		return false
	}
	return true
}

// SelectOption is one entry of a dropdown or list widget.
type SelectOption struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// OptionsFrom builds label/value options where label and value are equal.
func OptionsFrom(values []string) []SelectOption {
	out := make([]SelectOption, 0, len(values))
	for _, value := range values {
		out = append(out, SelectOption{Label: value, Value: value})
	}
	return out
}

// ControlValue is the current value of one watched control.
type ControlValue struct {
	ID    ComponentID
	Value any
}

// Snapshot is the captured state of one page.
type Snapshot struct {
	Selectors map[string]any
	Filters   map[string]any
	Aux       map[string]any
	// Trigger records the control that fired the event. It never takes part
	// in change detection.
	Trigger string
	Changed bool
}

// Event is one UI event delivered to a session.
type Event struct {
	Trigger   string
	Tab       TabID
	Page      PageID
	Selectors []ControlValue
	Filters   []ControlValue
	Aux       map[string]any
}

// RuleContext carries inputs needed when evaluating an override expression.
type RuleContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Page     string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) pageLabel() string {
	if ctx.Page != "" {
		return ctx.Page
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

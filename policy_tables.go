package selections

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed default_policies.yaml
var defaultPolicyFile []byte

// OptionSource names a list provided by the volume model.
type OptionSource string

const (
	SourceResponses  OptionSource = "responses"
	SourceSelectors  OptionSource = "selectors"
	SourceParameters OptionSource = "parameters"
	SourceColumns    OptionSource = "columns"
)

func (s *OptionSource) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch source := OptionSource(raw); source {
	case SourceResponses, SourceSelectors, SourceParameters, SourceColumns:
		*s = source
		return nil
	default:
		return fmt.Errorf("%w: option source %q", ErrUnknownPolicy, raw)
	}
}

// SeedMode decides a selector's value on the first visit to a page.
type SeedMode string

const (
	SeedUnset       SeedMode = "unset"
	SeedFirstOption SeedMode = "first_option"
)

func (m *SeedMode) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch mode := SeedMode(raw); mode {
	case "", SeedUnset:
		*m = SeedUnset
		return nil
	case SeedFirstOption:
		*m = mode
		return nil
	default:
		return fmt.Errorf("%w: seed mode %q", ErrUnknownPolicy, raw)
	}
}

// PolicyTables holds the static, hand-authored rule set. Tables are loaded
// once and never mutated afterwards.
type PolicyTables struct {
	Aux            []string           `yaml:"aux"`
	SelectorPolicy SelectorPolicy     `yaml:"selector_policy"`
	Multiplicity   MultiplicityPolicy `yaml:"multiplicity"`
	Tornado        TornadoPolicy      `yaml:"tornado"`
	Regions        RegionPolicy       `yaml:"regions"`
	Realizations   RealizationPolicy  `yaml:"realizations"`
	Resets         []ResetRule        `yaml:"resets"`
}

type SelectorPolicy struct {
	Tab           TabID              `yaml:"tab"`
	PlotSelector  string             `yaml:"plot_selector"`
	Pages         []PageID           `yaml:"pages"`
	Selectors     []ManagedSelector  `yaml:"selectors"`
	OptionSources []OptionSourceRule `yaml:"option_sources"`
	Overrides     []OverrideRule     `yaml:"overrides"`
}

// ManagedSelector lists the pages a selector is forced disabled on.
type ManagedSelector struct {
	Name      string   `yaml:"name"`
	DisableOn []PageID `yaml:"disable_on"`
	Seed      SeedMode `yaml:"seed"`
}

// OptionSourceRule derives option lists for the plot types it names. A rule
// without plot types is the fallback.
type OptionSourceRule struct {
	PlotTypes   []string                  `yaml:"plot_types"`
	Options     map[string][]OptionSource `yaml:"options"`
	DefaultFrom map[string]string         `yaml:"default_from"`
}

// OverrideRule forces a selector's disabled state when When evaluates true.
type OverrideRule struct {
	Selector string `yaml:"selector"`
	When     string `yaml:"when"`
	Disable  bool   `yaml:"disable"`
}

type MultiplicityPolicy struct {
	Filters   []string                      `yaml:"filters"`
	Preferred map[string]string             `yaml:"preferred"`
	Drivers   map[TabID]MultiplicityDrivers `yaml:"drivers"`
}

// MultiplicityDrivers names the selectors whose values decide which filters
// are multi-select on a tab. Fixed filters are always multi-select.
type MultiplicityDrivers struct {
	Selectors []string `yaml:"selectors"`
	Fixed     []string `yaml:"fixed"`
}

type TornadoPolicy struct {
	Tab             TabID       `yaml:"tab"`
	ModeSelector    string      `yaml:"mode_selector"`
	Left            string      `yaml:"left"`
	Right           string      `yaml:"right"`
	LockedLeft      string      `yaml:"locked_left"`
	VolumeResponses []string    `yaml:"volume_responses"`
	Fluid           FluidPolicy `yaml:"fluid"`
}

type FluidPolicy struct {
	Filter     string            `yaml:"filter"`
	ByResponse map[string]string `yaml:"by_response"`
	Fallback   string            `yaml:"fallback"`
}

type RegionPolicy struct {
	FIPNUM     string `yaml:"fipnum"`
	Region     string `yaml:"region"`
	Zone       string `yaml:"zone"`
	FIPNUMMode string `yaml:"fipnum_mode"`
}

type RealizationPolicy struct {
	Filter       string  `yaml:"filter"`
	InactiveTabs []TabID `yaml:"inactive_tabs"`
	ListSize     int     `yaml:"list_size"`
}

// ResetRule sets Selector to Value whenever Trigger changes on one of Tabs.
type ResetRule struct {
	Tabs     []TabID `yaml:"tabs"`
	Trigger  string  `yaml:"trigger"`
	Selector string  `yaml:"selector"`
	Value    any     `yaml:"value"`
}

// DefaultPolicyTables parses the policy tables embedded in the binary.
func DefaultPolicyTables() (*PolicyTables, error) {
	tables, err := LoadPolicyTables(bytes.NewReader(defaultPolicyFile))
	if err != nil {
		return nil, fmt.Errorf("selections: embedded policy file: %w", err)
	}
	return tables, nil
}

// LoadPolicyTables decodes and validates a YAML policy file. Unknown keys are
// rejected.
func LoadPolicyTables(r io.Reader) (*PolicyTables, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var tables PolicyTables
	if err := decoder.Decode(&tables); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &tables, nil
}

// Validate checks that every table is complete and every cross reference
// names a managed selector.
func (t *PolicyTables) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: tables are nil", ErrInvalidPolicy)
	}
	if err := t.validateSelectorPolicy(); err != nil {
		return err
	}

	m := t.Multiplicity
	if len(m.Filters) == 0 {
		return fmt.Errorf("%w: multiplicity.filters is empty", ErrInvalidPolicy)
	}
	for filter := range m.Preferred {
		if !slices.Contains(m.Filters, filter) {
			return fmt.Errorf("%w: multiplicity.preferred names unmanaged filter %q", ErrInvalidPolicy, filter)
		}
	}

	tp := t.Tornado
	if tp.Tab == "" || tp.ModeSelector == "" || tp.Left == "" || tp.Right == "" || tp.LockedLeft == "" {
		return fmt.Errorf("%w: tornado selectors are incomplete", ErrInvalidPolicy)
	}
	if len(tp.VolumeResponses) == 0 {
		return fmt.Errorf("%w: tornado.volume_responses is empty", ErrInvalidPolicy)
	}
	if tp.Fluid.Filter == "" || tp.Fluid.Fallback == "" {
		return fmt.Errorf("%w: tornado.fluid is incomplete", ErrInvalidPolicy)
	}
	if _, ok := m.Drivers[tp.Tab]; !ok {
		return fmt.Errorf("%w: multiplicity.drivers misses tornado tab %q", ErrInvalidPolicy, tp.Tab)
	}

	r := t.Regions
	if r.FIPNUM == "" || r.Region == "" || r.Zone == "" || r.FIPNUMMode == "" {
		return fmt.Errorf("%w: regions is incomplete", ErrInvalidPolicy)
	}

	if t.Realizations.Filter == "" || t.Realizations.ListSize <= 0 {
		return fmt.Errorf("%w: realizations needs a filter and a positive list_size", ErrInvalidPolicy)
	}

	for i, reset := range t.Resets {
		if len(reset.Tabs) == 0 || reset.Trigger == "" || reset.Selector == "" {
			return fmt.Errorf("%w: resets[%d] is incomplete", ErrInvalidPolicy, i)
		}
	}
	return nil
}

func (t *PolicyTables) validateSelectorPolicy() error {
	sp := t.SelectorPolicy
	if sp.Tab == "" {
		return fmt.Errorf("%w: selector_policy.tab is required", ErrInvalidPolicy)
	}
	if len(sp.Selectors) == 0 {
		return fmt.Errorf("%w: selector_policy.selectors is empty", ErrInvalidPolicy)
	}

	seen := map[string]bool{}
	for _, selector := range sp.Selectors {
		if selector.Name == "" {
			return fmt.Errorf("%w: selector name is empty", ErrInvalidPolicy)
		}
		if seen[selector.Name] {
			return fmt.Errorf("%w: duplicate selector %q", ErrInvalidPolicy, selector.Name)
		}
		seen[selector.Name] = true
		for _, page := range selector.DisableOn {
			if !slices.Contains(sp.Pages, page) {
				return fmt.Errorf("%w: selector %q disables on page %q", ErrUnknownPolicy, selector.Name, page)
			}
		}
	}
	if !seen[sp.PlotSelector] {
		return fmt.Errorf("%w: plot_selector %q", ErrUnknownSelector, sp.PlotSelector)
	}

	fallbacks := 0
	plotTypes := map[string]bool{}
	for i, rule := range sp.OptionSources {
		if len(rule.PlotTypes) == 0 {
			fallbacks++
		}
		for _, plotType := range rule.PlotTypes {
			if plotTypes[plotType] {
				return fmt.Errorf("%w: plot type %q appears in more than one option source", ErrInvalidPolicy, plotType)
			}
			plotTypes[plotType] = true
		}
		for name := range rule.Options {
			if !seen[name] {
				return fmt.Errorf("%w: option_sources[%d] options %q", ErrUnknownSelector, i, name)
			}
		}
		for target, source := range rule.DefaultFrom {
			if !seen[target] || !seen[source] {
				return fmt.Errorf("%w: option_sources[%d] default_from %q: %q", ErrUnknownSelector, i, target, source)
			}
		}
	}
	if fallbacks != 1 {
		return fmt.Errorf("%w: option_sources needs exactly one fallback rule, got %d", ErrInvalidPolicy, fallbacks)
	}

	for i, override := range sp.Overrides {
		if !seen[override.Selector] {
			return fmt.Errorf("%w: overrides[%d] selector %q", ErrUnknownSelector, i, override.Selector)
		}
		if override.When == "" {
			return fmt.Errorf("%w: overrides[%d] has no condition", ErrInvalidPolicy, i)
		}
	}
	return nil
}

// Selector returns the policy of a managed selector.
func (t *PolicyTables) Selector(name string) (ManagedSelector, error) {
	for _, selector := range t.SelectorPolicy.Selectors {
		if selector.Name == name {
			return selector, nil
		}
	}
	return ManagedSelector{}, fmt.Errorf("%w: %q", ErrUnknownSelector, name)
}

// DisabledOn reports whether the named selector is forced disabled on page.
func (t *PolicyTables) DisabledOn(name string, page PageID) (bool, error) {
	selector, err := t.Selector(name)
	if err != nil {
		return false, err
	}
	if !slices.Contains(t.SelectorPolicy.Pages, page) {
		return false, fmt.Errorf("%w: page %q", ErrUnknownPolicy, page)
	}
	return slices.Contains(selector.DisableOn, page), nil
}

// OptionSourcesFor returns the rule matching plotType, or the fallback rule.
func (t *PolicyTables) OptionSourcesFor(plotType string) OptionSourceRule {
	var fallback OptionSourceRule
	for _, rule := range t.SelectorPolicy.OptionSources {
		if len(rule.PlotTypes) == 0 {
			fallback = rule
			continue
		}
		if slices.Contains(rule.PlotTypes, plotType) {
			return rule
		}
	}
	return fallback
}

func (t *PolicyTables) managedNames() []string {
	names := make([]string, 0, len(t.SelectorPolicy.Selectors))
	for _, selector := range t.SelectorPolicy.Selectors {
		names = append(names, selector.Name)
	}
	return names
}

func (t *PolicyTables) isAux(key string) bool {
	return slices.Contains(t.Aux, key)
}

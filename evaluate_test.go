package selections

import (
	"context"
	"errors"
	"testing"
)

func TestEngineDefaultEvaluatorIsExpr(t *testing.T) {
	if name := newTestEngine(t).EvaluatorName(); name != "expr" {
		t.Fatalf("expected expr evaluator, got %q", name)
	}
}

func TestCELEvaluatorRunsOverrides(t *testing.T) {
	engine := newTestEngine(t, WithEvaluator(NewCELEvaluator()))
	if engine.EvaluatorName() != "cel" {
		t.Fatalf("expected cel evaluator, got %q", engine.EvaluatorName())
	}

	cases := []struct {
		plot     string
		disabled bool
	}{
		{plot: "histogram", disabled: true},
		{plot: "scatter", disabled: false},
	}
	for _, tc := range cases {
		out, err := engine.SelectorSettings(context.Background(), SelectorInput{
			Page:    PageCustom,
			Trigger: "Plot type",
			Current: map[string]any{"Plot type": tc.plot, "Y Response": "STOIIP"},
		})
		if err != nil {
			t.Fatalf("%s: selector settings: %v", tc.plot, err)
		}
		if got := out.Settings["Y Response"].Disabled; got != tc.disabled {
			t.Fatalf("%s: expected disabled=%v, got %v", tc.plot, tc.disabled, got)
		}
	}
}

func TestBuiltinRuleHelpers(t *testing.T) {
	engine := newTestEngine(t, WithPolicyTables(loadPolicyFixture(t, "helpers.yaml")))

	out, err := engine.SelectorSettings(context.Background(), SelectorInput{
		Page:    PageCustom,
		Trigger: "Plot type",
		Current: map[string]any{"Plot type": "histogram", "Color by": "ZONE"},
	})
	if err != nil {
		t.Fatalf("selector settings: %v", err)
	}
	if !out.Settings["Y Response"].Disabled {
		t.Fatalf("expected one_of to disable Y Response")
	}
	if colorBy := out.Settings["Color by"]; !colorBy.Disabled || colorBy.Value != nil {
		t.Fatalf("expected unset X Response to disable Color by, got %+v", colorBy)
	}

	out, err = engine.SelectorSettings(context.Background(), SelectorInput{
		Page:    PageOnePlotOneTable,
		Trigger: "Plot type",
		Current: map[string]any{"Plot type": "histogram", "Color by": "ZONE"},
	})
	if err != nil {
		t.Fatalf("selector settings: %v", err)
	}
	if out.Settings["Color by"].Disabled {
		t.Fatalf("expected the page condition to keep Color by enabled")
	}
}

func TestCustomRuleFunction(t *testing.T) {
	tables, err := DefaultPolicyTables()
	if err != nil {
		t.Fatalf("default tables: %v", err)
	}
	tables.SelectorPolicy.Overrides = append(tables.SelectorPolicy.Overrides, OverrideRule{
		Selector: "Subplots",
		When:     `is_volume(selectors["X Response"])`,
		Disable:  true,
	})
	isVolume := func(args ...any) (any, error) {
		return args[0] == "STOIIP" || args[0] == "GIIP", nil
	}
	engine := newTestEngine(t, WithPolicyTables(tables), WithCustomFunction("is_volume", isVolume))

	out, err := engine.SelectorSettings(context.Background(), SelectorInput{
		Page:    PageCustom,
		Trigger: "Plot type",
		Current: map[string]any{"Plot type": "scatter", "X Response": "GIIP", "Subplots": "ZONE"},
	})
	if err != nil {
		t.Fatalf("selector settings: %v", err)
	}
	if subplots := out.Settings["Subplots"]; !subplots.Disabled || subplots.Value != nil {
		t.Fatalf("expected custom function to disable Subplots, got %+v", subplots)
	}
}

func TestOverrideMustReturnBool(t *testing.T) {
	tables, err := DefaultPolicyTables()
	if err != nil {
		t.Fatalf("default tables: %v", err)
	}
	tables.SelectorPolicy.Overrides = []OverrideRule{{Selector: "Subplots", When: `selectors["X Response"]`, Disable: true}}
	engine := newTestEngine(t, WithPolicyTables(tables))

	_, err = engine.SelectorSettings(context.Background(), SelectorInput{
		Page:    PageCustom,
		Trigger: "Plot type",
		Current: map[string]any{"Plot type": "scatter", "X Response": "GIIP"},
	})
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if evalErr.Engine != "expr" || evalErr.Page != "custom" {
		t.Fatalf("unexpected evaluation error %+v", evalErr)
	}
}

func TestInvalidOverrideFailsAtConstruction(t *testing.T) {
	for _, evaluator := range []Evaluator{NewExprEvaluator(), NewCELEvaluator()} {
		tables, err := DefaultPolicyTables()
		if err != nil {
			t.Fatalf("default tables: %v", err)
		}
		tables.SelectorPolicy.Overrides[0].When = `selectors[`
		_, err = New(loadVolumes(t), WithPolicyTables(tables), WithEvaluator(evaluator))
		if !errors.Is(err, ErrInvalidPolicy) {
			t.Fatalf("%s: expected ErrInvalidPolicy, got %v", evaluatorEngineName(evaluator), err)
		}
	}
}

func TestBuiltinFunctions(t *testing.T) {
	registry := NewBuiltinRegistry()
	cases := []struct {
		name string
		args []any
		want any
	}{
		{name: "unset", args: []any{nil}, want: true},
		{name: "unset", args: []any{""}, want: true},
		{name: "unset", args: []any{[]any{}}, want: true},
		{name: "unset", args: []any{"STOIIP"}, want: false},
		{name: "one_of", args: []any{"box", "bar", "box"}, want: true},
		{name: "one_of", args: []any{"scatter", "bar", "box"}, want: false},
		{name: "size_of", args: []any{[]any{"R1", "R2"}}, want: 2},
		{name: "size_of", args: []any{"R1"}, want: 1},
		{name: "SIZE_OF", args: []any{nil}, want: 0},
	}
	for _, tc := range cases {
		got, err := registry.Call(tc.name, tc.args...)
		if err != nil {
			t.Fatalf("%s%v: %v", tc.name, tc.args, err)
		}
		if got != tc.want {
			t.Fatalf("%s%v: expected %v, got %v", tc.name, tc.args, tc.want, got)
		}
	}
	if _, err := registry.Call("one_of", "box"); err == nil {
		t.Fatalf("expected one_of without candidates to fail")
	}
}

func TestFunctionRegistryOverridesBuiltins(t *testing.T) {
	custom := NewFunctionRegistry()
	if err := custom.Register("unset", func(...any) (any, error) { return "custom", nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := custom.Register("UNSET", func(...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	merged := NewBuiltinRegistry().withOverrides(custom)
	got, err := merged.Call("unset", nil)
	if err != nil || got != "custom" {
		t.Fatalf("expected custom unset, got %v err=%v", got, err)
	}
	if len(merged.Names()) != 3 {
		t.Fatalf("expected three functions, got %v", merged.Names())
	}
}

type mapCache struct {
	entries map[string]any
	hits    int
}

func (c *mapCache) Get(key string) (any, bool) {
	value, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return value, ok
}

func (c *mapCache) Set(key string, value any) {
	c.entries[key] = value
}

func TestProgramCacheSharedAcrossEngines(t *testing.T) {
	cache := &mapCache{entries: map[string]any{}}
	newTestEngine(t, WithProgramCache(cache))
	if len(cache.entries) != 1 {
		t.Fatalf("expected the override program to be cached, got %d entries", len(cache.entries))
	}
	newTestEngine(t, WithProgramCache(cache))
	if cache.hits != 1 {
		t.Fatalf("expected second engine to reuse the cached program, got %d hits", cache.hits)
	}
}

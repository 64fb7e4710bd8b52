//go:build js_eval

package selections

import (
	"context"
	"testing"
)

func TestJSEvaluatorRunsOverrides(t *testing.T) {
	tables, err := DefaultPolicyTables()
	if err != nil {
		t.Fatalf("default tables: %v", err)
	}
	tables.SelectorPolicy.Overrides[0].When = `["distribution", "histogram"].includes(selectors["Plot type"]) && one_of(page, "custom")`

	engine := newTestEngine(t,
		WithPolicyTables(tables),
		WithEvaluator(NewJSEvaluator(JSWithFunctionRegistry(NewBuiltinRegistry()))),
	)
	if engine.EvaluatorName() != "js" {
		t.Fatalf("expected js evaluator, got %q", engine.EvaluatorName())
	}
	out, err := engine.SelectorSettings(context.Background(), SelectorInput{
		Page:    PageCustom,
		Trigger: "Plot type",
		Current: map[string]any{"Plot type": "histogram", "Y Response": "GIIP"},
	})
	if err != nil {
		t.Fatalf("selector settings: %v", err)
	}
	if !out.Settings["Y Response"].Disabled {
		t.Fatalf("expected Y Response disabled")
	}
}

package selections

import (
	"context"
	"fmt"
	"time"
)

type compiledOverride struct {
	rule     OverrideRule
	compiled CompiledRule
}

func resolveEvaluator(cfg engineConfig) (Evaluator, error) {
	if cfg.evaluator != nil {
		return cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	exprOpts = append(exprOpts, ExprWithFunctionRegistry(NewBuiltinRegistry().withOverrides(cfg.functions)))
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return evaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if isJSEvaluator(e) {
			return "js"
		}
		return "custom"
	}
}

func compileOverrides(evaluator Evaluator, engine string, rules []OverrideRule) ([]compiledOverride, error) {
	out := make([]compiledOverride, 0, len(rules))
	for i, rule := range rules {
		compiled, err := evaluator.Compile(rule.When)
		if err != nil {
			return nil, fmt.Errorf("%w: overrides[%d]: %w", ErrInvalidPolicy, i, wrapEvaluationError(engine, rule.When, "", err))
		}
		out = append(out, compiledOverride{rule: rule, compiled: compiled})
	}
	return out, nil
}

// applyOverrides evaluates every override rule against the derived selector
// values and applies the ones whose condition holds.
func (e *Engine) applyOverrides(ctx context.Context, in SelectorInput, settings map[string]*SelectorSetting) error {
	if len(e.overrides) == 0 {
		return nil
	}
	values := make(map[string]any, len(settings))
	for name, setting := range settings {
		values[name] = setting.Value
	}
	ruleCtx := RuleContext{
		Snapshot: map[string]any{
			"selectors": values,
			"tab":       string(e.tables.SelectorPolicy.Tab),
			"trigger":   in.Trigger,
		},
		Page: string(in.Page),
	}

	for _, override := range e.overrides {
		start := time.Now()
		result, err := override.compiled.Evaluate(ruleCtx)
		err = wrapEvaluationError(e.engineName, override.rule.When, ruleCtx.pageLabel(), err)
		var holds bool
		if err == nil {
			var ok bool
			if holds, ok = result.(bool); !ok {
				err = wrapEvaluationError(e.engineName, override.rule.When, ruleCtx.pageLabel(),
					fmt.Errorf("result %T is not a bool", result))
			}
		}
		e.metrics.recordRule(ctx, e.engineName, err)
		e.logger.Log(LogEvent{
			Op:       opRule,
			Tab:      e.tables.SelectorPolicy.Tab,
			Page:     in.Page,
			Trigger:  in.Trigger,
			Engine:   e.engineName,
			Expr:     override.rule.When,
			Duration: time.Since(start),
			Err:      err,
		})
		if err != nil {
			return err
		}
		if !holds {
			continue
		}
		setting := settings[override.rule.Selector]
		setting.Disabled = override.rule.Disable
		if override.rule.Disable {
			setting.Value = nil
		}
	}
	return nil
}

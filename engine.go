package selections

import (
	"context"
	"fmt"
	"slices"

	"github.com/goliatone/go-selections/layering"
	"github.com/goliatone/go-selections/pkg/activity"
)

// Engine holds the immutable policy tables, the compiled override rules and
// the data model shared by every session. All derivations on Engine are pure
// with respect to their inputs; session state lives in Session.
type Engine struct {
	model      VolumeModel
	tables     *PolicyTables
	cfg        engineConfig
	evaluator  Evaluator
	engineName string
	overrides  []compiledOverride
	metrics    *engineMetrics
	logger     Logger
	emitter    *activity.Emitter
}

// New builds an Engine for model. Policy tables default to the embedded file;
// the region partition of model is checked before returning.
func New(model VolumeModel, opts ...Option) (*Engine, error) {
	if model == nil {
		return nil, ErrNoModel
	}
	cfg := applyOptions(opts)

	var tables PolicyTables
	if cfg.tables != nil {
		if err := cfg.tables.Validate(); err != nil {
			return nil, err
		}
		tables = layering.Clone(*cfg.tables)
	} else {
		defaults, err := DefaultPolicyTables()
		if err != nil {
			return nil, err
		}
		tables = *defaults
	}

	if err := validatePartition(model, tables.Regions); err != nil {
		return nil, err
	}

	evaluator, err := resolveEvaluator(cfg)
	if err != nil {
		return nil, err
	}
	engineName := evaluatorEngineName(evaluator)
	overrides, err := compileOverrides(evaluator, engineName, tables.SelectorPolicy.Overrides)
	if err != nil {
		return nil, err
	}

	metrics, err := newEngineMetrics(cfg.meter)
	if err != nil {
		return nil, err
	}

	return &Engine{
		model:      model,
		tables:     &tables,
		cfg:        cfg,
		evaluator:  evaluator,
		engineName: engineName,
		overrides:  overrides,
		metrics:    metrics,
		logger:     cfg.loggerOrNoop(),
		emitter:    activity.NewEmitter(cfg.activityHooks, activity.Config{Enabled: true}),
	}, nil
}

// PolicyTables returns a deep copy of the tables the engine runs with.
func (e *Engine) PolicyTables() PolicyTables {
	return layering.Clone(*e.tables)
}

// EvaluatorName reports which evaluator compiled the override rules.
func (e *Engine) EvaluatorName() string {
	return e.engineName
}

// Model returns the data collaborator.
func (e *Engine) Model() VolumeModel {
	return e.model
}

// ResetInput describes a selector change on a tab that may reset dependent
// selectors.
type ResetInput struct {
	Tab     TabID
	Trigger string
	Targets []ComponentID
}

// Resets returns the value writes caused by in.Trigger, aligned to
// in.Targets. It fails with ErrNoOpTrigger when no reset rule applies.
func (e *Engine) Resets(ctx context.Context, in ResetInput) ([]Patch[any], error) {
	var updates []Update[any]
	for _, rule := range e.tables.Resets {
		if rule.Trigger != in.Trigger || !slices.Contains(rule.Tabs, in.Tab) {
			continue
		}
		updates = append(updates, Update[any]{
			Value: SetTo(rule.Value),
			Match: Match{Tab: in.Tab, Name: rule.Selector},
		})
	}
	if len(updates) == 0 {
		e.metrics.recordNoOp(ctx, "reset")
		return nil, fmt.Errorf("%w: %q on tab %q resets nothing", ErrNoOpTrigger, in.Trigger, in.Tab)
	}
	e.metrics.recordBroadcast(ctx, "reset", len(in.Targets))
	return Broadcast(in.Targets, updates), nil
}

func (e *Engine) emit(ctx context.Context, event activity.Event) {
	if err := e.emitter.Emit(ctx, event); err != nil {
		e.logger.Log(LogEvent{Op: opActivity, Err: err})
	}
}

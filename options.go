package selections

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/goliatone/go-selections/pkg/activity"
	"github.com/goliatone/go-selections/pkg/state"
)

// Option configures an Engine.
type Option func(*engineConfig)

// StoreFactory returns the snapshot store backing a new session.
type StoreFactory func() state.Store[Snapshot]

type engineConfig struct {
	tables        *PolicyTables
	evaluator     Evaluator
	programCache  ProgramCache
	functions     *FunctionRegistry
	logger        Logger
	meter         metric.Meter
	activityHooks activity.Hooks
	storeFactory  StoreFactory
}

func applyOptions(opts []Option) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithPolicyTables replaces the embedded default policy tables.
func WithPolicyTables(tables *PolicyTables) Option {
	return func(cfg *engineConfig) {
		cfg.tables = tables
	}
}

// WithEvaluator configures the evaluator used to compile override rules.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *engineConfig) {
		cfg.evaluator = e
	}
}

// WithMeter configures the meter engine instruments are created from.
func WithMeter(meter metric.Meter) Option {
	return func(cfg *engineConfig) {
		cfg.meter = meter
	}
}

// WithStoreFactory configures the snapshot store used by new sessions.
func WithStoreFactory(factory StoreFactory) Option {
	return func(cfg *engineConfig) {
		cfg.storeFactory = factory
	}
}

func (cfg engineConfig) loggerOrNoop() Logger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return noopLogger{}
}

func (cfg engineConfig) newStore() state.Store[Snapshot] {
	if cfg.storeFactory != nil {
		if store := cfg.storeFactory(); store != nil {
			return store
		}
	}
	return state.NewMemoryStore[Snapshot]()
}

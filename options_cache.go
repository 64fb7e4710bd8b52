package selections

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used when compiling override
// rules.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *engineConfig) {
		cfg.programCache = cache
	}
}

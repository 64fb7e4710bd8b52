package selections

import "github.com/goliatone/go-selections/pkg/activity"

// WithActivityHooks attaches activity hooks notified of page visits and
// reconciled snapshots. Hooks are cloned and nil entries dropped. Sessions
// notify hooks after releasing their lock, so a hook may call back into the
// session that emitted the event.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *engineConfig) {
		cfg.activityHooks = normalized
	}
}

// ActivityHooks returns a cloned slice of the configured activity hooks. The
// returned slice can be safely mutated by the caller.
func (e *Engine) ActivityHooks() activity.Hooks {
	if e == nil {
		return nil
	}
	return cloneActivityHooks(e.cfg.activityHooks)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}

package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrIncompleteEvent reports an emitted event that lacks a required field.
var ErrIncompleteEvent = errors.New("activity: incomplete selection event")

// DefaultChannel is stamped on events emitted without a channel.
const DefaultChannel = "selections"

// Config controls activity emission defaults supplied by DI/config.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter fans out events to hooks while applying defaults. Unlike Hooks it
// rejects incomplete events, since every event it sees is built by the engine.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
}

// NewEmitter constructs an emitter from hooks and configuration.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	normalizedHooks := cloneHooks(hooks)
	return &Emitter{
		hooks:   normalizedHooks,
		enabled: cfg.Enabled && len(normalizedHooks) > 0,
		channel: channel,
	}
}

// Enabled reports whether emissions should be attempted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled && len(e.hooks) > 0
}

// Emit forwards the event to all hooks, applying the default channel when
// missing. An event lacking a required field fails with ErrIncompleteEvent.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	normalized := NormalizeEvent(event)
	if missing := MissingFields(normalized); len(missing) > 0 {
		return fmt.Errorf("%w: %s missing %s", ErrIncompleteEvent, normalized.Verb, strings.Join(missing, ", "))
	}
	return e.hooks.Notify(ctx, normalized)
}

func cloneHooks(hooks Hooks) Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	return Hooks(normalized)
}

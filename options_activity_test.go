package selections

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-selections/pkg/activity"
)

func TestWithActivityHooksClonesAndFiltersNil(t *testing.T) {
	hook := activity.HookFunc(func(context.Context, activity.Event) error { return nil })

	engine := newTestEngine(t, WithActivityHooks(activity.Hooks{nil, hook}))
	hooks := engine.ActivityHooks()
	if len(hooks) != 1 {
		t.Fatalf("expected 1 hook, got %d", len(hooks))
	}

	// Mutate returned slice and ensure original configuration is unaffected.
	hooks[0] = nil
	again := engine.ActivityHooks()
	if len(again) != 1 || again[0] == nil {
		t.Fatalf("expected cloned hooks unaffected by mutation, got %+v", again)
	}
}

func TestActivityHooksDefaultNil(t *testing.T) {
	if hooks := newTestEngine(t).ActivityHooks(); hooks != nil {
		t.Fatalf("expected nil hooks by default, got %+v", hooks)
	}
}

func TestActivityHookErrorsAreLogged(t *testing.T) {
	var logged []LogEvent
	failing := activity.HookFunc(func(context.Context, activity.Event) error { return errors.New("sink down") })
	engine := newTestEngine(t,
		WithActivityHooks(activity.Hooks{failing}),
		WithLogger(LoggerFunc(func(event LogEvent) { logged = append(logged, event) })),
	)

	if first := engine.NewSession().SwitchPage(context.Background(), PageCustom); !first {
		t.Fatalf("expected first visit despite hook failure")
	}
	var found bool
	for _, event := range logged {
		if event.Op == opActivity && event.Err != nil {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected hook failure to be logged, got %+v", logged)
	}
}

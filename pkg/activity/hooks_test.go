package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	recipients := []string{" a ", "b "}
	evt := Event{
		Verb:           " selections.page.visited ",
		ActorID:        " actor ",
		UserID:         " user ",
		TenantID:       " tenant ",
		ObjectType:     " selections.page ",
		ObjectID:       " 42 ",
		Channel:        " selections ",
		DefinitionCode: " def ",
		Recipients:     recipients,
		Metadata:       meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "selections.page.visited" || got.ObjectType != "selections.page" || got.ObjectID != "42" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "selections" || got.DefinitionCode != "def" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	if got.Metadata["k"] != "v" {
		t.Fatalf("expected metadata value preserved: %+v", got.Metadata)
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
	got.Recipients[0] = "changed"
	if recipients[0] != " a " {
		t.Fatalf("expected original recipients untouched: %+v", recipients)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	hooks := Hooks{&CaptureHook{}}
	err := hooks.Notify(context.Background(), Event{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	capture := hooks[0].(*CaptureHook)
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			if ctx != nil {
				ctxSeen = true
			}
			return nil
		}),
		capture,
		HookFunc(func(_ context.Context, _ Event) error { return errors.New("boom1") }),
		nil,
		HookFunc(func(_ context.Context, _ Event) error { return errors.New("boom2") }),
	}

	err := hooks.Notify(nil, Event{Verb: VerbSnapshotReconcile, ObjectType: "selections.page", ObjectID: "1", SessionID: "sess-1", Page: "custom"})
	if err == nil || !errors.Is(err, errors.New("boom1")) || !errors.Is(err, errors.New("boom2")) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), Event{Verb: VerbPageVisited, ObjectType: "selections.page", ObjectID: "1", SessionID: "sess-1", Page: "custom"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: ""})
	if !enabled.Enabled() {
		t.Fatalf("expected emitter to be enabled")
	}
	if err := enabled.Emit(context.Background(), Event{Verb: VerbPageVisited, ObjectType: "selections.page", ObjectID: "1", SessionID: "sess-1", Page: "custom"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(capture.Events))
	}
	if capture.Events[0].Channel != "selections" {
		t.Fatalf("expected default channel applied, got %q", capture.Events[0].Channel)
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default"})

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbPageVisited,
		ObjectType: "selections.page",
		ObjectID:   "1",
		SessionID:  "sess-1",
		Page:       "custom",
		Channel:    "custom",
		OccurredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if capture.Events[0].OccurredAt != (time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}
}

func TestMissingFieldsFollowsVerbScope(t *testing.T) {
	cases := []struct {
		name  string
		event Event
		want  []string
	}{
		{name: "empty", event: Event{}, want: []string{"verb", "object_type", "session_id"}},
		{name: "page visit without page", event: Event{Verb: VerbPageVisited, ObjectType: "selections.page", SessionID: "sess-1"}, want: []string{"page"}},
		{name: "reset without page", event: Event{Verb: VerbSessionReset, ObjectType: "selections.session", SessionID: "sess-1"}},
		{name: "complete", event: Event{Verb: VerbSnapshotReconcile, ObjectType: "selections.snapshot", SessionID: "sess-1", Page: "custom"}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, MissingFields(tc.event)); diff != "" {
			t.Fatalf("%s: unexpected missing fields (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestNormalizeEventDerivesObjectIDFromSession(t *testing.T) {
	got := NormalizeEvent(Event{Verb: VerbPageVisited, SessionID: " sess-1 ", Page: " tornado "})
	if got.ObjectID != "sess-1/tornado" {
		t.Fatalf("expected session/page object id, got %q", got.ObjectID)
	}
	got = NormalizeEvent(Event{Verb: VerbSessionReset, SessionID: "sess-1"})
	if got.ObjectID != "sess-1" {
		t.Fatalf("expected session object id, got %q", got.ObjectID)
	}
}

func TestEmitterRejectsIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	err := emitter.Emit(context.Background(), BuildPageVisitedEvent(SelectionEventInput{SessionID: "sess-1"}))
	if !errors.Is(err, ErrIncompleteEvent) {
		t.Fatalf("expected ErrIncompleteEvent, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected incomplete event to be dropped, got %+v", capture.Events)
	}
}

func TestCaptureHookQueries(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	ctx := context.Background()
	events := []Event{
		BuildPageVisitedEvent(SelectionEventInput{SessionID: "sess-1", Page: "custom"}),
		BuildSnapshotReconciledEvent(SelectionEventInput{SessionID: "sess-1", Page: "custom", SnapshotID: "snap-1"}),
		BuildPageVisitedEvent(SelectionEventInput{SessionID: "sess-2", Page: "custom"}),
	}
	for _, event := range events {
		if err := hooks.Notify(ctx, event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}

	want := []string{VerbPageVisited, VerbSnapshotReconcile, VerbPageVisited}
	if diff := cmp.Diff(want, capture.Verbs()); diff != "" {
		t.Fatalf("unexpected verbs (-want +got):\n%s", diff)
	}
	if got := capture.ForPage("sess-1", "custom"); len(got) != 2 || got[1].ObjectID != "snap-1" {
		t.Fatalf("expected two sess-1 events, got %+v", got)
	}
}

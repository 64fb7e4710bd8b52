package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-selections/pkg/activity"
	"github.com/goliatone/go-selections/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()
	objectID := uuid.New().String()

	event := activity.BuildSnapshotReconciledEvent(activity.SelectionEventInput{
		ActorID:        actorID.String(),
		UserID:         userID.String(),
		TenantID:       tenantID.String(),
		SessionID:      "sess-1",
		Page:           "voldist",
		SnapshotID:     objectID,
		Changed:        true,
		Channel:        "selections",
		DefinitionCode: "selections:reconcile",
		Recipients:     []string{"recipient@example.com"},
		OccurredAt:     now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.UserID != userID {
		t.Fatalf("expected user %s got %s", userID, record.UserID)
	}
	if record.TenantID != tenantID {
		t.Fatalf("expected tenant %s got %s", tenantID, record.TenantID)
	}
	if record.Verb != activity.VerbSnapshotReconcile || record.ObjectType != "selections.snapshot" || record.ObjectID != objectID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "selections" {
		t.Fatalf("expected channel selections got %q", record.Channel)
	}
	if record.OccurredAt != now {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["definition_code"] != "selections:reconcile" {
		t.Fatalf("expected definition_code metadata got %v", record.Data["definition_code"])
	}
	if record.Data["page"] != "voldist" || record.Data["changed"] != true {
		t.Fatalf("expected metadata passthrough got %v", record.Data)
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "recipient@example.com" {
		t.Fatalf("expected recipients metadata got %v", record.Data["recipients"])
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifySkipsSessionlessEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbSnapshotReconcile,
		ObjectType: "selections.snapshot",
		ObjectID:   "snap-1",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected events without a session to be skipped, got %d", len(sink.records))
	}
}

func TestHookNotifyDefaultsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbPageVisited,
		ObjectType: "selections.page",
		SessionID:  "sess-1",
		Page:       "voldist",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
	if sink.records[0].ObjectID != "sess-1/voldist" {
		t.Fatalf("expected object id derived from session and page, got %q", sink.records[0].ObjectID)
	}
}

func TestHookNotifyFiltersVerbs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbSnapshotReconcile}}

	visited := activity.BuildPageVisitedEvent(activity.SelectionEventInput{SessionID: "sess-1", Page: "table"})
	if err := hook.Notify(context.Background(), visited); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected page visits to be filtered, got %d records", len(sink.records))
	}

	reconciled := activity.BuildSnapshotReconciledEvent(activity.SelectionEventInput{SessionID: "sess-1", Page: "table"})
	if err := hook.Notify(context.Background(), reconciled); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected reconcile event forwarded, got %d records", len(sink.records))
	}
}

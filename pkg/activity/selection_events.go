package activity

import (
	"strings"
	"time"
)

const (
	VerbPageVisited       = "selections.page.visited"
	VerbSnapshotReconcile = "selections.snapshot.reconciled"
	VerbSessionReset      = "selections.session.reset"
)

// SelectionEventInput describes the common fields for selection lifecycle
// events.
type SelectionEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	SessionID      string
	Tab            string
	Page           string
	Trigger        string
	SnapshotID     string
	Revision       int
	Changed        bool
	FirstVisit     bool
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// BuildPageVisitedEvent constructs an activity event for a page switch.
func BuildPageVisitedEvent(input SelectionEventInput) Event {
	event := buildSelectionEvent(VerbPageVisited, "selections.page", input)
	event.Metadata = ensureMetadata(event.Metadata)
	event.Metadata["first_visit"] = input.FirstVisit
	return event
}

// BuildSnapshotReconciledEvent constructs an activity event for a stored page
// snapshot, carrying the change-detection outcome.
func BuildSnapshotReconciledEvent(input SelectionEventInput) Event {
	event := buildSelectionEvent(VerbSnapshotReconcile, "selections.snapshot", input)
	event.Metadata = ensureMetadata(event.Metadata)
	event.Metadata["changed"] = input.Changed
	if input.Revision > 0 {
		event.Metadata["revision"] = input.Revision
	}
	return event
}

// BuildSessionResetEvent constructs an activity event for a cleared session.
func BuildSessionResetEvent(input SelectionEventInput) Event {
	return buildSelectionEvent(VerbSessionReset, "selections.session", input)
}

func buildSelectionEvent(verb, objectType string, input SelectionEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.SessionID != "" {
		metadata = ensureMetadata(metadata)
		metadata["session_id"] = input.SessionID
	}
	if input.Tab != "" {
		metadata = ensureMetadata(metadata)
		metadata["tab"] = input.Tab
	}
	if input.Page != "" {
		metadata = ensureMetadata(metadata)
		metadata["page"] = input.Page
	}
	if input.Trigger != "" {
		metadata = ensureMetadata(metadata)
		metadata["trigger"] = input.Trigger
	}
	if input.SnapshotID != "" {
		metadata = ensureMetadata(metadata)
		metadata["snapshot_id"] = input.SnapshotID
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	session := strings.TrimSpace(input.SessionID)
	page := strings.TrimSpace(input.Page)
	objectID := strings.TrimSpace(input.SnapshotID)
	if objectID == "" {
		objectID = sessionObjectID(session, page)
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		SessionID:      session,
		Page:           page,
		ObjectType:     objectType,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}

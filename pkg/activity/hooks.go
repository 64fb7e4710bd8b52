package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Event describes a selection activity occurrence that can be fanned out to
// hooks. Every event belongs to one session; page-scoped verbs also name the
// page. IDs are stringly-typed to avoid coupling call sites to UUID types.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	SessionID      string
	Page           string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// ActivityHook receives normalized activity events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []ActivityHook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to all hooks, returning a joined error if any fail.
// Events missing a required field are dropped without error.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if len(MissingFields(normalized)) > 0 {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// MissingFields lists the required fields event lacks. Verb, object type and
// session are always required; page visits and reconciled snapshots also need
// a page.
func MissingFields(event Event) []string {
	var missing []string
	if event.Verb == "" {
		missing = append(missing, "verb")
	}
	if event.ObjectType == "" {
		missing = append(missing, "object_type")
	}
	if event.SessionID == "" {
		missing = append(missing, "session_id")
	}
	if event.Page == "" && pageScoped(event.Verb) {
		missing = append(missing, "page")
	}
	return missing
}

func pageScoped(verb string) bool {
	return verb == VerbPageVisited || verb == VerbSnapshotReconcile
}

// NormalizeEvent trims whitespace, clones metadata, derives a missing object id
// from the session and page, and ensures a timestamp is present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.ActorID = strings.TrimSpace(event.ActorID)
	normalized.UserID = strings.TrimSpace(event.UserID)
	normalized.TenantID = strings.TrimSpace(event.TenantID)
	normalized.SessionID = strings.TrimSpace(event.SessionID)
	normalized.Page = strings.TrimSpace(event.Page)
	normalized.ObjectType = strings.TrimSpace(event.ObjectType)
	normalized.ObjectID = strings.TrimSpace(event.ObjectID)
	normalized.Channel = strings.TrimSpace(event.Channel)
	normalized.DefinitionCode = strings.TrimSpace(event.DefinitionCode)
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.ObjectID == "" {
		normalized.ObjectID = sessionObjectID(normalized.SessionID, normalized.Page)
	}
	if len(event.Recipients) > 0 {
		normalized.Recipients = append([]string{}, event.Recipients...)
	} else {
		normalized.Recipients = nil
	}
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func sessionObjectID(session, page string) string {
	if session == "" || page == "" {
		return session
	}
	return session + "/" + page
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

var ErrInvalidRef = errors.New("state: invalid ref")

// Ref identifies one persisted snapshot for one page of one session.
type Ref struct {
	Session string
	Page    string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	Revision   int               `json:"revision,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads, saves and deletes one snapshot for a single Ref.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
	Delete(ctx context.Context, ref Ref) error
}

// Mutator edits the current snapshot in place. exists reports whether a
// snapshot was stored before the call; when false the snapshot is the zero
// value of T.
type Mutator[T any] func(snapshot *T, exists bool) error

// Identifier returns the deterministic storage key for the ref.
func (r Ref) Identifier() (string, error) {
	session := strings.TrimSpace(r.Session)
	page := strings.TrimSpace(r.Page)
	if session == "" {
		return "", fmt.Errorf("%w: session is required", ErrInvalidRef)
	}
	if page == "" {
		return "", fmt.Errorf("%w: page is required", ErrInvalidRef)
	}
	return fmt.Sprintf("session/%s/page/%s", session, page), nil
}

// Mutate loads one snapshot, applies fn and saves the result with a new
// snapshot id and the next revision. A non-empty meta.ETag must match the
// stored ETag.
func Mutate[T any](ctx context.Context, store Store[T], ref Ref, meta Meta, fn Mutator[T]) (T, Meta, error) {
	var zero T
	if store == nil {
		return zero, Meta{}, fmt.Errorf("state: store is required")
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("state: mutator is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return zero, Meta{}, err
	}

	snapshot, loadedMeta, ok, err := store.Load(ctx, ref)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("state: load page %q: %w", ref.Page, err)
	}
	if !ok {
		snapshot = zero
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return zero, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&snapshot, ok); err != nil {
		return zero, loadedMeta, err
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.Revision = loadedMeta.Revision + 1
	saveMeta.SnapshotID = uuid.NewString()
	saveMeta.ETag = "r" + strconv.Itoa(saveMeta.Revision)
	if saveMeta.UpdatedAt.IsZero() || saveMeta.UpdatedAt.Equal(loadedMeta.UpdatedAt) {
		saveMeta.UpdatedAt = time.Now()
	}

	savedMeta, err := store.Save(ctx, ref, snapshot, saveMeta)
	if err != nil {
		return zero, loadedMeta, fmt.Errorf("state: save page %q: %w", ref.Page, err)
	}
	return snapshot, savedMeta, nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

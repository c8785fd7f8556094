// Package store defines the persistence collaborators the engine consumes:
// the event CRUD store, the visibility preference store, and the shared
// schedule snapshot store. The engine itself only ever sees the result of
// List as a plain snapshot; everything here is plumbing around it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"coursegrid/internal/model"
)

// ErrNotFound is returned when an id does not exist in the store.
var ErrNotFound = errors.New("store: not found")

// EventPatch is a partial update. Nil fields are left untouched, so a client
// that only changes the theme cannot wipe the rest of the record.
type EventPatch struct {
	Title       *string
	StartTime   *string
	EndTime     *string
	Description *string
	Professor   *string
	Location    *string
	Theme       *string
	Recurrence  *model.RecurrenceFields
}

// EventStore is the CRUD collaborator for schedule entries.
type EventStore interface {
	// List returns the authoritative snapshot for one computation pass, in
	// stable creation order.
	List(ctx context.Context) ([]model.EventRecord, error)
	Create(ctx context.Context, rec model.EventRecord) (model.EventRecord, error)
	Update(ctx context.Context, id string, patch EventPatch) error
	Delete(ctx context.Context, id string) error

	// BulkCreate inserts many records at once (schedule import). Records
	// that fail validation are skipped; the created subset is returned.
	BulkCreate(ctx context.Context, recs []model.EventRecord) ([]model.EventRecord, error)

	// Clear deletes every record and reports how many went away.
	Clear(ctx context.Context) (int, error)
}

// VisibilityStore persists the set of course codes allowed to render.
type VisibilityStore interface {
	GetVisibility(ctx context.Context) ([]string, error)
	SetVisibility(ctx context.Context, codes []string) error
}

// Share is a point-in-time snapshot of a resolved schedule, published under
// an opaque id so anyone with the link can view it.
type Share struct {
	ID        string
	Title     string
	Term      string
	Payload   json.RawMessage
	ViewCount int
	CreatedAt time.Time
}

// ShareStore persists shared schedule snapshots.
type ShareStore interface {
	CreateShare(ctx context.Context, share Share) (Share, error)

	// GetShare fetches a snapshot and increments its view counter.
	GetShare(ctx context.Context, id string) (Share, error)

	// PurgeSharesBefore deletes snapshots created before cutoff and reports
	// how many were removed.
	PurgeSharesBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Store bundles all three collaborators; both backends implement it.
type Store interface {
	EventStore
	VisibilityStore
	ShareStore
}

// applyPatch merges a patch into a record. Shared by both backends so patch
// semantics cannot drift between them.
func applyPatch(rec *model.EventRecord, patch EventPatch) error {
	if patch.Title != nil {
		rec.Title = *patch.Title
	}
	if patch.StartTime != nil {
		rec.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		rec.EndTime = *patch.EndTime
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.Professor != nil {
		rec.Professor = *patch.Professor
	}
	if patch.Location != nil {
		rec.Location = *patch.Location
	}
	if patch.Theme != nil {
		rec.Theme = *patch.Theme
	}
	if patch.Recurrence != nil {
		r, err := patch.Recurrence.Build()
		if err != nil {
			return err
		}
		rec.Recurrence = r
	}
	return nil
}

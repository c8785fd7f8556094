package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coursegrid/internal/model"
)

func TestMemoryEventCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	rec, err := m.Create(ctx, model.EventRecord{
		Title:      "CSI 2110 - Lecture",
		StartTime:  "09:00",
		EndTime:    "10:20",
		Theme:      "blue",
		Recurrence: model.Weekly{Day: "Monday"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("Create did not assign an id")
	}

	// A patch carrying only the theme must leave everything else intact.
	theme := "green"
	if err := m.Update(ctx, rec.ID, EventPatch{Theme: &theme}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	list, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List returned %d records", len(list))
	}
	got := list[0]
	if got.Theme != "green" {
		t.Errorf("theme not updated: %q", got.Theme)
	}
	if got.Title != "CSI 2110 - Lecture" || got.StartTime != "09:00" {
		t.Errorf("partial update wiped other fields: %+v", got)
	}
	if _, ok := got.Recurrence.(model.Weekly); !ok {
		t.Errorf("partial update wiped recurrence: %#v", got.Recurrence)
	}

	if err := m.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := m.Delete(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryPatchRejectsBadRecurrence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	rec, _ := m.Create(ctx, model.EventRecord{
		Title:      "MAT 1341",
		StartTime:  "10:00",
		EndTime:    "11:00",
		Recurrence: model.Weekly{Day: "Tuesday"},
	})

	bad := model.RecurrenceFields{Pattern: "biweekly", DayOfWeek: "Tuesday"}
	if err := m.Update(ctx, rec.ID, EventPatch{Recurrence: &bad}); err == nil {
		t.Fatal("expected error for biweekly patch without reference date")
	}

	// The record keeps its previous recurrence.
	list, _ := m.List(ctx)
	if _, ok := list[0].Recurrence.(model.Weekly); !ok {
		t.Fatalf("failed patch mutated recurrence: %#v", list[0].Recurrence)
	}
}

func TestMemoryBulkCreateAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	created, err := m.BulkCreate(ctx, []model.EventRecord{
		{Title: "A", StartTime: "09:00", EndTime: "10:00", Recurrence: model.Weekly{Day: "Monday"}},
		{Title: "B", StartTime: "10:00", EndTime: "11:00", Recurrence: model.Weekly{Day: "Tuesday"}},
	})
	if err != nil {
		t.Fatalf("BulkCreate: %v", err)
	}
	if len(created) != 2 || created[0].ID == "" || created[1].ID == "" {
		t.Fatalf("BulkCreate result: %+v", created)
	}

	n, err := m.Clear(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Clear = %d, %v", n, err)
	}
	list, _ := m.List(ctx)
	if len(list) != 0 {
		t.Fatalf("store not empty after Clear: %d", len(list))
	}
}

func TestMemoryVisibility(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	codes, err := m.GetVisibility(ctx)
	if err != nil || len(codes) != 0 {
		t.Fatalf("initial visibility = %v, %v", codes, err)
	}

	if err := m.SetVisibility(ctx, []string{"CSI 2110", "MAT 1341"}); err != nil {
		t.Fatalf("SetVisibility: %v", err)
	}
	codes, _ = m.GetVisibility(ctx)
	if len(codes) != 2 {
		t.Fatalf("visibility = %v", codes)
	}
}

func TestMemoryShares(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	share, err := m.CreateShare(ctx, Share{
		Title:   "My Schedule",
		Term:    "Winter 2025",
		Payload: json.RawMessage(`{"events":[]}`),
	})
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}
	if share.ID == "" {
		t.Fatal("share id not assigned")
	}

	// Each fetch bumps the view counter.
	first, err := m.GetShare(ctx, share.ID)
	if err != nil {
		t.Fatalf("GetShare: %v", err)
	}
	second, _ := m.GetShare(ctx, share.ID)
	if first.ViewCount != 1 || second.ViewCount != 2 {
		t.Fatalf("view counts = %d, %d; want 1, 2", first.ViewCount, second.ViewCount)
	}

	if _, err := m.GetShare(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetShare(nope) = %v, want ErrNotFound", err)
	}

	// Retention purge removes old snapshots only.
	n, err := m.PurgeSharesBefore(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("purge removed %d shares, err %v", n, err)
	}
	n, err = m.PurgeSharesBefore(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("purge removed %d shares, err %v; want 1", n, err)
	}
}

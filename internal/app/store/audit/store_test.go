package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/classforge/internal/app/store/audit"
	"github.com/dalemusser/classforge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log_AutoGeneratesIDAndTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before := time.Now().Add(-time.Second)
	if err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryIdea,
		EventType: audit.EventIdeaSubmitted,
		Success:   true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	after := time.Now().Add(time.Second)

	events, err := store.GetRecent(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if events[0].Timestamp.Before(before) || events[0].Timestamp.After(after) {
		t.Errorf("expected timestamp near now, got %v", events[0].Timestamp)
	}
}

func TestStore_Log_WithDetails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := primitive.NewObjectID()
	idea := primitive.NewObjectID()
	if err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryIdea,
		EventType: audit.EventIdeaReviewed,
		ActorID:   &actor,
		IdeaID:    &idea,
		Success:   true,
		Details:   map[string]string{"status": "approved"},
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByIdea(ctx, idea, 10)
	if err != nil {
		t.Fatalf("GetByIdea failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Details["status"] != "approved" {
		t.Errorf("expected status detail 'approved', got %q", events[0].Details["status"])
	}
	if events[0].ActorID == nil || *events[0].ActorID != actor {
		t.Error("expected actor id to round-trip")
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actorA := primitive.NewObjectID()
	actorB := primitive.NewObjectID()
	group := primitive.NewObjectID()
	now := time.Now().UTC()

	seed := []audit.Event{
		{Category: audit.CategoryIdea, EventType: audit.EventIdeaSubmitted, ActorID: &actorA, Timestamp: now.Add(-3 * time.Hour), Success: true},
		{Category: audit.CategoryIdea, EventType: audit.EventIdeasMerged, ActorID: &actorB, Timestamp: now.Add(-2 * time.Hour), Success: true},
		{Category: audit.CategoryModeration, EventType: audit.EventCommentRemoved, ActorID: &actorB, Timestamp: now.Add(-1 * time.Hour), Success: true},
		{Category: audit.CategoryGroup, EventType: audit.EventGroupCreated, ActorID: &actorA, GroupID: &group, Timestamp: now, Success: true},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"all", audit.QueryFilter{}, 4},
		{"by category", audit.QueryFilter{Category: audit.CategoryIdea}, 2},
		{"by event type", audit.QueryFilter{EventType: audit.EventCommentRemoved}, 1},
		{"by actor", audit.QueryFilter{ActorID: &actorB}, 2},
		{"by group", audit.QueryFilter{GroupID: &group}, 1},
		{"by start time", audit.QueryFilter{StartTime: ptrTime(now.Add(-90 * time.Minute))}, 2},
		{"by time window", audit.QueryFilter{StartTime: ptrTime(now.Add(-150 * time.Minute)), EndTime: ptrTime(now.Add(-30 * time.Minute))}, 2},
		{"limit", audit.QueryFilter{Limit: 3}, 3},
		{"offset", audit.QueryFilter{Offset: 3}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			events, err := store.Query(ctx, tc.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(events) != tc.want {
				t.Errorf("got %d events, want %d", len(events), tc.want)
			}
		})
	}

	count, err := store.CountByFilter(ctx, audit.QueryFilter{ActorID: &actorA})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if count != 2 {
		t.Errorf("CountByFilter = %d, want 2", count)
	}
}

func TestStore_Query_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := primitive.NewObjectID()
	now := time.Now().UTC()
	for i, ts := range []time.Time{now.Add(-2 * time.Hour), now, now.Add(-time.Hour)} {
		if err := store.Log(ctx, audit.Event{
			Category:  audit.CategoryIdea,
			EventType: audit.EventIdeaSubmitted,
			ActorID:   &actor,
			Timestamp: ts,
			Details:   map[string]string{"n": string(rune('a' + i))},
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.GetByActor(ctx, actor, 10)
	if err != nil {
		t.Fatalf("GetByActor failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.After(events[i-1].Timestamp) {
			t.Errorf("events not sorted newest first at %d", i)
		}
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

package ideastore_test

import (
	"errors"
	"testing"
	"time"

	ideastore "github.com/dalemusser/classforge/internal/app/store/ideas"
	"github.com/dalemusser/classforge/internal/domain/models"
	"github.com/dalemusser/classforge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sub := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Idea{
		Title:       "Solar Bench",
		Description: "Benches that charge phones",
		Domain:      "energy",
		SubmittedBy: &sub,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if created.Status != models.IdeaPending {
		t.Errorf("status = %q, want pending", created.Status)
	}
	if created.TitleCI != "solar bench" {
		t.Errorf("TitleCI = %q, want %q", created.TitleCI, "solar bench")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SubmittedBy == nil || *got.SubmittedBy != sub {
		t.Errorf("SubmittedBy = %v, want %v", got.SubmittedBy, sub)
	}
}

func TestStore_Create_KeepsPresetID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Idea{ID: id, Title: "Merged", Status: models.IdeaMerged})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID != id {
		t.Errorf("ID = %v, want %v", created.ID, id)
	}
	if created.Status != models.IdeaMerged {
		t.Errorf("status = %q, want merged", created.Status)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_GetMany(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sub := primitive.NewObjectID()
	a := fixtures.CreateIdea(ctx, "A", sub)
	b := fixtures.CreateIdea(ctx, "B", sub)

	got, err := store.GetMany(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 ideas, got %d", len(got))
	}
	if got[a.ID].Title != "A" || got[b.ID].Title != "B" {
		t.Errorf("unexpected titles: %+v", got)
	}
}

func TestStore_List_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	fixtures.CreateIdea(ctx, "Pending by Ada", ada)
	fixtures.CreateIdeaWithStatus(ctx, "Approved by Ada", ada, models.IdeaApproved)
	fixtures.CreateIdea(ctx, "Pending by Bob", bob)

	// A merge result co-authored by Ada.
	if _, err := store.Create(ctx, models.Idea{
		Title:               "Merged",
		Status:              models.IdeaMerged,
		SubmittedByMultiple: []primitive.ObjectID{ada, bob},
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tests := []struct {
		name   string
		filter ideastore.Filter
		want   int64
	}{
		{"all", ideastore.Filter{}, 4},
		{"pending", ideastore.Filter{Status: models.IdeaPending}, 2},
		{"ada", ideastore.Filter{Submitter: &ada}, 3},
		{"ada pending", ideastore.Filter{Submitter: &ada, Status: models.IdeaPending}, 1},
		{"domain miss", ideastore.Filter{Domain: "space"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ideas, total, err := store.List(ctx, tc.filter, 0, 50)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if total != tc.want || int64(len(ideas)) != tc.want {
				t.Errorf("got total=%d len=%d, want %d", total, len(ideas), tc.want)
			}
		})
	}
}

func TestStore_List_NewestFirstAndPaged(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sub := primitive.NewObjectID()
	for _, title := range []string{"first", "second", "third"} {
		if _, err := store.Create(ctx, models.Idea{Title: title, SubmittedBy: &sub}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	page, total, err := store.List(ctx, ideastore.Filter{}, 1, 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(page) != 1 || page[0].Title != "second" {
		t.Errorf("expected [second], got %+v", page)
	}
}

func TestStore_SetReview_OnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	idea := fixtures.CreateIdea(ctx, "Review me", primitive.NewObjectID())
	reviewer := primitive.NewObjectID()
	now := time.Now().UTC()

	ok, err := store.SetReview(ctx, idea.ID, models.IdeaApproved, "nice", reviewer, now)
	if err != nil || !ok {
		t.Fatalf("first SetReview: ok=%v err=%v", ok, err)
	}

	ok, err = store.SetReview(ctx, idea.ID, models.IdeaRejected, "changed my mind", reviewer, now)
	if err != nil {
		t.Fatalf("second SetReview failed: %v", err)
	}
	if ok {
		t.Error("second review should not apply")
	}

	got, _ := store.GetByID(ctx, idea.ID)
	if got.Status != models.IdeaApproved || got.Feedback != "nice" {
		t.Errorf("got status=%q feedback=%q", got.Status, got.Feedback)
	}
	if got.ReviewedBy == nil || *got.ReviewedBy != reviewer {
		t.Errorf("ReviewedBy = %v, want %v", got.ReviewedBy, reviewer)
	}
}

func TestStore_ClaimAndRelease(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	idea := fixtures.CreateIdeaWithStatus(ctx, "Source", primitive.NewObjectID(), models.IdeaApproved)
	result := primitive.NewObjectID()

	ok, err := store.ClaimForMerge(ctx, idea.ID, result)
	if err != nil || !ok {
		t.Fatalf("ClaimForMerge: ok=%v err=%v", ok, err)
	}

	// A second merge cannot claim it.
	ok, err = store.ClaimForMerge(ctx, idea.ID, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("second ClaimForMerge failed: %v", err)
	}
	if ok {
		t.Error("second claim should fail")
	}

	got, _ := store.GetByID(ctx, idea.ID)
	if got.Status != models.IdeaMerged || got.MergedInto == nil || *got.MergedInto != result {
		t.Fatalf("unexpected claimed idea: status=%q merged_into=%v", got.Status, got.MergedInto)
	}

	// Releasing against a different result does nothing.
	if ok, _ := store.ReleaseClaim(ctx, idea.ID, primitive.NewObjectID(), models.IdeaApproved); ok {
		t.Error("release with wrong result should not apply")
	}

	ok, err = store.ReleaseClaim(ctx, idea.ID, result, models.IdeaApproved)
	if err != nil || !ok {
		t.Fatalf("ReleaseClaim: ok=%v err=%v", ok, err)
	}
	got, _ = store.GetByID(ctx, idea.ID)
	if got.Status != models.IdeaApproved || got.MergedInto != nil {
		t.Errorf("expected restored idea, got status=%q merged_into=%v", got.Status, got.MergedInto)
	}
}

func TestStore_Mentors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	idea := fixtures.CreateIdea(ctx, "Mentor me", primitive.NewObjectID())
	teacher := primitive.NewObjectID()

	changed, err := store.AddMentor(ctx, idea.ID, teacher)
	if err != nil || !changed {
		t.Fatalf("AddMentor: changed=%v err=%v", changed, err)
	}
	changed, err = store.AddMentor(ctx, idea.ID, teacher)
	if err != nil || changed {
		t.Errorf("repeat AddMentor: changed=%v err=%v", changed, err)
	}

	got, _ := store.GetByID(ctx, idea.ID)
	if len(got.Mentors) != 1 || got.Mentors[0] != teacher {
		t.Errorf("Mentors = %v", got.Mentors)
	}

	changed, err = store.RemoveMentor(ctx, idea.ID, teacher)
	if err != nil || !changed {
		t.Fatalf("RemoveMentor: changed=%v err=%v", changed, err)
	}
	changed, _ = store.RemoveMentor(ctx, idea.ID, teacher)
	if changed {
		t.Error("repeat RemoveMentor should not change anything")
	}

	if _, err := store.AddMentor(ctx, primitive.NewObjectID(), teacher); !errors.Is(err, ideastore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing idea, got %v", err)
	}
}

func TestStore_Mentors_MergedIdea(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	idea := fixtures.CreateIdeaWithStatus(ctx, "Gone", primitive.NewObjectID(), models.IdeaMerged)
	if _, err := store.AddMentor(ctx, idea.ID, primitive.NewObjectID()); !errors.Is(err, ideastore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for merged idea, got %v", err)
	}
	if err := store.SetMeeting(ctx, idea.ID, models.Meeting{Link: "https://meet.example/x"}); !errors.Is(err, ideastore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for merged idea, got %v", err)
	}
}

func TestStore_SetMeeting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	idea := fixtures.CreateIdeaWithStatus(ctx, "Meet", primitive.NewObjectID(), models.IdeaApproved)
	teacher := primitive.NewObjectID()
	m := models.Meeting{Link: "https://meet.example/abc", Note: "Bring sketches", SharedBy: teacher, SharedAt: time.Now().UTC()}

	if err := store.SetMeeting(ctx, idea.ID, m); err != nil {
		t.Fatalf("SetMeeting failed: %v", err)
	}
	got, _ := store.GetByID(ctx, idea.ID)
	if got.Meeting == nil || got.Meeting.Link != m.Link || got.Meeting.SharedBy != teacher {
		t.Errorf("Meeting = %+v", got.Meeting)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	idea := fixtures.CreateIdea(ctx, "Delete me", primitive.NewObjectID())
	n, err := store.Delete(ctx, idea.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	n, _ = store.Delete(ctx, idea.ID)
	if n != 0 {
		t.Errorf("second Delete removed %d", n)
	}
}

func TestStore_ForEachAndCountByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ideastore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sub := primitive.NewObjectID()
	fixtures.CreateIdea(ctx, "p1", sub)
	fixtures.CreateIdea(ctx, "p2", sub)
	fixtures.CreateIdeaWithStatus(ctx, "r1", sub, models.IdeaRejected)

	seen := 0
	if err := store.ForEach(ctx, func(models.Idea) error { seen++; return nil }); err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	if seen != 3 {
		t.Errorf("ForEach saw %d ideas, want 3", seen)
	}

	stop := errors.New("stop")
	if err := store.ForEach(ctx, func(models.Idea) error { return stop }); !errors.Is(err, stop) {
		t.Errorf("expected ForEach to return callback error, got %v", err)
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[models.IdeaPending] != 2 || counts[models.IdeaRejected] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

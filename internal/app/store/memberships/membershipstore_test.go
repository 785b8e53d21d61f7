package membershipstore_test

import (
	"testing"

	membershipstore "github.com/dalemusser/classforge/internal/app/store/memberships"
	"github.com/dalemusser/classforge/internal/app/system/indexes"
	"github.com/dalemusser/classforge/internal/domain/models"
	"github.com/dalemusser/classforge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Add(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateStudent(ctx, "Owner")
	member := fixtures.CreateStudent(ctx, "Member")
	group := fixtures.CreateGroup(ctx, "Test Group", "TEST2345", owner.ID)

	if err := store.Add(ctx, group.ID, member.ID, models.GroupRoleMember); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Verify the membership was created
	count, err := db.Collection("group_memberships").CountDocuments(ctx, bson.M{
		"group_id": group.ID,
		"user_id":  member.ID,
	})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 membership, got %d", count)
	}

	m, err := store.Get(ctx, group.ID, member.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if m.Role != models.GroupRoleMember || m.CreatedAt.IsZero() {
		t.Errorf("unexpected membership %+v", m)
	}
}

func TestStore_Add_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Add(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "leader"); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestStore_Add_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	g, u := primitive.NewObjectID(), primitive.NewObjectID()
	if err := store.Add(ctx, g, u, models.GroupRoleMember); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	if err := store.Add(ctx, g, u, models.GroupRoleAdmin); err != membershipstore.ErrDuplicateMembership {
		t.Errorf("expected ErrDuplicateMembership, got %v", err)
	}
}

func TestStore_ExistsAndRemove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	group := fixtures.CreateGroup(ctx, "G", "GGGG2345", owner)

	ok, err := store.Exists(ctx, group.ID, owner)
	if err != nil || !ok {
		t.Fatalf("Exists(owner) = %v, %v", ok, err)
	}

	n, err := store.Remove(ctx, group.ID, owner)
	if err != nil || n != 1 {
		t.Fatalf("Remove: n=%d err=%v", n, err)
	}
	ok, _ = store.Exists(ctx, group.ID, owner)
	if ok {
		t.Error("membership should be gone")
	}
	if _, err := store.Get(ctx, group.ID, owner); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_CountAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	group := fixtures.CreateGroup(ctx, "G", "GGGG2345", owner)
	for i := 0; i < 3; i++ {
		fixtures.CreateGroupMembership(ctx, group.ID, primitive.NewObjectID(), models.GroupRoleMember)
	}

	tests := []struct {
		role string
		want int64
	}{
		{"", 4},
		{models.GroupRoleAdmin, 1},
		{models.GroupRoleMember, 3},
	}
	for _, tc := range tests {
		n, err := store.CountByGroup(ctx, group.ID, tc.role)
		if err != nil {
			t.Fatalf("CountByGroup failed: %v", err)
		}
		if n != tc.want {
			t.Errorf("CountByGroup(%q) = %d, want %d", tc.role, n, tc.want)
		}
	}

	list, err := store.ListByGroup(ctx, group.ID, "")
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(list) != 4 || list[0].UserID != owner {
		t.Errorf("expected owner first of 4, got %+v", list)
	}

	n, err := store.DeleteByGroup(ctx, group.ID)
	if err != nil || n != 4 {
		t.Errorf("DeleteByGroup: n=%d err=%v", n, err)
	}
}

func TestStore_GroupIDsForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := membershipstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := primitive.NewObjectID()
	g1 := fixtures.CreateGroup(ctx, "One", "ONEE2345", me)
	g2 := fixtures.CreateGroup(ctx, "Two", "TWOO2345", primitive.NewObjectID())
	fixtures.CreateGroupMembership(ctx, g2.ID, me, models.GroupRoleMember)
	fixtures.CreateGroup(ctx, "Three", "THRE2345", primitive.NewObjectID())

	ids, err := store.GroupIDsForUser(ctx, me)
	if err != nil {
		t.Fatalf("GroupIDsForUser failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(ids))
	}
	got := map[primitive.ObjectID]bool{ids[0]: true, ids[1]: true}
	if !got[g1.ID] || !got[g2.ID] {
		t.Errorf("unexpected ids %v", ids)
	}
}

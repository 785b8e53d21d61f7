package ideaflow_test

import (
	"testing"

	"github.com/dalemusser/classforge/internal/app/ideaflow"
	"github.com/dalemusser/classforge/internal/domain/models"
	"github.com/dalemusser/classforge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func oid() primitive.ObjectID { return primitive.NewObjectID() }

func ptr(id primitive.ObjectID) *primitive.ObjectID { return &id }

func rules(vs []ideaflow.Violation) map[string]int {
	out := make(map[string]int)
	for _, v := range vs {
		out[v.Rule]++
	}
	return out
}

func TestCheckMergeIntegrity_Clean(t *testing.T) {
	a, b := oid(), oid()
	result := oid()
	ideas := []models.Idea{
		{ID: oid(), Status: models.IdeaPending, SubmittedBy: ptr(a)},
		{ID: oid(), Status: models.IdeaMerged, SubmittedBy: ptr(a), MergedInto: ptr(result)},
		{ID: oid(), Status: models.IdeaMerged, SubmittedBy: ptr(b), MergedInto: ptr(result)},
		// Source of a deleted result.
		{ID: oid(), Status: models.IdeaMerged, SubmittedBy: ptr(b), MergedInto: ptr(oid())},
	}
	ideas = append(ideas, models.Idea{
		ID: result, Status: models.IdeaMerged,
		SubmittedByMultiple: []primitive.ObjectID{a, b},
		MergedFrom:          []primitive.ObjectID{ideas[1].ID, ideas[2].ID},
	})

	if vs := ideaflow.CheckMergeIntegrity(ideas); len(vs) != 0 {
		t.Errorf("expected no violations, got %v", vs)
	}
}

func TestCheckMergeIntegrity_Violations(t *testing.T) {
	a, b := oid(), oid()
	srcOfSrc := oid()
	middle := oid()
	stranger := oid()

	ideas := []models.Idea{
		{ID: oid(), Status: models.IdeaMerged, MergedInto: ptr(oid()), SubmittedByMultiple: []primitive.ObjectID{a, b}},
		{ID: oid(), Status: models.IdeaMerged},
		{ID: oid(), Status: models.IdeaMerged, SubmittedBy: ptr(a), SubmittedByMultiple: []primitive.ObjectID{a}},
		{ID: oid(), Status: models.IdeaApproved, MergedInto: ptr(oid())},
		{ID: oid(), Status: models.IdeaApproved, SubmittedByMultiple: []primitive.ObjectID{a, b}},
		{ID: srcOfSrc, Status: models.IdeaMerged, SubmittedBy: ptr(a), MergedInto: ptr(middle)},
		{ID: middle, Status: models.IdeaMerged, SubmittedBy: ptr(b), MergedInto: ptr(oid())},
		{ID: stranger, Status: models.IdeaPending, SubmittedBy: ptr(a)},
		{ID: oid(), Status: models.IdeaMerged, SubmittedByMultiple: []primitive.ObjectID{a, b}, MergedFrom: []primitive.ObjectID{stranger}},
	}

	got := rules(ideaflow.CheckMergeIntegrity(ideas))
	want := map[string]int{
		ideaflow.RuleMergedBothRoles:    1,
		ideaflow.RuleMergedNoRole:       1,
		ideaflow.RuleResultFewAuthors:   1,
		ideaflow.RuleResultHasSubmitter: 1,
		ideaflow.RuleStrayMergedInto:    1,
		ideaflow.RuleStrayAuthors:       1,
		ideaflow.RuleTargetIsSource:     1,
		ideaflow.RuleProvenanceMismatch: 1,
	}
	for rule, n := range want {
		if got[rule] != n {
			t.Errorf("%s: got %d, want %d (all: %v)", rule, got[rule], n, got)
		}
	}
}

func TestVerifyMerges_AfterMerge(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := h.fixtures.CreateStudent(ctx, "Ada")
	bob := h.fixtures.CreateStudent(ctx, "Bob")
	teacher := h.fixtures.CreateTeacher(ctx, "Grace")
	i1 := h.fixtures.CreateIdea(ctx, "One", ada.ID)
	i2 := h.fixtures.CreateIdea(ctx, "Two", bob.ID)

	if _, err := h.svc.Merge(ctx, actorOf(teacher), mergeInput(i1.ID, i2.ID)); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	vs, n, err := h.svc.VerifyMerges(ctx)
	if err != nil {
		t.Fatalf("VerifyMerges failed: %v", err)
	}
	if n != 3 {
		t.Errorf("checked %d ideas, want 3", n)
	}
	if len(vs) != 0 {
		t.Errorf("unexpected violations %v", vs)
	}
}

package ideaflow_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/classforge/internal/app/ideaflow"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/realtime"
	"github.com/dalemusser/classforge/internal/domain/models"
	"github.com/dalemusser/classforge/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAddComment(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := h.fixtures.CreateStudent(ctx, "Ada")
	bob := h.fixtures.CreateStudent(ctx, "Bob")
	idea := h.fixtures.CreateIdea(ctx, "Kiln", ada.ID)

	c, err := h.svc.AddComment(ctx, actorOf(bob), idea.ID, "  <b>Love</b> it  ")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if c.Text != "Love it" || c.AuthorName != "Bob" || c.CreatedAt.IsZero() {
		t.Errorf("unexpected comment %+v", c)
	}

	if len(h.pub.out) != 1 {
		t.Fatalf("expected one push, got %d", len(h.pub.out))
	}
	if h.pub.out[0].Channel != realtime.IdeaChannel(idea.ID.Hex()) || h.pub.out[0].Event.Type != realtime.EventNewComment {
		t.Errorf("unexpected push %+v", h.pub.out[0])
	}

	events := h.notifier.events()
	if len(events) != 1 || !containsID(events[0].Recipients, ada.ID) {
		t.Fatalf("expected the author to be notified, got %+v", events)
	}

	// Commenting on your own idea notifies nobody.
	if _, err := h.svc.AddComment(ctx, actorOf(ada), idea.ID, "thanks"); err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	events = h.notifier.events()
	if len(events[len(events)-1].Recipients) != 0 {
		t.Errorf("self comment notified %v", events[len(events)-1].Recipients)
	}

	list, err := h.svc.ListComments(ctx, idea.ID)
	if err != nil || len(list) != 2 || list[0].ID != c.ID {
		t.Errorf("ListComments: len=%d err=%v", len(list), err)
	}
}

func TestAddComment_Validation(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := actorOf(h.fixtures.CreateStudent(ctx, "Ada"))
	idea := h.fixtures.CreateIdea(ctx, "Kiln", ada.ID)

	if _, err := h.svc.AddComment(ctx, ada, idea.ID, "   "); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank: expected validation, got %v", err)
	}
	if _, err := h.svc.AddComment(ctx, ada, idea.ID, strings.Repeat("x", ideaflow.MaxCommentRunes+1)); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("long: expected validation, got %v", err)
	}
	if _, err := h.svc.AddComment(ctx, ada, primitive.NewObjectID(), "hi"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("missing idea: expected not found, got %v", err)
	}
	if _, err := h.svc.ListComments(ctx, primitive.NewObjectID()); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("ListComments missing idea: expected not found, got %v", err)
	}
	if len(h.pub.out) != 0 {
		t.Error("rejected comments must not be pushed")
	}
}

func TestDeleteComment(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := h.fixtures.CreateStudent(ctx, "Ada")
	bob := h.fixtures.CreateStudent(ctx, "Bob")
	teacher := h.fixtures.CreateTeacher(ctx, "Grace")
	idea := h.fixtures.CreateIdea(ctx, "Kiln", ada.ID)
	other := h.fixtures.CreateIdea(ctx, "Other", ada.ID)

	c1 := h.fixtures.CreateComment(ctx, idea.ID, bob, "one")
	c2 := h.fixtures.CreateComment(ctx, idea.ID, bob, "two")

	if err := h.svc.DeleteComment(ctx, actorOf(ada), idea.ID, c1.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("idea owner: expected forbidden, got %v", err)
	}
	if err := h.svc.DeleteComment(ctx, actorOf(bob), other.ID, c1.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("wrong idea: expected not found, got %v", err)
	}
	if err := h.svc.DeleteComment(ctx, actorOf(bob), idea.ID, c1.ID); err != nil {
		t.Errorf("author delete failed: %v", err)
	}
	if err := h.svc.DeleteComment(ctx, actorOf(teacher), idea.ID, c2.ID); err != nil {
		t.Errorf("moderator delete failed: %v", err)
	}

	list, _ := h.svc.ListComments(ctx, idea.ID)
	if len(list) != 0 {
		t.Errorf("expected no comments left, got %d", len(list))
	}
}

func TestMentoring(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := h.fixtures.CreateStudent(ctx, "Ada")
	teacher := h.fixtures.CreateTeacher(ctx, "Grace")
	admin := h.fixtures.CreateAdmin(ctx, "Root")
	idea := h.fixtures.CreateIdea(ctx, "Kiln", ada.ID)
	merged := h.fixtures.CreateIdeaWithStatus(ctx, "Old", ada.ID, models.IdeaMerged)

	if _, err := h.svc.ShowInterest(ctx, actorOf(admin), idea.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("admin interest: expected forbidden, got %v", err)
	}

	got, err := h.svc.ShowInterest(ctx, actorOf(teacher), idea.ID)
	if err != nil {
		t.Fatalf("ShowInterest failed: %v", err)
	}
	if !containsID(got.Mentors, teacher.ID) {
		t.Error("expected teacher in mentors")
	}
	// Repeat is a no-op and sends nothing new.
	if _, err := h.svc.ShowInterest(ctx, actorOf(teacher), idea.ID); err != nil {
		t.Fatalf("repeat ShowInterest failed: %v", err)
	}
	if n := len(h.notifier.events()); n != 1 {
		t.Errorf("expected 1 notification after repeat, got %d", n)
	}

	got, err = h.svc.WithdrawInterest(ctx, actorOf(teacher), idea.ID)
	if err != nil {
		t.Fatalf("WithdrawInterest failed: %v", err)
	}
	if containsID(got.Mentors, teacher.ID) {
		t.Error("expected teacher removed from mentors")
	}
	events := h.notifier.events()
	if events[len(events)-1].Event.Type != models.NotifyMentorWithdrawn {
		t.Errorf("last event = %q, want mentor_withdrawn", events[len(events)-1].Event.Type)
	}

	if _, err := h.svc.ShowInterest(ctx, actorOf(teacher), merged.ID); !apperr.Is(err, apperr.KindState) {
		t.Errorf("merged idea: expected state error, got %v", err)
	}
	if _, err := h.svc.ShowInterest(ctx, actorOf(teacher), primitive.NewObjectID()); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("missing idea: expected not found, got %v", err)
	}
}

func TestShareMeeting(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := h.fixtures.CreateStudent(ctx, "Ada")
	teacher := h.fixtures.CreateTeacher(ctx, "Grace")
	idea := h.fixtures.CreateIdea(ctx, "Kiln", ada.ID)

	if _, err := h.svc.ShareMeeting(ctx, actorOf(ada), idea.ID, ideaflow.MeetingInput{Link: "https://meet.example.test/x"}); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("student: expected forbidden, got %v", err)
	}
	if _, err := h.svc.ShareMeeting(ctx, actorOf(teacher), idea.ID, ideaflow.MeetingInput{Link: "javascript:alert(1)"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("bad link: expected validation, got %v", err)
	}

	got, err := h.svc.ShareMeeting(ctx, actorOf(teacher), idea.ID, ideaflow.MeetingInput{
		Link: " https://meet.example.test/x ",
		Note: "Bring <b>sketches</b>",
	})
	if err != nil {
		t.Fatalf("ShareMeeting failed: %v", err)
	}
	if got.Meeting == nil || got.Meeting.Link != "https://meet.example.test/x" || got.Meeting.Note != "Bring sketches" {
		t.Errorf("unexpected meeting %+v", got.Meeting)
	}
	if got.Meeting.SharedBy != teacher.ID {
		t.Error("expected shared_by to be the teacher")
	}

	events := h.notifier.events()
	if len(events) != 1 || events[0].Event.Type != models.NotifyMeetingScheduled {
		t.Errorf("expected meeting_scheduled event, got %+v", events)
	}
}

func TestGet(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := h.fixtures.CreateStudent(ctx, "Ada")
	idea := h.fixtures.CreateIdea(ctx, "Kiln", ada.ID)
	h.fixtures.CreateComment(ctx, idea.ID, ada, "first")
	h.fixtures.CreateComment(ctx, idea.ID, ada, "second")

	got, err := h.svc.Get(ctx, idea.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != idea.ID || got.Title != "Kiln" {
		t.Errorf("unexpected idea %+v", got.Idea)
	}
	if len(got.Comments) != 2 {
		t.Errorf("expected 2 comments, got %d", len(got.Comments))
	}

	if _, err := h.svc.Get(ctx, primitive.NewObjectID()); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

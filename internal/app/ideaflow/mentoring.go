package ideaflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/classforge/internal/app/notify"
	"github.com/dalemusser/classforge/internal/app/policy/ideapolicy"
	ideastore "github.com/dalemusser/classforge/internal/app/store/ideas"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/authz"
	"github.com/dalemusser/classforge/internal/app/system/htmlsanitize"
	"github.com/dalemusser/classforge/internal/app/system/inputval"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShowInterest records that a teacher would like to mentor an idea.
func (s *Service) ShowInterest(ctx context.Context, actor authz.Actor, ideaID primitive.ObjectID) (models.Idea, error) {
	return s.setInterest(ctx, actor, ideaID, true)
}

// WithdrawInterest undoes ShowInterest.
func (s *Service) WithdrawInterest(ctx context.Context, actor authz.Actor, ideaID primitive.ObjectID) (models.Idea, error) {
	return s.setInterest(ctx, actor, ideaID, false)
}

func (s *Service) setInterest(ctx context.Context, actor authz.Actor, ideaID primitive.ObjectID, interested bool) (models.Idea, error) {
	if !ideapolicy.CanMentor(actor) {
		return models.Idea{}, apperr.Forbidden("only teachers can mentor ideas")
	}

	var (
		changed bool
		err     error
	)
	if interested {
		changed, err = s.ideas.AddMentor(ctx, ideaID, actor.ID)
	} else {
		changed, err = s.ideas.RemoveMentor(ctx, ideaID, actor.ID)
	}
	if errors.Is(err, ideastore.ErrNotFound) {
		return models.Idea{}, s.mergedOrMissing(ctx, ideaID)
	}
	if err != nil {
		return models.Idea{}, err
	}

	idea, err := s.loadIdea(ctx, ideaID)
	if err != nil {
		return models.Idea{}, err
	}
	if !changed {
		return idea, nil
	}

	s.audit.MentorInterest(ctx, actor.ID, ideaID, interested)

	ev := notify.Event{
		Type:    models.NotifyMentorInterest,
		Title:   "A teacher wants to mentor your idea",
		Message: fmt.Sprintf("%s is interested in mentoring %q.", actor.Name, idea.Title),
		IdeaID:  idPtr(ideaID),
		ActorID: actor.ID,
	}
	if !interested {
		ev.Type = models.NotifyMentorWithdrawn
		ev.Title = "A teacher withdrew mentor interest"
		ev.Message = fmt.Sprintf("%s is no longer mentoring %q.", actor.Name, idea.Title)
	}
	s.notifyContributors(ctx, idea, ev)
	return idea, nil
}

// MeetingInput is the body of a shared meeting.
type MeetingInput struct {
	Link        string     `json:"link" validate:"required,httpurl" label:"Meeting link"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Note        string     `json:"note" validate:"max=500" label:"Note"`
}

// ShareMeeting attaches a meeting link to an idea, replacing any earlier one,
// and tells the contributors.
func (s *Service) ShareMeeting(ctx context.Context, actor authz.Actor, ideaID primitive.ObjectID, in MeetingInput) (models.Idea, error) {
	if !ideapolicy.CanShareMeeting(actor) {
		return models.Idea{}, apperr.Forbidden("only teachers and admins can share meetings")
	}
	in.Link = strings.TrimSpace(in.Link)
	in.Note = htmlsanitize.PlainText(in.Note)
	if res := inputval.Validate(in); res.HasErrors() {
		return models.Idea{}, apperr.Validation("%s", res.First())
	}

	m := models.Meeting{
		Link:     in.Link,
		Note:     in.Note,
		SharedBy: actor.ID,
		SharedAt: time.Now().UTC(),
	}
	if in.ScheduledAt != nil {
		at := in.ScheduledAt.UTC()
		m.ScheduledAt = &at
	}

	if err := s.ideas.SetMeeting(ctx, ideaID, m); err != nil {
		if errors.Is(err, ideastore.ErrNotFound) {
			return models.Idea{}, s.mergedOrMissing(ctx, ideaID)
		}
		return models.Idea{}, err
	}

	idea, err := s.loadIdea(ctx, ideaID)
	if err != nil {
		return models.Idea{}, err
	}
	s.audit.MeetingShared(ctx, actor.ID, ideaID)

	msg := fmt.Sprintf("%s shared a meeting for %q: %s", actor.Name, idea.Title, m.Link)
	if m.ScheduledAt != nil {
		msg += " at " + m.ScheduledAt.Format(time.RFC1123)
	}
	s.notifyContributors(ctx, idea, notify.Event{
		Type:    models.NotifyMeetingScheduled,
		Title:   "Meeting scheduled",
		Message: msg,
		IdeaID:  idPtr(ideaID),
		ActorID: actor.ID,
	})
	return idea, nil
}

// mergedOrMissing explains why a guarded update on a non-merged idea matched
// nothing.
func (s *Service) mergedOrMissing(ctx context.Context, ideaID primitive.ObjectID) error {
	idea, err := s.loadIdea(ctx, ideaID)
	if err != nil {
		return err
	}
	return apperr.State("idea is %s", idea.Status)
}

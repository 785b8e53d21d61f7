package ideaflow

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/classforge/internal/app/notify"
	"github.com/dalemusser/classforge/internal/app/policy/ideapolicy"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/authz"
	"github.com/dalemusser/classforge/internal/app/system/htmlsanitize"
	"github.com/dalemusser/classforge/internal/app/system/txn"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Review moves a pending idea to approved or rejected. The transition happens
// once: a second review, or a review of a merged idea, is a State error and
// changes nothing.
func (s *Service) Review(ctx context.Context, actor authz.Actor, ideaID primitive.ObjectID, status, feedback string) (models.Idea, error) {
	if !ideapolicy.CanReview(actor) {
		return models.Idea{}, apperr.Forbidden("only teachers and admins can review ideas")
	}
	if !models.IsValidReviewStatus(status) {
		return models.Idea{}, apperr.Validation("status must be %q or %q", models.IdeaApproved, models.IdeaRejected)
	}
	feedback = htmlsanitize.PlainText(feedback)
	if tooLong(feedback, MaxFeedbackRunes) {
		return models.Idea{}, apperr.Validation("feedback must be at most %d characters", MaxFeedbackRunes)
	}

	ok, err := s.ideas.SetReview(ctx, ideaID, status, feedback, actor.ID, time.Now().UTC())
	if err != nil {
		return models.Idea{}, err
	}

	idea, err := s.loadIdea(ctx, ideaID)
	if err != nil {
		return models.Idea{}, err
	}
	if !ok {
		return models.Idea{}, apperr.State("idea is %s and can no longer be reviewed", idea.Status)
	}

	s.audit.IdeaReviewed(ctx, actor.ID, idea.ID, status)

	msg := fmt.Sprintf("%q was %s by %s.", idea.Title, status, actor.Name)
	if feedback != "" {
		msg += " Feedback: " + feedback
	}
	s.notifyContributors(ctx, idea, notify.Event{
		Type:    models.NotifyIdeaReviewed,
		Title:   "Your idea was " + status,
		Message: msg,
		IdeaID:  idPtr(idea.ID),
		ActorID: actor.ID,
	})
	return idea, nil
}

// Delete removes an idea and its comments. Contributors may delete their
// own pending ideas; teachers and admins may delete any idea.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, ideaID primitive.ObjectID) error {
	idea, err := s.loadIdea(ctx, ideaID)
	if err != nil {
		return err
	}
	if !ideapolicy.CanDeleteIdea(actor, idea) {
		return apperr.Forbidden("you cannot delete this idea")
	}

	var removed int64
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		n, err := s.ideas.Delete(ctx, ideaID)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound("idea")
		}
		removed, err = s.comments.DeleteByIdea(ctx, ideaID)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("idea deleted",
		zap.String("idea_id", ideaID.Hex()),
		zap.String("actor_id", actor.ID.Hex()),
		zap.Int64("comments_removed", removed))
	s.audit.IdeaDeleted(ctx, actor.ID, ideaID, idea.Status, removed)
	return nil
}

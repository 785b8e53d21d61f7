package ideaflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/classforge/internal/app/notify"
	"github.com/dalemusser/classforge/internal/app/policy/ideapolicy"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/authz"
	"github.com/dalemusser/classforge/internal/app/system/htmlsanitize"
	"github.com/dalemusser/classforge/internal/app/system/realtime"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AddComment posts a comment on an idea, pushes it to the idea channel, and
// notifies the idea's contributors other than the commenter.
func (s *Service) AddComment(ctx context.Context, actor authz.Actor, ideaID primitive.ObjectID, text string) (models.Comment, error) {
	text = htmlsanitize.PlainText(text)
	if text == "" {
		return models.Comment{}, apperr.Validation("comment text is required")
	}
	if tooLong(text, MaxCommentRunes) {
		return models.Comment{}, apperr.Validation("comment must be at most %d characters", MaxCommentRunes)
	}

	idea, err := s.loadIdea(ctx, ideaID)
	if err != nil {
		return models.Comment{}, err
	}

	c, err := s.comments.Create(ctx, models.Comment{
		IdeaID:     ideaID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Text:       text,
	})
	if err != nil {
		return models.Comment{}, err
	}

	s.pub.Publish(ctx, realtime.IdeaChannel(ideaID.Hex()), realtime.Event{
		Type: realtime.EventNewComment,
		Data: c,
	})
	s.notifyContributors(ctx, idea, notify.Event{
		Type:    models.NotifyIdeaCommented,
		Title:   "New comment on your idea",
		Message: fmt.Sprintf("%s commented on %q.", actor.Name, idea.Title),
		IdeaID:  idPtr(ideaID),
		ActorID: actor.ID,
	})
	return c, nil
}

// DeleteComment removes a comment from an idea. Removal by anyone other than
// the author is audited.
func (s *Service) DeleteComment(ctx context.Context, actor authz.Actor, ideaID, commentID primitive.ObjectID) error {
	c, err := s.comments.GetForIdea(ctx, ideaID, commentID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("comment")
	}
	if err != nil {
		return err
	}
	if !ideapolicy.CanDeleteComment(actor, c) {
		return apperr.Forbidden("you can only delete your own comments")
	}

	n, err := s.comments.Delete(ctx, commentID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("comment")
	}
	if c.AuthorID != actor.ID {
		s.audit.CommentRemoved(ctx, actor.ID, ideaID, commentID, c.AuthorID)
	}
	return nil
}

// ListComments returns an idea's comments in chronological order.
func (s *Service) ListComments(ctx context.Context, ideaID primitive.ObjectID) ([]models.Comment, error) {
	if _, err := s.loadIdea(ctx, ideaID); err != nil {
		return nil, err
	}
	return s.comments.ListByIdea(ctx, ideaID)
}

package ideaflow

import (
	"context"
	"strings"

	ideastore "github.com/dalemusser/classforge/internal/app/store/ideas"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/authz"
	"github.com/dalemusser/classforge/internal/app/system/htmlsanitize"
	"github.com/dalemusser/classforge/internal/app/system/inputval"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubmitInput is the body of a new idea.
type SubmitInput struct {
	Title       string             `json:"title" validate:"notblank,max=200" label:"Title"`
	Description string             `json:"description" validate:"notblank,max=10000" label:"Description"`
	Domain      string             `json:"domain" validate:"notblank,max=100" label:"Domain"`
	Tags        []string           `json:"tags" validate:"max=20,dive,max=50" label:"Tags"`
	Images      []models.IdeaImage `json:"images" validate:"max=10,dive" label:"Images"`
}

func (in *SubmitInput) clean() {
	in.Title = htmlsanitize.PlainText(in.Title)
	in.Description = htmlsanitize.Sanitize(in.Description)
	in.Domain = strings.ToLower(htmlsanitize.PlainText(in.Domain))

	in.Tags = htmlsanitize.PlainTexts(in.Tags)

	for i := range in.Images {
		in.Images[i].URL = strings.TrimSpace(in.Images[i].URL)
		in.Images[i].Caption = htmlsanitize.PlainText(in.Images[i].Caption)
		in.Images[i].ContentType = strings.TrimSpace(in.Images[i].ContentType)
	}
}

// Submit creates a pending idea authored by the actor.
func (s *Service) Submit(ctx context.Context, actor authz.Actor, in SubmitInput) (models.Idea, error) {
	in.clean()
	if res := inputval.Validate(in); res.HasErrors() {
		return models.Idea{}, apperr.Validation("%s", res.First())
	}

	idea, err := s.ideas.Create(ctx, models.Idea{
		Title:       in.Title,
		Description: in.Description,
		Domain:      in.Domain,
		Tags:        in.Tags,
		Images:      in.Images,
		Status:      models.IdeaPending,
		SubmittedBy: idPtr(actor.ID),
	})
	if err != nil {
		return models.Idea{}, err
	}

	s.audit.IdeaSubmitted(ctx, actor.ID, idea.ID, idea.Domain)
	return idea, nil
}

// IdeaDetail is an idea with its comments in chronological order.
type IdeaDetail struct {
	models.Idea
	Comments []models.Comment `json:"comments"`
}

// Get returns an idea and its comments.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (IdeaDetail, error) {
	idea, err := s.loadIdea(ctx, id)
	if err != nil {
		return IdeaDetail{}, err
	}
	comments, err := s.comments.ListByIdea(ctx, id)
	if err != nil {
		return IdeaDetail{}, err
	}
	return IdeaDetail{Idea: idea, Comments: comments}, nil
}

// ListFilter narrows List.
type ListFilter struct {
	Status    string
	Domain    string
	Submitter *primitive.ObjectID
	Skip      int64
	Limit     int64
}

// List returns a page of ideas, newest first, and the total count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Idea, int64, error) {
	switch f.Status {
	case "", models.IdeaPending, models.IdeaApproved, models.IdeaRejected, models.IdeaMerged:
	default:
		return nil, 0, apperr.Validation("unknown status %q", f.Status)
	}
	return s.ideas.List(ctx, ideastore.Filter{
		Status:    f.Status,
		Domain:    f.Domain,
		Submitter: f.Submitter,
	}, f.Skip, f.Limit)
}

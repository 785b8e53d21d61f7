// internal/app/ideaflow/service.go
//
// Package ideaflow owns the idea lifecycle: submission, review, merge,
// comments, deletion, and teacher mentoring. Every operation checks
// permissions and validates input before it writes anything, and returns
// apperr-classified errors for the HTTP layer to translate.
package ideaflow

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/dalemusser/classforge/internal/app/notify"
	commentstore "github.com/dalemusser/classforge/internal/app/store/comments"
	ideastore "github.com/dalemusser/classforge/internal/app/store/ideas"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/auditlog"
	"github.com/dalemusser/classforge/internal/app/system/realtime"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Limits on user input.
const (
	MaxTitleRunes       = 200
	MaxDescriptionRunes = 10000
	MaxDomainRunes      = 100
	MaxTags             = 20
	MaxTagRunes         = 50
	MaxImages           = 10
	MaxCommentRunes     = 2000
	MaxFeedbackRunes    = 2000
	MaxNoteRunes        = 500
)

// Notifier fans an event out to recipients.
type Notifier interface {
	Notify(ctx context.Context, ev notify.Event, recipients []primitive.ObjectID) ([]models.Notification, error)
}

// Service implements the idea operations.
type Service struct {
	db       *mongo.Database
	ideas    *ideastore.Store
	comments *commentstore.Store
	notifier Notifier
	pub      realtime.Publisher
	audit    *auditlog.Logger
	log      *zap.Logger

	// beforeClaim runs between loading merge sources and claiming them.
	// Tests use it to interleave a competing merge.
	beforeClaim func(ctx context.Context, ids []primitive.ObjectID)
}

// New wires a Service. Nil publisher and audit logger are allowed.
func New(db *mongo.Database, notifier Notifier, pub realtime.Publisher, audit *auditlog.Logger, log *zap.Logger) *Service {
	if pub == nil {
		pub = realtime.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:       db,
		ideas:    ideastore.New(db),
		comments: commentstore.New(db),
		notifier: notifier,
		pub:      pub,
		audit:    audit,
		log:      log,
	}
}

// loadIdea maps a missing idea to NotFound.
func (s *Service) loadIdea(ctx context.Context, id primitive.ObjectID) (models.Idea, error) {
	idea, err := s.ideas.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Idea{}, apperr.NotFound("idea")
	}
	return idea, err
}

// notifyContributors tells every contributor of idea about ev. Failures are
// logged; the primary operation has already succeeded.
func (s *Service) notifyContributors(ctx context.Context, idea models.Idea, ev notify.Event) {
	s.notifyUsers(ctx, ev, idea.Contributors())
}

func (s *Service) notifyUsers(ctx context.Context, ev notify.Event, recipients []primitive.ObjectID) {
	if s.notifier == nil || len(recipients) == 0 {
		return
	}
	if _, err := s.notifier.Notify(ctx, ev, recipients); err != nil {
		s.log.Warn("notification fan-out failed",
			zap.String("type", ev.Type),
			zap.Error(err))
	}
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID { return &id }

package ideaflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/classforge/internal/app/notify"
	"github.com/dalemusser/classforge/internal/app/policy/ideapolicy"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/authz"
	"github.com/dalemusser/classforge/internal/app/system/htmlsanitize"
	"github.com/dalemusser/classforge/internal/app/system/inputval"
	"github.com/dalemusser/classforge/internal/app/system/timeouts"
	"github.com/dalemusser/classforge/internal/app/system/txn"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MergeInput is the body of a merge request.
type MergeInput struct {
	IdeaIDs     []string `json:"idea_ids" label:"Ideas"`
	Title       string   `json:"title" validate:"notblank,max=200" label:"Title"`
	Description string   `json:"description" validate:"notblank,max=10000" label:"Description"`
	Domain      string   `json:"domain" validate:"notblank,max=100" label:"Domain"`
}

// Merge combines two or more ideas into a new one. The new idea starts in
// merged, has no single submitter, and lists every distinct contributor of
// the sources. Each source is marked merged and points at the new idea.
//
// A source is claimed with a compare-and-set on status != merged, so of two
// merges sharing a source exactly one wins; the other fails with Conflict
// and leaves nothing behind. Without transaction support the claims made so
// far are released and the result removed.
func (s *Service) Merge(ctx context.Context, actor authz.Actor, in MergeInput) (models.Idea, error) {
	if !ideapolicy.CanMerge(actor) {
		return models.Idea{}, apperr.Forbidden("only teachers and admins can merge ideas")
	}

	in.Title = htmlsanitize.PlainText(in.Title)
	in.Description = htmlsanitize.Sanitize(in.Description)
	in.Domain = strings.ToLower(htmlsanitize.PlainText(in.Domain))
	if res := inputval.Validate(in); res.HasErrors() {
		return models.Idea{}, apperr.Validation("%s", res.First())
	}

	ids, err := parseSourceIDs(in.IdeaIDs)
	if err != nil {
		return models.Idea{}, err
	}

	found, err := s.ideas.GetMany(ctx, ids)
	if err != nil {
		return models.Idea{}, err
	}
	sources := make([]models.Idea, 0, len(ids))
	for _, id := range ids {
		src, ok := found[id]
		if !ok {
			return models.Idea{}, apperr.NotFound("idea " + id.Hex())
		}
		if src.Status == models.IdeaMerged {
			return models.Idea{}, apperr.Conflict("idea %s is already merged", id.Hex())
		}
		sources = append(sources, src)
	}

	authors := Authors(sources)
	if len(authors) < 2 {
		return models.Idea{}, apperr.Validation("a merge needs ideas from at least two different authors")
	}

	if s.beforeClaim != nil {
		s.beforeClaim(ctx, ids)
	}

	resultID := primitive.NewObjectID()
	var (
		result   models.Idea
		claimed  []primitive.ObjectID
		inserted bool
		inTxn    bool
	)
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		// The callback may be retried; start from a clean slate each time.
		claimed, inserted = claimed[:0], false
		inTxn = txn.InTransaction(ctx)

		for _, id := range ids {
			ok, err := s.ideas.ClaimForMerge(ctx, id, resultID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Conflict("idea %s was merged by another request", id.Hex())
			}
			claimed = append(claimed, id)
		}

		var err error
		result, err = s.ideas.Create(ctx, models.Idea{
			ID:                  resultID,
			Title:               in.Title,
			Description:         in.Description,
			Domain:              in.Domain,
			Status:              models.IdeaMerged,
			SubmittedByMultiple: authors,
			MergedFrom:          ids,
		})
		if err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		if !inTxn && (len(claimed) > 0 || inserted) {
			s.compensateMerge(ctx, actor, resultID, sources, claimed, inserted, err)
		}
		return models.Idea{}, err
	}

	s.log.Info("ideas merged",
		zap.String("result_id", resultID.Hex()),
		zap.Int("sources", len(ids)),
		zap.Int("authors", len(authors)))
	s.audit.IdeasMerged(ctx, actor.ID, resultID, ids, len(authors))

	s.notifyUsers(ctx, notify.Event{
		Type:    models.NotifyIdeaMerged,
		Title:   "Your idea was merged",
		Message: fmt.Sprintf("Your idea is now part of %q.", result.Title),
		IdeaID:  idPtr(resultID),
		ActorID: actor.ID,
	}, authors)
	return result, nil
}

// compensateMerge undoes a partially applied merge that ran without a
// transaction. Only sources still pointing at resultID are touched.
func (s *Service) compensateMerge(ctx context.Context, actor authz.Actor, resultID primitive.ObjectID, sources []models.Idea, claimed []primitive.ObjectID, inserted bool, cause error) {
	ctx, cancel := timeouts.Detached(ctx, timeouts.Medium(), s.log, "merge rollback")
	defer cancel()

	prev := make(map[primitive.ObjectID]string, len(sources))
	for _, src := range sources {
		prev[src.ID] = src.Status
	}

	restored := 0
	for _, id := range claimed {
		ok, err := s.ideas.ReleaseClaim(ctx, id, resultID, prev[id])
		if err != nil {
			s.log.Error("merge rollback: release source failed",
				zap.String("idea_id", id.Hex()),
				zap.String("result_id", resultID.Hex()),
				zap.Error(err))
			continue
		}
		if ok {
			restored++
		}
	}
	if inserted {
		if _, err := s.ideas.Delete(ctx, resultID); err != nil {
			s.log.Error("merge rollback: remove result failed",
				zap.String("result_id", resultID.Hex()),
				zap.Error(err))
		}
	}

	s.log.Warn("merge rolled back",
		zap.String("result_id", resultID.Hex()),
		zap.Int("restored", restored),
		zap.Error(cause))
	s.audit.MergeRolledBack(ctx, actor.ID, resultID, cause.Error(), restored)
}

// parseSourceIDs parses and de-duplicates merge source ids, keeping order.
func parseSourceIDs(raw []string) ([]primitive.ObjectID, error) {
	seen := make(map[primitive.ObjectID]bool, len(raw))
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, r := range raw {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(r))
		if err != nil {
			return nil, apperr.Validation("invalid idea id %q", r)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return nil, apperr.Validation("a merge needs at least two distinct ideas")
	}
	return ids, nil
}

// Authors returns the distinct contributors of sources in first-seen order.
// A source that is itself a merge result contributes all of its authors.
func Authors(sources []models.Idea) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool)
	var out []primitive.ObjectID
	for _, src := range sources {
		for _, id := range src.Contributors() {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

package ideaflow

import (
	"context"
	"fmt"

	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Integrity rules reported by CheckMergeIntegrity.
const (
	RuleMergedBothRoles    = "merged_both_roles"
	RuleMergedNoRole       = "merged_no_role"
	RuleResultHasSubmitter = "result_has_submitter"
	RuleResultFewAuthors   = "result_few_authors"
	RuleStrayMergedInto    = "stray_merged_into"
	RuleStrayAuthors       = "stray_authors"
	RuleTargetIsSource     = "target_is_source"
	RuleProvenanceMismatch = "provenance_mismatch"
)

// Violation is one idea that breaks a merge rule.
type Violation struct {
	IdeaID primitive.ObjectID
	Rule   string
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s", v.IdeaID.Hex(), v.Rule, v.Detail)
}

// CheckMergeIntegrity checks the merged-state rules across a set of ideas.
// A merged_into pointing at an idea absent from the set is not reported:
// deleting a merge result leaves its sources dangling on purpose.
func CheckMergeIntegrity(ideas []models.Idea) []Violation {
	byID := make(map[primitive.ObjectID]models.Idea, len(ideas))
	for _, idea := range ideas {
		byID[idea.ID] = idea
	}

	var out []Violation
	add := func(id primitive.ObjectID, rule, format string, args ...any) {
		out = append(out, Violation{IdeaID: id, Rule: rule, Detail: fmt.Sprintf(format, args...)})
	}

	for _, idea := range ideas {
		isSource := idea.MergedInto != nil
		isResult := len(idea.SubmittedByMultiple) > 0

		if idea.Status != models.IdeaMerged {
			if isSource {
				add(idea.ID, RuleStrayMergedInto, "status %s but merged_into is %s", idea.Status, idea.MergedInto.Hex())
			}
			if isResult {
				add(idea.ID, RuleStrayAuthors, "status %s but has %d authors", idea.Status, len(idea.SubmittedByMultiple))
			}
			continue
		}

		switch {
		case isSource && isResult:
			add(idea.ID, RuleMergedBothRoles, "has merged_into and %d authors", len(idea.SubmittedByMultiple))
		case !isSource && !isResult:
			add(idea.ID, RuleMergedNoRole, "merged without merged_into or authors")
		}

		if isResult {
			if len(idea.SubmittedByMultiple) < 2 {
				add(idea.ID, RuleResultFewAuthors, "only %d author", len(idea.SubmittedByMultiple))
			}
			if idea.SubmittedBy != nil {
				add(idea.ID, RuleResultHasSubmitter, "submitted_by is %s", idea.SubmittedBy.Hex())
			}
			for _, src := range idea.MergedFrom {
				s, ok := byID[src]
				if ok && (s.MergedInto == nil || *s.MergedInto != idea.ID) {
					add(idea.ID, RuleProvenanceMismatch, "source %s does not point back", src.Hex())
				}
			}
		}

		if isSource {
			if target, ok := byID[*idea.MergedInto]; ok && target.MergedInto != nil {
				add(idea.ID, RuleTargetIsSource, "target %s was itself merged into %s", target.ID.Hex(), target.MergedInto.Hex())
			}
		}
	}
	return out
}

// VerifyMerges loads every idea and checks the merge rules.
func (s *Service) VerifyMerges(ctx context.Context) ([]Violation, int, error) {
	var all []models.Idea
	if err := s.ideas.ForEach(ctx, func(idea models.Idea) error {
		all = append(all, idea)
		return nil
	}); err != nil {
		return nil, 0, err
	}
	return CheckMergeIntegrity(all), len(all), nil
}

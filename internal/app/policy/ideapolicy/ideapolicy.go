// internal/app/policy/ideapolicy/ideapolicy.go
package ideapolicy

import (
	"github.com/dalemusser/classforge/internal/app/system/authz"
	"github.com/dalemusser/classforge/internal/domain/models"
)

// CanReview reports whether the actor may approve or reject ideas.
// Teachers and admins can.
func CanReview(a authz.Actor) bool {
	return a.IsReviewer()
}

// CanMerge reports whether the actor may merge ideas. Same as review.
func CanMerge(a authz.Actor) bool {
	return a.IsReviewer()
}

// CanDeleteComment reports whether the actor may remove a comment:
// its author, any teacher, or any admin.
func CanDeleteComment(a authz.Actor, c models.Comment) bool {
	return c.AuthorID == a.ID || a.IsReviewer()
}

// CanDeleteIdea reports whether the actor may delete an idea:
// - Teachers and admins always can
// - A contributor can while the idea is still pending
func CanDeleteIdea(a authz.Actor, idea models.Idea) bool {
	if a.IsReviewer() {
		return true
	}
	return idea.Status == models.IdeaPending && idea.IsContributor(a.ID)
}

// CanMentor reports whether the actor may show or withdraw mentor interest.
// Only teachers mentor.
func CanMentor(a authz.Actor) bool {
	return a.IsTeacher()
}

// CanShareMeeting reports whether the actor may attach a meeting to an idea.
func CanShareMeeting(a authz.Actor) bool {
	return a.IsReviewer()
}

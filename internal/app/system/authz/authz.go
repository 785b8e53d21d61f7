// internal/app/system/authz/authz.go
package authz

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/classforge/internal/app/system/auth"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller as the services see it.
type Actor struct {
	ID   primitive.ObjectID
	Name string
	Role string
}

// IsReviewer reports whether the actor may review, merge, and moderate.
func (a Actor) IsReviewer() bool { return models.IsReviewerRole(a.Role) }

// IsTeacher reports whether the actor is a teacher.
func (a Actor) IsTeacher() bool { return a.Role == models.RoleTeacher }

// ActorFrom returns the request's Actor.
func ActorFrom(r *http.Request) (Actor, bool) {
	return ActorFromContext(r.Context())
}

// ActorFromContext returns the Actor carried by ctx.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return Actor{}, false
	}
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session; fail closed.
		return Actor{}, false
	}
	return Actor{ID: oid, Name: user.Name, Role: strings.ToLower(user.Role)}, true
}

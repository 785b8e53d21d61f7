package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/classforge/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Calling it twice on the same request adds to the existing route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active user with the given name and role.
// The login id is derived from the name.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	login := text.Fold(fullName) + "-" + primitive.NewObjectID().Hex()[18:]
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		LoginID:    login,
		LoginIDCI:  text.Fold(login),
		Email:      login + "@example.test",
		Role:       role,
		Status:     models.UserActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateStudent creates a student user.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, models.RoleStudent)
}

// CreateTeacher creates a teacher user.
func (f *Fixtures) CreateTeacher(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, models.RoleTeacher)
}

// CreateAdmin creates an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, models.RoleAdmin)
}

// CreateDisabledUser creates a disabled student.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, fullName, models.RoleStudent)
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, map[string]any{
		"$set": map[string]any{"status": models.UserDisabled},
	}); err != nil {
		f.t.Fatalf("failed to disable test user: %v", err)
	}
	u.Status = models.UserDisabled
	return u
}

// CreateIdea creates a pending idea submitted by submitter.
func (f *Fixtures) CreateIdea(ctx context.Context, title string, submitter primitive.ObjectID) models.Idea {
	f.t.Helper()
	return f.CreateIdeaWithStatus(ctx, title, submitter, models.IdeaPending)
}

// CreateIdeaWithStatus creates an idea in the given status.
func (f *Fixtures) CreateIdeaWithStatus(ctx context.Context, title string, submitter primitive.ObjectID, status string) models.Idea {
	f.t.Helper()

	now := time.Now().UTC()
	sub := submitter
	idea := models.Idea{
		ID:          primitive.NewObjectID(),
		Title:       title,
		TitleCI:     text.Fold(title),
		Description: "Description of " + title,
		Domain:      "general",
		Status:      status,
		SubmittedBy: &sub,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("ideas").InsertOne(ctx, idea); err != nil {
		f.t.Fatalf("failed to create test idea: %v", err)
	}
	return idea
}

// CreateComment creates a comment on an idea.
func (f *Fixtures) CreateComment(ctx context.Context, ideaID primitive.ObjectID, author models.User, body string) models.Comment {
	f.t.Helper()

	c := models.Comment{
		ID:         primitive.NewObjectID(),
		IdeaID:     ideaID,
		AuthorID:   author.ID,
		AuthorName: author.FullName,
		Text:       body,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := f.db.Collection("comments").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}
	return c
}

// CreateGroup creates a chat group with owner as its admin member.
func (f *Fixtures) CreateGroup(ctx context.Context, name, code string, owner primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		GroupCode: code,
		CreatedBy: owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	f.CreateGroupMembership(ctx, group.ID, owner, models.GroupRoleAdmin)
	return group
}

// CreateGroupMembership adds userID to groupID with the given role.
func (f *Fixtures) CreateGroupMembership(ctx context.Context, groupID, userID primitive.ObjectID, role string) models.GroupMembership {
	f.t.Helper()

	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test group membership: %v", err)
	}
	return m
}

// CreateNotification creates a notification for recipient.
func (f *Fixtures) CreateNotification(ctx context.Context, recipient primitive.ObjectID, read bool, createdAt time.Time) models.Notification {
	f.t.Helper()

	n := models.Notification{
		ID:          primitive.NewObjectID(),
		RecipientID: recipient,
		Type:        models.NotifyIdeaCommented,
		Title:       "New comment",
		Message:     "Someone commented on your idea",
		IsRead:      read,
		CreatedAt:   createdAt,
	}
	if _, err := f.db.Collection("notifications").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test notification: %v", err)
	}
	return n
}

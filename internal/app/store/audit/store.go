// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryIdea       = "idea"
	CategoryModeration = "moderation"
	CategoryGroup      = "group"
	CategoryAuth       = "auth"
)

// Idea event types
const (
	EventIdeaSubmitted   = "idea_submitted"
	EventIdeaReviewed    = "idea_reviewed"
	EventIdeaDeleted     = "idea_deleted"
	EventIdeasMerged     = "ideas_merged"
	EventMergeRolledBack = "merge_rolled_back"
	EventMentorInterest  = "mentor_interest"
	EventMentorWithdrawn = "mentor_withdrawn"
	EventMeetingShared   = "meeting_shared"
)

// Moderation event types
const (
	EventCommentRemoved = "comment_removed"
)

// Group event types
const (
	EventGroupCreated  = "group_created"
	EventMemberJoined  = "member_joined"
	EventMemberInvited = "member_invited"
	EventMemberLeft    = "member_left"
)

// Auth event types
const (
	EventLoginSuccess = "login_success"
	EventLoginFailed  = "login_failed"
	EventLogout       = "logout"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty"` // who performed the action
	UserID  *primitive.ObjectID `bson:"user_id,omitempty"`  // affected user, when not the actor

	// What
	IdeaID  *primitive.ObjectID `bson:"idea_id,omitempty"`
	GroupID *primitive.ObjectID `bson:"group_id,omitempty"`

	// Context (request-scoped events only)
	IP        string `bson:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	ActorID   *primitive.ObjectID
	IdeaID    *primitive.ObjectID
	GroupID   *primitive.ObjectID
	Category  string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

func (f QueryFilter) toBSON() bson.M {
	q := bson.M{}
	if f.ActorID != nil {
		q["actor_id"] = *f.ActorID
	}
	if f.IdeaID != nil {
		q["idea_id"] = *f.IdeaID
	}
	if f.GroupID != nil {
		q["group_id"] = *f.GroupID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		tq := bson.M{}
		if f.StartTime != nil {
			tq["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			tq["$lte"] = *f.EndTime
		}
		q["timestamp"] = tq
	}
	return q
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.toBSON(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.toBSON())
}

// GetByActor retrieves recent audit events performed by actorID.
func (s *Store) GetByActor(ctx context.Context, actorID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{ActorID: &actorID, Limit: limit})
}

// GetByIdea retrieves the audit trail of one idea.
func (s *Store) GetByIdea(ctx context.Context, ideaID primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{IdeaID: &ideaID, Limit: limit})
}

// GetRecent retrieves the most recent audit events.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Limit: limit})
}

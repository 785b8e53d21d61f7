// internal/domain/models/notification.go
package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotifyIdeaReviewed     = "idea_reviewed"
	NotifyIdeaCommented    = "idea_commented"
	NotifyIdeaMerged       = "idea_merged"
	NotifyMentorInterest   = "mentor_interest"
	NotifyMentorWithdrawn  = "mentor_withdrawn"
	NotifyMeetingScheduled = "meeting_scheduled"
)

// Notification is a per-recipient record of a domain event.
//
// NOTE:
//   - Read state is the single stored field is_read. The legacy "read" key is
//     emitted in JSON from the same value (see MarshalJSON).
//   - Unread counts are always derived by counting rows.
type Notification struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	RecipientID primitive.ObjectID  `bson:"recipient_id" json:"recipient_id"`
	Type        string              `bson:"type" json:"type"`
	Title       string              `bson:"title" json:"title"`
	Message     string              `bson:"message" json:"message"`
	IdeaID      *primitive.ObjectID `bson:"idea_id,omitempty" json:"idea_id,omitempty"`
	GroupID     *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`
	ActorID     *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	IsRead      bool                `bson:"is_read" json:"is_read"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
}

// MarshalJSON adds the legacy "read" alias.
func (n Notification) MarshalJSON() ([]byte, error) {
	type plain Notification
	return json.Marshal(struct {
		plain
		Read bool `json:"read"`
	}{plain: plain(n), Read: n.IsRead})
}

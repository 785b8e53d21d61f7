// internal/domain/models/idea.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Idea statuses.
//
//	pending -> approved | rejected   (review, single shot)
//	pending | approved | rejected -> merged   (merge sources only)
//
// A merge result is created directly in merged.
const (
	IdeaPending  = "pending"
	IdeaApproved = "approved"
	IdeaRejected = "rejected"
	IdeaMerged   = "merged"
)

// Idea is a submitted proposal with a review and merge lifecycle.
//
// NOTE:
//   - SubmittedBy is nil on merge results; their authors live in SubmittedByMultiple.
//   - MergedInto is set only on merge sources and may dangle if the result is deleted.
//   - Comments live in the comments collection (see Comment).
type Idea struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Description string             `bson:"description" json:"description"`
	Domain      string             `bson:"domain" json:"domain"`
	Tags        []string           `bson:"tags,omitempty" json:"tags"`
	Images      []IdeaImage        `bson:"images,omitempty" json:"images"`

	Status              string               `bson:"status" json:"status"`
	SubmittedBy         *primitive.ObjectID  `bson:"submitted_by,omitempty" json:"submitted_by"`
	SubmittedByMultiple []primitive.ObjectID `bson:"submitted_by_multiple,omitempty" json:"submitted_by_multiple,omitempty"`
	MergedInto          *primitive.ObjectID  `bson:"merged_into,omitempty" json:"merged_into"`
	MergedFrom          []primitive.ObjectID `bson:"merged_from,omitempty" json:"merged_from,omitempty"`

	// Set once by the review transition.
	Feedback   string              `bson:"feedback,omitempty" json:"feedback,omitempty"`
	ReviewedBy *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`

	Mentors []primitive.ObjectID `bson:"mentors,omitempty" json:"mentors"`
	Meeting *Meeting             `bson:"meeting,omitempty" json:"meeting,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IdeaImage is an image reference attached to an idea.
type IdeaImage struct {
	URL         string `bson:"url" json:"url" validate:"required,httpurl" label:"Image URL"`
	Caption     string `bson:"caption,omitempty" json:"caption,omitempty" validate:"max=200" label:"Image caption"`
	ContentType string `bson:"content_type,omitempty" json:"content_type,omitempty"`
	Width       int    `bson:"width,omitempty" json:"width,omitempty" validate:"gte=0"`
	Height      int    `bson:"height,omitempty" json:"height,omitempty" validate:"gte=0"`
}

// Meeting is a mentor meeting shared on an idea.
type Meeting struct {
	Link        string             `bson:"link" json:"link"`
	ScheduledAt *time.Time         `bson:"scheduled_at,omitempty" json:"scheduled_at,omitempty"`
	Note        string             `bson:"note,omitempty" json:"note,omitempty"`
	SharedBy    primitive.ObjectID `bson:"shared_by" json:"shared_by"`
	SharedAt    time.Time          `bson:"shared_at" json:"shared_at"`
}

// Contributors returns the idea's authors in order: the multi-author list when
// present, otherwise the single submitter.
func (i Idea) Contributors() []primitive.ObjectID {
	if len(i.SubmittedByMultiple) > 0 {
		out := make([]primitive.ObjectID, len(i.SubmittedByMultiple))
		copy(out, i.SubmittedByMultiple)
		return out
	}
	if i.SubmittedBy != nil {
		return []primitive.ObjectID{*i.SubmittedBy}
	}
	return nil
}

// IsContributor reports whether userID authored the idea.
func (i Idea) IsContributor(userID primitive.ObjectID) bool {
	for _, id := range i.Contributors() {
		if id == userID {
			return true
		}
	}
	return false
}

// IsValidReviewStatus reports whether s is a legal review outcome.
func IsValidReviewStatus(s string) bool {
	return s == IdeaApproved || s == IdeaRejected
}

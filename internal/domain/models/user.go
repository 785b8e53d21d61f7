// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents students, teachers, and admins.
//
// NOTE:
//   - Group membership is not embedded on User.
//     Use the group_memberships collection to discover a user's groups.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	LoginID    string             `bson:"login_id" json:"login_id"`
	LoginIDCI  string             `bson:"login_id_ci" json:"-"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Role       string             `bson:"role" json:"role"` // student | teacher | admin
	Status     string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Roles.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User statuses.
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// IsReviewerRole reports whether role may review and merge ideas.
func IsReviewerRole(role string) bool {
	return role == RoleTeacher || role == RoleAdmin
}

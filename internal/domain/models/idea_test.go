package models

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIdea_Contributors(t *testing.T) {
	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()
	u3 := primitive.NewObjectID()

	tests := []struct {
		name string
		idea Idea
		want []primitive.ObjectID
	}{
		{"single submitter", Idea{SubmittedBy: &u1}, []primitive.ObjectID{u1}},
		{"merge result", Idea{SubmittedByMultiple: []primitive.ObjectID{u2, u3}}, []primitive.ObjectID{u2, u3}},
		{"multiple wins over single", Idea{SubmittedBy: &u1, SubmittedByMultiple: []primitive.ObjectID{u3, u2}}, []primitive.ObjectID{u3, u2}},
		{"no authors", Idea{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.idea.Contributors()
			if len(got) != len(tt.want) {
				t.Fatalf("Contributors() len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Contributors()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIdea_ContributorsReturnsCopy(t *testing.T) {
	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()
	idea := Idea{SubmittedByMultiple: []primitive.ObjectID{u1, u2}}

	got := idea.Contributors()
	got[0] = primitive.NewObjectID()

	if idea.SubmittedByMultiple[0] != u1 {
		t.Error("mutating Contributors() result changed the idea")
	}
}

func TestIsValidReviewStatus(t *testing.T) {
	for s, want := range map[string]bool{
		IdeaApproved: true,
		IdeaRejected: true,
		IdeaPending:  false,
		IdeaMerged:   false,
		"":           false,
	} {
		if got := IsValidReviewStatus(s); got != want {
			t.Errorf("IsValidReviewStatus(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestNotification_MarshalJSONEmitsLegacyRead(t *testing.T) {
	for _, isRead := range []bool{true, false} {
		n := Notification{ID: primitive.NewObjectID(), Type: NotifyIdeaCommented, IsRead: isRead}
		b, err := json.Marshal(n)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		var out map[string]any
		if err := json.Unmarshal(b, &out); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if out["is_read"] != isRead || out["read"] != isRead {
			t.Errorf("is_read=%v read=%v, want both %v", out["is_read"], out["read"], isRead)
		}
		if out["type"] != NotifyIdeaCommented {
			t.Errorf("type = %v, want %q", out["type"], NotifyIdeaCommented)
		}
	}
}

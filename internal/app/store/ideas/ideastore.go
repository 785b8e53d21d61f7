// internal/app/store/ideas/ideastore.go
package ideastore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/classforge/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when an update targets an idea that does not exist.
var ErrNotFound = errors.New("idea not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("ideas")}
}

// Create inserts an idea. A preset ID is kept (merge results pre-allocate
// theirs); otherwise a new one is assigned. Status defaults to pending.
func (s *Store) Create(ctx context.Context, idea models.Idea) (models.Idea, error) {
	now := time.Now().UTC()
	if idea.ID.IsZero() {
		idea.ID = primitive.NewObjectID()
	}
	if idea.Status == "" {
		idea.Status = models.IdeaPending
	}
	idea.TitleCI = text.Fold(idea.Title)
	idea.CreatedAt = now
	idea.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, idea); err != nil {
		return models.Idea{}, err
	}
	return idea, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Idea, error) {
	var idea models.Idea
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&idea); err != nil {
		return models.Idea{}, err
	}
	return idea, nil
}

// GetMany returns the ideas with the given ids keyed by id. Missing ids are
// simply absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Idea, error) {
	out := make(map[primitive.ObjectID]models.Idea, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var idea models.Idea
		if err := cur.Decode(&idea); err != nil {
			return nil, err
		}
		out[idea.ID] = idea
	}
	return out, cur.Err()
}

// Filter narrows List. Zero values mean "any".
type Filter struct {
	Status string
	Domain string
	// Submitter matches single-author ideas and merge results the user co-authored.
	Submitter *primitive.ObjectID
}

func (f Filter) toBSON() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Domain != "" {
		q["domain"] = f.Domain
	}
	if f.Submitter != nil {
		q["$or"] = bson.A{
			bson.M{"submitted_by": *f.Submitter},
			bson.M{"submitted_by_multiple": *f.Submitter},
		}
	}
	return q
}

// List returns a page of ideas, newest first, and the total matching count.
func (s *Store) List(ctx context.Context, f Filter, skip, limit int64) ([]models.Idea, int64, error) {
	q := f.toBSON()

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	ideas := make([]models.Idea, 0)
	if err := cur.All(ctx, &ideas); err != nil {
		return nil, 0, err
	}
	return ideas, total, nil
}

// SetReview records a review outcome if the idea is still pending. It
// reports whether the idea was updated; false means it is missing or no
// longer pending.
func (s *Store) SetReview(ctx context.Context, id primitive.ObjectID, status, feedback string, reviewer primitive.ObjectID, at time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.IdeaPending},
		bson.M{"$set": bson.M{
			"status":      status,
			"feedback":    feedback,
			"reviewed_by": reviewer,
			"reviewed_at": at,
			"updated_at":  at,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// ClaimForMerge marks a source idea as merged into resultID unless another
// merge got there first. It reports whether this call made the claim.
func (s *Store) ClaimForMerge(ctx context.Context, id, resultID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.IdeaMerged}},
		bson.M{"$set": bson.M{
			"status":      models.IdeaMerged,
			"merged_into": resultID,
			"updated_at":  time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// ReleaseClaim undoes ClaimForMerge for a source still pointing at resultID,
// restoring its previous status.
func (s *Store) ReleaseClaim(ctx context.Context, id, resultID primitive.ObjectID, prevStatus string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "merged_into": resultID},
		bson.M{
			"$set":   bson.M{"status": prevStatus, "updated_at": time.Now().UTC()},
			"$unset": bson.M{"merged_into": ""},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Delete removes an idea. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AddMentor adds teacherID to the idea's mentors. It reports whether the set
// changed. Merged ideas are left alone and yield ErrNotFound.
func (s *Store) AddMentor(ctx context.Context, id, teacherID primitive.ObjectID) (bool, error) {
	return s.updateMentors(ctx, id, bson.M{"$addToSet": bson.M{"mentors": teacherID}})
}

// RemoveMentor removes teacherID from the idea's mentors. It reports whether
// the set changed.
func (s *Store) RemoveMentor(ctx context.Context, id, teacherID primitive.ObjectID) (bool, error) {
	return s.updateMentors(ctx, id, bson.M{"$pull": bson.M{"mentors": teacherID}})
}

func (s *Store) updateMentors(ctx context.Context, id primitive.ObjectID, update bson.M) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.IdeaMerged}},
		update,
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	if res.ModifiedCount == 0 {
		return false, nil
	}
	_, err = s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}})
	return true, err
}

// SetMeeting replaces the meeting on a non-merged idea.
func (s *Store) SetMeeting(ctx context.Context, id primitive.ObjectID, m models.Meeting) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.IdeaMerged}},
		bson.M{"$set": bson.M{"meeting": m, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ForEach streams every idea to fn in _id order. It stops at the first error.
func (s *Store) ForEach(ctx context.Context, fn func(models.Idea) error) error {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var idea models.Idea
		if err := cur.Decode(&idea); err != nil {
			return err
		}
		if err := fn(idea); err != nil {
			return err
		}
	}
	return cur.Err()
}

// CountByStatus returns the number of ideas per status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}

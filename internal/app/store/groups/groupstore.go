// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/dalemusser/classforge/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// CodeLength is the number of characters in a group code.
	CodeLength = 8

	// No 0/O or 1/I/L so codes survive being read aloud or copied by hand.
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

	codeAttempts = 5
)

// ErrCodeExhausted is returned when no unique group code could be generated.
var ErrCodeExhausted = errors.New("could not generate a unique group code")

type Store struct {
	c       *mongo.Collection
	newCode func() (string, error)
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups"), newCode: GenerateCode}
}

// WithCodeGenerator replaces the code generator. Used in tests.
func (s *Store) WithCodeGenerator(fn func() (string, error)) *Store {
	s.newCode = fn
	return s
}

// GenerateCode returns a random group code.
func GenerateCode() (string, error) {
	var b strings.Builder
	b.Grow(CodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeCode uppercases and trims a code typed by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// GetByCode looks a group up by its join code.
func (s *Store) GetByCode(ctx context.Context, code string) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"group_code": NormalizeCode(code)}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// ListByIDs returns the given groups sorted by name.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Group, error) {
	out := make([]models.Group, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a group with a fresh unique code. A code collision on the
// unique index is retried with a new code.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	g.CreatedAt = now
	g.UpdatedAt = now

	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return models.Group{}, err
		}
		g.GroupCode = code
		_, err = s.c.InsertOne(ctx, g)
		if err == nil {
			return g, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Group{}, err
		}
	}
	return models.Group{}, ErrCodeExhausted
}

// Delete removes a group by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/classforge/internal/app/system/normalize"
	"github.com/dalemusser/classforge/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByLoginID looks up a user by case-insensitive login id. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"login_id_ci": text.Fold(loginID)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Contact is the slice of a user the notification dispatcher needs.
type Contact struct {
	ID       primitive.ObjectID `bson:"_id"`
	FullName string             `bson:"full_name"`
	Email    string             `bson:"email"`
	Status   string             `bson:"status"`
}

// GetContacts returns name and email for the given users keyed by id.
// Unknown ids are absent from the map.
func (s *Store) GetContacts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Contact, error) {
	out := make(map[primitive.ObjectID]Contact, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	proj := options.Find().SetProjection(bson.M{"_id": 1, "full_name": 1, "email": 1, "status": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var c Contact
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, cur.Err()
}

var (
	// ErrDuplicateLoginID is returned when attempting to create a user with a login id that already exists.
	ErrDuplicateLoginID = errors.New("a user with this login id already exists")
	errBadRole          = errors.New(`role must be "student"|"teacher"|"admin"`)
	errBadStatus        = errors.New(`status must be "active"|"disabled"`)
	errLoginIDNeeded    = errors.New("login id is required")
	errNameNeeded       = errors.New("full name is required")
)

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.LoginID = normalize.Name(u.LoginID)
	u.LoginIDCI = text.Fold(u.LoginID)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	u.Status = normalize.Status(u.Status)
	if u.Status == "" {
		u.Status = models.UserActive
	}

	if u.FullName == "" {
		return models.User{}, errNameNeeded
	}
	if u.LoginID == "" {
		return models.User{}, errLoginIDNeeded
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	if u.Status != models.UserActive && u.Status != models.UserDisabled {
		return models.User{}, errBadStatus
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateLoginID
		}
		return models.User{}, err
	}
	return u, nil
}

// SetStatus enables or disables a user.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	status = normalize.Status(status)
	if status != models.UserActive && status != models.UserDisabled {
		return errBadStatus
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aimedguru/backend/internal/db"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
}

// UserStore is the credential store. FindByEmail returns (nil, nil) when no
// user exists; errors are reserved for store failures.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Insert(ctx context.Context, u *User) error
}

type MongoUserStore struct {
	users *mongo.Collection
}

func NewMongoUserStore(database *mongo.Database) *MongoUserStore {
	return &MongoUserStore{users: database.Collection(db.UsersCollection)}
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoUserStore) Insert(ctx context.Context, u *User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.users.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUserExists
	}
	return err
}

package chat

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aimedguru/backend/internal/db"
)

// ConversationStore owns persisted messages. The store's single-document
// push is the only append-ordering guarantee the relay relies on.
// GetConversation returns (nil, nil) for an unknown session.
type ConversationStore interface {
	AppendMessage(ctx context.Context, sessionID string, msg Message) error
	GetConversation(ctx context.Context, sessionID string) (*Conversation, error)
}

type MongoStore struct {
	conversations *mongo.Collection
}

func NewMongoStore(database *mongo.Database) *MongoStore {
	return &MongoStore{conversations: database.Collection(db.ConversationsCollection)}
}

func (s *MongoStore) AppendMessage(ctx context.Context, sessionID string, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	_, err := s.conversations.UpdateOne(ctx,
		bson.M{"sessionId": sessionID},
		bson.M{
			"$push":        bson.M{"messages": msg},
			"$setOnInsert": bson.M{"createdAt": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) GetConversation(ctx context.Context, sessionID string) (*Conversation, error) {
	var conv Conversation
	err := s.conversations.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

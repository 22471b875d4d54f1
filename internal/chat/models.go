package chat

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one persisted turn. Immutable once appended; array order in the
// conversation document is the canonical order.
type Message struct {
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Conversation is one document per session id with an append-only messages
// array. Created lazily by the first append (upsert).
type Conversation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"sessionId" json:"session_id"`
	Messages  []Message          `bson:"messages" json:"messages"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}

// IncomingMessage is one client-supplied turn. Image, when present, is a
// data URI of the form data:<mimeType>;base64,<payload>.
type IncomingMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aimedguru/backend/internal/ai"
	"github.com/aimedguru/backend/pkg/logger"
)

var ErrNoMessages = errors.New("messages must not be empty")

// RelayRequest is one chat turn from the client. The last message is the new
// user turn; everything before it is history. Identity is resolved per
// request from a verified token and passed through explicitly.
type RelayRequest struct {
	Messages    []IncomingMessage
	AntiGravity bool
	SessionID   string
	UserEmail   string
}

type Service struct {
	store           ConversationStore
	provider        ai.StreamProvider
	cache           *HistoryCache // nil when no cache is configured
	maxOutputTokens int
	persistTimeout  time.Duration
}

func NewService(store ConversationStore, provider ai.StreamProvider, cache *HistoryCache, maxOutputTokens int) *Service {
	if maxOutputTokens <= 0 {
		maxOutputTokens = 8192
	}
	return &Service{
		store:           store,
		provider:        provider,
		cache:           cache,
		maxOutputTokens: maxOutputTokens,
		persistTimeout:  15 * time.Second,
	}
}

// parseImageData decodes a data:<mimeType>;base64,<payload> URI. Anything
// else yields nil: the turn is sent text-only rather than rejected.
func parseImageData(image string) *ai.InlineData {
	if !strings.HasPrefix(image, "data:") {
		return nil
	}
	header, data, found := strings.Cut(image, ";base64,")
	if !found {
		return nil
	}
	return &ai.InlineData{
		MIMEType: strings.TrimPrefix(header, "data:"),
		Data:     data,
	}
}

func buildParts(m IncomingMessage) []ai.Part {
	parts := []ai.Part{{Text: m.Content}}
	if m.Image != "" {
		if inline := parseImageData(m.Image); inline != nil {
			parts = append(parts, ai.Part{Inline: inline})
		}
	}
	return parts
}

// buildHistory maps client turns to upstream turns: "user" stays "user",
// any other role becomes "model", so the sequence alternates after mapping.
func buildHistory(msgs []IncomingMessage) []ai.Content {
	out := make([]ai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := RoleModel
		if m.Role == RoleUser {
			role = RoleUser
		}
		out = append(out, ai.Content{Role: role, Parts: buildParts(m)})
	}
	return out
}

// Relay streams the model's reply for one request. Fragments are forwarded
// in generation order as they arrive; both channels close when the stream
// ends and at most one error is sent. Persistence of the user turn and the
// assembled reply runs detached from the stream and can never affect it.
func (s *Service) Relay(ctx context.Context, req RelayRequest) (<-chan string, <-chan error) {
	outChunks := make(chan string, 16)
	outErrs := make(chan error, 1)

	go func() {
		defer close(outChunks)
		defer close(outErrs)

		if len(req.Messages) == 0 {
			outErrs <- ErrNoMessages
			return
		}
		last := req.Messages[len(req.Messages)-1]

		logger.Debugf("relay start user=%s session=%s messages=%d antigravity=%v",
			req.UserEmail, req.SessionID, len(req.Messages), req.AntiGravity)

		// One goroutine serializes both appends so the reply can never be
		// stored ahead of the user message that triggered it. Buffered so
		// the relay never blocks handing over the reply.
		var replyCh chan string
		if req.SessionID != "" {
			replyCh = make(chan string, 1)
			go s.persistExchange(req.SessionID, last.Content, replyCh)
		}

		pChunks, pErrs := s.provider.StreamGenerate(ctx, ai.GenerateRequest{
			SystemInstruction: SystemInstruction(req.AntiGravity),
			History:           buildHistory(req.Messages[:len(req.Messages)-1]),
			Parts:             buildParts(last),
			MaxOutputTokens:   s.maxOutputTokens,
		})

		var full strings.Builder
		for c := range pChunks {
			full.WriteString(c)
			outChunks <- c
		}

		if err := <-pErrs; err != nil {
			if replyCh != nil {
				close(replyCh)
			}
			outErrs <- err
			return
		}

		if replyCh != nil {
			replyCh <- full.String()
			close(replyCh)
		}
	}()

	return outChunks, outErrs
}

// persistExchange appends the user message, then waits for the assembled
// reply and appends it. Failures are logged and swallowed: durability here
// is best effort and must never surface on the chat path. A failed user
// append also skips the reply append so a reply is never stored without the
// message that triggered it.
func (s *Service) persistExchange(sessionID, userText string, reply <-chan string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	err := s.store.AppendMessage(ctx, sessionID, Message{Role: RoleUser, Content: userText, Timestamp: time.Now()})
	cancel()
	if err != nil {
		logger.Errorf("save user message session=%s: %v", sessionID, err)
		return
	}
	s.invalidate(sessionID)

	text, ok := <-reply
	if !ok {
		return
	}

	ctx, cancel = context.WithTimeout(context.Background(), s.persistTimeout)
	err = s.store.AppendMessage(ctx, sessionID, Message{Role: RoleModel, Content: text, Timestamp: time.Now()})
	cancel()
	if err != nil {
		logger.Errorf("save model reply session=%s: %v", sessionID, err)
		return
	}
	s.invalidate(sessionID)
}

func (s *Service) invalidate(sessionID string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.cache.Invalidate(ctx, sessionID)
}

// History returns the stored messages for a session in insertion order.
// Unknown sessions and lookup failures both come back as an empty slice.
func (s *Service) History(ctx context.Context, sessionID string) []Message {
	if s.cache != nil {
		if msgs, ok := s.cache.Get(ctx, sessionID); ok {
			return msgs
		}
	}

	conv, err := s.store.GetConversation(ctx, sessionID)
	if err != nil {
		logger.Errorf("load conversation session=%s: %v", sessionID, err)
		return []Message{}
	}
	if conv == nil || len(conv.Messages) == 0 {
		return []Message{}
	}

	if s.cache != nil {
		s.cache.Set(ctx, sessionID, conv.Messages)
	}
	return conv.Messages
}

package ai

import "context"

// InlineData carries a base64 payload decoded from a data URI.
type InlineData struct {
	MIMEType string
	Data     string
}

// Part is one piece of a turn: text, optionally with an inline image.
type Part struct {
	Text   string
	Inline *InlineData
}

// Content is one role-tagged turn sent upstream. Role is "user" or "model".
type Content struct {
	Role  string
	Parts []Part
}

// GenerateRequest is a single streaming generation call: a system
// instruction, the alternating history prefix, and the new turn's parts,
// which are sent separately from the history.
type GenerateRequest struct {
	SystemInstruction string
	History           []Content
	Parts             []Part
	MaxOutputTokens   int
}

// StreamProvider streams generated text fragments. Both channels are closed
// when the stream ends; at most one error is sent.
type StreamProvider interface {
	StreamGenerate(ctx context.Context, req GenerateRequest) (<-chan string, <-chan error)
}

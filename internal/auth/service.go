package auth

import (
	"context"
	"errors"
)

var (
	ErrMissingFields = errors.New("email and password required")
	ErrUserExists    = errors.New("user already exists")
)

// Identity is the per-request identity resolved from verified credentials or
// a parsed token. It is passed explicitly, never kept in process-wide state.
type Identity struct {
	ID    string
	Email string
}

type Service struct {
	store UserStore
}

func NewService(store UserStore) *Service {
	return &Service{store: store}
}

// Authorize returns (nil, nil) for unknown email or wrong password so callers
// cannot distinguish the two. Errors mean the credential store failed.
func (s *Service) Authorize(ctx context.Context, email, password string) (*Identity, error) {
	if email == "" || password == "" {
		return nil, nil
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, nil
	}

	return &Identity{ID: user.ID.Hex(), Email: user.Email}, nil
}

func (s *Service) Register(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return ErrMissingFields
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUserExists
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	return s.store.Insert(ctx, &User{Email: email, PasswordHash: hash})
}

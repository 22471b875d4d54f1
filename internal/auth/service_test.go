package auth

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserStore struct {
	byEmail map[string]*User
	findErr error
	insErr  error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*User)}
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	_ = ctx
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (f *fakeUserStore) Insert(ctx context.Context, u *User) error {
	_ = ctx
	if f.insErr != nil {
		return f.insErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return ErrUserExists
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	f.byEmail[u.Email] = u
	return nil
}

func TestRegister_OnceThenConflict(t *testing.T) {
	store := newFakeUserStore()
	svc := NewService(store)
	ctx := context.Background()

	if err := svc.Register(ctx, "a@b.c", "secret"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := svc.Register(ctx, "a@b.c", "other"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	u := store.byEmail["a@b.c"]
	if u.PasswordHash == "secret" || u.PasswordHash == "" {
		t.Fatalf("password must be stored hashed, got %q", u.PasswordHash)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	if err := svc.Register(ctx, "", "pw"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if err := svc.Register(ctx, "a@b.c", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestAuthorize_MatchesOnlyCorrectPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := NewService(store)
	ctx := context.Background()

	if err := svc.Register(ctx, "a@b.c", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	ident, err := svc.Authorize(ctx, "a@b.c", "secret")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if ident == nil || ident.Email != "a@b.c" || ident.ID == "" {
		t.Fatalf("unexpected identity: %+v", ident)
	}

	// wrong password, unknown email and empty fields all fail uniformly
	for _, tc := range [][2]string{
		{"a@b.c", "wrong"},
		{"nobody@b.c", "secret"},
		{"", "secret"},
		{"a@b.c", ""},
	} {
		ident, err := svc.Authorize(ctx, tc[0], tc[1])
		if err != nil {
			t.Fatalf("authorize(%q, %q): %v", tc[0], tc[1], err)
		}
		if ident != nil {
			t.Fatalf("authorize(%q, %q) must fail", tc[0], tc[1])
		}
	}
}

func TestAuthorize_StoreFailureSurfaces(t *testing.T) {
	store := newFakeUserStore()
	store.findErr = errors.New("connection refused")
	svc := NewService(store)

	if _, err := svc.Authorize(context.Background(), "a@b.c", "pw"); err == nil {
		t.Fatalf("expected a store failure to surface as an error")
	}
	if err := svc.Register(context.Background(), "a@b.c", "pw"); err == nil {
		t.Fatalf("expected a store failure to surface as an error")
	}
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campfire-hq/campfire/internal/store/sqlite"
)

func newTestService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	st, err := sqlite.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewService(st, "test-secret", ttl, 4, 6)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t, time.Hour)

	user, token, err := svc.Register(context.Background(), Registration{
		Username: "alice",
		Password: "secret123",
		Email:    "alice@example.com",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if user.PasswordHash == "secret123" {
		t.Fatalf("password stored in plaintext")
	}

	got, token, err := svc.Login(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, got.ID)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	svc := newTestService(t, time.Hour)

	if _, _, err := svc.Register(context.Background(), Registration{Username: "alice", Password: "secret123"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.Register(context.Background(), Registration{Username: "alice", Password: "other-secret"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	svc := newTestService(t, time.Hour)

	if _, _, err := svc.Register(context.Background(), Registration{Username: "alice", Password: "secret123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, wrongPass := svc.Login(context.Background(), "alice", "wrong")
	_, _, noUser := svc.Login(context.Background(), "nobody", "secret123")
	if !errors.Is(wrongPass, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPass)
	}
	if !errors.Is(noUser, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", noUser)
	}
	if wrongPass.Error() != noUser.Error() {
		t.Fatalf("login failures should be indistinguishable: %q vs %q", wrongPass, noUser)
	}
}

func TestShortPasswordRejected(t *testing.T) {
	svc := newTestService(t, time.Hour)

	_, _, err := svc.Register(context.Background(), Registration{Username: "alice", Password: "123"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t, time.Hour)

	user, token, err := svc.Register(context.Background(), Registration{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, got.ID)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTestService(t, -1*time.Second)

	_, token, err := svc.Register(context.Background(), Registration{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestBadTokensRejected(t *testing.T) {
	svc := newTestService(t, time.Hour)

	if _, err := svc.Authenticate(context.Background(), "not-a-jwt"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for garbage token, got %v", err)
	}

	// Token signed with a different secret
	other := NewService(nil, "other-secret", time.Hour, 4, 6)
	forged, err := other.IssueToken("some-user-id")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), forged); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for forged token, got %v", err)
	}
}

func TestUnknownSubjectRejected(t *testing.T) {
	svc := newTestService(t, time.Hour)

	// Valid signature, but no such user
	token, err := svc.IssueToken("ghost-user-id")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown subject, got %v", err)
	}
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okravchenko/tidechat-server/internal/log"
	"github.com/okravchenko/tidechat-server/internal/store"
	"github.com/okravchenko/tidechat-server/internal/store/sqlite"
)

func testJWTConfig() *JWTConfig {
	return &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "tidechat",
		Audience: "tidechat-clients",
		TTL:      time.Hour,
	}
}

func newTestGate(t *testing.T, production bool, allowExpired bool) (*Gate, *store.User) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	user, err := st.CreateUser(context.Background(), "alice", "Alice", "hash", "user")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	cfg := testJWTConfig()
	cfg.AllowExpired = allowExpired
	return NewGate(st, cfg, production, time.Second, log.Disabled()), user
}

func TestAuthenticateEmptyCredentialIsAnonymous(t *testing.T) {
	gate, _ := newTestGate(t, true, false)

	for _, cred := range []string{"", "   ", "Bearer ", "Bearer   "} {
		identity, err := gate.Authenticate(context.Background(), cred)
		if err != nil {
			t.Fatalf("credential %q: %v", cred, err)
		}
		if !identity.Anonymous {
			t.Fatalf("credential %q should resolve to anonymous", cred)
		}
		if identity.DisplayName == "" {
			t.Fatal("anonymous identity needs a generated display name")
		}
	}
}

func TestAuthenticateValidToken(t *testing.T) {
	gate, user := newTestGate(t, true, false)

	token, err := GenerateToken(gate.jwt, user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	identity, err := gate.Authenticate(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.Anonymous {
		t.Fatal("valid token must not resolve to anonymous")
	}
	if identity.UserID != user.ID || identity.Username != "alice" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestAuthenticateExpiredTokenAccepted(t *testing.T) {
	gate, user := newTestGate(t, true, true)

	cfg := testJWTConfig()
	cfg.TTL = -time.Hour
	token, err := GenerateToken(cfg, user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	identity, err := gate.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("expired token with valid signature should pass: %v", err)
	}
	if identity.UserID != user.ID {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestAuthenticateExpiredTokenRejectedWhenDisallowed(t *testing.T) {
	gate, user := newTestGate(t, true, false)

	cfg := testJWTConfig()
	cfg.TTL = -time.Hour
	token, err := GenerateToken(cfg, user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := gate.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestAuthenticateBadSignatureProduction(t *testing.T) {
	gate, user := newTestGate(t, true, false)

	forged := testJWTConfig()
	forged.Secret = []byte("other-secret")
	token, err := GenerateToken(forged, user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := gate.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestAuthenticateBadSignatureDevelopmentDowngrades(t *testing.T) {
	gate, user := newTestGate(t, false, false)

	forged := testJWTConfig()
	forged.Secret = []byte("other-secret")
	token, err := GenerateToken(forged, user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	identity, err := gate.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("development gate should downgrade, got %v", err)
	}
	if !identity.Anonymous {
		t.Fatal("forged token outside production should resolve to anonymous")
	}
}

func TestAuthenticateUnknownSubject(t *testing.T) {
	gate, _ := newTestGate(t, true, false)

	token, err := GenerateToken(gate.jwt, 9999, "ghost", "user")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := gate.Authenticate(context.Background(), token); !errors.Is(err, ErrUnknownSubject) {
		t.Fatalf("expected ErrUnknownSubject, got %v", err)
	}
}

func TestAuthenticateInactiveSubject(t *testing.T) {
	gate, user := newTestGate(t, true, false)

	if err := gate.users.SetUserActive(context.Background(), user.ID, false); err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	token, err := GenerateToken(gate.jwt, user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := gate.Authenticate(context.Background(), token); !errors.Is(err, ErrSubjectInactive) {
		t.Fatalf("expected ErrSubjectInactive, got %v", err)
	}
}

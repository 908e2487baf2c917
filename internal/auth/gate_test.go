package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-chirper/internal/apperr"
	"backend-chirper/internal/store"
	"backend-chirper/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
)

type failingFinder struct{}

func (failingFinder) FindAccountByHandle(context.Context, string) (store.Account, error) {
	return store.Account{}, errors.New("db down")
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	s := testutil.NewStore(t)
	alice := testutil.Account(t, s, "alice")
	gate := NewGate("secret", time.Hour, s)

	token, expiresAt, err := gate.Issue(alice.Handle, alice.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expiresAt) > time.Hour || time.Until(expiresAt) < 59*time.Minute {
		t.Fatalf("unexpected expiry %s", expiresAt)
	}

	identity, err := gate.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.AccountID != alice.ID || identity.Handle != "alice" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	s := testutil.NewStore(t)
	alice := testutil.Account(t, s, "alice")

	token, _, err := NewGate("other-secret", time.Hour, s).Issue(alice.Handle, alice.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = NewGate("secret", time.Hour, s).Verify(context.Background(), token)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	s := testutil.NewStore(t)
	alice := testutil.Account(t, s, "alice")
	gate := NewGate("secret", time.Hour, s)

	issued := time.Now().Add(-2 * time.Hour)
	gate.now = func() time.Time { return issued }
	token, _, err := gate.Issue(alice.Handle, alice.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	gate.now = time.Now
	_, err = gate.Verify(context.Background(), token)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if Reason(err) != "expired" {
		t.Fatalf("unexpected reason %q", Reason(err))
	}
}

func TestVerifyRejectsUnknownAccount(t *testing.T) {
	s := testutil.NewStore(t)
	alice := testutil.Account(t, s, "alice")
	gate := NewGate("secret", time.Hour, s)

	ghost, _, _ := gate.Issue("ghost", "ghost-id")
	if _, err := gate.Verify(context.Background(), ghost); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount for missing handle, got %v", err)
	}

	stale, _, _ := gate.Issue(alice.Handle, "previous-owner-id")
	if _, err := gate.Verify(context.Background(), stale); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount for reassigned handle, got %v", err)
	}
}

func TestVerifyRejectsMalformedAndUnsigned(t *testing.T) {
	s := testutil.NewStore(t)
	alice := testutil.Account(t, s, "alice")
	gate := NewGate("secret", time.Hour, s)

	if _, err := gate.Verify(context.Background(), ""); !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	if _, err := gate.Verify(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Handle:    alice.Handle,
		AccountID: alice.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := gate.Verify(context.Background(), raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for alg=none, got %v", err)
	}

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Handle: alice.Handle, AccountID: alice.ID})
	raw, err = noExpiry.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := gate.Verify(context.Background(), raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid without exp, got %v", err)
	}
}

func TestVerifyStorageFailureIsInternal(t *testing.T) {
	gate := NewGate("secret", time.Hour, failingFinder{})
	token, _, err := gate.Issue("alice", "acc-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = gate.Verify(context.Background(), token)
	if !apperr.Is(err, apperr.KindInternal) || Reason(err) != "" {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestNewGateDefaultsTTL(t *testing.T) {
	if ttl := NewGate("secret", 0, nil).TTL(); ttl != DefaultTokenTTL {
		t.Fatalf("expected default ttl, got %s", ttl)
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-chirper/internal/apperr"
	"backend-chirper/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = time.Hour

var (
	ErrMissing        = errors.New("credential missing")
	ErrInvalid        = errors.New("credential invalid")
	ErrExpired        = errors.New("credential expired")
	ErrUnknownAccount = errors.New("credential account unknown")
)

// Identity is the caller resolved from a verified credential.
type Identity struct {
	AccountID string `json:"account_id"`
	Handle    string `json:"handle"`
}

type Claims struct {
	Handle    string `json:"handle"`
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// AccountFinder is the lookup Verify needs to confirm the account still exists.
type AccountFinder interface {
	FindAccountByHandle(ctx context.Context, handle string) (store.Account, error)
}

// Gate issues and verifies stateless HS256 credentials.
type Gate struct {
	secret   []byte
	ttl      time.Duration
	accounts AccountFinder
	now      func() time.Time
}

func NewGate(secret string, ttl time.Duration, accounts AccountFinder) *Gate {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Gate{
		secret:   []byte(secret),
		ttl:      ttl,
		accounts: accounts,
		now:      time.Now,
	}
}

func (g *Gate) TTL() time.Duration {
	return g.ttl
}

func (g *Gate) Issue(handle, accountID string) (string, time.Time, error) {
	issuedAt := g.now()
	expiresAt := issuedAt.Add(g.ttl)
	claims := Claims{
		Handle:    handle,
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify checks signature and expiry, then re-resolves the handle so tokens of
// deleted accounts stop working before they expire.
func (g *Gate) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissing
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid || claims.Handle == "" || claims.AccountID == "" {
		return Identity{}, ErrInvalid
	}

	account, err := g.accounts.FindAccountByHandle(ctx, claims.Handle)
	if errors.Is(err, store.ErrNotFound) {
		return Identity{}, ErrUnknownAccount
	}
	if err != nil {
		return Identity{}, apperr.Internal(err)
	}
	if account.ID != claims.AccountID {
		return Identity{}, ErrUnknownAccount
	}

	return Identity{AccountID: account.ID, Handle: account.Handle}, nil
}

// Reason names the credential failure for logs and metrics. It returns "" for
// errors that are not credential failures.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissing):
		return "missing"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrUnknownAccount):
		return "unknown_account"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	default:
		return ""
	}
}

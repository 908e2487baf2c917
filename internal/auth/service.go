package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"backend-chirper/internal/apperr"
	"backend-chirper/internal/store"
	"backend-chirper/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var errBadCredentials = apperr.E(apperr.KindUnauthorized, "invalid handle or password")

type Service struct {
	accounts store.AccountStore
	gate     *Gate
	cost     int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(accounts store.AccountStore, gate *Gate) *Service {
	return &Service{
		accounts: accounts,
		gate:     gate,
		cost:     bcrypt.DefaultCost,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (store.Account, error) {
	req.Handle = strings.TrimSpace(req.Handle)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validation.Struct(req); err != nil {
		return store.Account{}, err
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Handle
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return store.Account{}, apperr.Internal(err)
	}

	account, err := s.accounts.CreateAccount(ctx, store.Account{
		ID:           uuid.NewString(),
		DisplayName:  req.DisplayName,
		Handle:       req.Handle,
		PasswordHash: string(hash),
		Gender:       store.Gender(req.Gender),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return store.Account{}, apperr.Invalid("handle already taken")
	}
	if err != nil {
		return store.Account{}, apperr.Internal(err)
	}
	return account, nil
}

// Login answers the same error for an unknown handle and a wrong password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	req.Handle = strings.TrimSpace(req.Handle)
	if err := validation.Struct(req); err != nil {
		return TokenResponse{}, err
	}

	account, err := s.accounts.FindAccountByHandle(ctx, req.Handle)
	if errors.Is(err, store.ErrNotFound) {
		// pay the same bcrypt cost as a wrong password
		_ = bcrypt.CompareHashAndPassword(s.unknownAccountHash(), []byte(req.Password))
		return TokenResponse{}, errBadCredentials
	}
	if err != nil {
		return TokenResponse{}, apperr.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return TokenResponse{}, errBadCredentials
	}

	token, expiresAt, err := s.gate.Issue(account.Handle, account.ID)
	if err != nil {
		return TokenResponse{}, apperr.Internal(err)
	}
	return TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		Account:   account,
	}, nil
}

func (s *Service) unknownAccountHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("no account has this password"), s.cost)
	})
	return s.dummyHash
}

func (s *Service) Me(ctx context.Context, identity Identity) (store.Account, error) {
	account, err := s.accounts.FindAccountByID(ctx, identity.AccountID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Account{}, apperr.NotFound("account not found")
	}
	if err != nil {
		return store.Account{}, apperr.Internal(err)
	}
	return account, nil
}

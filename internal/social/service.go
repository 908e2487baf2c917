package social

import (
	"context"
	"errors"

	"backend-chirper/internal/apperr"
	"backend-chirper/internal/auth"
	"backend-chirper/internal/notification"
	"backend-chirper/internal/policy"
	"backend-chirper/internal/store"
)

var (
	ErrAccountNotFound  = apperr.NotFound("user not found")
	ErrAlreadyFollowing = apperr.Invalid("already following")
)

type Service struct {
	store    store.Store
	rules    *policy.Rules
	notifier notification.Notifier
}

func NewService(s store.Store, rules *policy.Rules, notifier notification.Notifier) *Service {
	return &Service{store: s, rules: rules, notifier: notifier}
}

func (s *Service) account(ctx context.Context, id string) (store.Account, error) {
	account, err := s.store.FindAccountByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Account{}, ErrAccountNotFound
	}
	if err != nil {
		return store.Account{}, apperr.Internal(err)
	}
	return account, nil
}

func (s *Service) Follow(ctx context.Context, caller auth.Identity, targetID string) error {
	if err := s.rules.CanFollow(caller.AccountID, targetID); err != nil {
		return err
	}
	if _, err := s.account(ctx, targetID); err != nil {
		return err
	}

	created, err := s.store.CreateFollow(ctx, caller.AccountID, targetID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !created {
		return ErrAlreadyFollowing
	}

	s.notifier.Notify(ctx, store.Notification{
		RecipientID: targetID,
		ActorID:     caller.AccountID,
		ActorHandle: caller.Handle,
		Kind:        store.KindFollow,
	})
	return nil
}

// Unfollow succeeds whether or not the edge existed.
func (s *Service) Unfollow(ctx context.Context, callerID, targetID string) error {
	if err := s.store.DeleteFollow(ctx, callerID, targetID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) Followers(ctx context.Context, accountID string) ([]store.Account, error) {
	if _, err := s.account(ctx, accountID); err != nil {
		return nil, err
	}
	list, err := s.store.ListFollowers(ctx, accountID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *Service) Following(ctx context.Context, accountID string) ([]store.Account, error) {
	if _, err := s.account(ctx, accountID); err != nil {
		return nil, err
	}
	list, err := s.store.ListFollowing(ctx, accountID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func (s *Service) Profile(ctx context.Context, callerID, accountID string) (Profile, error) {
	account, err := s.account(ctx, accountID)
	if err != nil {
		return Profile{}, err
	}
	followers, following, err := s.store.CountFollows(ctx, accountID)
	if err != nil {
		return Profile{}, apperr.Internal(err)
	}
	isFollowing, err := s.store.FollowExists(ctx, callerID, accountID)
	if err != nil {
		return Profile{}, apperr.Internal(err)
	}
	return Profile{
		Account:     account,
		Followers:   followers,
		Following:   following,
		IsFollowing: isFollowing,
	}, nil
}

// Suggestions lists accounts the caller neither is nor follows, in random order.
func (s *Service) Suggestions(ctx context.Context, callerID string, limit int) ([]store.Account, error) {
	if limit <= 0 {
		limit = defaultSuggestions
	}
	if limit > maxSuggestions {
		limit = maxSuggestions
	}
	list, err := s.store.Suggestions(ctx, callerID, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

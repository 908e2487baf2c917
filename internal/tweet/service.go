package tweet

import (
	"context"
	"errors"
	"strings"

	"backend-chirper/internal/apperr"
	"backend-chirper/internal/auth"
	"backend-chirper/internal/notification"
	"backend-chirper/internal/policy"
	"backend-chirper/internal/store"
	"backend-chirper/internal/validation"

	"github.com/google/uuid"
)

type Service struct {
	store    store.Store
	rules    *policy.Rules
	notifier notification.Notifier
}

func NewService(s store.Store, rules *policy.Rules, notifier notification.Notifier) *Service {
	return &Service{store: s, rules: rules, notifier: notifier}
}

func normalize(req TextRequest) (string, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validation.Struct(req); err != nil {
		return "", err
	}
	return req.Text, nil
}

func (s *Service) Create(ctx context.Context, caller auth.Identity, req TextRequest) (store.Post, error) {
	text, err := normalize(req)
	if err != nil {
		return store.Post{}, err
	}
	post, err := s.store.CreatePost(ctx, store.Post{
		ID:       uuid.NewString(),
		AuthorID: caller.AccountID,
		Text:     text,
	})
	if err != nil {
		return store.Post{}, apperr.Internal(err)
	}
	created, err := s.store.FindPost(ctx, post.ID)
	if err != nil {
		return store.Post{}, apperr.Internal(err)
	}
	return created, nil
}

func (s *Service) Mine(ctx context.Context, callerID string) ([]store.Post, error) {
	posts, err := s.store.ListPostsByAuthor(ctx, callerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return posts, nil
}

// Feed lists tweets by the accounts the caller follows, newest first.
func (s *Service) Feed(ctx context.Context, callerID string) ([]store.Post, error) {
	posts, err := s.store.Feed(ctx, callerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return posts, nil
}

func (s *Service) Get(ctx context.Context, callerID, postID string) (store.Post, error) {
	if _, err := s.rules.CanView(ctx, callerID, postID); err != nil {
		return store.Post{}, err
	}
	post, err := s.store.FindPost(ctx, postID)
	if err != nil {
		return store.Post{}, storeErr(err)
	}
	return post, nil
}

func (s *Service) Delete(ctx context.Context, callerID, postID string) error {
	if err := s.rules.CanDelete(ctx, callerID, postID); err != nil {
		return err
	}
	deleted, err := s.store.DeletePost(ctx, postID, callerID)
	if err != nil {
		return apperr.Internal(err)
	}
	if !deleted {
		return policy.ErrPostNotFound
	}
	return nil
}

// ToggleLike flips the caller's like and reports the new state. Removing an
// existing like only needs the post to exist; adding one needs it visible.
func (s *Service) ToggleLike(ctx context.Context, caller auth.Identity, postID string) (LikeResult, error) {
	if _, err := s.store.PostAuthor(ctx, postID); err != nil {
		return LikeResult{}, storeErr(err)
	}
	liked, err := s.store.LikeExists(ctx, postID, caller.AccountID)
	if err != nil {
		return LikeResult{}, apperr.Internal(err)
	}

	if liked {
		if err := s.store.DeleteLike(ctx, postID, caller.AccountID); err != nil {
			return LikeResult{}, apperr.Internal(err)
		}
		return LikeResult{Liked: false}, nil
	}

	authorID, err := s.rules.CanView(ctx, caller.AccountID, postID)
	if err != nil {
		return LikeResult{}, err
	}
	if err := s.store.CreateLike(ctx, postID, caller.AccountID); err != nil {
		return LikeResult{}, storeErr(err)
	}
	if policy.ShouldNotify(caller.AccountID, authorID) {
		s.notifier.Notify(ctx, store.Notification{
			RecipientID: authorID,
			ActorID:     caller.AccountID,
			ActorHandle: caller.Handle,
			PostID:      postID,
			Kind:        store.KindLike,
		})
	}
	return LikeResult{Liked: true}, nil
}

func (s *Service) Likes(ctx context.Context, callerID, postID string) ([]store.Account, error) {
	if _, err := s.rules.CanView(ctx, callerID, postID); err != nil {
		return nil, err
	}
	likers, err := s.store.ListLikers(ctx, postID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return likers, nil
}

func (s *Service) Reply(ctx context.Context, caller auth.Identity, postID string, req TextRequest) (store.Reply, error) {
	authorID, err := s.rules.CanReply(ctx, caller.AccountID, postID)
	if err != nil {
		return store.Reply{}, err
	}
	text, err := normalize(req)
	if err != nil {
		return store.Reply{}, err
	}

	reply, err := s.store.CreateReply(ctx, store.Reply{
		ID:       uuid.NewString(),
		PostID:   postID,
		AuthorID: caller.AccountID,
		Text:     text,
	})
	if err != nil {
		return store.Reply{}, storeErr(err)
	}
	reply.AuthorHandle = caller.Handle

	if policy.ShouldNotify(caller.AccountID, authorID) {
		s.notifier.Notify(ctx, store.Notification{
			RecipientID: authorID,
			ActorID:     caller.AccountID,
			ActorHandle: caller.Handle,
			PostID:      postID,
			Kind:        store.KindReply,
		})
	}
	return reply, nil
}

func (s *Service) Replies(ctx context.Context, callerID, postID string) ([]store.Reply, error) {
	if _, err := s.rules.CanView(ctx, callerID, postID); err != nil {
		return nil, err
	}
	replies, err := s.store.ListReplies(ctx, postID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return replies, nil
}

// storeErr covers the post disappearing between the rule check and the write.
func storeErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return policy.ErrPostNotFound
	}
	return apperr.Internal(err)
}

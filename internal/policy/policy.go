// Package policy holds the authorization rules evaluated after a caller's
// credential has been verified. Rules receive the caller's account id, never
// the credential itself.
package policy

import (
	"context"
	"errors"

	"backend-chirper/internal/apperr"
	"backend-chirper/internal/store"
)

var (
	ErrPostNotFound   = apperr.NotFound("tweet not found")
	ErrNotVisible     = apperr.Forbidden("you must follow the author to see this tweet")
	ErrReplyForbidden = apperr.Forbidden("you can only reply to tweets of accounts you follow")
	ErrSelfFollow     = apperr.Invalid("you cannot follow yourself")
)

// Graph is the slice of the store the rules read from.
type Graph interface {
	FollowExists(ctx context.Context, followerID, followingID string) (bool, error)
	PostAuthor(ctx context.Context, postID string) (string, error)
}

type Rules struct {
	graph Graph
}

func New(graph Graph) *Rules {
	return &Rules{graph: graph}
}

func (r *Rules) author(ctx context.Context, postID string) (string, error) {
	authorID, err := r.graph.PostAuthor(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrPostNotFound
	}
	if err != nil {
		return "", apperr.Internal(err)
	}
	return authorID, nil
}

func (r *Rules) follows(ctx context.Context, followerID, followingID string) (bool, error) {
	ok, err := r.graph.FollowExists(ctx, followerID, followingID)
	if err != nil {
		return false, apperr.Internal(err)
	}
	return ok, nil
}

// CanView lets the caller read a post, its likes and its replies when the
// caller follows the author or is the author. It returns the author id.
func (r *Rules) CanView(ctx context.Context, callerID, postID string) (string, error) {
	authorID, err := r.author(ctx, postID)
	if err != nil {
		return "", err
	}
	if authorID == callerID {
		return authorID, nil
	}
	ok, err := r.follows(ctx, callerID, authorID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotVisible
	}
	return authorID, nil
}

// CanReply requires the caller to currently follow the post's author.
func (r *Rules) CanReply(ctx context.Context, callerID, postID string) (string, error) {
	authorID, err := r.author(ctx, postID)
	if err != nil {
		return "", err
	}
	ok, err := r.follows(ctx, callerID, authorID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrReplyForbidden
	}
	return authorID, nil
}

// CanDelete answers not-found both for missing posts and for posts the caller
// did not write.
func (r *Rules) CanDelete(ctx context.Context, callerID, postID string) error {
	authorID, err := r.author(ctx, postID)
	if err != nil {
		return err
	}
	if authorID != callerID {
		return ErrPostNotFound
	}
	return nil
}

func (r *Rules) CanFollow(callerID, targetID string) error {
	if callerID == targetID {
		return ErrSelfFollow
	}
	return nil
}

// ShouldNotify is false for actions on the actor's own content.
func ShouldNotify(actorID, recipientID string) bool {
	return actorID != recipientID
}

// Package store defines the persistence boundary. Two adapters implement it:
// store/postgres for production and store/sqlite for local development.
package store

import (
	"context"
	"errors"
)

// Adapters also report a write referencing a missing row as ErrNotFound.
var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate")
)

type AccountStore interface {
	// CreateAccount returns ErrDuplicate when the handle is taken.
	CreateAccount(ctx context.Context, a Account) (Account, error)
	FindAccountByHandle(ctx context.Context, handle string) (Account, error)
	FindAccountByID(ctx context.Context, id string) (Account, error)
}

type FollowStore interface {
	FollowExists(ctx context.Context, followerID, followingID string) (bool, error)
	// CreateFollow reports false when the edge already existed.
	CreateFollow(ctx context.Context, followerID, followingID string) (bool, error)
	DeleteFollow(ctx context.Context, followerID, followingID string) error
	ListFollowers(ctx context.Context, accountID string) ([]Account, error)
	ListFollowing(ctx context.Context, accountID string) ([]Account, error)
	CountFollows(ctx context.Context, accountID string) (followers, following int, err error)
	Suggestions(ctx context.Context, accountID string, limit int) ([]Account, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, p Post) (Post, error)
	FindPost(ctx context.Context, id string) (Post, error)
	// PostAuthor returns ErrNotFound when the post does not exist.
	PostAuthor(ctx context.Context, postID string) (string, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]Post, error)
	// Feed lists posts by accounts accountID follows, newest first.
	Feed(ctx context.Context, accountID string) ([]Post, error)
	// DeletePost only removes the post when authorID matches; false otherwise.
	DeletePost(ctx context.Context, postID, authorID string) (bool, error)
}

type LikeStore interface {
	LikeExists(ctx context.Context, postID, accountID string) (bool, error)
	CreateLike(ctx context.Context, postID, accountID string) error
	DeleteLike(ctx context.Context, postID, accountID string) error
	ListLikers(ctx context.Context, postID string) ([]Account, error)
}

type ReplyStore interface {
	CreateReply(ctx context.Context, r Reply) (Reply, error)
	ListReplies(ctx context.Context, postID string) ([]Reply, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n Notification) (Notification, error)
	ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]Notification, error)
	// MarkNotificationRead reports false when no notification with id belongs to recipientID.
	MarkNotificationRead(ctx context.Context, id, recipientID string) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, recipientID string) error
}

type Store interface {
	AccountStore
	FollowStore
	PostStore
	LikeStore
	ReplyStore
	NotificationStore

	Migrate(ctx context.Context) error
}

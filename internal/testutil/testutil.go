// Package testutil wires real dependencies for package tests.
package testutil

import (
	"context"
	"testing"

	"backend-chirper/internal/apperr"
	"backend-chirper/internal/db"
	"backend-chirper/internal/store"
	"backend-chirper/internal/store/sqlite"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// NewStore returns a migrated in-memory SQLite store.
func NewStore(t testing.TB) *sqlite.Store {
	t.Helper()
	handle, err := db.OpenSQLitePath(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Close() })

	s := sqlite.New(handle)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func Account(t testing.TB, s store.AccountStore, handle string) store.Account {
	t.Helper()
	a, err := s.CreateAccount(context.Background(), store.Account{
		ID:           uuid.NewString(),
		DisplayName:  handle,
		Handle:       handle,
		PasswordHash: "unused",
		Gender:       store.GenderOther,
	})
	require.NoError(t, err)
	return a
}

func Post(t testing.TB, s store.PostStore, author store.Account, text string) store.Post {
	t.Helper()
	p, err := s.CreatePost(context.Background(), store.Post{ID: uuid.NewString(), AuthorID: author.ID, Text: text})
	require.NoError(t, err)
	return p
}

func Follow(t testing.TB, s store.FollowStore, follower, following store.Account) {
	t.Helper()
	_, err := s.CreateFollow(context.Background(), follower.ID, following.ID)
	require.NoError(t, err)
}

// NewApp returns a fiber app rendering errors the way the server does.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: apperr.Handler(zap.NewNop())})
}

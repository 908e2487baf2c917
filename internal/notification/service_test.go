package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"backend-chirper/internal/apperr"
	"backend-chirper/internal/store"
	"backend-chirper/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingStore struct {
	store.NotificationStore
}

func (failingStore) CreateNotification(context.Context, store.Notification) (store.Notification, error) {
	return store.Notification{}, errors.New("disk full")
}

func TestNotifyStoresAndPublishes(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	alice := testutil.Account(t, s, "alice")
	bob := testutil.Account(t, s, "bob")
	post := testutil.Post(t, s, alice, "hello")

	hub := NewHub(nil, zap.NewNop())
	client := hub.Register(alice.ID)
	defer hub.Unregister(client)

	svc := NewService(s, hub, zap.NewNop())
	svc.Notify(ctx, store.Notification{
		RecipientID: alice.ID,
		ActorID:     bob.ID,
		ActorHandle: bob.Handle,
		PostID:      post.ID,
		Kind:        store.KindLike,
	})

	var pushed store.Notification
	require.NoError(t, json.Unmarshal([]byte(receive(t, client)), &pushed))
	assert.Equal(t, "bob liked your tweet", pushed.Message)
	assert.Equal(t, post.ID, pushed.PostID)

	list, err := svc.List(ctx, alice.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pushed.ID, list[0].ID)
	assert.False(t, list[0].IsRead)
}

func TestNotifyFailureIsSwallowed(t *testing.T) {
	svc := NewService(failingStore{}, nil, zap.NewNop())
	svc.Notify(context.Background(), store.Notification{RecipientID: "a", ActorID: "b", Kind: store.KindFollow})
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	alice := testutil.Account(t, s, "alice")
	bob := testutil.Account(t, s, "bob")

	svc := NewService(s, nil, zap.NewNop())
	svc.Notify(ctx, store.Notification{RecipientID: alice.ID, ActorID: bob.ID, ActorHandle: bob.Handle, Kind: store.KindFollow})
	svc.Notify(ctx, store.Notification{RecipientID: alice.ID, ActorID: bob.ID, ActorHandle: bob.Handle, Kind: store.KindFollow})

	list, err := svc.List(ctx, alice.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bob started following you", list[0].Message)

	err = svc.MarkRead(ctx, list[0].ID, bob.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, svc.MarkRead(ctx, list[0].ID, alice.ID))
	unread, err := svc.List(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	require.NoError(t, svc.MarkAllRead(ctx, alice.ID))
	unread, err = svc.List(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "carol replied to your tweet", Message(store.KindReply, "carol"))
	assert.Equal(t, "carol interacted with you", Message("poke", "carol"))
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cercle/internal/core/domain"
)

func TestNotify_PersistsThenPushes(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotifRepo{}
	bus := newCaptureBus()
	svc := NewNotificationService(repo, bus)

	n := &domain.Notification{Recipient: "a", Sender: "b", Kind: domain.NotifLike, PostID: "p1"}
	require.NoError(t, svc.Notify(ctx, n))

	// ID et CreatedAt remplis au passage
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.CreatedAt.IsZero())

	require.Len(t, repo.saved, 1)

	events := bus.ofType("a", domain.EventNotificationNew)
	require.Len(t, events, 1)
	payload := events[0].Payload.(domain.NotificationPayload)
	assert.Equal(t, n.ID, payload.ID)
	assert.Equal(t, "like", payload.Kind)
	assert.Equal(t, "p1", payload.PostID)
}

func TestNotify_PushOrderFollowsCreationOrder(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotifRepo{}
	bus := newCaptureBus()
	svc := NewNotificationService(repo, bus)

	kinds := []domain.NotificationKind{domain.NotifFollow, domain.NotifLike, domain.NotifComment}
	for _, k := range kinds {
		require.NoError(t, svc.Notify(ctx, &domain.Notification{Recipient: "a", Sender: "b", Kind: k}))
	}

	events := bus.ofType("a", domain.EventNotificationNew)
	require.Len(t, events, 3)
	for i, k := range kinds {
		assert.Equal(t, string(k), events[i].Payload.(domain.NotificationPayload).Kind)
	}
}

func TestRevoke_RemovesMatchingTriple(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotifRepo{}
	svc := NewNotificationService(repo, newCaptureBus())

	require.NoError(t, svc.Notify(ctx, &domain.Notification{Recipient: "a", Sender: "b", Kind: domain.NotifFollowRequest}))
	require.NoError(t, svc.Notify(ctx, &domain.Notification{Recipient: "a", Sender: "b", Kind: domain.NotifLike}))

	require.NoError(t, svc.Revoke(ctx, "a", "b", domain.NotifFollowRequest))

	// seule la carte follow_request part, le like reste
	assert.Empty(t, repo.byKind("a", domain.NotifFollowRequest))
	assert.Len(t, repo.byKind("a", domain.NotifLike), 1)

	// revoke sans match : silencieux
	require.NoError(t, svc.Revoke(ctx, "a", "b", domain.NotifFollowRequest))
}

func TestMarkRead_ScopedToRecipient(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotifRepo{}
	svc := NewNotificationService(repo, newCaptureBus())

	n := &domain.Notification{Recipient: "a", Sender: "b", Kind: domain.NotifFollow}
	require.NoError(t, svc.Notify(ctx, n))

	// un autre destinataire ne voit même pas l'existence
	_, err := svc.MarkRead(ctx, "intruder", n.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	read, err := svc.MarkRead(ctx, "a", n.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
}

func TestDelete_ScopedToRecipient(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotifRepo{}
	svc := NewNotificationService(repo, newCaptureBus())

	n := &domain.Notification{Recipient: "a", Sender: "b", Kind: domain.NotifFollow}
	require.NoError(t, svc.Notify(ctx, n))

	assert.ErrorIs(t, svc.Delete(ctx, "intruder", n.ID), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "a", n.ID))

	list, err := svc.List(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, list)
}

package eventbus

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cercle/internal/adapters/secondary/registry"
	"github.com/jupiterclapton/cercle/internal/core/domain"
)

type recordConn struct {
	frames [][]byte
	err    error
}

func (c *recordConn) Send(data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, data)
	return nil
}

func TestPushToUser_DeliversToAllConnections(t *testing.T) {
	reg := registry.NewSharded()
	phone := &recordConn{}
	laptop := &recordConn{}
	reg.Register("a", "c1", phone)
	reg.Register("a", "c2", laptop)

	bus := NewRegistryBus(reg)
	bus.PushToUser("a", domain.Event{
		Type:    domain.EventPostLike,
		Payload: domain.PostLikePayload{PostID: "p1", LikesCount: 3, ActorID: "b", Liked: true},
	})

	require.Len(t, phone.frames, 1)
	require.Len(t, laptop.frames, 1)

	// même trame sérialisée partout
	assert.Equal(t, phone.frames[0], laptop.frames[0])

	var decoded struct {
		Type    string `json:"type"`
		Payload struct {
			PostID     string `json:"postId"`
			LikesCount int    `json:"likesCount"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(phone.frames[0], &decoded))
	assert.Equal(t, domain.EventPostLike, decoded.Type)
	assert.Equal(t, "p1", decoded.Payload.PostID)
	assert.Equal(t, 3, decoded.Payload.LikesCount)
}

func TestPushToUser_OfflineRecipientIsSilent(t *testing.T) {
	bus := NewRegistryBus(registry.NewSharded())

	// ne panique pas, ne bloque pas
	bus.PushToUser("nobody", domain.Event{Type: domain.EventNotificationNew})
}

func TestPushToUser_FailedSendDoesNotStopOthers(t *testing.T) {
	reg := registry.NewSharded()
	stale := &recordConn{err: errors.New("broken pipe")}
	healthy := &recordConn{}
	reg.Register("a", "c1", stale)
	reg.Register("a", "c2", healthy)

	bus := NewRegistryBus(reg)
	bus.PushToUser("a", domain.Event{Type: domain.EventCommentNew, Payload: domain.CommentPayload{CommentID: "c9"}})

	// best-effort : l'échec d'une connexion n'affecte pas les autres
	assert.Len(t, healthy.frames, 1)
}

func TestPushToUser_OnlyTargetUserReceives(t *testing.T) {
	reg := registry.NewSharded()
	mine := &recordConn{}
	other := &recordConn{}
	reg.Register("a", "c1", mine)
	reg.Register("b", "c1", other)

	bus := NewRegistryBus(reg)
	bus.PushToUser("a", domain.Event{Type: domain.EventPrivacyUpdated, Payload: domain.PrivacyPayload{IsPrivate: true}})

	assert.Len(t, mine.frames, 1)
	assert.Empty(t, other.frames)
}

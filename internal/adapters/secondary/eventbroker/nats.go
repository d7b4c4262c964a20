package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/jupiterclapton/cercle/internal/core/domain"
)

const (
	StreamName     = "SOCIAL"
	SubjectPattern = "social.>"
)

// NatsBroker publie les événements d'intégration (consommés par d'autres
// systèmes : recommandation, modération...). Rien à voir avec le push
// socket : le bus temps réel reste in-process.
type NatsBroker struct {
	js jetstream.JetStream
}

// NewNatsBroker initialise la connexion et s'assure que le Stream existe
// (idempotent).
func NewNatsBroker(url string) (*NatsBroker, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPattern},
		Storage:  jetstream.FileStorage,
		Replicas: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsBroker{js: js}, nil
}

type followCreatedEvent struct {
	ActorID  string `json:"actor_id"`
	TargetID string `json:"target_id"`
}

type postCreatedEvent struct {
	PostID    string `json:"post_id"`
	AuthorID  string `json:"author_id"`
	MediaType string `json:"media_type"`
	CreatedAt int64  `json:"created_at"`
}

func (n *NatsBroker) PublishFollowCreated(ctx context.Context, actorID, targetID string) error {
	return n.publish(ctx, "social.follow.created", followCreatedEvent{
		ActorID:  actorID,
		TargetID: targetID,
	})
}

func (n *NatsBroker) PublishPostCreated(ctx context.Context, post *domain.Post) error {
	return n.publish(ctx, "social.post.created", postCreatedEvent{
		PostID:    post.ID,
		AuthorID:  post.UserID,
		MediaType: string(post.MediaType),
		CreatedAt: post.CreatedAt.Unix(),
	})
}

func (n *NatsBroker) publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// JetStream garantit que le serveur a bien reçu et persisté le message
	if _, err := n.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

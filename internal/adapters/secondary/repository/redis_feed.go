package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jupiterclapton/cercle/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

// RedisFeedRepo matérialise les timelines en sorted sets. Éphémère au même
// titre qu'un cache : TTL de 30 jours, reconstructible depuis Postgres.
type RedisFeedRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFeedRepo(client *redis.Client) *RedisFeedRepo {
	return &RedisFeedRepo{
		client: client,
		ttl:    24 * 30 * time.Hour,
	}
}

func timelineKey(userID string) string {
	return fmt.Sprintf("timeline:%s", userID)
}

// AddToTimelines pousse l'item dans la timeline de chaque follower du
// paquet, en un seul pipeline.
func (r *RedisFeedRepo) AddToTimelines(ctx context.Context, userIDs []string, item *domain.FeedItem) error {
	pipe := r.client.Pipeline()

	// format du membre : "TYPE:AUTHOR_ID:POST_ID"
	member := fmt.Sprintf("%s:%s:%s", item.Type, item.AuthorID, item.PostID)
	score := float64(item.CreatedAt.Unix())

	for _, uid := range userIDs {
		key := timelineKey(uid)
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
		pipe.Expire(ctx, key, r.ttl)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisFeedRepo) GetTimeline(ctx context.Context, userID string, limit, offset int64) ([]*domain.FeedItem, error) {
	key := timelineKey(userID)

	results, err := r.client.ZRevRangeWithScores(ctx, key, offset, offset+limit-1).Result()
	if err != nil {
		return nil, err
	}

	items := make([]*domain.FeedItem, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		parts := strings.SplitN(member, ":", 3)
		if len(parts) != 3 {
			// donnée corrompue ou ancien format : on saute
			continue
		}
		items = append(items, &domain.FeedItem{
			Type:      domain.MediaType(parts[0]),
			AuthorID:  parts[1],
			PostID:    parts[2],
			CreatedAt: time.Unix(int64(z.Score), 0),
		})
	}
	return items, nil
}

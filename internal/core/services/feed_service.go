package services

import (
	"context"
	"log/slog"

	"github.com/jupiterclapton/cercle/internal/core/domain"
	"github.com/jupiterclapton/cercle/internal/core/ports"
)

// Taille des paquets pour les pipelines Redis : on ne pousse pas 100k
// followers d'un coup.
const timelineBatchSize = 1000

type feedService struct {
	repo  ports.FeedRepository
	graph ports.GraphRepository
}

func NewFeedService(repo ports.FeedRepository, graph ports.GraphRepository) ports.FeedService {
	return &feedService{repo: repo, graph: graph}
}

// DistributePost implémente le fan-out : le post atterrit dans la timeline
// de chaque follower, par paquets.
func (s *feedService) DistributePost(ctx context.Context, post *domain.Post) error {
	followers, err := s.graph.FollowerIDs(ctx, post.UserID)
	if err != nil {
		return err
	}
	if len(followers) == 0 {
		return nil
	}

	item := &domain.FeedItem{
		PostID:    post.ID,
		AuthorID:  post.UserID,
		Type:      post.MediaType,
		CreatedAt: post.CreatedAt,
	}

	for i := 0; i < len(followers); i += timelineBatchSize {
		end := i + timelineBatchSize
		if end > len(followers) {
			end = len(followers)
		}
		if err := s.repo.AddToTimelines(ctx, followers[i:end], item); err != nil {
			slog.Error("timeline batch push failed", "post_id", post.ID, "batch_start", i, "error", err)
			continue
		}
	}

	slog.Info("fan-out complete", "post_id", post.ID, "followers", len(followers))
	return nil
}

func (s *feedService) Timeline(ctx context.Context, userID string, limit, offset int64) ([]*domain.FeedItem, error) {
	return s.repo.GetTimeline(ctx, userID, limit, offset)
}

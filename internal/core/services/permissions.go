package services

import (
	"context"
	"fmt"

	"github.com/jupiterclapton/cercle/internal/core/domain"
	"github.com/jupiterclapton/cercle/internal/core/ports"
)

// PermissionGate évalue les règles de visibilité et de mention AVANT toute
// écriture. Pur décisionnel : aucun effet de bord ici.
type PermissionGate struct {
	users ports.UserRepository
	graph ports.GraphRepository
}

func NewPermissionGate(users ports.UserRepository, graph ports.GraphRepository) *PermissionGate {
	return &PermissionGate{users: users, graph: graph}
}

// CanViewPost : compte public, OU viewer = owner, OU viewer suit owner.
func (g *PermissionGate) CanViewPost(ctx context.Context, viewerID string, owner *domain.User) error {
	if !owner.IsPrivate || owner.ID == viewerID {
		return nil
	}
	following, err := g.graph.IsFollowing(ctx, viewerID, owner.ID)
	if err != nil {
		return err
	}
	if !following {
		return domain.ErrPrivateAccount
	}
	return nil
}

// CheckMentions valide CHAQUE @username distinct contre sa policy.
// Tout-ou-rien : le premier refus fait échouer l'écriture entière, il ne
// s'agit pas de filtrer la mention fautive. Les usernames inconnus sont
// ignorés, les auto-mentions aussi. Rend les utilisateurs à notifier.
func (g *PermissionGate) CheckMentions(ctx context.Context, actorID string, usernames []string) ([]*domain.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	mentioned, err := g.users.GetByUsernames(ctx, usernames)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.User, 0, len(mentioned))
	for _, u := range mentioned {
		if u.ID == actorID {
			continue
		}
		switch u.MentionPolicy {
		case domain.MentionPolicyNone:
			return nil, fmt.Errorf("@%s: %w", u.Username, domain.ErrMentionsDisabled)
		case domain.MentionPolicyFollowers:
			// autorisé seulement si le mentionné suit l'acteur
			follows, err := g.graph.IsFollowing(ctx, u.ID, actorID)
			if err != nil {
				return nil, err
			}
			if !follows {
				return nil, fmt.Errorf("@%s: %w", u.Username, domain.ErrMentionNotAllowed)
			}
		}
		out = append(out, u)
	}
	return out, nil
}

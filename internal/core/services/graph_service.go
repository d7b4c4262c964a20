package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jupiterclapton/cercle/internal/core/domain"
	"github.com/jupiterclapton/cercle/internal/core/ports"
)

type graphService struct {
	users     ports.UserRepository
	graph     ports.GraphRepository
	notifs    ports.NotificationService
	bus       ports.EventBus
	publisher ports.EventPublisher // optionnel (nil = pas de broker)
}

func NewGraphService(
	users ports.UserRepository,
	graph ports.GraphRepository,
	notifs ports.NotificationService,
	bus ports.EventBus,
	publisher ports.EventPublisher,
) ports.GraphService {
	return &graphService{
		users:     users,
		graph:     graph,
		notifs:    notifs,
		bus:       bus,
		publisher: publisher,
	}
}

// RequestFollow fait avancer la paire (actor -> target) d'un cran :
// compte public = FOLLOWING direct, compte privé = REQUESTED.
// Toutes les sorties en erreur arrivent AVANT la moindre écriture.
func (s *graphService) RequestFollow(ctx context.Context, actorID, targetID string) (domain.RelationState, error) {
	if actorID == targetID {
		return domain.RelationNone, domain.ErrSelfAction
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return domain.RelationNone, err
	}

	pair, err := s.graph.PairStates(ctx, actorID, targetID)
	if err != nil {
		return domain.RelationNone, err
	}
	if pair.BlockedEitherWay() {
		return domain.RelationNone, domain.ErrAlreadyBlocked
	}
	if pair.Forward == domain.RelationFollowing {
		return domain.RelationFollowing, domain.ErrAlreadyFollowing
	}

	if target.IsPrivate {
		if pair.Forward == domain.RelationRequested {
			return domain.RelationRequested, domain.ErrDuplicateRequest
		}
		created, err := s.graph.CreateEdge(ctx, actorID, targetID, domain.RelationRequested)
		if err != nil {
			return domain.RelationNone, err
		}
		if !created {
			// une requête concurrente a gagné la course sur la PK
			return domain.RelationRequested, domain.ErrDuplicateRequest
		}
		s.emit(ctx, targetID, actorID, domain.NotifFollowRequest)
		return domain.RelationRequested, nil
	}

	// Compte public. Une requested résiduelle peut traîner si la cible vient
	// de repasser en public : on la promeut au lieu d'empiler une 2e arête.
	if pair.Forward == domain.RelationRequested {
		if _, err := s.graph.PromoteRequest(ctx, actorID, targetID); err != nil {
			return domain.RelationNone, err
		}
	} else {
		created, err := s.graph.CreateEdge(ctx, actorID, targetID, domain.RelationFollowing)
		if err != nil {
			return domain.RelationNone, err
		}
		if !created {
			return domain.RelationFollowing, domain.ErrAlreadyFollowing
		}
	}

	s.emit(ctx, targetID, actorID, domain.NotifFollow)

	if s.publisher != nil {
		if err := s.publisher.PublishFollowCreated(ctx, actorID, targetID); err != nil {
			// la donnée est sauvée, on ne fait pas échouer la requête utilisateur
			slog.Error("publish follow.created failed", "error", err)
		}
	}

	return domain.RelationFollowing, nil
}

// AcceptRequest : owner accepte la demande de requester. L'arête est
// requester -> owner ; le CAS requested->following est l'unité atomique.
func (s *graphService) AcceptRequest(ctx context.Context, ownerID, requesterID string) error {
	promoted, err := s.graph.PromoteRequest(ctx, requesterID, ownerID)
	if err != nil {
		return err
	}
	if !promoted {
		return fmt.Errorf("no pending request: %w", domain.ErrNotFound)
	}

	// la carte follow_request ne doit pas rester actionnable dans l'inbox
	if err := s.notifs.Revoke(ctx, ownerID, requesterID, domain.NotifFollowRequest); err != nil {
		slog.Error("revoke follow_request failed", "owner", ownerID, "error", err)
	}

	s.emit(ctx, requesterID, ownerID, domain.NotifFollowAccepted)

	if s.publisher != nil {
		if err := s.publisher.PublishFollowCreated(ctx, requesterID, ownerID); err != nil {
			slog.Error("publish follow.created failed", "error", err)
		}
	}
	return nil
}

// RejectRequest est terminal : aucune arête following n'est écrite.
func (s *graphService) RejectRequest(ctx context.Context, ownerID, requesterID string) error {
	deleted, err := s.graph.DeleteEdge(ctx, requesterID, ownerID, domain.RelationRequested)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("no pending request: %w", domain.ErrNotFound)
	}

	if err := s.notifs.Revoke(ctx, ownerID, requesterID, domain.NotifFollowRequest); err != nil {
		slog.Error("revoke follow_request failed", "owner", ownerID, "error", err)
	}

	s.emit(ctx, requesterID, ownerID, domain.NotifFollowRejected)
	return nil
}

// CancelRequest : l'acteur retire sa propre demande. Silencieux et idempotent.
func (s *graphService) CancelRequest(ctx context.Context, actorID, targetID string) error {
	if _, err := s.graph.DeleteEdge(ctx, actorID, targetID, domain.RelationRequested); err != nil {
		return err
	}
	return s.notifs.Revoke(ctx, targetID, actorID, domain.NotifFollowRequest)
}

// Unfollow : no-op si déjà NONE.
func (s *graphService) Unfollow(ctx context.Context, actorID, targetID string) error {
	_, err := s.graph.DeleteEdge(ctx, actorID, targetID, domain.RelationFollowing)
	return err
}

// RemoveFollower : owner retire follower de ses abonnés (sens inverse).
func (s *graphService) RemoveFollower(ctx context.Context, ownerID, followerID string) error {
	if ownerID == followerID {
		return domain.ErrSelfAction
	}
	_, err := s.graph.DeleteEdge(ctx, followerID, ownerID, domain.RelationFollowing)
	return err
}

// Block est un reset relationnel complet, pas un filtre de lecture : arêtes
// purgées dans les deux sens + notifications échangées purgées, en une seule
// transaction, pour qu'aucune demande fantôme ne resurgisse après unblock.
func (s *graphService) Block(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return domain.ErrSelfAction
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}

	state, err := s.graph.State(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if state == domain.RelationBlocked {
		return domain.ErrAlreadyBlocked
	}

	return s.graph.BlockPair(ctx, actorID, targetID)
}

// Unblock ramène à NONE. Jamais de restauration de l'état d'avant le blocage.
func (s *graphService) Unblock(ctx context.Context, actorID, targetID string) error {
	_, err := s.graph.DeleteEdge(ctx, actorID, targetID, domain.RelationBlocked)
	return err
}

func (s *graphService) RelationshipState(ctx context.Context, actorID, targetID string) (domain.RelationState, error) {
	pair, err := s.graph.PairStates(ctx, actorID, targetID)
	if err != nil {
		return domain.RelationNone, err
	}
	if pair.BlockedEitherWay() {
		return domain.RelationBlocked, nil
	}
	return pair.Forward, nil
}

// SetPrivacy. Le passage privé -> public accepte d'office les demandes en
// attente (elles n'auraient jamais existé sur un compte public).
func (s *graphService) SetPrivacy(ctx context.Context, userID string, isPrivate bool) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.IsPrivate && !isPrivate {
		if err := s.graph.FlushRequestsToFollowers(ctx, userID); err != nil {
			return err
		}
	}

	if err := s.users.UpdatePrivacy(ctx, userID, isPrivate); err != nil {
		return err
	}

	// sync des autres onglets/appareils du même utilisateur
	s.bus.PushToUser(userID, domain.Event{
		Type:    domain.EventPrivacyUpdated,
		Payload: domain.PrivacyPayload{IsPrivate: isPrivate},
	})
	return nil
}

// emit crée + pousse la notification. L'arête est déjà commitée : un échec
// ici se loggue, il ne fait pas échouer la transition.
func (s *graphService) emit(ctx context.Context, recipientID, senderID string, kind domain.NotificationKind) {
	n := &domain.Notification{Recipient: recipientID, Sender: senderID, Kind: kind}
	if err := s.notifs.Notify(ctx, n); err != nil {
		slog.Error("notification emit failed", "kind", kind, "recipient", recipientID, "error", err)
	}
}

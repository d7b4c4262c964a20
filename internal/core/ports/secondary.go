package ports

import (
	"context"

	"github.com/jupiterclapton/cercle/internal/core/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByUsernames : batch pour le gate de mention (une requête, pas N).
	// Les usernames inconnus sont simplement absents du résultat.
	GetByUsernames(ctx context.Context, usernames []string) ([]*domain.User, error)

	UpdatePrivacy(ctx context.Context, id string, isPrivate bool) error
}

// GraphRepository est le store d'arêtes unique, interrogeable dans les deux
// sens. Une seule arête par paire ordonnée : les insertions concurrentes sur
// la même paire se sérialisent sur la contrainte PK.
type GraphRepository interface {
	State(ctx context.Context, actorID, targetID string) (domain.RelationState, error)

	// PairStates lit les deux directions en une requête (check de blocage).
	PairStates(ctx context.Context, actorID, targetID string) (domain.PairStates, error)

	// CreateEdge rend false si une arête existait déjà pour la paire.
	CreateEdge(ctx context.Context, actorID, targetID string, state domain.RelationState) (bool, error)

	// PromoteRequest : CAS requested -> following. false si plus en requested.
	PromoteRequest(ctx context.Context, actorID, targetID string) (bool, error)

	// DeleteEdge supprime l'arête si elle est dans un des états donnés
	// (tous si vide). Rend false si rien à supprimer — jamais une erreur.
	DeleteEdge(ctx context.Context, actorID, targetID string, states ...domain.RelationState) (bool, error)

	IsFollowing(ctx context.Context, actorID, targetID string) (bool, error)

	// FollowerIDs alimente le fan-out de feed.
	FollowerIDs(ctx context.Context, userID string) ([]string, error)

	// BlockPair est LA transaction du blocage : purge de toutes les arêtes
	// dans les deux sens, purge des notifications échangées entre les deux,
	// insertion de l'arête blocked. Tout ou rien.
	BlockPair(ctx context.Context, actorID, targetID string) error

	// FlushRequestsToFollowers convertit les demandes en attente en arêtes
	// following (passage privé -> public), atomiquement.
	FlushRequestsToFollowers(ctx context.Context, ownerID string) error
}

type PostRepository interface {
	Save(ctx context.Context, post *domain.Post) error
	FindByID(ctx context.Context, postID string) (*domain.Post, error)

	// ToggleLike fait le XOR d'appartenance sur post_likes et rend l'état et
	// la cardinalité autoritaires, dans la même transaction.
	ToggleLike(ctx context.Context, postID, userID string) (domain.LikeResult, error)

	SetCommentsBlocked(ctx context.Context, postID string, blocked bool) error
}

type CommentRepository interface {
	Save(ctx context.Context, c *domain.Comment) error
	FindByID(ctx context.Context, commentID string) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error)

	// CountByPost est le compte autoritaire (count(*), pas un compteur dérivable).
	CountByPost(ctx context.Context, postID string) (int, error)

	Update(ctx context.Context, c *domain.Comment) error
	DeleteWithReplies(ctx context.Context, commentID string) error
}

type NotificationRepository interface {
	Save(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, recipientID, id string) (*domain.Notification, error)
	Delete(ctx context.Context, recipientID, id string) error

	// DeleteByTriple retire une notification actionnable devenue obsolète
	// (ex: la follow_request après accept/reject/cancel).
	DeleteByTriple(ctx context.Context, recipientID, senderID string, kind domain.NotificationKind) error
}

// Connection est une connexion live, déjà authentifiée. Send écrit une trame
// sérialisée ; l'implémentation sérialise ses writes (gorilla = un writer).
type Connection interface {
	Send(data []byte) error
}

// ConnectionRegistry : userId -> ensemble de connexions. Purement éphémère,
// reconstruit à chaque (re)connexion, aucune durabilité requise.
type ConnectionRegistry interface {
	Register(userID, connID string, conn Connection)

	// Unregister sur une entrée absente est un no-op, jamais une erreur
	// (le disconnect peut doubler le connect dans la course).
	Unregister(userID, connID string)

	// ConnectionsFor rend une COPIE : le bus itère pendant qu'un disconnect
	// concurrent mute le registre.
	ConnectionsFor(userID string) []Connection
}

// EventBus est l'unique point de contact du cœur avec le temps réel :
// une méthode, pas de room, pas de sémantique broadcast d'une lib transport.
// At-most-once par connexion, best-effort, les échecs sont avalés.
type EventBus interface {
	PushToUser(userID string, event domain.Event)
}

// EventPublisher pousse les événements d'intégration vers le broker
// (consommés par d'autres systèmes, pas par les sockets).
type EventPublisher interface {
	PublishFollowCreated(ctx context.Context, actorID, targetID string) error
	PublishPostCreated(ctx context.Context, post *domain.Post) error
}

// FeedRepository : timelines matérialisées (Redis sorted sets).
type FeedRepository interface {
	AddToTimelines(ctx context.Context, userIDs []string, item *domain.FeedItem) error
	GetTimeline(ctx context.Context, userID string, limit, offset int64) ([]*domain.FeedItem, error)
}

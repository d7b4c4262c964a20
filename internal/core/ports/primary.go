package ports

import (
	"context"

	"github.com/jupiterclapton/cercle/internal/core/domain"
)

// GraphService est le port Driving de la machine à états relationnelle.
// Chaque opération rend le nouvel état ou une erreur typée du domaine,
// jamais un code HTTP : la couche transport reste en dehors du cœur.
type GraphService interface {
	RequestFollow(ctx context.Context, actorID, targetID string) (domain.RelationState, error)
	AcceptRequest(ctx context.Context, ownerID, requesterID string) error
	RejectRequest(ctx context.Context, ownerID, requesterID string) error
	CancelRequest(ctx context.Context, actorID, targetID string) error
	Unfollow(ctx context.Context, actorID, targetID string) error
	RemoveFollower(ctx context.Context, ownerID, followerID string) error
	Block(ctx context.Context, actorID, targetID string) error
	Unblock(ctx context.Context, actorID, targetID string) error

	// RelationshipState vu depuis actor. BLOCKED dès qu'un des deux sens bloque.
	RelationshipState(ctx context.Context, actorID, targetID string) (domain.RelationState, error)

	// SetPrivacy : repasser en public convertit les demandes en attente en
	// followers (elles auraient été acceptées d'office sur un compte public).
	SetPrivacy(ctx context.Context, userID string, isPrivate bool) error
}

// EngagementService couvre likes, commentaires et création de post.
type EngagementService interface {
	CreatePost(ctx context.Context, actorID, caption, mediaURL string, mediaType domain.MediaType) (*domain.Post, error)
	ToggleLike(ctx context.Context, actorID, postID string) (domain.LikeResult, error)
	CreateComment(ctx context.Context, actorID, postID, text, parentID string) (*domain.Comment, error)
	EditComment(ctx context.Context, actorID, commentID, text string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, actorID, commentID string) error
	ToggleCommentsBlock(ctx context.Context, actorID, postID string) (bool, error)
	ListPostComments(ctx context.Context, actorID, postID string) ([]*domain.Comment, error)
}

// NotificationService : persistance puis push. Le push est best-effort,
// l'enregistrement persisté fait foi au prochain poll/login.
type NotificationService interface {
	Notify(ctx context.Context, n *domain.Notification) error

	// Revoke retire une notification actionnable devenue obsolète (la
	// follow_request après accept/reject/cancel) pour ne pas laisser une
	// carte orpheline dans l'inbox du destinataire.
	Revoke(ctx context.Context, recipientID, senderID string, kind domain.NotificationKind) error

	List(ctx context.Context, recipientID string) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, recipientID, notifID string) (*domain.Notification, error)
	Delete(ctx context.Context, recipientID, notifID string) error
}

// FeedService distribue les posts vers les timelines des followers.
type FeedService interface {
	DistributePost(ctx context.Context, post *domain.Post) error
	Timeline(ctx context.Context, userID string, limit, offset int64) ([]*domain.FeedItem, error)
}

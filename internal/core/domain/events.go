package domain

// Types d'événements poussés sur les connexions live d'un utilisateur.
// Tous les events sont adressés à un destinataire (pushToUser), jamais
// broadcastés globalement : le bus ne connaît pas de notion de "room".
const (
	EventNotificationNew = "notification.new"
	EventPostLike        = "post.like"
	EventCommentNew      = "comment.new"
	EventCommentEdit     = "comment.edit"
	EventCommentDelete   = "comment.delete"
	EventPrivacyUpdated  = "privacy.updated"
)

// Event est l'enveloppe sérialisée telle quelle vers chaque socket.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Payloads typés des events d'engagement.

type PostLikePayload struct {
	PostID     string `json:"postId"`
	LikesCount int    `json:"likesCount"`
	ActorID    string `json:"actorId"`
	Liked      bool   `json:"liked"`
}

type CommentPayload struct {
	CommentID string `json:"commentId"`
	PostID    string `json:"postId"`
	UserID    string `json:"userId"`
	Text      string `json:"text"`
	ParentID  string `json:"parentId,omitempty"`
	Edited    bool   `json:"edited"`

	// cardinalité autoritaire relue au moment du push, comme likesCount
	CommentsCount int `json:"commentsCount"`
}

type CommentDeletePayload struct {
	CommentID     string `json:"commentId"`
	PostID        string `json:"postId"`
	CommentsCount int    `json:"commentsCount"`
}

type NotificationPayload struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Kind      string `json:"kind"`
	PostID    string `json:"postId,omitempty"`
	CommentID string `json:"commentId,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

type PrivacyPayload struct {
	IsPrivate bool `json:"isPrivate"`
}

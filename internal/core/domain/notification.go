package domain

import "time"

type NotificationKind string

const (
	NotifFollow         NotificationKind = "follow"
	NotifFollowRequest  NotificationKind = "follow_request"
	NotifFollowAccepted NotificationKind = "follow_accepted"
	NotifFollowRejected NotificationKind = "follow_rejected"
	NotifLike           NotificationKind = "like"
	NotifComment        NotificationKind = "comment"
	NotifReply          NotificationKind = "reply"
	NotifMention        NotificationKind = "mention"
)

// Notification : un fait livré à UN destinataire. Jamais modifiée après
// création, sauf le flag IsRead. Supprimée par le destinataire, ou en masse
// quand la relation sous-jacente est rompue (reject/cancel/block).
type Notification struct {
	ID        string
	Recipient string
	Sender    string
	Kind      NotificationKind
	PostID    string // optionnel
	CommentID string // optionnel
	IsRead    bool
	CreatedAt time.Time
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jupiterclapton/cercle/internal/core/domain"
)

type NotificationRepo struct {
	db *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{db: pool}
}

const notifColumns = `id, recipient_id, sender_id, kind, post_id, comment_id, is_read, created_at`

func (r *NotificationRepo) Save(ctx context.Context, n *domain.Notification) error {
	q := `
		INSERT INTO notifications (id, recipient_id, sender_id, kind, post_id, comment_id, is_read, created_at)
		VALUES (@id, @recipient_id, @sender_id, @kind, @post_id, @comment_id, @is_read, @created_at)
	`

	args := pgx.NamedArgs{
		"id":           n.ID,
		"recipient_id": n.Recipient,
		"sender_id":    n.Sender,
		"kind":         string(n.Kind),
		"post_id":      n.PostID,
		"comment_id":   n.CommentID,
		"is_read":      n.IsRead,
		"created_at":   n.CreatedAt,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return storageErr("save notification", err)
	}
	return nil
}

func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID string) ([]*domain.Notification, error) {
	q := `SELECT ` + notifColumns + ` FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, recipientID)
	if err != nil {
		return nil, storageErr("list notifications", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, storageErr("scan notification", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead est scopé destinataire : l'id d'un autre = ErrNotFound, on ne
// laisse pas deviner l'existence de notifications étrangères.
func (r *NotificationRepo) MarkRead(ctx context.Context, recipientID, id string) (*domain.Notification, error) {
	q := `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND recipient_id = $2
		RETURNING ` + notifColumns

	n, err := scanNotification(r.db.QueryRow(ctx, q, id, recipientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("mark read", err)
	}
	return n, nil
}

func (r *NotificationRepo) Delete(ctx context.Context, recipientID, id string) error {
	q := `DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`

	tag, err := r.db.Exec(ctx, q, id, recipientID)
	if err != nil {
		return storageErr("delete notification", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByTriple retire la carte actionnable devenue obsolète. Zéro ligne
// touchée n'est pas une erreur : la carte a pu partir avec un block.
func (r *NotificationRepo) DeleteByTriple(ctx context.Context, recipientID, senderID string, kind domain.NotificationKind) error {
	q := `DELETE FROM notifications WHERE recipient_id = $1 AND sender_id = $2 AND kind = $3`

	if _, err := r.db.Exec(ctx, q, recipientID, senderID, string(kind)); err != nil {
		return storageErr("delete by triple", err)
	}
	return nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	var kind string
	err := row.Scan(&n.ID, &n.Recipient, &n.Sender, &kind, &n.PostID, &n.CommentID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.Kind = domain.NotificationKind(kind)
	return &n, nil
}

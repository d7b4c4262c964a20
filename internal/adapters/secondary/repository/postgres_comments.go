package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jupiterclapton/cercle/internal/core/domain"
)

type CommentRepo struct {
	db *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{db: pool}
}

// parent_id vide = commentaire racine. On évite les NULLs : '' par défaut,
// les scans restent des strings simples.
func (r *CommentRepo) Save(ctx context.Context, c *domain.Comment) error {
	q := `
		INSERT INTO comments (id, post_id, user_id, body, parent_id, edited, created_at)
		VALUES (@id, @post_id, @user_id, @body, @parent_id, @edited, @created_at)
	`

	args := pgx.NamedArgs{
		"id":         c.ID,
		"post_id":    c.PostID,
		"user_id":    c.UserID,
		"body":       c.Text,
		"parent_id":  c.ParentID,
		"edited":     c.Edited,
		"created_at": c.CreatedAt,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return storageErr("save comment", err)
	}
	return nil
}

func (r *CommentRepo) FindByID(ctx context.Context, commentID string) (*domain.Comment, error) {
	q := `SELECT id, post_id, user_id, body, parent_id, edited, created_at FROM comments WHERE id = $1`

	c, err := scanComment(r.db.QueryRow(ctx, q, commentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("find comment", err)
	}
	return c, nil
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	q := `
		SELECT id, post_id, user_id, body, parent_id, edited, created_at
		FROM comments WHERE post_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, q, postID)
	if err != nil {
		return nil, storageErr("list comments", err)
	}
	defer rows.Close()

	var out []*domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, storageErr("scan comment", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountByPost est LE compte autoritaire : count(*), jamais un compteur
// entretenu à côté qui peut dériver.
func (r *CommentRepo) CountByPost(ctx context.Context, postID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM comments WHERE post_id = $1`, postID).Scan(&n)
	if err != nil {
		return 0, storageErr("count comments", err)
	}
	return n, nil
}

func (r *CommentRepo) Update(ctx context.Context, c *domain.Comment) error {
	q := `UPDATE comments SET body = $1, edited = $2 WHERE id = $3`

	tag, err := r.db.Exec(ctx, q, c.Text, c.Edited, c.ID)
	if err != nil {
		return storageErr("update comment", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteWithReplies : la racine part avec toutes ses réponses directes
// (un seul niveau, l'aplatissement est garanti à l'écriture).
func (r *CommentRepo) DeleteWithReplies(ctx context.Context, commentID string) error {
	q := `DELETE FROM comments WHERE id = $1 OR parent_id = $1`

	if _, err := r.db.Exec(ctx, q, commentID); err != nil {
		return storageErr("delete comment", err)
	}
	return nil
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	var created time.Time
	err := row.Scan(&c.ID, &c.PostID, &c.UserID, &c.Text, &c.ParentID, &c.Edited, &created)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = created
	return &c, nil
}

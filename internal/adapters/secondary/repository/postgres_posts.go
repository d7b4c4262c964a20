package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jupiterclapton/cercle/internal/core/domain"
)

type PostRepo struct {
	db *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{db: pool}
}

func (r *PostRepo) Save(ctx context.Context, post *domain.Post) error {
	q := `
		INSERT INTO posts (id, user_id, caption, media_url, media_type, comments_blocked, created_at, updated_at)
		VALUES (@id, @user_id, @caption, @media_url, @media_type, @comments_blocked, @created_at, @updated_at)
	`

	args := pgx.NamedArgs{
		"id":               post.ID,
		"user_id":          post.UserID,
		"caption":          post.Caption,
		"media_url":        post.MediaURL,
		"media_type":       string(post.MediaType),
		"comments_blocked": post.CommentsBlocked,
		"created_at":       post.CreatedAt,
		"updated_at":       post.UpdatedAt,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return storageErr("save post", err)
	}
	return nil
}

func (r *PostRepo) FindByID(ctx context.Context, postID string) (*domain.Post, error) {
	q := `
		SELECT id, user_id, caption, media_url, media_type, comments_blocked, created_at, updated_at
		FROM posts WHERE id = $1
	`

	var p domain.Post
	var mediaType string
	err := r.db.QueryRow(ctx, q, postID).Scan(
		&p.ID, &p.UserID, &p.Caption, &p.MediaURL, &mediaType,
		&p.CommentsBlocked, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("find post", err)
	}
	p.MediaType = domain.MediaType(mediaType)
	return &p, nil
}

// ToggleLike fait le XOR d'appartenance ET relit la cardinalité dans la même
// transaction : le couple (liked, likesCount) rendu est autoritaire, jamais
// un compteur dérivé qui peut dériver.
func (r *PostRepo) ToggleLike(ctx context.Context, postID, userID string) (domain.LikeResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.LikeResult{}, storageErr("begin toggle like", err)
	}
	defer tx.Rollback(ctx)

	var res domain.LikeResult

	del := `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`
	tag, err := tx.Exec(ctx, del, postID, userID)
	if err != nil {
		return domain.LikeResult{}, storageErr("unlike", err)
	}

	if tag.RowsAffected() == 0 {
		// pas de like existant : on ajoute. ON CONFLICT couvre la course
		// entre deux toggles simultanés du même utilisateur.
		ins := `
			INSERT INTO post_likes (post_id, user_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (post_id, user_id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, ins, postID, userID, time.Now().UTC()); err != nil {
			return domain.LikeResult{}, storageErr("like", err)
		}
		res.Liked = true
	}

	count := `SELECT count(*) FROM post_likes WHERE post_id = $1`
	if err := tx.QueryRow(ctx, count, postID).Scan(&res.LikesCount); err != nil {
		return domain.LikeResult{}, storageErr("count likes", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.LikeResult{}, storageErr("commit toggle like", err)
	}
	return res, nil
}

func (r *PostRepo) SetCommentsBlocked(ctx context.Context, postID string, blocked bool) error {
	q := `UPDATE posts SET comments_blocked = $1, updated_at = $2 WHERE id = $3`

	tag, err := r.db.Exec(ctx, q, blocked, time.Now().UTC(), postID)
	if err != nil {
		return storageErr("set comments blocked", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

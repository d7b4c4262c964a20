package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jupiterclapton/cercle/internal/core/domain"
)

// DTO tampon entre la base et le domaine : pas de tags SQL sur les entités.
type sqlUser struct {
	ID            string
	Username      string
	FullName      string
	AvatarURL     string
	Bio           string
	IsPrivate     bool
	MentionPolicy string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: pool}
}

const userColumns = `id, username, full_name, avatar_url, bio, is_private, mention_policy, created_at, updated_at`

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.one(ctx, q, id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.one(ctx, q, username)
}

// GetByUsernames : batch pour le gate de mention. Les inconnus sont absents
// du résultat, pas une erreur.
func (r *UserRepo) GetByUsernames(ctx context.Context, usernames []string) ([]*domain.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	q := `SELECT ` + userColumns + ` FROM users WHERE username = ANY($1)`

	rows, err := r.db.Query(ctx, q, usernames)
	if err != nil {
		return nil, storageErr("get by usernames", err)
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storageErr("scan user", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) UpdatePrivacy(ctx context.Context, id string, isPrivate bool) error {
	q := `UPDATE users SET is_private = $1, updated_at = $2 WHERE id = $3`

	tag, err := r.db.Exec(ctx, q, isPrivate, time.Now().UTC(), id)
	if err != nil {
		return storageErr("update privacy", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- HELPERS ---

func (r *UserRepo) one(ctx context.Context, q string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get user", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u sqlUser
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.AvatarURL, &u.Bio,
		&u.IsPrivate, &u.MentionPolicy, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:            u.ID,
		Username:      u.Username,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		Bio:           u.Bio,
		IsPrivate:     u.IsPrivate,
		MentionPolicy: domain.MentionPolicy(u.MentionPolicy),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}, nil
}

// storageErr traduit une panne technique en sentinelle du domaine, en
// gardant le détail pour les logs.
func storageErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23503 = Foreign Key Violation : la référence n'existe pas/plus
		if pgErr.Code == "23503" {
			return domain.ErrNotFound
		}
	}
	return fmt.Errorf("db: %s: %w: %v", op, domain.ErrStorage, err)
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jupiterclapton/cercle/internal/core/domain"
)

// GraphRepo est le store d'arêtes unique du graphe social. La PK
// (actor_id, target_id) garantit au plus une arête par paire ordonnée :
// deux RequestFollow concurrents du même acteur vers la même cible se
// sérialisent sur la contrainte, pas sur un verrou applicatif.
type GraphRepo struct {
	db *pgxpool.Pool
}

func NewGraphRepo(pool *pgxpool.Pool) *GraphRepo {
	return &GraphRepo{db: pool}
}

func (r *GraphRepo) State(ctx context.Context, actorID, targetID string) (domain.RelationState, error) {
	q := `SELECT state FROM relationships WHERE actor_id = $1 AND target_id = $2`

	var state string
	err := r.db.QueryRow(ctx, q, actorID, targetID).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RelationNone, nil
		}
		return domain.RelationNone, storageErr("relation state", err)
	}
	return domain.RelationState(state), nil
}

// PairStates lit les deux sens en une seule requête.
func (r *GraphRepo) PairStates(ctx context.Context, actorID, targetID string) (domain.PairStates, error) {
	q := `
		SELECT actor_id, state FROM relationships
		WHERE (actor_id = $1 AND target_id = $2)
		   OR (actor_id = $2 AND target_id = $1)
	`

	rows, err := r.db.Query(ctx, q, actorID, targetID)
	if err != nil {
		return domain.PairStates{}, storageErr("pair states", err)
	}
	defer rows.Close()

	pair := domain.PairStates{Forward: domain.RelationNone, Backward: domain.RelationNone}
	for rows.Next() {
		var edgeActor, state string
		if err := rows.Scan(&edgeActor, &state); err != nil {
			return domain.PairStates{}, storageErr("scan pair", err)
		}
		if edgeActor == actorID {
			pair.Forward = domain.RelationState(state)
		} else {
			pair.Backward = domain.RelationState(state)
		}
	}
	return pair, rows.Err()
}

// CreateEdge. ON CONFLICT DO NOTHING rend l'insertion idempotente : false
// signale qu'une arête (quel que soit son état) occupait déjà la paire.
func (r *GraphRepo) CreateEdge(ctx context.Context, actorID, targetID string, state domain.RelationState) (bool, error) {
	q := `
		INSERT INTO relationships (actor_id, target_id, state, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (actor_id, target_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, q, actorID, targetID, string(state), time.Now().UTC())
	if err != nil {
		return false, storageErr("create edge", err)
	}
	return tag.RowsAffected() == 1, nil
}

// PromoteRequest : CAS requested -> following. Atomique par construction.
func (r *GraphRepo) PromoteRequest(ctx context.Context, actorID, targetID string) (bool, error) {
	q := `
		UPDATE relationships SET state = 'following'
		WHERE actor_id = $1 AND target_id = $2 AND state = 'requested'
	`

	tag, err := r.db.Exec(ctx, q, actorID, targetID)
	if err != nil {
		return false, storageErr("promote request", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *GraphRepo) DeleteEdge(ctx context.Context, actorID, targetID string, states ...domain.RelationState) (bool, error) {
	var tag pgconn.CommandTag
	var err error

	if len(states) == 0 {
		q := `DELETE FROM relationships WHERE actor_id = $1 AND target_id = $2`
		tag, err = r.db.Exec(ctx, q, actorID, targetID)
	} else {
		filter := make([]string, len(states))
		for i, s := range states {
			filter[i] = string(s)
		}
		q := `DELETE FROM relationships WHERE actor_id = $1 AND target_id = $2 AND state = ANY($3)`
		tag, err = r.db.Exec(ctx, q, actorID, targetID, filter)
	}
	if err != nil {
		return false, storageErr("delete edge", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *GraphRepo) IsFollowing(ctx context.Context, actorID, targetID string) (bool, error) {
	q := `
		SELECT EXISTS(
			SELECT 1 FROM relationships
			WHERE actor_id = $1 AND target_id = $2 AND state = 'following'
		)
	`

	var ok bool
	if err := r.db.QueryRow(ctx, q, actorID, targetID).Scan(&ok); err != nil {
		return false, storageErr("is following", err)
	}
	return ok, nil
}

// FollowerIDs alimente le fan-out feed.
func (r *GraphRepo) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	q := `SELECT actor_id FROM relationships WHERE target_id = $1 AND state = 'following'`

	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, storageErr("follower ids", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan follower id", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// BlockPair est LA transaction du blocage : purge des arêtes dans les deux
// sens, purge des notifications échangées entre les deux, insertion de
// l'arête blocked. Tout ou rien — c'est exactement pour ça que le graphe
// vit dans la même base que les notifications.
func (r *GraphRepo) BlockPair(ctx context.Context, actorID, targetID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storageErr("begin block", err)
	}
	defer tx.Rollback(ctx)

	steps := []struct {
		q    string
		args []any
	}{
		{
			q: `DELETE FROM relationships
				WHERE (actor_id = $1 AND target_id = $2)
				   OR (actor_id = $2 AND target_id = $1)`,
			args: []any{actorID, targetID},
		},
		{
			q: `DELETE FROM notifications
				WHERE (sender_id = $1 AND recipient_id = $2)
				   OR (sender_id = $2 AND recipient_id = $1)`,
			args: []any{actorID, targetID},
		},
		{
			q: `INSERT INTO relationships (actor_id, target_id, state, created_at)
				VALUES ($1, $2, 'blocked', $3)`,
			args: []any{actorID, targetID, time.Now().UTC()},
		},
	}
	for _, step := range steps {
		if _, err := tx.Exec(ctx, step.q, step.args...); err != nil {
			return storageErr("block pair", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit block", err)
	}
	return nil
}

// FlushRequestsToFollowers : passage privé -> public. Les demandes en
// attente deviennent des arêtes following et leurs cartes follow_request
// disparaissent de l'inbox, atomiquement.
func (r *GraphRepo) FlushRequestsToFollowers(ctx context.Context, ownerID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storageErr("begin flush", err)
	}
	defer tx.Rollback(ctx)

	promote := `UPDATE relationships SET state = 'following' WHERE target_id = $1 AND state = 'requested'`
	if _, err := tx.Exec(ctx, promote, ownerID); err != nil {
		return storageErr("flush requests", err)
	}

	purge := `DELETE FROM notifications WHERE recipient_id = $1 AND kind = 'follow_request'`
	if _, err := tx.Exec(ctx, purge, ownerID); err != nil {
		return storageErr("purge request cards", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit flush", err)
	}
	return nil
}

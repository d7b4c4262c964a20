package domain

import "time"

// RelationState décrit l'état d'une paire ordonnée (acteur regarde cible).
// NONE -> REQUESTED -> FOLLOWING, BLOCKED est absorbant (seul unblock en sort,
// et il ramène toujours à NONE, jamais à l'état précédent).
type RelationState string

const (
	RelationNone      RelationState = "none"
	RelationRequested RelationState = "requested"
	RelationFollowing RelationState = "following"
	RelationBlocked   RelationState = "blocked"
)

// Relation est une arête dirigée du graphe social.
// Contrainte : au plus UNE arête par paire ordonnée (PK actor_id, target_id),
// ce qui garantit la disjonction des états et sérialise les écritures
// concurrentes sur la même paire.
type Relation struct {
	ActorID   string
	TargetID  string
	State     RelationState
	CreatedAt time.Time
}

// PairStates porte les deux directions d'une paire, lues en une seule requête.
type PairStates struct {
	Forward  RelationState // actor -> target
	Backward RelationState // target -> actor
}

// BlockedEitherWay est le verrou de base : un blocage dans un sens suffit.
func (p PairStates) BlockedEitherWay() bool {
	return p.Forward == RelationBlocked || p.Backward == RelationBlocked
}

package domain

import "time"

// MentionPolicy contrôle qui a le droit de @mentionner cet utilisateur.
type MentionPolicy string

const (
	MentionPolicyEveryone  MentionPolicy = "everyone"
	MentionPolicyFollowers MentionPolicy = "followers" // seulement ceux que JE suis
	MentionPolicyNone      MentionPolicy = "none"
)

// User est l'entité identité. Les liens sociaux (followers, requests, blocks)
// ne vivent PAS ici : la table relationships est la seule source de vérité,
// interrogeable dans les deux sens. Pas de tableaux dupliqués des deux côtés.
type User struct {
	ID            string
	Username      string
	FullName      string
	AvatarURL     string
	Bio           string
	IsPrivate     bool
	MentionPolicy MentionPolicy
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

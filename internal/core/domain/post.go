package domain

import "time"

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeText  MediaType = "text"
)

// Post. L'URL média arrive déjà résolue par la couche upload (hors périmètre).
// Les likes ne sont pas un compteur mais un ensemble (table post_likes) :
// le compte autoritaire est toujours recalculé, jamais stocké en double.
type Post struct {
	ID              string
	UserID          string
	Caption         string
	MediaURL        string
	MediaType       MediaType
	CommentsBlocked bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Comment. ParentID pointe TOUJOURS vers un commentaire racine :
// l'aplatissement (une réponse à une réponse devient une réponse à la racine)
// est imposé à l'écriture.
type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Text      string
	ParentID  string // vide = commentaire racine
	Edited    bool
	CreatedAt time.Time
}

// LikeResult est la réponse autoritaire d'un toggle.
type LikeResult struct {
	Liked      bool
	LikesCount int
}

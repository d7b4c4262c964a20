package domain

import "time"

// FeedItem est la référence légère poussée dans les timelines Redis au moment
// du fan-out. L'hydratation (contenu du post) se fait à la lecture, en batch.
type FeedItem struct {
	PostID    string
	AuthorID  string
	Type      MediaType
	CreatedAt time.Time
}

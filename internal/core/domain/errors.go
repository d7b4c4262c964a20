package domain

import "errors"

// Taxonomie d'erreurs du cœur. Les adapters traduisent leurs erreurs techniques
// (pgx.ErrNoRows, codes SQLSTATE...) vers ces sentinelles ; les handlers amont
// font errors.Is pour choisir le statut. Toute erreur de gate ou de machine à
// états est rendue AVANT la moindre écriture persistée.
var (
	ErrSelfAction        = errors.New("action on self is not allowed")
	ErrAlreadyBlocked    = errors.New("relationship is blocked")
	ErrAlreadyFollowing  = errors.New("already following")
	ErrDuplicateRequest  = errors.New("follow request already sent")
	ErrPrivateAccount    = errors.New("this account is private")
	ErrMentionsDisabled  = errors.New("mentions are disabled for this user")
	ErrMentionNotAllowed = errors.New("this account only allows mentions from followers")
	ErrCommentsBlocked   = errors.New("comments are blocked on this post")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")

	// ErrStorage : la couche de persistance est indisponible ou a échoué.
	// Fatal pour l'opération courante, jamais d'état partiel observable.
	ErrStorage = errors.New("storage failure")
)

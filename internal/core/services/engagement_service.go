package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jupiterclapton/cercle/internal/core/domain"
	"github.com/jupiterclapton/cercle/internal/core/ports"
)

type engagementService struct {
	users     ports.UserRepository
	posts     ports.PostRepository
	comments  ports.CommentRepository
	gate      *PermissionGate
	notifs    ports.NotificationService
	bus       ports.EventBus
	feed      ports.FeedService    // optionnel
	publisher ports.EventPublisher // optionnel
}

func NewEngagementService(
	users ports.UserRepository,
	posts ports.PostRepository,
	comments ports.CommentRepository,
	gate *PermissionGate,
	notifs ports.NotificationService,
	bus ports.EventBus,
	feed ports.FeedService,
	publisher ports.EventPublisher,
) ports.EngagementService {
	return &engagementService{
		users:     users,
		posts:     posts,
		comments:  comments,
		gate:      gate,
		notifs:    notifs,
		bus:       bus,
		feed:      feed,
		publisher: publisher,
	}
}

// CreatePost. Le média est déjà uploadé et résolu en URL par la couche amont.
// Le gate de mention passe AVANT l'insertion : un refus = aucun post créé.
func (s *engagementService) CreatePost(ctx context.Context, actorID, caption, mediaURL string, mediaType domain.MediaType) (*domain.Post, error) {
	mentioned, err := s.gate.CheckMentions(ctx, actorID, ExtractMentions(caption))
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		ID:        uuid.New().String(),
		UserID:    actorID,
		Caption:   caption,
		MediaURL:  mediaURL,
		MediaType: mediaType,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.posts.Save(ctx, post); err != nil {
		return nil, err
	}

	for _, u := range mentioned {
		s.emit(ctx, &domain.Notification{
			Recipient: u.ID,
			Sender:    actorID,
			Kind:      domain.NotifMention,
			PostID:    post.ID,
		})
	}

	// Fan-out feed + event d'intégration : la donnée est sauvée, ces deux
	// étapes ne font pas échouer la requête utilisateur.
	if s.feed != nil {
		if err := s.feed.DistributePost(ctx, post); err != nil {
			slog.Error("feed fan-out failed", "post_id", post.ID, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishPostCreated(ctx, post); err != nil {
			slog.Error("publish post.created failed", "post_id", post.ID, "error", err)
		}
	}

	return post, nil
}

// ToggleLike : XOR d'appartenance sur l'ensemble des likes. Deux acteurs
// concurrents ne se perdent jamais un update (set-add/set-remove, pas de
// read-modify-write sur un scalaire). Notification uniquement au passage
// à "liked", et jamais pour son propre post.
func (s *engagementService) ToggleLike(ctx context.Context, actorID, postID string) (domain.LikeResult, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return domain.LikeResult{}, err
	}
	owner, err := s.users.GetByID(ctx, post.UserID)
	if err != nil {
		return domain.LikeResult{}, err
	}
	if err := s.gate.CanViewPost(ctx, actorID, owner); err != nil {
		return domain.LikeResult{}, err
	}

	res, err := s.posts.ToggleLike(ctx, postID, actorID)
	if err != nil {
		return domain.LikeResult{}, err
	}

	if res.Liked && actorID != post.UserID {
		s.emit(ctx, &domain.Notification{
			Recipient: post.UserID,
			Sender:    actorID,
			Kind:      domain.NotifLike,
			PostID:    post.ID,
		})
	}

	s.bus.PushToUser(post.UserID, domain.Event{
		Type: domain.EventPostLike,
		Payload: domain.PostLikePayload{
			PostID:     post.ID,
			LikesCount: res.LikesCount,
			ActorID:    actorID,
			Liked:      res.Liked,
		},
	})

	return res, nil
}

// CreateComment applique les gates dans l'ordre (commentsBlocked, compte
// privé, mentions tout-ou-rien) avant la moindre écriture, aplatit les
// réponses sur un seul niveau, puis déclenche au plus UNE notification par
// destinataire, classes par priorité : reply > comment > mention.
func (s *engagementService) CreateComment(ctx context.Context, actorID, postID, text, parentID string) (*domain.Comment, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.CommentsBlocked {
		return nil, domain.ErrCommentsBlocked
	}
	owner, err := s.users.GetByID(ctx, post.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.CanViewPost(ctx, actorID, owner); err != nil {
		return nil, err
	}

	mentioned, err := s.gate.CheckMentions(ctx, actorID, ExtractMentions(text))
	if err != nil {
		return nil, err
	}

	var parent *domain.Comment
	if parentID != "" {
		parent, err = s.comments.FindByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != post.ID {
			return nil, fmt.Errorf("parent comment on another post: %w", domain.ErrNotFound)
		}
		// aplatissement : répondre à une réponse = répondre à sa racine
		if parent.ParentID != "" {
			parent, err = s.comments.FindByID(ctx, parent.ParentID)
			if err != nil {
				return nil, err
			}
		}
	}

	comment := &domain.Comment{
		ID:        uuid.New().String(),
		PostID:    post.ID,
		UserID:    actorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if parent != nil {
		comment.ParentID = parent.ID
	}
	if err := s.comments.Save(ctx, comment); err != nil {
		return nil, err
	}

	// Dédup : un destinataire = une notification max, même s'il cumule
	// plusieurs classes (ex: owner aussi @mentionné).
	notified := map[string]bool{actorID: true}

	if parent != nil {
		if !notified[parent.UserID] {
			notified[parent.UserID] = true
			s.emit(ctx, &domain.Notification{
				Recipient: parent.UserID,
				Sender:    actorID,
				Kind:      domain.NotifReply,
				PostID:    post.ID,
				CommentID: comment.ID,
			})
		}
	} else if !notified[post.UserID] {
		notified[post.UserID] = true
		s.emit(ctx, &domain.Notification{
			Recipient: post.UserID,
			Sender:    actorID,
			Kind:      domain.NotifComment,
			PostID:    post.ID,
			CommentID: comment.ID,
		})
	}

	for _, u := range mentioned {
		if notified[u.ID] {
			continue
		}
		notified[u.ID] = true
		s.emit(ctx, &domain.Notification{
			Recipient: u.ID,
			Sender:    actorID,
			Kind:      domain.NotifMention,
			PostID:    post.ID,
			CommentID: comment.ID,
		})
	}

	s.bus.PushToUser(post.UserID, domain.Event{
		Type:    domain.EventCommentNew,
		Payload: commentPayload(comment, s.commentsCount(ctx, post.ID)),
	})

	return comment, nil
}

func (s *engagementService) EditComment(ctx context.Context, actorID, commentID, text string) (*domain.Comment, error) {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actorID {
		return nil, domain.ErrForbidden
	}

	comment.Text = text
	comment.Edited = true
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}

	if post, err := s.posts.FindByID(ctx, comment.PostID); err == nil {
		s.bus.PushToUser(post.UserID, domain.Event{
			Type:    domain.EventCommentEdit,
			Payload: commentPayload(comment, s.commentsCount(ctx, post.ID)),
		})
	}

	return comment, nil
}

// DeleteComment : l'auteur du commentaire OU l'owner du post. Les réponses
// rattachées partent avec la racine.
func (s *engagementService) DeleteComment(ctx context.Context, actorID, commentID string) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	post, err := s.posts.FindByID(ctx, comment.PostID)
	if err != nil {
		return err
	}
	if actorID != comment.UserID && actorID != post.UserID {
		return domain.ErrForbidden
	}

	if err := s.comments.DeleteWithReplies(ctx, commentID); err != nil {
		return err
	}

	s.bus.PushToUser(post.UserID, domain.Event{
		Type: domain.EventCommentDelete,
		Payload: domain.CommentDeletePayload{
			CommentID:     commentID,
			PostID:        post.ID,
			CommentsCount: s.commentsCount(ctx, post.ID),
		},
	})
	return nil
}

// ToggleCommentsBlock est indépendant des règles relationnelles : owner only.
func (s *engagementService) ToggleCommentsBlock(ctx context.Context, actorID, postID string) (bool, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return false, err
	}
	if post.UserID != actorID {
		return false, domain.ErrForbidden
	}

	blocked := !post.CommentsBlocked
	if err := s.posts.SetCommentsBlocked(ctx, postID, blocked); err != nil {
		return false, err
	}
	return blocked, nil
}

func (s *engagementService) ListPostComments(ctx context.Context, actorID, postID string) ([]*domain.Comment, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.GetByID(ctx, post.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.CanViewPost(ctx, actorID, owner); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

func (s *engagementService) emit(ctx context.Context, n *domain.Notification) {
	if err := s.notifs.Notify(ctx, n); err != nil {
		slog.Error("notification emit failed", "kind", n.Kind, "recipient", n.Recipient, "error", err)
	}
}

// commentsCount relit count(*) sur le même chemin logique que l'écriture,
// comme ToggleLike pour likesCount. Échec de lecture : 0 dans le push, le
// client refetchera, le store reste la vérité.
func (s *engagementService) commentsCount(ctx context.Context, postID string) int {
	n, err := s.comments.CountByPost(ctx, postID)
	if err != nil {
		slog.Error("comment count read failed", "post_id", postID, "error", err)
		return 0
	}
	return n
}

func commentPayload(c *domain.Comment, count int) domain.CommentPayload {
	return domain.CommentPayload{
		CommentID:     c.ID,
		PostID:        c.PostID,
		UserID:        c.UserID,
		Text:          c.Text,
		ParentID:      c.ParentID,
		Edited:        c.Edited,
		CommentsCount: count,
	}
}

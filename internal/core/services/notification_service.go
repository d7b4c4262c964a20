package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jupiterclapton/cercle/internal/core/domain"
	"github.com/jupiterclapton/cercle/internal/core/ports"
)

type notificationService struct {
	repo ports.NotificationRepository
	bus  ports.EventBus
}

func NewNotificationService(repo ports.NotificationRepository, bus ports.EventBus) ports.NotificationService {
	return &notificationService{repo: repo, bus: bus}
}

// Notify persiste PUIS pousse, sur le même chemin logique : l'ordre de
// livraison par destinataire suit mécaniquement l'ordre de création.
// Zéro connexion enregistrée = push sauté en silence, l'enregistrement
// reste interrogeable au prochain login.
func (s *notificationService) Notify(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Save(ctx, n); err != nil {
		return err
	}

	s.bus.PushToUser(n.Recipient, domain.Event{
		Type: domain.EventNotificationNew,
		Payload: domain.NotificationPayload{
			ID:        n.ID,
			Sender:    n.Sender,
			Kind:      string(n.Kind),
			PostID:    n.PostID,
			CommentID: n.CommentID,
			CreatedAt: n.CreatedAt.Unix(),
		},
	})
	return nil
}

func (s *notificationService) Revoke(ctx context.Context, recipientID, senderID string, kind domain.NotificationKind) error {
	return s.repo.DeleteByTriple(ctx, recipientID, senderID, kind)
}

func (s *notificationService) List(ctx context.Context, recipientID string) ([]*domain.Notification, error) {
	return s.repo.ListByRecipient(ctx, recipientID)
}

// MarkRead est scopé destinataire : pas touche aux notifications des autres.
func (s *notificationService) MarkRead(ctx context.Context, recipientID, notifID string) (*domain.Notification, error) {
	return s.repo.MarkRead(ctx, recipientID, notifID)
}

// Delete est définitif. Pas d'undo, pas de tombstone.
func (s *notificationService) Delete(ctx context.Context, recipientID, notifID string) error {
	return s.repo.Delete(ctx, recipientID, notifID)
}

package service

import (
	"context"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) GetNotifications(ctx context.Context, identity string, page, pageSize int32) ([]domain.Notification, int32, error) {
	if err := domain.ValidateAddress("identity", identity); err != nil {
		return nil, 0, err
	}
	limit, offset := repository.Page(page, pageSize)
	return s.noteRepo.List(ctx, domain.NormalizeAddress(identity), limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, identity string, notificationID int64) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, domain.NormalizeAddress(identity))
}

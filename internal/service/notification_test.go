package service_test

import (
	"context"
	"testing"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/repository/memory"
	"nftrental-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := service.NewNotificationService(store.Notifications())

	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, store.Notifications().Create(ctx, &domain.Notification{Identity: renterB, Title: title, CreatedOn: "2024-03-01"}))
	}
	require.NoError(t, store.Notifications().Create(ctx, &domain.Notification{Identity: ownerA, Title: "other", CreatedOn: "2024-03-01"}))

	notes, total, err := svc.GetNotifications(ctx, "0x00000000000000000000000000000000000000B2", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(3), total)
	assert.Len(t, notes, 2)

	require.NoError(t, svc.MarkAsRead(ctx, renterB, notes[0].ID))
	assert.Error(t, svc.MarkAsRead(ctx, ownerA, notes[1].ID), "cannot read someone else's notification")

	_, _, err = svc.GetNotifications(ctx, "bob", 1, 10)
	assert.True(t, domain.IsKind(err, domain.ErrorKindValidation))
}

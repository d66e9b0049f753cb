package grpc

import (
	"context"
)

// Inbox methods read the caller's own notifications only.

func (h *RentalHandler) GetNotifications(ctx context.Context, req *GetNotificationsRequest) (*GetNotificationsResponse, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	notes, count, err := h.notificationSvc.GetNotifications(ctx, caller, req.Page, req.PageSize)
	if err != nil {
		return nil, toStatus("GetNotifications", err, nil)
	}
	return &GetNotificationsResponse{
		Notifications: notes,
		TotalCount:    count,
	}, nil
}

func (h *RentalHandler) MarkNotificationRead(ctx context.Context, req *MarkNotificationReadRequest) (*MarkNotificationReadResponse, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.notificationSvc.MarkAsRead(ctx, caller, req.NotificationID); err != nil {
		return nil, toStatus("MarkNotificationRead", err, nil)
	}
	return &MarkNotificationReadResponse{Success: true}, nil
}

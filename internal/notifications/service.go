package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/miguelserrato/tapiceros-backend/pkg/db"
	"github.com/miguelserrato/tapiceros-backend/pkg/db/models"
	"github.com/miguelserrato/tapiceros-backend/pkg/enums"
	pkgerrors "github.com/miguelserrato/tapiceros-backend/pkg/errors"
	"github.com/miguelserrato/tapiceros-backend/pkg/logger"
	"github.com/miguelserrato/tapiceros-backend/pkg/pagination"
	"github.com/miguelserrato/tapiceros-backend/pkg/push"
	"github.com/miguelserrato/tapiceros-backend/pkg/types"
)

// Service defines the notification inbox operations.
type Service interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) ([]models.Notification, *types.Pagination, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, callerID uuid.UUID) error
	MarkAllRead(ctx context.Context, callerID uuid.UUID) (int64, error)
}

type pusher interface {
	SendToDevice(ctx context.Context, token string, n push.Notification, data map[string]string) (string, error)
}

type deviceTokenSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo        Repository
	push        pusher
	users       deviceTokenSource
	pushTimeout time.Duration
	logg        *logger.Logger
	now         func() time.Time
}

// ServiceParams bundles the dependencies for the notifications service.
type ServiceParams struct {
	Repo        Repository
	Push        pusher
	Users       deviceTokenSource
	PushTimeout time.Duration
	Logger      *logger.Logger
}

// NewService wires the notifications service. Push delivery is optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	timeout := params.PushTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &service{
		repo:        params.Repo,
		push:        params.Push,
		users:       params.Users,
		pushTimeout: timeout,
		logg:        params.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Notify persists an in-app notification and attempts a best-effort push to
// the user's device. Push failures are logged and never propagate.
func (s *service) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) (*models.Notification, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}

	notification := &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, db.Translate(err, "create notification")
	}

	s.pushToDevice(ctx, userID, kind, title, message)
	return notification, nil
}

func (s *service) pushToDevice(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) {
	if s.push == nil || s.users == nil {
		return
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "load user for push")
		return
	}
	if user.DeviceToken == nil || *user.DeviceToken == "" {
		return
	}

	token := *user.DeviceToken
	data := map[string]string{"type": kind.String()}
	go func() {
		pushCtx, cancel := context.WithTimeout(context.Background(), s.pushTimeout)
		defer cancel()
		if _, err := s.push.SendToDevice(pushCtx, token, push.Notification{Title: title, Body: message}, data); err != nil {
			s.logg.Warn(s.logg.WithField(pushCtx, "error", err.Error()), "push notification delivery")
		}
	}()
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) ([]models.Notification, *types.Pagination, error) {
	params = params.Normalize(20, 100)
	rows, total, err := s.repo.ListByUser(ctx, userID, unreadOnly, params.Offset(), params.Limit)
	if err != nil {
		return nil, nil, db.Translate(err, "list notifications")
	}
	return rows, params.Envelope(total), nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	total, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, db.Translate(err, "count unread notifications")
	}
	return total, nil
}

func (s *service) MarkRead(ctx context.Context, id, callerID uuid.UUID) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return db.Translate(err, "load notification")
	}
	if notification.UserID != callerID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	if err := s.repo.MarkRead(ctx, id, s.now()); err != nil {
		return db.Translate(err, "mark notification read")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, callerID uuid.UUID) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, callerID, s.now())
	if err != nil {
		return 0, db.Translate(err, "mark all notifications read")
	}
	return updated, nil
}

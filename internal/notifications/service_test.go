package notifications

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/miguelserrato/tapiceros-backend/pkg/db/models"
	"github.com/miguelserrato/tapiceros-backend/pkg/enums"
	pkgerrors "github.com/miguelserrato/tapiceros-backend/pkg/errors"
	"github.com/miguelserrato/tapiceros-backend/pkg/logger"
	"github.com/miguelserrato/tapiceros-backend/pkg/pagination"
	"github.com/miguelserrato/tapiceros-backend/pkg/push"
)

type recordingPusher struct {
	sent chan string
}

func (p *recordingPusher) SendToDevice(ctx context.Context, token string, n push.Notification, data map[string]string) (string, error) {
	p.sent <- token
	return "msg-1", nil
}

type fixedUserSource struct {
	user *models.User
}

func (s *fixedUserSource) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func newTestService(t *testing.T, p pusher, users deviceTokenSource) Service {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(conn),
		Push:        p,
		Users:       users,
		PushTimeout: time.Second,
		Logger:      logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNotifyPersistsAndPushes(t *testing.T) {
	userID := uuid.New()
	token := "device-token-1"
	pusher := &recordingPusher{sent: make(chan string, 1)}
	svc := newTestService(t, pusher, &fixedUserSource{
		user: &models.User{ID: userID, DeviceToken: &token},
	})

	notification, err := svc.Notify(context.Background(), userID, enums.NotificationTypePayment, "Payment received", "Your payment of 125.50 EUR was recorded.")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if notification.ReadAt != nil {
		t.Fatal("new notification must start unread")
	}

	select {
	case got := <-pusher.sent:
		if got != token {
			t.Fatalf("pushed to wrong token %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected push delivery")
	}

	count, err := svc.UnreadCount(context.Background(), userID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 unread, got %d", count)
	}
}

func TestNotifySkipsPushWithoutDeviceToken(t *testing.T) {
	userID := uuid.New()
	pusher := &recordingPusher{sent: make(chan string, 1)}
	svc := newTestService(t, pusher, &fixedUserSource{
		user: &models.User{ID: userID},
	})

	if _, err := svc.Notify(context.Background(), userID, enums.NotificationTypeOrder, "Order due", "The sofa is due tomorrow."); err != nil {
		t.Fatalf("notify: %v", err)
	}
	select {
	case <-pusher.sent:
		t.Fatal("push attempted without a device token")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifyRejectsUnknownType(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.Notify(context.Background(), uuid.New(), enums.NotificationType("spam"), "t", "m")
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	userID := uuid.New()
	svc := newTestService(t, nil, nil)

	notification, err := svc.Notify(context.Background(), userID, enums.NotificationTypeSocial, "New follower", "Pedro started following you.")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	if err := svc.MarkRead(context.Background(), notification.ID, userID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	rows, _, err := svc.List(context.Background(), userID, false, pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ReadAt == nil {
		t.Fatalf("expected read notification, got %+v", rows)
	}
	readAt := *rows[0].ReadAt

	// A second mark must not move read_at.
	if err := svc.MarkRead(context.Background(), notification.ID, userID); err != nil {
		t.Fatalf("second mark read: %v", err)
	}
	rows, _, err = svc.List(context.Background(), userID, false, pagination.Params{})
	if err != nil {
		t.Fatalf("list after second mark: %v", err)
	}
	if !rows[0].ReadAt.Equal(readAt) {
		t.Fatalf("read_at moved from %v to %v", readAt, rows[0].ReadAt)
	}
}

func TestMarkAllReadReportsUpdatedRows(t *testing.T) {
	userID := uuid.New()
	svc := newTestService(t, nil, nil)

	for range 3 {
		if _, err := svc.Notify(context.Background(), userID, enums.NotificationTypeAnnouncement, "Maintenance", "Scheduled downtime."); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}

	updated, err := svc.MarkAllRead(context.Background(), userID)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if updated != 3 {
		t.Fatalf("expected 3 rows updated, got %d", updated)
	}

	updated, err = svc.MarkAllRead(context.Background(), userID)
	if err != nil {
		t.Fatalf("second mark all read: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected 0 rows on replay, got %d", updated)
	}
}

func TestListUnreadOnly(t *testing.T) {
	userID := uuid.New()
	svc := newTestService(t, nil, nil)

	first, err := svc.Notify(context.Background(), userID, enums.NotificationTypePayment, "Paid", "125.50 EUR")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if _, err := svc.Notify(context.Background(), userID, enums.NotificationTypeOrder, "Due", "Tomorrow"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := svc.MarkRead(context.Background(), first.ID, userID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	rows, envelope, err := svc.List(context.Background(), userID, true, pagination.Params{})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(rows) != 1 || envelope.Total != 1 {
		t.Fatalf("expected 1 unread row, got %d (total %d)", len(rows), envelope.Total)
	}
}

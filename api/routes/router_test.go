package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/miguelserrato/tapiceros-backend/internal/auth"
	"github.com/miguelserrato/tapiceros-backend/internal/orders"
	"github.com/miguelserrato/tapiceros-backend/internal/payments"
	"github.com/miguelserrato/tapiceros-backend/internal/posts"
	"github.com/miguelserrato/tapiceros-backend/internal/users"
	pkgAuth "github.com/miguelserrato/tapiceros-backend/pkg/auth"
	"github.com/miguelserrato/tapiceros-backend/pkg/auth/session"
	"github.com/miguelserrato/tapiceros-backend/pkg/config"
	"github.com/miguelserrato/tapiceros-backend/pkg/db/models"
	"github.com/miguelserrato/tapiceros-backend/pkg/enums"
	"github.com/miguelserrato/tapiceros-backend/pkg/logger"
	"github.com/miguelserrato/tapiceros-backend/pkg/pagination"
	"github.com/miguelserrato/tapiceros-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.TokenPair, error) {
	return &auth.TokenPair{}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

type stubUsersService struct{}

func (stubUsersService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (stubUsersService) List(ctx context.Context, params pagination.Params) ([]models.User, *types.Pagination, error) {
	return nil, params.Envelope(0), nil
}

func (stubUsersService) UpdateProfile(ctx context.Context, id uuid.UUID, input users.UpdateProfileInput) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (stubUsersService) SetDeviceToken(ctx context.Context, id uuid.UUID, token string) error {
	return nil
}

type stubPostsService struct{}

func (stubPostsService) Create(ctx context.Context, authorID uuid.UUID, input posts.CreatePostInput) (*models.Post, error) {
	return &models.Post{}, nil
}

func (stubPostsService) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return &models.Post{ID: id}, nil
}

func (stubPostsService) Feed(ctx context.Context, params pagination.Params) ([]models.Post, *types.Pagination, error) {
	return nil, params.Envelope(0), nil
}

func (stubPostsService) ByAuthor(ctx context.Context, authorID uuid.UUID, params pagination.Params) ([]models.Post, *types.Pagination, error) {
	return nil, params.Envelope(0), nil
}

func (stubPostsService) Update(ctx context.Context, id, callerID uuid.UUID, input posts.UpdatePostInput) (*models.Post, error) {
	return &models.Post{ID: id}, nil
}

func (stubPostsService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	return nil
}

func (stubPostsService) AddComment(ctx context.Context, postID, authorID uuid.UUID, input posts.CreateCommentInput) (*models.Comment, error) {
	return &models.Comment{}, nil
}

func (stubPostsService) Comments(ctx context.Context, postID uuid.UUID, params pagination.Params) ([]models.Comment, *types.Pagination, error) {
	return nil, params.Envelope(0), nil
}

func (stubPostsService) DeleteComment(ctx context.Context, commentID, callerID uuid.UUID) error {
	return nil
}

func (stubPostsService) Like(ctx context.Context, postID, userID uuid.UUID) (*posts.LikeResult, error) {
	return &posts.LikeResult{Liked: true}, nil
}

func (stubPostsService) Unlike(ctx context.Context, postID, userID uuid.UUID) (*posts.LikeResult, error) {
	return &posts.LikeResult{}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Create(ctx context.Context, ownerID uuid.UUID, input orders.CreateOrderInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) Get(ctx context.Context, id, callerID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: id}, nil
}

func (stubOrdersService) List(ctx context.Context, ownerID uuid.UUID, filter orders.ListFilter, params pagination.Params) ([]models.Order, *types.Pagination, error) {
	return nil, params.Envelope(0), nil
}

func (stubOrdersService) Update(ctx context.Context, id, callerID uuid.UUID, input orders.UpdateOrderInput) (*models.Order, error) {
	return &models.Order{ID: id}, nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, id, callerID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	return &models.Order{ID: id, Status: status}, nil
}

func (stubOrdersService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	return nil
}

type stubPaymentsService struct{}

func (stubPaymentsService) Checkout(ctx context.Context, userID uuid.UUID, input payments.CheckoutInput) (*payments.CheckoutResponse, error) {
	return &payments.CheckoutResponse{}, nil
}

func (stubPaymentsService) ListPayments(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Payment, *types.Pagination, error) {
	return nil, params.Envelope(0), nil
}

func (stubPaymentsService) Subscribe(ctx context.Context, userID uuid.UUID) (*payments.CheckoutResponse, error) {
	return &payments.CheckoutResponse{}, nil
}

func (stubPaymentsService) CancelSubscription(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (stubPaymentsService) Membership(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	return &models.Membership{}, nil
}

func (stubPaymentsService) CreateInvoice(ctx context.Context, userID uuid.UUID, input payments.CreateInvoiceInput) (*models.Invoice, error) {
	return &models.Invoice{}, nil
}

func (stubPaymentsService) SendInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	return &models.Invoice{ID: invoiceID}, nil
}

func (stubPaymentsService) GetInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	return &models.Invoice{ID: invoiceID}, nil
}

func (stubPaymentsService) ListInvoices(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Invoice, *types.Pagination, error) {
	return nil, params.Envelope(0), nil
}

func (stubPaymentsService) InvoicePDF(ctx context.Context, userID, invoiceID uuid.UUID) ([]byte, *models.Invoice, error) {
	return []byte("%PDF-1.4"), &models.Invoice{ID: invoiceID, Number: "INV-2026-00001"}, nil
}

func (stubPaymentsService) ReceiptPDF(ctx context.Context, userID, paymentID uuid.UUID) ([]byte, *models.Payment, error) {
	return []byte("%PDF-1.4"), &models.Payment{ID: paymentID, StripePaymentIntentID: "pi_test"}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) (*models.Notification, error) {
	return &models.Notification{}, nil
}

func (stubNotificationsService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) ([]models.Notification, *types.Pagination, error) {
	return nil, params.Envelope(0), nil
}

func (stubNotificationsService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, id, callerID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, callerID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:               cfg,
		Logger:               logg,
		DB:                   stubPinger{},
		Sessions:             stubSessionChecker{},
		AuthService:          stubAuthService{},
		UsersService:         stubUsersService{},
		PostsService:         stubPostsService{},
		OrdersService:        stubOrdersService{},
		PaymentsService:      stubPaymentsService{},
		NotificationsService: stubNotificationsService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "maria@example.com",
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live got %d", resp.Code)
	}
}

func TestHealthReady(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ready got %d", resp.Code)
	}
}

func TestProtectedRoutesRequireJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodGet, "/api/v1/feed"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/payments"},
		{http.MethodGet, "/api/v1/invoices"},
		{http.MethodGet, "/api/v1/notifications"},
	}
	for _, tc := range paths {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s %s got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestProtectedRoutesSucceedWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg)
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodGet, "/api/v1/feed"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/membership"},
		{http.MethodGet, "/api/v1/notifications/unread-count"},
	}
	for _, tc := range paths {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s %s got %d (%s)", tc.method, tc.path, resp.Code, resp.Body.String())
		}
	}
}

func TestInvoicePDFStreamsAttachment(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+uuid.NewString()+"/pdf", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for invoice pdf got %d (%s)", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected pdf content type got %q", ct)
	}
	if !strings.HasPrefix(resp.Body.String(), "%PDF") {
		t.Fatalf("expected pdf payload, got %q", resp.Body.String())
	}
}

func TestRegisterRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

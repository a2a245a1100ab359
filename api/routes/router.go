package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miguelserrato/tapiceros-backend/api/controllers"
	webhookcontrollers "github.com/miguelserrato/tapiceros-backend/api/controllers/webhooks"
	"github.com/miguelserrato/tapiceros-backend/api/middleware"
	"github.com/miguelserrato/tapiceros-backend/internal/auth"
	"github.com/miguelserrato/tapiceros-backend/internal/notifications"
	"github.com/miguelserrato/tapiceros-backend/internal/orders"
	"github.com/miguelserrato/tapiceros-backend/internal/payments"
	"github.com/miguelserrato/tapiceros-backend/internal/posts"
	"github.com/miguelserrato/tapiceros-backend/internal/users"
	stripewebhook "github.com/miguelserrato/tapiceros-backend/internal/webhooks/stripe"
	pkgauth "github.com/miguelserrato/tapiceros-backend/pkg/auth"
	"github.com/miguelserrato/tapiceros-backend/pkg/auth/session"
	"github.com/miguelserrato/tapiceros-backend/pkg/config"
	"github.com/miguelserrato/tapiceros-backend/pkg/db"
	"github.com/miguelserrato/tapiceros-backend/pkg/logger"
	"github.com/miguelserrato/tapiceros-backend/pkg/metrics"
	"github.com/miguelserrato/tapiceros-backend/pkg/redis"
	"github.com/miguelserrato/tapiceros-backend/pkg/stripe"
)

// RouterParams collects everything the HTTP surface depends on.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker

	AuthService          auth.Service
	UsersService         users.Service
	PostsService         posts.Service
	OrdersService        orders.Service
	PaymentsService      payments.Service
	NotificationsService notifications.Service

	StripeClient       *stripe.Client
	StripeWebhookSvc   *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
	HTTPMetrics        *metrics.HTTPMetrics
	WebhookMetrics     *metrics.WebhookMetrics
	MetricsGatherer    prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(),
	)

	var cache interface {
		Ping(ctx context.Context) error
	}
	if p.Redis != nil {
		cache = p.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, cache, logg))
	})

	if p.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhookSvc, p.StripeClient, p.StripeWebhookGuard, p.WebhookMetrics, logg))
	})

	accessIDParser := func(token string) (string, error) {
		claims, err := pkgauth.ParseAccessToken(cfg.JWT, token)
		if err != nil {
			return "", err
		}
		return claims.ID, nil
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.Register(p.AuthService, logg))
		r.Post("/login", controllers.Login(p.AuthService, logg))
		r.Post("/refresh", controllers.Refresh(p.AuthService, logg))
		r.Post("/logout", controllers.Logout(p.AuthService, accessIDParser, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.ListUsers(p.UsersService, logg))
			r.Get("/me", controllers.Me(p.UsersService, logg))
			r.Put("/me", controllers.UpdateMe(p.UsersService, logg))
			r.Post("/me/device-token", controllers.RegisterDeviceToken(p.UsersService, logg))
			r.Get("/{userID}", controllers.GetUser(p.UsersService, logg))
			r.Get("/{userID}/posts", controllers.UserPosts(p.PostsService, logg))
		})

		r.Get("/feed", controllers.Feed(p.PostsService, logg))
		r.Route("/posts", func(r chi.Router) {
			r.Post("/", controllers.CreatePost(p.PostsService, logg))
			r.Get("/{postID}", controllers.GetPost(p.PostsService, logg))
			r.Put("/{postID}", controllers.UpdatePost(p.PostsService, logg))
			r.Delete("/{postID}", controllers.DeletePost(p.PostsService, logg))
			r.Get("/{postID}/comments", controllers.ListComments(p.PostsService, logg))
			r.Post("/{postID}/comments", controllers.CreateComment(p.PostsService, logg))
			r.Delete("/{postID}/comments/{commentID}", controllers.DeleteComment(p.PostsService, logg))
			r.Post("/{postID}/like", controllers.LikePost(p.PostsService, logg))
			r.Delete("/{postID}/like", controllers.UnlikePost(p.PostsService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(p.OrdersService, logg))
			r.Get("/", controllers.ListOrders(p.OrdersService, logg))
			r.Get("/{orderID}", controllers.GetOrder(p.OrdersService, logg))
			r.Put("/{orderID}", controllers.UpdateOrder(p.OrdersService, logg))
			r.Patch("/{orderID}/status", controllers.UpdateOrderStatus(p.OrdersService, logg))
			r.Delete("/{orderID}", controllers.DeleteOrder(p.OrdersService, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/checkout", controllers.CreateCheckout(p.PaymentsService, logg))
			r.Get("/", controllers.ListPayments(p.PaymentsService, logg))
			r.Get("/{paymentID}/receipt", controllers.DownloadReceiptPDF(p.PaymentsService, logg))
		})

		r.Route("/membership", func(r chi.Router) {
			r.Get("/", controllers.GetMembership(p.PaymentsService, logg))
			r.Post("/subscribe", controllers.Subscribe(p.PaymentsService, logg))
			r.Post("/cancel", controllers.CancelSubscription(p.PaymentsService, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", controllers.CreateInvoice(p.PaymentsService, logg))
			r.Get("/", controllers.ListInvoices(p.PaymentsService, logg))
			r.Get("/{invoiceID}", controllers.GetInvoice(p.PaymentsService, logg))
			r.Post("/{invoiceID}/send", controllers.SendInvoice(p.PaymentsService, logg))
			r.Get("/{invoiceID}/pdf", controllers.DownloadInvoicePDF(p.PaymentsService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.NotificationsService, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(p.NotificationsService, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(p.NotificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.NotificationsService, logg))
		})
	})

	return r
}

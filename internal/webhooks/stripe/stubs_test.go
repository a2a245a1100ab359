package stripewebhook

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/miguelserrato/tapiceros-backend/internal/payments"
	"github.com/miguelserrato/tapiceros-backend/pkg/db/models"
	"github.com/miguelserrato/tapiceros-backend/pkg/enums"
)

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type sentNotification struct {
	userID uuid.UUID
	kind   enums.NotificationType
	title  string
}

type stubNotifier struct {
	sent []sentNotification
	err  error
}

func (s *stubNotifier) Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) (*models.Notification, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, sentNotification{userID: userID, kind: kind, title: title})
	return &models.Notification{UserID: userID, Type: kind, Title: title, Message: message}, nil
}

type stubPaymentsRepo struct {
	paymentsByIntent   map[string]*models.Payment
	invoicesByStripeID map[string]*models.Invoice
	membershipsBySubID map[string]*models.Membership

	createdPayments    []*models.Payment
	updatedInvoices    []*models.Invoice
	createdMemberships []*models.Membership
	updatedMemberships []*models.Membership
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) payments.Repository {
	return s
}

func (s *stubPaymentsRepo) CreatePayment(ctx context.Context, payment *models.Payment) error {
	s.createdPayments = append(s.createdPayments, payment)
	return nil
}

func (s *stubPaymentsRepo) FindPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) FindPaymentByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	if payment, ok := s.paymentsByIntent[intentID]; ok {
		return payment, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) ListPaymentsByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Payment, int64, error) {
	return nil, 0, nil
}

func (s *stubPaymentsRepo) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return nil
}

func (s *stubPaymentsRepo) FindInvoiceByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) FindInvoiceByStripeID(ctx context.Context, stripeInvoiceID string) (*models.Invoice, error) {
	if invoice, ok := s.invoicesByStripeID[stripeInvoiceID]; ok {
		return invoice, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) UpdateInvoice(ctx context.Context, invoice *models.Invoice) error {
	s.updatedInvoices = append(s.updatedInvoices, invoice)
	return nil
}

func (s *stubPaymentsRepo) ListInvoicesByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Invoice, int64, error) {
	return nil, 0, nil
}

func (s *stubPaymentsRepo) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	return "INV-0000-00000", nil
}

func (s *stubPaymentsRepo) CreateMembership(ctx context.Context, membership *models.Membership) error {
	s.createdMemberships = append(s.createdMemberships, membership)
	return nil
}

func (s *stubPaymentsRepo) FindMembershipBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Membership, error) {
	if membership, ok := s.membershipsBySubID[subscriptionID]; ok {
		return membership, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) FindActiveMembershipByUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) UpdateMembership(ctx context.Context, membership *models.Membership) error {
	s.updatedMemberships = append(s.updatedMemberships, membership)
	return nil
}

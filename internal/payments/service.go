package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/miguelserrato/tapiceros-backend/pkg/config"
	"github.com/miguelserrato/tapiceros-backend/pkg/db"
	"github.com/miguelserrato/tapiceros-backend/pkg/db/models"
	"github.com/miguelserrato/tapiceros-backend/pkg/enums"
	pkgerrors "github.com/miguelserrato/tapiceros-backend/pkg/errors"
	"github.com/miguelserrato/tapiceros-backend/pkg/pagination"
	"github.com/miguelserrato/tapiceros-backend/pkg/pdf"
	pkgstripe "github.com/miguelserrato/tapiceros-backend/pkg/stripe"
	"github.com/miguelserrato/tapiceros-backend/pkg/types"
)

// Service defines the payment, membership, and invoicing operations.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResponse, error)
	ListPayments(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Payment, *types.Pagination, error)

	Subscribe(ctx context.Context, userID uuid.UUID) (*CheckoutResponse, error)
	CancelSubscription(ctx context.Context, userID uuid.UUID) error
	Membership(ctx context.Context, userID uuid.UUID) (*models.Membership, error)

	CreateInvoice(ctx context.Context, userID uuid.UUID, input CreateInvoiceInput) (*models.Invoice, error)
	SendInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error)
	GetInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Invoice, *types.Pagination, error)
	InvoicePDF(ctx context.Context, userID, invoiceID uuid.UUID) ([]byte, *models.Invoice, error)
	ReceiptPDF(ctx context.Context, userID, paymentID uuid.UUID) ([]byte, *models.Payment, error)
}

type gateway interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreateCheckoutSession(ctx context.Context, in pkgstripe.CheckoutSessionInput) (*pkgstripe.CheckoutSession, error)
	CreateSubscriptionSession(ctx context.Context, in pkgstripe.SubscriptionSessionInput) (*pkgstripe.CheckoutSession, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	CreateInvoice(ctx context.Context, in pkgstripe.InvoiceInput) (string, error)
	SendInvoice(ctx context.Context, invoiceID string) error
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type orderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type service struct {
	repo      Repository
	gateway   gateway
	users     userStore
	orders    orderStore
	stripeCfg config.StripeConfig
	now       func() time.Time
}

// ServiceParams bundles the dependencies for the payments service.
type ServiceParams struct {
	Repo         Repository
	Gateway      gateway
	Users        userStore
	Orders       orderStore
	StripeConfig config.StripeConfig
}

// NewService wires the payments service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repository required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user store required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order store required")
	}
	return &service{
		repo:      params.Repo,
		gateway:   params.Gateway,
		users:     params.Users,
		orders:    params.Orders,
		stripeCfg: params.StripeConfig,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResponse, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	currency := enums.CurrencyEUR
	if input.Currency != "" {
		parsed, err := enums.ParseCurrency(input.Currency)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
		}
		currency = parsed
	}

	metadata := map[string]string{"user_id": userID.String()}
	if input.OrderID != nil {
		order, err := s.orders.FindByID(ctx, *input.OrderID)
		if err != nil {
			return nil, db.Translate(err, "load order")
		}
		if order.OwnerID != userID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		metadata["order_id"] = order.ID.String()
	}

	customerID, err := s.ensureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, pkgstripe.CheckoutSessionInput{
		CustomerID:  customerID,
		AmountCents: amountCents(input.Amount),
		Currency:    currency.String(),
		Description: strings.TrimSpace(input.Description),
		SuccessURL:  s.stripeCfg.SuccessURL,
		CancelURL:   s.stripeCfg.CancelURL,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return &CheckoutResponse{SessionID: session.ID, URL: session.URL}, nil
}

func (s *service) ListPayments(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Payment, *types.Pagination, error) {
	params = params.Normalize(20, 100)
	rows, total, err := s.repo.ListPaymentsByUser(ctx, userID, params.Offset(), params.Limit)
	if err != nil {
		return nil, nil, db.Translate(err, "list payments")
	}
	return rows, params.Envelope(total), nil
}

func (s *service) Subscribe(ctx context.Context, userID uuid.UUID) (*CheckoutResponse, error) {
	if s.stripeCfg.PremiumPriceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscription price not configured")
	}

	if _, err := s.repo.FindActiveMembershipByUser(ctx, userID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an active membership already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, db.Translate(err, "load membership")
	}

	customerID, err := s.ensureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateSubscriptionSession(ctx, pkgstripe.SubscriptionSessionInput{
		CustomerID: customerID,
		PriceID:    s.stripeCfg.PremiumPriceID,
		SuccessURL: s.stripeCfg.SuccessURL,
		CancelURL:  s.stripeCfg.CancelURL,
		Metadata: map[string]string{
			"user_id":         userID.String(),
			"membership_type": enums.MembershipTypePremium.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription session")
	}
	return &CheckoutResponse{SessionID: session.ID, URL: session.URL}, nil
}

// CancelSubscription asks the processor to cancel. Local membership state is
// settled by the webhook reconciler when the cancellation event arrives.
func (s *service) CancelSubscription(ctx context.Context, userID uuid.UUID) error {
	membership, err := s.Membership(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.gateway.CancelSubscription(ctx, membership.StripeSubscriptionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
	}
	return nil
}

func (s *service) Membership(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	membership, err := s.repo.FindActiveMembershipByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active membership")
		}
		return nil, db.Translate(err, "load membership")
	}
	return membership, nil
}

func (s *service) CreateInvoice(ctx context.Context, userID uuid.UUID, input CreateInvoiceInput) (*models.Invoice, error) {
	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, db.Translate(err, "load order")
	}
	if order.OwnerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Amount == nil || !order.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no billable amount")
	}

	number, err := s.repo.NextInvoiceNumber(ctx, s.now().Year())
	if err != nil {
		return nil, db.Translate(err, "allocate invoice number")
	}

	invoice := &models.Invoice{
		Number:   number,
		OrderID:  order.ID,
		UserID:   userID,
		Amount:   *order.Amount,
		Currency: order.Currency,
		Status:   enums.InvoiceStatusDraft,
	}
	if err := s.repo.CreateInvoice(ctx, invoice); err != nil {
		return nil, db.Translate(err, "create invoice")
	}
	return invoice, nil
}

func (s *service) SendInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.Status.CanTransitionTo(enums.InvoiceStatusSent) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("invoice in status %s cannot be sent", invoice.Status))
	}

	order, err := s.orders.FindByID(ctx, invoice.OrderID)
	if err != nil {
		return nil, db.Translate(err, "load order")
	}

	customerID, err := s.ensureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	stripeInvoiceID, err := s.gateway.CreateInvoice(ctx, pkgstripe.InvoiceInput{
		CustomerID:  customerID,
		AmountCents: amountCents(invoice.Amount),
		Currency:    invoice.Currency.String(),
		Description: order.Title,
		Metadata: map[string]string{
			"user_id":        userID.String(),
			"invoice_number": invoice.Number,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create processor invoice")
	}
	if err := s.gateway.SendInvoice(ctx, stripeInvoiceID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send processor invoice")
	}

	now := s.now()
	invoice.Status = enums.InvoiceStatusSent
	invoice.StripeInvoiceID = &stripeInvoiceID
	invoice.IssuedAt = &now
	if err := s.repo.UpdateInvoice(ctx, invoice); err != nil {
		return nil, db.Translate(err, "update invoice")
	}
	return invoice, nil
}

func (s *service) GetInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, db.Translate(err, "load invoice")
	}
	if invoice.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return invoice, nil
}

func (s *service) ListInvoices(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Invoice, *types.Pagination, error) {
	params = params.Normalize(20, 100)
	rows, total, err := s.repo.ListInvoicesByUser(ctx, userID, params.Offset(), params.Limit)
	if err != nil {
		return nil, nil, db.Translate(err, "list invoices")
	}
	return rows, params.Envelope(total), nil
}

func (s *service) InvoicePDF(ctx context.Context, userID, invoiceID uuid.UUID) ([]byte, *models.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, userID, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orders.FindByID(ctx, invoice.OrderID)
	if err != nil {
		return nil, nil, db.Translate(err, "load order")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, db.Translate(err, "load user")
	}

	businessName := user.FirstName + " " + user.LastName
	if user.CompanyName != nil && *user.CompanyName != "" {
		businessName = *user.CompanyName
	}

	issuedAt := invoice.CreatedAt
	if invoice.IssuedAt != nil {
		issuedAt = *invoice.IssuedAt
	}
	description := order.Title
	if order.Description != nil && *order.Description != "" {
		description = *order.Description
	}

	bytes, err := pdf.RenderInvoice(pdf.InvoiceDoc{
		Number:       invoice.Number,
		IssuedAt:     issuedAt,
		BusinessName: businessName,
		ClientName:   order.ClientName,
		OrderTitle:   order.Title,
		Description:  description,
		Amount:       invoice.Amount,
		Currency:     strings.ToUpper(invoice.Currency.String()),
		Paid:         invoice.Status == enums.InvoiceStatusPaid,
		PaidAt:       invoice.PaidAt,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice pdf")
	}
	return bytes, invoice, nil
}

func (s *service) ReceiptPDF(ctx context.Context, userID, paymentID uuid.UUID) ([]byte, *models.Payment, error) {
	payment, err := s.repo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, nil, db.Translate(err, "payment not found")
	}
	if payment.UserID != userID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	if payment.Status != enums.PaymentStatusCompleted {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt requires a completed payment")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, db.Translate(err, "load user")
	}
	payerName := user.FirstName + " " + user.LastName
	if user.CompanyName != nil && *user.CompanyName != "" {
		payerName = *user.CompanyName
	}

	description := ""
	if payment.Description != nil {
		description = *payment.Description
	}
	if payment.OrderID != nil {
		if order, err := s.orders.FindByID(ctx, *payment.OrderID); err == nil {
			description = order.Title
		}
	}

	bytes, err := pdf.RenderReceipt(pdf.ReceiptDoc{
		PaymentRef:   payment.StripePaymentIntentID,
		PaidAt:       payment.CreatedAt,
		BusinessName: "Tapiceros",
		PayerName:    payerName,
		Amount:       payment.Amount,
		Currency:     strings.ToUpper(payment.Currency.String()),
		Description:  description,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render receipt pdf")
	}
	return bytes, payment, nil
}

func (s *service) ensureCustomer(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", db.Translate(err, "load user")
	}
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, user.Email, user.FirstName+" "+user.LastName)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create processor customer")
	}
	user.StripeCustomerID = &customerID
	if err := s.users.Update(ctx, user); err != nil {
		return "", db.Translate(err, "save customer reference")
	}
	return customerID, nil
}

func amountCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

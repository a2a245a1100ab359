package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/miguelserrato/tapiceros-backend/internal/payments"
	"github.com/miguelserrato/tapiceros-backend/pkg/db/models"
	"github.com/miguelserrato/tapiceros-backend/pkg/enums"
	pkgerrors "github.com/miguelserrato/tapiceros-backend/pkg/errors"
	"github.com/miguelserrato/tapiceros-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) (*models.Notification, error)
}

// ServiceParams bundles the reconciler dependencies.
type ServiceParams struct {
	PaymentsRepo      payments.Repository
	Notifier          notifier
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Service folds verified Stripe events into local payment, invoice, and
// membership state. Every handler is idempotent with respect to the processor
// reference it carries, so redeliveries of distinct event IDs still cannot
// double-book.
type Service struct {
	payments payments.Repository
	notify   notifier
	txRunner txRunner
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.PaymentsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		payments: params.PaymentsRepo,
		notify:   params.Notifier,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Handled reports whether HandleEvent folds this event type into local state.
func Handled(eventType stripe.EventType) bool {
	switch eventType {
	case stripe.EventTypePaymentIntentSucceeded,
		stripe.EventTypeInvoicePaymentSucceeded,
		stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		return true
	default:
		return false
	}
}

// HandleEvent dispatches a verified event. Unrecognized event types are
// acknowledged without side effects.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	ctx = s.logg.WithEventType(ctx, string(event.Type))

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		return s.recordPayment(ctx, &intent)
	case stripe.EventTypeInvoicePaymentSucceeded:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode invoice event")
		}
		return s.settleInvoice(ctx, &invoice)
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		var subscription stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode subscription event")
		}
		return s.syncMembership(ctx, event.Type, &subscription)
	default:
		s.logg.Info(ctx, fmt.Sprintf("ignoring stripe event type %s", event.Type))
		return nil
	}
}

// recordPayment books a completed charge exactly once per payment intent.
func (s *Service) recordPayment(ctx context.Context, intent *stripe.PaymentIntent) error {
	if intent == nil || intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	userID, err := userIDFromMetadata(intent.Metadata)
	if err != nil {
		return err
	}

	currency, err := enums.ParseCurrency(string(intent.Currency))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unsupported currency %q", intent.Currency))
	}

	payment := &models.Payment{
		UserID:                userID,
		Amount:                decimal.NewFromInt(intent.Amount).Div(decimal.NewFromInt(100)),
		Currency:              currency,
		Status:                enums.PaymentStatusCompleted,
		StripePaymentIntentID: intent.ID,
	}
	if intent.Description != "" {
		description := intent.Description
		payment.Description = &description
	}
	if raw, ok := intent.Metadata["order_id"]; ok {
		if orderID, parseErr := uuid.Parse(raw); parseErr == nil {
			payment.OrderID = &orderID
		}
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.payments.WithTx(tx)
		if _, findErr := repo.FindPaymentByIntentID(ctx, intent.ID); findErr == nil {
			// Same charge arriving under a fresh event ID. Ack, do not
			// book again.
			return nil
		} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "lookup payment")
		}
		if createErr := repo.CreatePayment(ctx, payment); createErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create payment")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.sendNotification(ctx, userID, enums.NotificationTypePayment,
		"Payment received",
		fmt.Sprintf("Your payment of %s %s was processed.", payment.Amount.StringFixed(2), currency))
	return nil
}

// settleInvoice marks the local invoice paid. Invoices unknown locally are
// acknowledged without effect: the processor also bills subscriptions through
// invoices and those have no local row.
func (s *Service) settleInvoice(ctx context.Context, invoice *stripe.Invoice) error {
	if invoice == nil || invoice.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}

	var paidUser *uuid.UUID
	var number string
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.payments.WithTx(tx)
		stored, findErr := repo.FindInvoiceByStripeID(ctx, invoice.ID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				s.logg.Info(ctx, fmt.Sprintf("stripe invoice %s has no local record", invoice.ID))
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "lookup invoice")
		}
		if stored.Status == enums.InvoiceStatusPaid {
			return nil
		}
		if !stored.Status.CanTransitionTo(enums.InvoiceStatusPaid) {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("invoice %s cannot move from %s to paid", stored.Number, stored.Status))
		}

		now := s.now()
		stored.Status = enums.InvoiceStatusPaid
		stored.PaidAt = &now
		if updateErr := repo.UpdateInvoice(ctx, stored); updateErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, updateErr, "update invoice")
		}
		userID := stored.UserID
		paidUser = &userID
		number = stored.Number
		return nil
	})
	if err != nil {
		return err
	}

	if paidUser != nil {
		s.sendNotification(ctx, *paidUser, enums.NotificationTypePayment,
			"Invoice paid",
			fmt.Sprintf("Invoice %s has been paid.", number))
	}
	return nil
}

// syncMembership upserts the local membership row from the subscription state.
func (s *Service) syncMembership(ctx context.Context, eventType stripe.EventType, subscription *stripe.Subscription) error {
	if subscription == nil || subscription.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id required")
	}

	status := membershipStatusFor(eventType, subscription.Status)
	var notifyUser *uuid.UUID

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.payments.WithTx(tx)
		stored, findErr := repo.FindMembershipBySubscriptionID(ctx, subscription.ID)
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "lookup membership")
		}

		if stored == nil {
			if eventType != stripe.EventTypeCustomerSubscriptionCreated {
				// State change for a membership we never saw. Nothing to fold.
				return nil
			}
			userID, metaErr := userIDFromMetadata(subscription.Metadata)
			if metaErr != nil {
				return metaErr
			}
			membershipType, metaErr := membershipTypeFromMetadata(subscription.Metadata)
			if metaErr != nil {
				return metaErr
			}
			membership := &models.Membership{
				UserID:               userID,
				Type:                 membershipType,
				Status:               status,
				StripeSubscriptionID: subscription.ID,
				StripePriceID:        priceIDFor(subscription),
			}
			if status == enums.MembershipStatusCancelled {
				now := s.now()
				membership.EndsAt = &now
			}
			if createErr := repo.CreateMembership(ctx, membership); createErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create membership")
			}
			notifyUser = &userID
			return nil
		}

		if stored.Status == status {
			return nil
		}
		stored.Status = status
		if priceID := priceIDFor(subscription); priceID != "" {
			stored.StripePriceID = priceID
		}
		switch status {
		case enums.MembershipStatusActive:
			stored.EndsAt = nil
		case enums.MembershipStatusCancelled:
			if stored.EndsAt == nil {
				now := s.now()
				stored.EndsAt = &now
			}
		}
		if updateErr := repo.UpdateMembership(ctx, stored); updateErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, updateErr, "update membership")
		}
		userID := stored.UserID
		notifyUser = &userID
		return nil
	})
	if err != nil {
		return err
	}

	if notifyUser != nil {
		title, message := membershipNotification(status)
		s.sendNotification(ctx, *notifyUser, enums.NotificationTypeMembership, title, message)
	}
	return nil
}

// sendNotification is fire and forget: a notification failure never fails the
// event, the financial write already happened.
func (s *Service) sendNotification(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) {
	if s.notify == nil {
		return
	}
	if _, err := s.notify.Notify(ctx, userID, kind, title, message); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "webhook notification")
	}
}

func userIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	raw, ok := metadata["user_id"]
	if !ok || raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "metadata user_id missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "metadata user_id malformed")
	}
	return userID, nil
}

func membershipTypeFromMetadata(metadata map[string]string) (enums.MembershipType, error) {
	raw, ok := metadata["membership_type"]
	if !ok || raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "metadata membership_type missing")
	}
	parsed, err := enums.ParseMembershipType(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "metadata membership_type invalid")
	}
	return parsed, nil
}

// membershipStatusFor folds processor subscription state onto the local
// status. Only "active" keeps a membership active; every other processor
// status (past_due, paused, unpaid, ...) cancels it.
func membershipStatusFor(eventType stripe.EventType, status stripe.SubscriptionStatus) enums.MembershipStatus {
	switch eventType {
	case stripe.EventTypeCustomerSubscriptionDeleted:
		return enums.MembershipStatusCancelled
	case stripe.EventTypeCustomerSubscriptionCreated:
		return enums.MembershipStatusActive
	}
	if status == stripe.SubscriptionStatusActive {
		return enums.MembershipStatusActive
	}
	return enums.MembershipStatusCancelled
}

func priceIDFor(subscription *stripe.Subscription) string {
	if subscription.Items == nil {
		return ""
	}
	for _, item := range subscription.Items.Data {
		if item != nil && item.Price != nil {
			return item.Price.ID
		}
	}
	return ""
}

func membershipNotification(status enums.MembershipStatus) (string, string) {
	if status == enums.MembershipStatusCancelled {
		return "Membership cancelled", "Your membership has been cancelled."
	}
	return "Membership active", "Your membership is now active."
}

package stripewebhook

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v84"

	"github.com/miguelserrato/tapiceros-backend/internal/payments"
	"github.com/miguelserrato/tapiceros-backend/pkg/db/models"
	"github.com/miguelserrato/tapiceros-backend/pkg/enums"
	pkgerrors "github.com/miguelserrato/tapiceros-backend/pkg/errors"
	"github.com/miguelserrato/tapiceros-backend/pkg/logger"
)

func newTestService(t *testing.T, repo payments.Repository, notify notifier) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		PaymentsRepo:      repo,
		Notifier:          notify,
		TransactionRunner: &stubTxRunner{},
		Logger:            logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return service
}

func paymentIntentEvent(t *testing.T, intent *stripe.PaymentIntent) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: stripe.EventTypePaymentIntentSucceeded,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestService_PaymentIntentSucceededCreatesPayment(t *testing.T) {
	userID := uuid.New()
	repo := &stubPaymentsRepo{}
	notify := &stubNotifier{}
	service := newTestService(t, repo, notify)

	event := paymentIntentEvent(t, &stripe.PaymentIntent{
		ID:       "pi_test",
		Amount:   12550,
		Currency: "eur",
		Metadata: map[string]string{"user_id": userID.String()},
	})

	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(repo.createdPayments) != 1 {
		t.Fatalf("expected one payment, got %d", len(repo.createdPayments))
	}
	payment := repo.createdPayments[0]
	if payment.UserID != userID {
		t.Fatalf("payment user mismatch")
	}
	if payment.Amount.StringFixed(2) != "125.50" {
		t.Fatalf("expected amount 125.50, got %s", payment.Amount.StringFixed(2))
	}
	if payment.Status != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed status, got %s", payment.Status)
	}
	if payment.StripePaymentIntentID != "pi_test" {
		t.Fatalf("intent id mismatch")
	}
	if len(notify.sent) != 1 || notify.sent[0].kind != enums.NotificationTypePayment {
		t.Fatalf("expected one payment notification")
	}
}

func TestService_PaymentIntentMissingUserIDFails(t *testing.T) {
	repo := &stubPaymentsRepo{}
	service := newTestService(t, repo, nil)

	event := paymentIntentEvent(t, &stripe.PaymentIntent{
		ID:       "pi_orphan",
		Amount:   500,
		Currency: "eur",
	})

	err := service.HandleEvent(context.Background(), event)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.createdPayments) != 0 {
		t.Fatalf("no payment should be booked")
	}
}

func TestService_PaymentIntentReplayDoesNotDoubleBook(t *testing.T) {
	userID := uuid.New()
	repo := &stubPaymentsRepo{
		paymentsByIntent: map[string]*models.Payment{
			"pi_seen": {StripePaymentIntentID: "pi_seen", UserID: userID},
		},
	}
	notify := &stubNotifier{}
	service := newTestService(t, repo, notify)

	event := paymentIntentEvent(t, &stripe.PaymentIntent{
		ID:       "pi_seen",
		Amount:   1000,
		Currency: "eur",
		Metadata: map[string]string{"user_id": userID.String()},
	})

	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(repo.createdPayments) != 0 {
		t.Fatalf("replayed charge must not create a second payment")
	}
}

func TestService_InvoicePaymentSucceededMarksPaid(t *testing.T) {
	userID := uuid.New()
	stripeID := "in_test"
	invoice := &models.Invoice{
		ID:              uuid.New(),
		Number:          "INV-2026-00001",
		UserID:          userID,
		Status:          enums.InvoiceStatusSent,
		StripeInvoiceID: &stripeID,
	}
	repo := &stubPaymentsRepo{invoicesByStripeID: map[string]*models.Invoice{stripeID: invoice}}
	notify := &stubNotifier{}
	service := newTestService(t, repo, notify)

	raw, _ := json.Marshal(&stripe.Invoice{ID: stripeID})
	event := &stripe.Event{
		ID:   "evt_invoice",
		Type: stripe.EventTypeInvoicePaymentSucceeded,
		Data: &stripe.EventData{Raw: raw},
	}

	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if invoice.Status != enums.InvoiceStatusPaid {
		t.Fatalf("expected paid status, got %s", invoice.Status)
	}
	if invoice.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}
	if len(notify.sent) != 1 {
		t.Fatalf("expected one notification")
	}
}

func TestService_InvoiceUnknownLocallyIsNoOp(t *testing.T) {
	repo := &stubPaymentsRepo{}
	service := newTestService(t, repo, &stubNotifier{})

	raw, _ := json.Marshal(&stripe.Invoice{ID: "in_subscription_cycle"})
	event := &stripe.Event{
		ID:   "evt_unknown_invoice",
		Type: stripe.EventTypeInvoicePaymentSucceeded,
		Data: &stripe.EventData{Raw: raw},
	}

	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown invoice must ack cleanly: %v", err)
	}
	if len(repo.updatedInvoices) != 0 {
		t.Fatalf("no invoice should change")
	}
}

func TestService_SubscriptionCreatedCreatesMembership(t *testing.T) {
	userID := uuid.New()
	repo := &stubPaymentsRepo{}
	notify := &stubNotifier{}
	service := newTestService(t, repo, notify)

	subscription := &stripe.Subscription{
		ID:     "sub_test",
		Status: stripe.SubscriptionStatusActive,
		Metadata: map[string]string{
			"user_id":         userID.String(),
			"membership_type": "premium",
		},
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{Price: &stripe.Price{ID: "price_premium"}}},
		},
	}
	raw, _ := json.Marshal(subscription)
	event := &stripe.Event{
		ID:   "evt_sub_created",
		Type: stripe.EventTypeCustomerSubscriptionCreated,
		Data: &stripe.EventData{Raw: raw},
	}

	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(repo.createdMemberships) != 1 {
		t.Fatalf("expected one membership, got %d", len(repo.createdMemberships))
	}
	membership := repo.createdMemberships[0]
	if membership.UserID != userID {
		t.Fatalf("membership user mismatch")
	}
	if membership.Status != enums.MembershipStatusActive {
		t.Fatalf("expected active status, got %s", membership.Status)
	}
	if membership.Type != enums.MembershipTypePremium {
		t.Fatalf("expected premium type, got %s", membership.Type)
	}
	if membership.StripePriceID != "price_premium" {
		t.Fatalf("price id mismatch")
	}
}

func TestService_SubscriptionCreatedMissingTypeFails(t *testing.T) {
	repo := &stubPaymentsRepo{}
	service := newTestService(t, repo, &stubNotifier{})

	subscription := &stripe.Subscription{
		ID:       "sub_untyped",
		Status:   stripe.SubscriptionStatusActive,
		Metadata: map[string]string{"user_id": uuid.NewString()},
	}
	raw, _ := json.Marshal(subscription)
	event := &stripe.Event{
		ID:   "evt_sub_untyped",
		Type: stripe.EventTypeCustomerSubscriptionCreated,
		Data: &stripe.EventData{Raw: raw},
	}

	err := service.HandleEvent(context.Background(), event)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing membership_type, got %v", err)
	}
	if len(repo.createdMemberships) != 0 {
		t.Fatalf("no membership may be written without a type")
	}
}

func TestService_SubscriptionUpdatedNonActiveStatusCancels(t *testing.T) {
	for _, status := range []stripe.SubscriptionStatus{
		stripe.SubscriptionStatusPastDue,
		stripe.SubscriptionStatusPaused,
		stripe.SubscriptionStatusIncomplete,
		stripe.SubscriptionStatusUnpaid,
	} {
		membership := &models.Membership{
			ID:                   uuid.New(),
			UserID:               uuid.New(),
			Status:               enums.MembershipStatusActive,
			StripeSubscriptionID: "sub_lapse",
		}
		repo := &stubPaymentsRepo{
			membershipsBySubID: map[string]*models.Membership{"sub_lapse": membership},
		}
		service := newTestService(t, repo, &stubNotifier{})

		raw, _ := json.Marshal(&stripe.Subscription{ID: "sub_lapse", Status: status})
		event := &stripe.Event{
			ID:   "evt_sub_" + string(status),
			Type: stripe.EventTypeCustomerSubscriptionUpdated,
			Data: &stripe.EventData{Raw: raw},
		}

		if err := service.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("status %s: handle event: %v", status, err)
		}
		if membership.Status != enums.MembershipStatusCancelled {
			t.Fatalf("status %s: expected cancelled membership, got %s", status, membership.Status)
		}
		if membership.EndsAt == nil {
			t.Fatalf("status %s: expected ends_at to be set", status)
		}
	}
}

func TestService_SubscriptionUpdatedUnknownIsNoOp(t *testing.T) {
	repo := &stubPaymentsRepo{}
	service := newTestService(t, repo, &stubNotifier{})

	raw, _ := json.Marshal(&stripe.Subscription{ID: "sub_never_seen", Status: stripe.SubscriptionStatusActive})
	event := &stripe.Event{
		ID:   "evt_sub_never_seen",
		Type: stripe.EventTypeCustomerSubscriptionUpdated,
		Data: &stripe.EventData{Raw: raw},
	}

	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("update for an untracked subscription must ack cleanly: %v", err)
	}
	if len(repo.createdMemberships) != 0 || len(repo.updatedMemberships) != 0 {
		t.Fatalf("no membership should be written")
	}
}

func TestService_SubscriptionUpdatedReactivationClearsEndsAt(t *testing.T) {
	endedAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	membership := &models.Membership{
		ID:                   uuid.New(),
		UserID:               uuid.New(),
		Status:               enums.MembershipStatusCancelled,
		StripeSubscriptionID: "sub_back",
		EndsAt:               &endedAt,
	}
	repo := &stubPaymentsRepo{
		membershipsBySubID: map[string]*models.Membership{"sub_back": membership},
	}
	service := newTestService(t, repo, &stubNotifier{})

	raw, _ := json.Marshal(&stripe.Subscription{ID: "sub_back", Status: stripe.SubscriptionStatusActive})
	event := &stripe.Event{
		ID:   "evt_sub_back",
		Type: stripe.EventTypeCustomerSubscriptionUpdated,
		Data: &stripe.EventData{Raw: raw},
	}

	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if membership.Status != enums.MembershipStatusActive {
		t.Fatalf("expected active membership, got %s", membership.Status)
	}
	if membership.EndsAt != nil {
		t.Fatalf("expected ends_at cleared on reactivation, still %v", membership.EndsAt)
	}
}

func TestService_SubscriptionDeletedCancelsMembership(t *testing.T) {
	userID := uuid.New()
	membership := &models.Membership{
		ID:                   uuid.New(),
		UserID:               userID,
		Status:               enums.MembershipStatusActive,
		StripeSubscriptionID: "sub_cancel",
	}
	repo := &stubPaymentsRepo{
		membershipsBySubID: map[string]*models.Membership{"sub_cancel": membership},
	}
	service := newTestService(t, repo, &stubNotifier{})

	raw, _ := json.Marshal(&stripe.Subscription{ID: "sub_cancel", Status: stripe.SubscriptionStatusCanceled})
	event := &stripe.Event{
		ID:   "evt_sub_deleted",
		Type: stripe.EventTypeCustomerSubscriptionDeleted,
		Data: &stripe.EventData{Raw: raw},
	}

	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if membership.Status != enums.MembershipStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", membership.Status)
	}
	if membership.EndsAt == nil {
		t.Fatalf("expected ends_at to be set")
	}
}

func TestService_SubscriptionDeletedUnknownIsNoOp(t *testing.T) {
	repo := &stubPaymentsRepo{}
	service := newTestService(t, repo, &stubNotifier{})

	raw, _ := json.Marshal(&stripe.Subscription{ID: "sub_ghost"})
	event := &stripe.Event{
		ID:   "evt_sub_ghost",
		Type: stripe.EventTypeCustomerSubscriptionDeleted,
		Data: &stripe.EventData{Raw: raw},
	}

	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown subscription cancellation must ack cleanly: %v", err)
	}
	if len(repo.createdMemberships) != 0 || len(repo.updatedMemberships) != 0 {
		t.Fatalf("no membership should change")
	}
}

func TestService_UnrecognizedEventTypeIsNoOp(t *testing.T) {
	repo := &stubPaymentsRepo{}
	service := newTestService(t, repo, &stubNotifier{})

	event := &stripe.Event{
		ID:   "evt_other",
		Type: stripe.EventType("charge.refunded"),
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	}

	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unrecognized event must ack cleanly: %v", err)
	}
	if len(repo.createdPayments) != 0 {
		t.Fatalf("no writes expected")
	}
}

package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/miguelserrato/tapiceros-backend/pkg/db"
	"github.com/miguelserrato/tapiceros-backend/pkg/db/models"
	"github.com/miguelserrato/tapiceros-backend/pkg/enums"
	pkgerrors "github.com/miguelserrato/tapiceros-backend/pkg/errors"
	"github.com/miguelserrato/tapiceros-backend/pkg/pagination"
	"github.com/miguelserrato/tapiceros-backend/pkg/types"
)

// Service defines the order management operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, id, callerID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, ownerID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Order, *types.Pagination, error)
	Update(ctx context.Context, id, callerID uuid.UUID, input UpdateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, id, callerID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	Delete(ctx context.Context, id, callerID uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the orders service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	clientName := strings.TrimSpace(input.ClientName)
	title := strings.TrimSpace(input.Title)
	if clientName == "" || title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name and title are required")
	}
	if input.Amount != nil && input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative")
	}

	currency := enums.CurrencyEUR
	if input.Currency != "" {
		parsed, err := enums.ParseCurrency(input.Currency)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
		}
		currency = parsed
	}

	order := &models.Order{
		OwnerID:     ownerID,
		ClientName:  clientName,
		Title:       title,
		Description: input.Description,
		Status:      enums.OrderStatusPending,
		Amount:      input.Amount,
		Currency:    currency,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, db.Translate(err, "create order")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, id, callerID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "load order")
	}
	if order.OwnerID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID, filter ListFilter, params pagination.Params) ([]models.Order, *types.Pagination, error) {
	params = params.Normalize(20, 100)
	rows, total, err := s.repo.ListByOwner(ctx, ownerID, filter, params.Offset(), params.Limit)
	if err != nil {
		return nil, nil, db.Translate(err, "list orders")
	}
	return rows, params.Envelope(total), nil
}

func (s *service) Update(ctx context.Context, id, callerID uuid.UUID, input UpdateOrderInput) (*models.Order, error) {
	order, err := s.Get(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if input.ClientName != nil {
		name := strings.TrimSpace(*input.ClientName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "client name cannot be empty")
		}
		order.ClientName = name
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		order.Title = title
	}
	if input.Description != nil {
		order.Description = input.Description
	}
	if input.Amount != nil {
		if input.Amount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative")
		}
		order.Amount = input.Amount
	}
	if input.Currency != nil {
		parsed, err := enums.ParseCurrency(*input.Currency)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
		}
		order.Currency = parsed
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, db.Translate(err, "update order")
	}
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, id, callerID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.Get(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	// completed_at records the first completion only. Reopening and
	// re-completing an order keeps the original timestamp.
	if status == enums.OrderStatusCompleted && order.CompletedAt == nil {
		now := s.now()
		order.CompletedAt = &now
	}
	order.Status = status

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, db.Translate(err, "update order status")
	}
	return order, nil
}

func (s *service) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	if _, err := s.Get(ctx, id, callerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return db.Translate(err, "delete order")
	}
	return nil
}

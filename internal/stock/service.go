package stock

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grupo95/mecanica-backend/pkg/db/models"
	pkgerrors "github.com/grupo95/mecanica-backend/pkg/errors"
	"github.com/grupo95/mecanica-backend/pkg/logger"
)

// CreateItemInput carries the fields accepted when registering a stock item.
type CreateItemInput struct {
	Name              string          `json:"name" validate:"required,min=2,max=120"`
	Description       string          `json:"description" validate:"max=500"`
	UnitPrice         decimal.Decimal `json:"unitPrice" validate:"required"`
	QuantityAvailable int             `json:"quantityAvailable" validate:"gte=0"`
	QuantityMinimum   int             `json:"quantityMinimum" validate:"gte=0"`
}

// UpdateItemInput carries partial updates; nil fields are left untouched.
type UpdateItemInput struct {
	Name              *string          `json:"name" validate:"omitempty,min=2,max=120"`
	Description       *string          `json:"description" validate:"omitempty,max=500"`
	UnitPrice         *decimal.Decimal `json:"unitPrice"`
	QuantityAvailable *int             `json:"quantityAvailable" validate:"omitempty,gte=0"`
	QuantityMinimum   *int             `json:"quantityMinimum" validate:"omitempty,gte=0"`
}

// Service exposes stock item management on top of the repository.
type Service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (*models.StockItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock item name required")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	if input.QuantityAvailable < 0 || input.QuantityMinimum < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantities must not be negative")
	}

	item := &models.StockItem{
		ID:                uuid.New(),
		Name:              name,
		Description:       strings.TrimSpace(input.Description),
		UnitPrice:         input.UnitPrice,
		QuantityAvailable: input.QuantityAvailable,
		QuantityMinimum:   input.QuantityMinimum,
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithStockItemID(ctx, created.ID.String())
		s.logg.Info(logCtx, "stock item created")
	}
	return created, nil
}

func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*models.StockItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*models.StockItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock item name must not be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
		}
		updates["unit_price"] = *input.UnitPrice
	}
	if input.QuantityAvailable != nil {
		if *input.QuantityAvailable < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "available quantity must not be negative")
		}
		updates["quantity_available"] = *input.QuantityAvailable
	}
	if input.QuantityMinimum != nil {
		if *input.QuantityMinimum < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum quantity must not be negative")
		}
		updates["quantity_minimum"] = *input.QuantityMinimum
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListItems(ctx context.Context) ([]models.StockItem, error) {
	return s.repo.List(ctx)
}

// ListCriticalItems returns items at or below their minimum quantity.
func (s *Service) ListCriticalItems(ctx context.Context) ([]models.StockItem, error) {
	return s.repo.ListCritical(ctx)
}

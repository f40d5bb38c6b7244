package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grupo95/mecanica-backend/pkg/db/models"
	pkgerrors "github.com/grupo95/mecanica-backend/pkg/errors"
	"github.com/grupo95/mecanica-backend/pkg/logger"
)

// CreateServiceInput registers a quotable service in the catalog.
type CreateServiceInput struct {
	Name        string          `json:"name" validate:"required,min=2,max=120"`
	Description string          `json:"description" validate:"max=500"`
	BasePrice   decimal.Decimal `json:"basePrice" validate:"required"`
	Available   *bool           `json:"available"`
}

// UpdateServiceInput carries partial updates; nil fields are untouched.
type UpdateServiceInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	BasePrice   *decimal.Decimal `json:"basePrice"`
	Available   *bool            `json:"available"`
}

type Service struct {
	db   *gorm.DB
	logg *logger.Logger
}

func NewService(db *gorm.DB, logg *logger.Logger) *Service {
	return &Service{db: db, logg: logg}
}

func (s *Service) Create(ctx context.Context, input CreateServiceInput) (*models.CatalogService, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service name required")
	}
	if input.BasePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must not be negative")
	}

	available := true
	if input.Available != nil {
		available = *input.Available
	}
	service := &models.CatalogService{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		BasePrice:   input.BasePrice,
		Available:   available,
	}
	if err := s.db.WithContext(ctx).Create(service).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create catalog service")
	}
	if s.logg != nil {
		logCtx := s.logg.WithField(ctx, "service_id", service.ID.String())
		s.logg.Info(logCtx, "catalog service created")
	}
	return service, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.CatalogService, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}
	var service models.CatalogService
	err := s.db.WithContext(ctx).First(&service, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog service")
	}
	return &service, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateServiceInput) (*models.CatalogService, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service name must not be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.BasePrice != nil {
		if input.BasePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must not be negative")
		}
		updates["base_price"] = *input.BasePrice
	}
	if input.Available != nil {
		updates["available"] = *input.Available
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	res := s.db.WithContext(ctx).Model(&models.CatalogService{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update catalog service")
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog service not found")
	}
	return s.Get(ctx, id)
}

// List returns catalog services; availableOnly narrows to quotable ones.
func (s *Service) List(ctx context.Context, availableOnly bool) ([]models.CatalogService, error) {
	query := s.db.WithContext(ctx).Order("name ASC")
	if availableOnly {
		query = query.Where("available = ?", true)
	}
	var services []models.CatalogService
	if err := query.Find(&services).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog services")
	}
	return services, nil
}

package customers

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/grupo95/mecanica-backend/pkg/db/models"
	pkgerrors "github.com/grupo95/mecanica-backend/pkg/errors"
	"github.com/grupo95/mecanica-backend/pkg/logger"
)

// CreateCustomerInput registers a new customer.
type CreateCustomerInput struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Document string `json:"document" validate:"required,min=8,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// UpdateCustomerInput carries partial updates; nil fields are untouched.
type UpdateCustomerInput struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=120"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,max=20"`
}

// CreateVehicleInput registers a vehicle under a customer.
type CreateVehicleInput struct {
	Plate string `json:"plate" validate:"required,min=6,max=10"`
	Make  string `json:"make" validate:"omitempty,max=60"`
	Model string `json:"model" validate:"omitempty,max=60"`
	Year  int    `json:"year" validate:"omitempty,gte=1950,lte=2100"`
}

type Service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

func (s *Service) Create(ctx context.Context, input CreateCustomerInput) (*models.Customer, error) {
	name := strings.TrimSpace(input.Name)
	document := strings.TrimSpace(input.Document)
	if name == "" || document == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and document required")
	}

	customer := &models.Customer{
		ID:       uuid.New(),
		Name:     name,
		Document: document,
		Email:    strings.TrimSpace(input.Email),
		Phone:    strings.TrimSpace(input.Phone),
	}
	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithField(ctx, "customer_id", created.ID.String())
		s.logg.Info(logCtx, "customer created")
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*models.Customer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Email != nil {
		updates["email"] = strings.TrimSpace(*input.Email)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]models.Customer, error) {
	return s.repo.List(ctx)
}

// AddVehicle registers a vehicle under an existing customer.
func (s *Service) AddVehicle(ctx context.Context, customerID uuid.UUID, input CreateVehicleInput) (*models.Vehicle, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	plate := strings.ToUpper(strings.TrimSpace(input.Plate))
	if plate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle plate required")
	}

	// Owner must exist before the vehicle row is written.
	if _, err := s.repo.FindByID(ctx, customerID); err != nil {
		return nil, err
	}

	vehicle := &models.Vehicle{
		ID:         uuid.New(),
		CustomerID: customerID,
		Plate:      plate,
		Make:       strings.TrimSpace(input.Make),
		Model:      strings.TrimSpace(input.Model),
		Year:       input.Year,
	}
	return s.repo.CreateVehicle(ctx, vehicle)
}

func (s *Service) ListVehicles(ctx context.Context, customerID uuid.UUID) ([]models.Vehicle, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if _, err := s.repo.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListVehicles(ctx, customerID)
}

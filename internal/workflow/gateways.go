package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupo95/mecanica-backend/pkg/db/models"
	pkgerrors "github.com/grupo95/mecanica-backend/pkg/errors"
)

// CustomerGateway resolves the create-order preconditions on the customer
// side: the customer exists and owns the vehicle being serviced.
type CustomerGateway interface {
	CustomerOwnsVehicle(ctx context.Context, customerID, vehicleID uuid.UUID) error
}

// CatalogGateway resolves the quoted service and its availability.
type CatalogGateway interface {
	FindService(ctx context.Context, serviceID uuid.UUID) (*models.CatalogService, error)
}

type customerGateway struct {
	db *gorm.DB
}

func NewCustomerGateway(db *gorm.DB) CustomerGateway {
	return &customerGateway{db: db}
}

func (g *customerGateway) CustomerOwnsVehicle(ctx context.Context, customerID, vehicleID uuid.UUID) error {
	var customer models.Customer
	err := g.db.WithContext(ctx).Select("id").First(&customer, "id = ?", customerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	var vehicle models.Vehicle
	err = g.db.WithContext(ctx).First(&vehicle, "id = ?", vehicleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicle")
	}
	if vehicle.CustomerID != customerID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "vehicle does not belong to customer")
	}
	return nil
}

type catalogGateway struct {
	db *gorm.DB
}

func NewCatalogGateway(db *gorm.DB) CatalogGateway {
	return &catalogGateway{db: db}
}

func (g *catalogGateway) FindService(ctx context.Context, serviceID uuid.UUID) (*models.CatalogService, error) {
	var service models.CatalogService
	err := g.db.WithContext(ctx).First(&service, "id = ?", serviceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog service")
	}
	return &service, nil
}

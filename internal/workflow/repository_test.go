package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grupo95/mecanica-backend/pkg/db/models"
	"github.com/grupo95/mecanica-backend/pkg/enums"
	pkgerrors "github.com/grupo95/mecanica-backend/pkg/errors"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:workflow_repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ServiceOrder{},
		&models.OrderMaterial{},
	))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus) *models.ServiceOrder {
	t.Helper()

	order := &models.ServiceOrder{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		VehicleID:   uuid.New(),
		ServiceID:   uuid.New(),
		Description: "engine misfire under load",
		Status:      status,
		RowVersion:  1,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositorySaveBumpsRowVersion(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, enums.OrderStatusReceived)

	order.Status = enums.OrderStatusInDiagnosis
	require.NoError(t, repo.Save(ctx, order))
	assert.Equal(t, int64(2), order.RowVersion)

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInDiagnosis, reloaded.Status)
	assert.Equal(t, int64(2), reloaded.RowVersion)
}

func TestRepositorySaveStaleVersionConflicts(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, enums.OrderStatusReceived)

	first, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)

	first.Status = enums.OrderStatusInDiagnosis
	require.NoError(t, repo.Save(ctx, first))

	second.Status = enums.OrderStatusCancelled
	err = repo.Save(ctx, second)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInDiagnosis, reloaded.Status)
}

func TestRepositoryFindByIDPreloadsMaterials(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, enums.OrderStatusInDiagnosis)
	material := models.OrderMaterial{
		ID:          uuid.New(),
		OrderID:     order.ID,
		StockItemID: uuid.New(),
		Quantity:    2,
		UnitPrice:   decimal.NewFromInt(30),
	}
	require.NoError(t, db.Create(&material).Error)

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Materials, 1)
	assert.Equal(t, material.StockItemID, loaded.Materials[0].StockItemID)

	_, err = repo.FindByID(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestRepositoryListFilters(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := seedOrder(t, db, enums.OrderStatusReceived)
	seedOrder(t, db, enums.OrderStatusFinalized)

	byCustomer, err := repo.List(ctx, ListFilter{CustomerID: &first.CustomerID})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, first.ID, byCustomer[0].ID)

	finalized := enums.OrderStatusFinalized
	byStatus, err := repo.List(ctx, ListFilter{Status: &finalized})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepositoryListExpirable(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	stale := now.Add(-96 * time.Hour)
	fresh := now.Add(-1 * time.Hour)

	staleOrder := seedOrder(t, db, enums.OrderStatusAwaitingApproval)
	require.NoError(t, db.Model(staleOrder).Update("budget_sent_at", stale).Error)

	freshOrder := seedOrder(t, db, enums.OrderStatusAwaitingApproval)
	require.NoError(t, db.Model(freshOrder).Update("budget_sent_at", fresh).Error)

	// same age but already resolved, must not show up
	doneOrder := seedOrder(t, db, enums.OrderStatusFinalized)
	require.NoError(t, db.Model(doneOrder).Update("budget_sent_at", stale).Error)

	expirable, err := repo.ListExpirable(ctx, now.Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, expirable, 1)
	assert.Equal(t, staleOrder.ID, expirable[0].ID)
}

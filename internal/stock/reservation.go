package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grupo95/mecanica-backend/pkg/db/models"
	pkgerrors "github.com/grupo95/mecanica-backend/pkg/errors"
)

// ReservationRequest asks for a quantity of one stock item.
type ReservationRequest struct {
	StockItemID uuid.UUID
	Quantity    int
}

// Shortage describes one unsatisfiable reservation request.
type Shortage struct {
	StockItemID uuid.UUID `json:"stock_item_id"`
	Name        string    `json:"name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

// Reserve commits a batch of material requests for one order, all or
// nothing. It must run inside the caller's transaction: any shortfall
// returns an error and the rollback undoes every decrement already issued,
// so a failed batch never mutates a single stock row.
//
// Requests for items already attached to the order are silently dropped;
// a batch that is entirely duplicates fails with an already-exists error.
func Reserve(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, requests []ReservationRequest) ([]models.OrderMaterial, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for reservation")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one material request required")
	}
	for _, req := range requests {
		if req.StockItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
		}
		if req.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
	}

	attached, err := attachedItemIDs(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	pending := dedupe(requests, attached)
	if len(pending) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyExists, "all requested materials already attached")
	}

	items, err := loadItems(ctx, tx, pending)
	if err != nil {
		return nil, err
	}

	var shortages []Shortage
	for _, req := range pending {
		item := items[req.StockItemID]
		if item.QuantityAvailable < req.Quantity {
			shortages = append(shortages, Shortage{
				StockItemID: item.ID,
				Name:        item.Name,
				Requested:   req.Quantity,
				Available:   item.QuantityAvailable,
			})
		}
	}
	if len(shortages) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for requested materials").
			WithDetails(shortages)
	}

	materials := make([]models.OrderMaterial, 0, len(pending))
	for _, req := range pending {
		item := items[req.StockItemID]

		// The guarded update re-checks availability so two transactions
		// racing on the same item cannot both take the last units.
		res := tx.WithContext(ctx).
			Model(&models.StockItem{}).
			Where("id = ? AND quantity_available >= ?", req.StockItemID, req.Quantity).
			UpdateColumn("quantity_available", gorm.Expr("quantity_available - ?", req.Quantity))
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock item")
		}
		if res.RowsAffected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "stock item reserved concurrently").
				WithDetails([]Shortage{{
					StockItemID: item.ID,
					Name:        item.Name,
					Requested:   req.Quantity,
					Available:   item.QuantityAvailable,
				}})
		}

		materials = append(materials, models.OrderMaterial{
			ID:          uuid.New(),
			OrderID:     orderID,
			StockItemID: req.StockItemID,
			Quantity:    req.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	if err := tx.WithContext(ctx).Create(&materials).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order materials")
	}
	return materials, nil
}

// Release credits reserved quantities back to stock. Each material is
// flipped to returned with a guarded update, so a second release of the
// same order finds nothing to credit and is a no-op.
func Release(ctx context.Context, tx *gorm.DB, materials []models.OrderMaterial) (int, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for release")
	}

	released := 0
	for _, material := range materials {
		if material.Returned || material.Quantity <= 0 {
			continue
		}

		res := tx.WithContext(ctx).
			Model(&models.OrderMaterial{}).
			Where("id = ? AND returned = ?", material.ID, false).
			UpdateColumn("returned", true)
		if res.Error != nil {
			return released, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark material returned")
		}
		if res.RowsAffected == 0 {
			continue
		}

		err := tx.WithContext(ctx).
			Model(&models.StockItem{}).
			Where("id = ?", material.StockItemID).
			UpdateColumn("quantity_available", gorm.Expr("quantity_available + ?", material.Quantity)).Error
		if err != nil {
			return released, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit stock item")
		}
		released++
	}
	return released, nil
}

func attachedItemIDs(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (map[uuid.UUID]bool, error) {
	var existing []models.OrderMaterial
	err := tx.WithContext(ctx).Where("order_id = ?", orderID).Find(&existing).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load attached materials")
	}
	attached := make(map[uuid.UUID]bool, len(existing))
	for _, material := range existing {
		attached[material.StockItemID] = true
	}
	return attached, nil
}

func dedupe(requests []ReservationRequest, attached map[uuid.UUID]bool) []ReservationRequest {
	seen := make(map[uuid.UUID]bool, len(requests))
	pending := make([]ReservationRequest, 0, len(requests))
	for _, req := range requests {
		if attached[req.StockItemID] || seen[req.StockItemID] {
			continue
		}
		seen[req.StockItemID] = true
		pending = append(pending, req)
	}
	return pending
}

func loadItems(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) (map[uuid.UUID]models.StockItem, error) {
	ids := make([]uuid.UUID, len(requests))
	for i, req := range requests {
		ids[i] = req.StockItemID
	}
	var rows []models.StockItem
	if err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock items")
	}
	items := make(map[uuid.UUID]models.StockItem, len(rows))
	for _, row := range rows {
		items[row.ID] = row
	}
	for _, req := range requests {
		if _, ok := items[req.StockItemID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found").
				WithDetails(map[string]any{"stock_item_id": req.StockItemID})
		}
	}
	return items, nil
}

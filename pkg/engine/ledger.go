package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Ledger owns line items and, through the catalog, the stock each live
// item reserves. Every mutation that touches both an item row and a
// stock level happens inside a single transaction, so stock is never
// left debited for an item that was not written (or vice versa).
type Ledger struct {
	store   Store
	catalog *Catalog
	logger  *slog.Logger
}

// AddItem reserves quantity units of a product and records the line
// item on the order.
func (l *Ledger) AddItem(ctx context.Context, orderID string, productID, quantity int) (LineItem, error) {
	const op = "ledger.AddItem"

	if quantity <= 0 {
		return LineItem{}, E(KindValidation, op, "quantity must be positive")
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return LineItem{}, wrap(op, err)
	}
	defer tx.Rollback()

	if _, err := tx.GetOrder(orderID); err != nil {
		if noRow(err) {
			return LineItem{}, Errf(KindNotFound, op, "order %s not found", orderID)
		}
		return LineItem{}, wrap(op, err)
	}

	product, err := l.catalog.debit(tx, op, productID, quantity)
	if err != nil {
		return LineItem{}, err
	}

	item := LineItem{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: product.Name,
		Quantity:    quantity,
	}
	if err := tx.InsertItem(item); err != nil {
		return LineItem{}, wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return LineItem{}, wrap(op, err)
	}

	l.logger.Info("item added",
		"item_id", item.ID, "order_id", orderID,
		"product_id", productID, "quantity", quantity)
	return item, nil
}

// UpdateQuantity changes an item's quantity, adjusting the product's
// stock by the delta between old and new. Availability is checked as if
// the current reservation were first returned to stock.
func (l *Ledger) UpdateQuantity(ctx context.Context, itemID string, quantity int) (LineItem, error) {
	const op = "ledger.UpdateQuantity"

	if quantity <= 0 {
		return LineItem{}, E(KindValidation, op, "quantity must be positive")
	}

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return LineItem{}, wrap(op, err)
	}
	defer tx.Rollback()

	item, err := l.get(tx, op, itemID)
	if err != nil {
		return LineItem{}, err
	}
	product, err := l.catalog.get(tx, op, item.ProductID)
	if err != nil {
		return LineItem{}, err
	}

	available := product.Stock + item.Quantity
	if quantity > available {
		return LineItem{}, Errf(KindInsufficientStock, op,
			"insufficient stock for product %d: %d available", item.ProductID, available)
	}

	delta := quantity - item.Quantity
	if err := tx.AdjustStock(item.ProductID, -delta); err != nil {
		if noRow(err) {
			return LineItem{}, Errf(KindInsufficientStock, op,
				"insufficient stock for product %d: %d available", item.ProductID, available)
		}
		return LineItem{}, wrap(op, err)
	}
	if err := tx.SetItemQuantity(itemID, quantity); err != nil {
		return LineItem{}, wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return LineItem{}, wrap(op, err)
	}

	l.logger.Info("item quantity updated",
		"item_id", itemID, "old_quantity", item.Quantity, "new_quantity", quantity)
	item.Quantity = quantity
	return item, nil
}

// DeleteItem removes an item from its order and credits the reserved
// quantity back to stock. The item must belong to the given order.
func (l *Ledger) DeleteItem(ctx context.Context, orderID, itemID string) error {
	const op = "ledger.DeleteItem"

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return wrap(op, err)
	}
	defer tx.Rollback()

	item, err := l.get(tx, op, itemID)
	if err != nil {
		return err
	}
	if item.OrderID != orderID {
		return Errf(KindNotFound, op, "item %s not found on order %s", itemID, orderID)
	}
	if err := l.catalog.credit(tx, op, item.ProductID, item.Quantity); err != nil {
		return err
	}
	if err := tx.DeleteItem(orderID, itemID); err != nil {
		if noRow(err) {
			return Errf(KindNotFound, op, "item %s not found on order %s", itemID, orderID)
		}
		return wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return wrap(op, err)
	}

	l.logger.Info("item deleted",
		"item_id", itemID, "order_id", orderID,
		"product_id", item.ProductID, "quantity_returned", item.Quantity)
	return nil
}

// MoveItem reassigns an item to another order. The quantity and the
// stock reservation travel with the item untouched.
func (l *Ledger) MoveItem(ctx context.Context, itemID, targetOrderID string) (LineItem, error) {
	const op = "ledger.MoveItem"

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return LineItem{}, wrap(op, err)
	}
	defer tx.Rollback()

	item, err := l.get(tx, op, itemID)
	if err != nil {
		return LineItem{}, err
	}
	if _, err := tx.GetOrder(targetOrderID); err != nil {
		if noRow(err) {
			return LineItem{}, Errf(KindNotFound, op, "order %s not found", targetOrderID)
		}
		return LineItem{}, wrap(op, err)
	}
	if err := tx.SetItemOrder(itemID, targetOrderID); err != nil {
		return LineItem{}, wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return LineItem{}, wrap(op, err)
	}

	l.logger.Info("item moved",
		"item_id", itemID, "from_order", item.OrderID, "to_order", targetOrderID)
	item.OrderID = targetOrderID
	return item, nil
}

// ListByOrder returns an order's items, joined with product names, in
// insertion order.
func (l *Ledger) ListByOrder(ctx context.Context, orderID string) ([]LineItem, error) {
	const op = "ledger.ListByOrder"

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer tx.Rollback()

	items, err := tx.ListItemsByOrder(orderID)
	if err != nil {
		return nil, wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, wrap(op, err)
	}
	return items, nil
}

// GetItem returns a single item joined with its product name.
func (l *Ledger) GetItem(ctx context.Context, itemID string) (LineItem, error) {
	const op = "ledger.GetItem"

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return LineItem{}, wrap(op, err)
	}
	defer tx.Rollback()

	item, err := l.get(tx, op, itemID)
	if err != nil {
		return LineItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return LineItem{}, wrap(op, err)
	}
	return item, nil
}

func (l *Ledger) get(tx Tx, op, itemID string) (LineItem, error) {
	item, err := tx.GetItem(itemID)
	if err != nil {
		if noRow(err) {
			return LineItem{}, Errf(KindNotFound, op, "item %s not found", itemID)
		}
		return LineItem{}, wrap(op, err)
	}
	return item, nil
}

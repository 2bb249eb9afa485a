package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Orders is the order store: order identity, customer and requested
// date. It is the sole source of truth for which orders exist.
type Orders struct {
	store    Store
	catalog  *Catalog
	calendar *Calendar
	logger   *slog.Logger
}

// Create records a new order. The order date must not be earlier than
// the calendar's current date. An empty id gets a generated UUID;
// reusing an existing id is a conflict.
func (s *Orders) Create(ctx context.Context, orderID, customer string, date Date) (Order, error) {
	const op = "orders.Create"

	if strings.TrimSpace(customer) == "" {
		return Order{}, E(KindValidation, op, "customer name is required")
	}
	if date.IsZero() {
		return Order{}, E(KindValidation, op, "order date is required")
	}
	if orderID == "" {
		orderID = uuid.NewString()
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Order{}, wrap(op, err)
	}
	defer tx.Rollback()

	current, err := s.calendar.currentIn(tx, op)
	if err != nil {
		return Order{}, err
	}
	if date.Before(current) {
		return Order{}, Errf(KindValidation, op,
			"order date %s is earlier than the current date %s", date, current)
	}

	order := Order{ID: orderID, Customer: customer, Date: date}
	if err := tx.InsertOrder(order); err != nil {
		if duplicate(err) {
			return Order{}, Errf(KindConflict, op, "order %s already exists", orderID)
		}
		return Order{}, wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return Order{}, wrap(op, err)
	}

	s.logger.Info("order created", "order_id", order.ID, "order_date", order.Date.String())
	return order, nil
}

// Delete removes an order and cascades to its line items, crediting
// every reserved quantity back to the catalog before removal.
func (s *Orders) Delete(ctx context.Context, orderID string) error {
	const op = "orders.Delete"

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return wrap(op, err)
	}
	defer tx.Rollback()

	if _, err := tx.GetOrder(orderID); err != nil {
		if noRow(err) {
			return Errf(KindNotFound, op, "order %s not found", orderID)
		}
		return wrap(op, err)
	}
	released, err := s.deleteCascade(tx, op, orderID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrap(op, err)
	}

	s.logger.Info("order deleted", "order_id", orderID, "items_released", released)
	return nil
}

// List returns all orders sorted by order date ascending.
func (s *Orders) List(ctx context.Context) ([]Order, error) {
	const op = "orders.List"

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer tx.Rollback()

	orders, err := tx.ListOrders()
	if err != nil {
		return nil, wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, wrap(op, err)
	}
	return orders, nil
}

// deleteCascade removes an order's items, crediting each reservation
// back to stock, then removes the order row itself. The caller owns the
// transaction; nothing is committed here. Returns the number of items
// released.
func (s *Orders) deleteCascade(tx Tx, op, orderID string) (int, error) {
	items, err := tx.ListItemsByOrder(orderID)
	if err != nil {
		return 0, wrap(op, err)
	}
	for _, item := range items {
		if err := s.catalog.credit(tx, op, item.ProductID, item.Quantity); err != nil {
			return 0, err
		}
		if err := tx.DeleteItem(orderID, item.ID); err != nil {
			return 0, wrap(op, err)
		}
	}
	if err := tx.DeleteOrder(orderID); err != nil {
		if noRow(err) {
			return 0, Errf(KindNotFound, op, "order %s not found", orderID)
		}
		return 0, wrap(op, err)
	}
	return len(items), nil
}

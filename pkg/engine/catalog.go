package engine

import (
	"context"
	"log/slog"
)

// restockMaxBonus is the upper bound of the per-product restock bonus
// applied on every calendar advance.
const restockMaxBonus = 10

// Catalog is the stock-level authority. All reservations debit through
// it and all returns credit through it, so stock arithmetic lives in
// one place.
type Catalog struct {
	store  Store
	logger *slog.Logger
}

// List returns every product as id+name. Stock levels are not exposed
// in listings.
func (c *Catalog) List(ctx context.Context) ([]ProductRef, error) {
	const op = "catalog.List"

	tx, err := c.store.Begin(ctx)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer tx.Rollback()

	refs, err := tx.ListProducts()
	if err != nil {
		return nil, wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, wrap(op, err)
	}
	return refs, nil
}

// Get returns a single product including its current stock level.
func (c *Catalog) Get(ctx context.Context, productID int) (Product, error) {
	const op = "catalog.Get"

	tx, err := c.store.Begin(ctx)
	if err != nil {
		return Product{}, wrap(op, err)
	}
	defer tx.Rollback()

	p, err := c.get(tx, op, productID)
	if err != nil {
		return Product{}, err
	}
	if err := tx.Commit(); err != nil {
		return Product{}, wrap(op, err)
	}
	return p, nil
}

func (c *Catalog) get(tx Tx, op string, productID int) (Product, error) {
	p, err := tx.GetProduct(productID)
	if err != nil {
		if noRow(err) {
			return Product{}, Errf(KindNotFound, op, "product %d not found", productID)
		}
		return Product{}, wrap(op, err)
	}
	return p, nil
}

// debit reserves qty units of a product inside tx. It validates
// availability before touching the row; the driver-side non-negative
// guard backstops any write that raced past the check.
func (c *Catalog) debit(tx Tx, op string, productID, qty int) (Product, error) {
	p, err := c.get(tx, op, productID)
	if err != nil {
		return Product{}, err
	}
	if qty > p.Stock {
		return Product{}, Errf(KindInsufficientStock, op,
			"insufficient stock for product %d: %d available", productID, p.Stock)
	}
	if err := tx.AdjustStock(productID, -qty); err != nil {
		if noRow(err) {
			return Product{}, Errf(KindInsufficientStock, op,
				"insufficient stock for product %d: %d available", productID, p.Stock)
		}
		return Product{}, wrap(op, err)
	}
	p.Stock -= qty
	return p, nil
}

// credit returns qty units to a product's stock inside tx.
func (c *Catalog) credit(tx Tx, op string, productID, qty int) error {
	if err := tx.AdjustStock(productID, qty); err != nil {
		return wrap(op, err)
	}
	return nil
}

// restockAll applies the calendar-advance bonus to every product.
func (c *Catalog) restockAll(tx Tx, op string) error {
	if err := tx.RestockAll(restockMaxBonus); err != nil {
		return wrap(op, err)
	}
	return nil
}

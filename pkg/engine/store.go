package engine

import (
	"context"
	"errors"
)

// Sentinel errors the store drivers return for row-level outcomes. The
// engine translates them into its taxonomy with operation context.
var (
	// ErrNoRow means the targeted row does not exist (or, for
	// AdjustStock, that the non-negative stock guard rejected the
	// update).
	ErrNoRow = errors.New("no matching row")
	// ErrDuplicate means an insert violated a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate key")
)

// Store is the collaborator datastore. Implementations provide atomic
// multi-statement units; the engine runs every operation that touches
// both stock and items inside one Tx.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	Close() error
}

// Tx is a single atomic unit against the store. Reads and writes made
// through a Tx either all commit or leave no trace.
//
// Drivers with buffered write batches (RQLite) serve reads from the
// committed state and apply writes atomically on Commit; the engine's
// validate-then-write flows are compatible with both models, relying on
// the store's isolation for concurrent writers.
type Tx interface {
	Commit() error
	Rollback() error

	// Catalog rows.
	ListProducts() ([]ProductRef, error)
	GetProduct(productID int) (Product, error)
	// AdjustStock adds delta (which may be negative) to a product's
	// stock. The update is guarded so stock can never go negative;
	// a guard rejection surfaces as ErrNoRow.
	AdjustStock(productID, delta int) error
	// RestockAll adds an independently chosen uniform random bonus
	// in [1, maxBonus] to every product's stock.
	RestockAll(maxBonus int) error

	// Order rows.
	InsertOrder(o Order) error
	GetOrder(orderID string) (Order, error)
	DeleteOrder(orderID string) error
	ListOrders() ([]Order, error)
	ListOrdersBefore(cutoff Date) ([]Order, error)

	// Line-item rows. Get and List join the product name.
	InsertItem(item LineItem) error
	GetItem(itemID string) (LineItem, error)
	ListItemsByOrder(orderID string) ([]LineItem, error)
	SetItemQuantity(itemID string, quantity int) error
	SetItemOrder(itemID, orderID string) error
	DeleteItem(orderID, itemID string) error

	// Calendar row (single row, store-wide).
	CurrentDate() (Date, error)
	AdvanceDate() (Date, error)
}

// noRow reports whether a store error is the missing-row sentinel.
func noRow(err error) bool {
	return errors.Is(err, ErrNoRow)
}

// duplicate reports whether a store error is the duplicate-key sentinel.
func duplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

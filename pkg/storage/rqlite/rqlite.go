// Package rqlite implements the engine store on rqlite through the
// gorqlite client.
//
// Unlike PostgreSQL, rqlite has no server-side transaction sessions:
// reads run immediately against committed state, while writes are
// buffered on the transaction and sent atomically in one request on
// Commit. The engine validates before it writes, so this model
// preserves its invariants; the tradeoff is that per-statement
// rows-affected checks are not available before commit.
package rqlite

import (
	"context"
	"fmt"

	"github.com/medatechnology/goutil/simplelog"
	"github.com/rqlite/gorqlite"

	"github.com/medatechnology/orderdesk/pkg/engine"
)

// Store is an rqlite-backed engine store.
type Store struct {
	conn   *gorqlite.Connection
	config Config
}

// NewStore connects to an rqlite node and applies the configured read
// consistency level.
func NewStore(config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	conn, err := gorqlite.Open(config.URL)
	if err != nil {
		simplelog.LogErr(err, "cannot open rqlite connection")
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}

	level, err := gorqlite.ParseConsistencyLevel(config.Consistency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	conn.SetConsistencyLevel(level)

	simplelog.LogThis("connected to rqlite node at " + config.URL)
	return &Store{conn: conn, config: config}, nil
}

// Begin starts a buffered transaction.
func (s *Store) Begin(ctx context.Context) (engine.Tx, error) {
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &tx{store: s}, nil
}

// Ping runs a trivial query to verify the node is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.conn.QueryOne("SELECT 1")
	return err
}

// Close releases the client connection.
func (s *Store) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}

// Bootstrap creates the schema if missing and seeds the catalog and
// calendar when both are empty.
func (s *Store) Bootstrap(ctx context.Context) error {
	if s.conn == nil {
		return ErrNotConnected
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS products (
			product_id   INTEGER PRIMARY KEY AUTOINCREMENT,
			product_name TEXT NOT NULL,
			stock        INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id      TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL,
			order_date    TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			item_seq   INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id    TEXT NOT NULL UNIQUE,
			order_id   TEXT NOT NULL REFERENCES orders (order_id),
			product_id INTEGER NOT NULL REFERENCES products (product_id),
			quantity   INTEGER NOT NULL CHECK (quantity > 0)
		)`,
		`CREATE TABLE IF NOT EXISTS cur_date (
			current TEXT NOT NULL
		)`,
		`INSERT INTO products (product_name, stock)
		 SELECT 'Keyboard', 15 WHERE NOT EXISTS (SELECT 1 FROM products)`,
		`INSERT INTO products (product_name, stock)
		 SELECT 'Mouse', 20 WHERE NOT EXISTS (SELECT 1 FROM products WHERE product_name = 'Mouse')`,
		`INSERT INTO products (product_name, stock)
		 SELECT 'Monitor', 8 WHERE NOT EXISTS (SELECT 1 FROM products WHERE product_name = 'Monitor')`,
		`INSERT INTO products (product_name, stock)
		 SELECT 'USB-C Cable', 40 WHERE NOT EXISTS (SELECT 1 FROM products WHERE product_name = 'USB-C Cable')`,
		`INSERT INTO products (product_name, stock)
		 SELECT 'Laptop Stand', 12 WHERE NOT EXISTS (SELECT 1 FROM products WHERE product_name = 'Laptop Stand')`,
		`INSERT INTO cur_date (current)
		 SELECT date('now') WHERE NOT EXISTS (SELECT 1 FROM cur_date)`,
	}
	if _, err := s.conn.Write(schema); err != nil {
		simplelog.LogErr(err, "cannot bootstrap rqlite schema")
		return err
	}
	simplelog.LogThis("rqlite schema bootstrapped")
	return nil
}

// tx buffers writes until Commit. Reads are executed immediately
// against committed state.
type tx struct {
	store  *Store
	writes []gorqlite.ParameterizedStatement
	done   bool
}

func (t *tx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	if len(t.writes) == 0 {
		return nil
	}
	results, err := t.store.conn.WriteParameterized(t.writes)
	if err != nil {
		for _, r := range results {
			if r.Err != nil {
				return fmt.Errorf("transaction commit failed: %w", r.Err)
			}
		}
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.writes = nil
	return nil
}

func (t *tx) buffer(query string, args ...interface{}) {
	t.writes = append(t.writes, gorqlite.ParameterizedStatement{
		Query:     query,
		Arguments: args,
	})
}

func (t *tx) query(query string, args ...interface{}) (gorqlite.QueryResult, error) {
	return t.store.conn.QueryOneParameterized(gorqlite.ParameterizedStatement{
		Query:     query,
		Arguments: args,
	})
}

func (t *tx) ListProducts() ([]engine.ProductRef, error) {
	qr, err := t.query(`SELECT product_id, product_name FROM products ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	var refs []engine.ProductRef
	for qr.Next() {
		row, err := qr.Map()
		if err != nil {
			return nil, err
		}
		refs = append(refs, engine.ProductRef{
			ID:   toInt(row["product_id"]),
			Name: toString(row["product_name"]),
		})
	}
	return refs, nil
}

func (t *tx) GetProduct(productID int) (engine.Product, error) {
	qr, err := t.query(`SELECT product_id, product_name, stock FROM products WHERE product_id = ?`, productID)
	if err != nil {
		return engine.Product{}, err
	}
	if !qr.Next() {
		return engine.Product{}, engine.ErrNoRow
	}
	row, err := qr.Map()
	if err != nil {
		return engine.Product{}, err
	}
	return engine.Product{
		ID:    toInt(row["product_id"]),
		Name:  toString(row["product_name"]),
		Stock: toInt(row["stock"]),
	}, nil
}

// AdjustStock buffers a guarded update. The stock check the engine runs
// before calling this covers validation; the WHERE guard here protects
// committed state from going negative if statements race.
func (t *tx) AdjustStock(productID, delta int) error {
	if _, err := t.GetProduct(productID); err != nil {
		return err
	}
	t.buffer(`UPDATE products SET stock = stock + ? WHERE product_id = ? AND stock + ? >= 0`,
		delta, productID, delta)
	return nil
}

func (t *tx) RestockAll(maxBonus int) error {
	t.buffer(`UPDATE products SET stock = stock + (abs(random()) % ?) + 1`, maxBonus)
	return nil
}

func (t *tx) InsertOrder(o engine.Order) error {
	// rqlite cannot report a unique violation before commit, so the
	// duplicate check is an immediate read.
	if _, err := t.GetOrder(o.ID); err == nil {
		return engine.ErrDuplicate
	} else if err != engine.ErrNoRow {
		return err
	}
	t.buffer(`INSERT INTO orders (order_id, customer_name, order_date) VALUES (?, ?, ?)`,
		o.ID, o.Customer, o.Date.String())
	return nil
}

func (t *tx) GetOrder(orderID string) (engine.Order, error) {
	qr, err := t.query(`SELECT order_id, customer_name, order_date FROM orders WHERE order_id = ?`, orderID)
	if err != nil {
		return engine.Order{}, err
	}
	if !qr.Next() {
		return engine.Order{}, engine.ErrNoRow
	}
	row, err := qr.Map()
	if err != nil {
		return engine.Order{}, err
	}
	return scanOrder(row)
}

func (t *tx) DeleteOrder(orderID string) error {
	if _, err := t.GetOrder(orderID); err != nil {
		return err
	}
	t.buffer(`DELETE FROM orders WHERE order_id = ?`, orderID)
	return nil
}

func (t *tx) ListOrders() ([]engine.Order, error) {
	return t.queryOrders(`SELECT order_id, customer_name, order_date FROM orders ORDER BY order_date, order_id`)
}

func (t *tx) ListOrdersBefore(cutoff engine.Date) ([]engine.Order, error) {
	// ISO dates compare correctly as text.
	return t.queryOrders(`SELECT order_id, customer_name, order_date FROM orders WHERE order_date < ? ORDER BY order_id`,
		cutoff.String())
}

func (t *tx) queryOrders(query string, args ...interface{}) ([]engine.Order, error) {
	qr, err := t.query(query, args...)
	if err != nil {
		return nil, err
	}
	var orders []engine.Order
	for qr.Next() {
		row, err := qr.Map()
		if err != nil {
			return nil, err
		}
		o, err := scanOrder(row)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (t *tx) InsertItem(item engine.LineItem) error {
	t.buffer(`INSERT INTO order_items (item_id, order_id, product_id, quantity) VALUES (?, ?, ?, ?)`,
		item.ID, item.OrderID, item.ProductID, item.Quantity)
	return nil
}

func (t *tx) GetItem(itemID string) (engine.LineItem, error) {
	qr, err := t.query(
		`SELECT i.item_id, i.order_id, i.product_id, p.product_name, i.quantity
		   FROM order_items i JOIN products p ON p.product_id = i.product_id
		  WHERE i.item_id = ?`, itemID)
	if err != nil {
		return engine.LineItem{}, err
	}
	if !qr.Next() {
		return engine.LineItem{}, engine.ErrNoRow
	}
	row, err := qr.Map()
	if err != nil {
		return engine.LineItem{}, err
	}
	return scanItem(row), nil
}

func (t *tx) ListItemsByOrder(orderID string) ([]engine.LineItem, error) {
	qr, err := t.query(
		`SELECT i.item_id, i.order_id, i.product_id, p.product_name, i.quantity
		   FROM order_items i JOIN products p ON p.product_id = i.product_id
		  WHERE i.order_id = ? ORDER BY i.item_seq`, orderID)
	if err != nil {
		return nil, err
	}
	var items []engine.LineItem
	for qr.Next() {
		row, err := qr.Map()
		if err != nil {
			return nil, err
		}
		items = append(items, scanItem(row))
	}
	return items, nil
}

func (t *tx) SetItemQuantity(itemID string, quantity int) error {
	if _, err := t.GetItem(itemID); err != nil {
		return err
	}
	t.buffer(`UPDATE order_items SET quantity = ? WHERE item_id = ?`, quantity, itemID)
	return nil
}

func (t *tx) SetItemOrder(itemID, orderID string) error {
	if _, err := t.GetItem(itemID); err != nil {
		return err
	}
	t.buffer(`UPDATE order_items SET order_id = ? WHERE item_id = ?`, orderID, itemID)
	return nil
}

func (t *tx) DeleteItem(orderID, itemID string) error {
	item, err := t.GetItem(itemID)
	if err != nil {
		return err
	}
	if item.OrderID != orderID {
		return engine.ErrNoRow
	}
	t.buffer(`DELETE FROM order_items WHERE order_id = ? AND item_id = ?`, orderID, itemID)
	return nil
}

func (t *tx) CurrentDate() (engine.Date, error) {
	qr, err := t.query(`SELECT current FROM cur_date LIMIT 1`)
	if err != nil {
		return engine.Date{}, err
	}
	if !qr.Next() {
		return engine.Date{}, engine.ErrNoRow
	}
	row, err := qr.Map()
	if err != nil {
		return engine.Date{}, err
	}
	return engine.ParseDate(toString(row["current"]))
}

// AdvanceDate computes the next day in the client because the update is
// buffered until Commit and cannot RETURN the new value.
func (t *tx) AdvanceDate() (engine.Date, error) {
	current, err := t.CurrentDate()
	if err != nil {
		return engine.Date{}, err
	}
	next := current.Next()
	t.buffer(`UPDATE cur_date SET current = ?`, next.String())
	return next, nil
}

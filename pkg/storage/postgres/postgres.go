// Package postgres implements the engine store on PostgreSQL through
// lib/pq. Every engine transaction maps to one database transaction, so
// the SERIAL/constraint machinery of the server backs the engine's
// atomicity guarantees.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/medatechnology/goutil/simplelog"

	"github.com/medatechnology/orderdesk/pkg/engine"
)

// Store is a PostgreSQL-backed engine store.
type Store struct {
	db     *sql.DB
	config Config
}

// NewStore opens a connection pool and verifies it with a ping.
func NewStore(config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		simplelog.LogErr(err, "cannot open PostgreSQL connection")
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, wrapError(err, "CONNECT", ""))
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		simplelog.LogErr(err, "cannot ping PostgreSQL database")
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, wrapError(err, "PING", ""))
	}

	simplelog.LogThis("connected to PostgreSQL database " + config.DBName + " at " + config.Host)
	return &Store{db: db, config: config}, nil
}

// Begin starts a database transaction.
func (s *Store) Begin(ctx context.Context) (engine.Tx, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapError(err, "BEGIN", "")
	}
	return &tx{tx: sqlTx, ctx: ctx}, nil
}

// Ping verifies the connection pool is alive.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrNotConnected
	}
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// tx implements engine.Tx over a single database transaction.
type tx struct {
	tx  *sql.Tx
	ctx context.Context
}

func (t *tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return wrapError(err, "COMMIT", "")
	}
	return nil
}

func (t *tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return wrapError(err, "ROLLBACK", "")
	}
	return nil
}

func (t *tx) ListProducts() ([]engine.ProductRef, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT product_id, product_name FROM products ORDER BY product_id`)
	if err != nil {
		return nil, wrapError(err, "SELECT", "products")
	}
	defer rows.Close()

	var refs []engine.ProductRef
	for rows.Next() {
		var ref engine.ProductRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, wrapError(err, "SCAN", "products")
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "SELECT", "products")
	}
	return refs, nil
}

func (t *tx) GetProduct(productID int) (engine.Product, error) {
	var p engine.Product
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT product_id, product_name, stock FROM products WHERE product_id = $1`,
		productID).Scan(&p.ID, &p.Name, &p.Stock)
	if err == sql.ErrNoRows {
		return engine.Product{}, engine.ErrNoRow
	}
	if err != nil {
		return engine.Product{}, wrapError(err, "SELECT", "products")
	}
	return p, nil
}

// AdjustStock applies a signed delta with a non-negative guard: the
// WHERE clause refuses any update that would take stock below zero, and
// zero rows affected is reported as engine.ErrNoRow.
func (t *tx) AdjustStock(productID, delta int) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE products SET stock = stock + $2 WHERE product_id = $1 AND stock + $2 >= 0`,
		productID, delta)
	if err != nil {
		return wrapError(err, "UPDATE", "products")
	}
	return requireAffected(res, "UPDATE", "products")
}

func (t *tx) RestockAll(maxBonus int) error {
	_, err := t.tx.ExecContext(t.ctx,
		`UPDATE products SET stock = stock + floor(random() * $1 + 1)::int`,
		maxBonus)
	if err != nil {
		return wrapError(err, "UPDATE", "products")
	}
	return nil
}

func (t *tx) InsertOrder(o engine.Order) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO orders (order_id, customer_name, order_date) VALUES ($1, $2, $3)`,
		o.ID, o.Customer, o.Date.Time())
	if err != nil {
		if IsUniqueViolation(err) {
			return engine.ErrDuplicate
		}
		return wrapError(err, "INSERT", "orders")
	}
	return nil
}

func (t *tx) GetOrder(orderID string) (engine.Order, error) {
	var o engine.Order
	var date time.Time
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT order_id, customer_name, order_date FROM orders WHERE order_id = $1`,
		orderID).Scan(&o.ID, &o.Customer, &date)
	if err == sql.ErrNoRows {
		return engine.Order{}, engine.ErrNoRow
	}
	if err != nil {
		return engine.Order{}, wrapError(err, "SELECT", "orders")
	}
	o.Date = engine.DateOf(date)
	return o, nil
}

func (t *tx) DeleteOrder(orderID string) error {
	res, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM orders WHERE order_id = $1`, orderID)
	if err != nil {
		return wrapError(err, "DELETE", "orders")
	}
	return requireAffected(res, "DELETE", "orders")
}

func (t *tx) ListOrders() ([]engine.Order, error) {
	return t.queryOrders(
		`SELECT order_id, customer_name, order_date FROM orders ORDER BY order_date, order_id`)
}

func (t *tx) ListOrdersBefore(cutoff engine.Date) ([]engine.Order, error) {
	return t.queryOrders(
		`SELECT order_id, customer_name, order_date FROM orders WHERE order_date < $1 ORDER BY order_id`,
		cutoff.Time())
}

func (t *tx) queryOrders(query string, args ...any) ([]engine.Order, error) {
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, wrapError(err, "SELECT", "orders")
	}
	defer rows.Close()

	var orders []engine.Order
	for rows.Next() {
		var o engine.Order
		var date time.Time
		if err := rows.Scan(&o.ID, &o.Customer, &date); err != nil {
			return nil, wrapError(err, "SCAN", "orders")
		}
		o.Date = engine.DateOf(date)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "SELECT", "orders")
	}
	return orders, nil
}

func (t *tx) InsertItem(item engine.LineItem) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO order_items (item_id, order_id, product_id, quantity) VALUES ($1, $2, $3, $4)`,
		item.ID, item.OrderID, item.ProductID, item.Quantity)
	if err != nil {
		if IsUniqueViolation(err) {
			return engine.ErrDuplicate
		}
		return wrapError(err, "INSERT", "order_items")
	}
	return nil
}

func (t *tx) GetItem(itemID string) (engine.LineItem, error) {
	var item engine.LineItem
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT i.item_id, i.order_id, i.product_id, p.product_name, i.quantity
		   FROM order_items i JOIN products p ON p.product_id = i.product_id
		  WHERE i.item_id = $1`,
		itemID).Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity)
	if err == sql.ErrNoRows {
		return engine.LineItem{}, engine.ErrNoRow
	}
	if err != nil {
		return engine.LineItem{}, wrapError(err, "SELECT", "order_items")
	}
	return item, nil
}

func (t *tx) ListItemsByOrder(orderID string) ([]engine.LineItem, error) {
	rows, err := t.tx.QueryContext(t.ctx,
		`SELECT i.item_id, i.order_id, i.product_id, p.product_name, i.quantity
		   FROM order_items i JOIN products p ON p.product_id = i.product_id
		  WHERE i.order_id = $1 ORDER BY i.item_seq`,
		orderID)
	if err != nil {
		return nil, wrapError(err, "SELECT", "order_items")
	}
	defer rows.Close()

	var items []engine.LineItem
	for rows.Next() {
		var item engine.LineItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity); err != nil {
			return nil, wrapError(err, "SCAN", "order_items")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "SELECT", "order_items")
	}
	return items, nil
}

func (t *tx) SetItemQuantity(itemID string, quantity int) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE order_items SET quantity = $2 WHERE item_id = $1`,
		itemID, quantity)
	if err != nil {
		return wrapError(err, "UPDATE", "order_items")
	}
	return requireAffected(res, "UPDATE", "order_items")
}

func (t *tx) SetItemOrder(itemID, orderID string) error {
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE order_items SET order_id = $2 WHERE item_id = $1`,
		itemID, orderID)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return engine.ErrNoRow
		}
		return wrapError(err, "UPDATE", "order_items")
	}
	return requireAffected(res, "UPDATE", "order_items")
}

func (t *tx) DeleteItem(orderID, itemID string) error {
	res, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM order_items WHERE order_id = $1 AND item_id = $2`,
		orderID, itemID)
	if err != nil {
		return wrapError(err, "DELETE", "order_items")
	}
	return requireAffected(res, "DELETE", "order_items")
}

func (t *tx) CurrentDate() (engine.Date, error) {
	var date time.Time
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT current FROM cur_date LIMIT 1`).Scan(&date)
	if err == sql.ErrNoRows {
		return engine.Date{}, engine.ErrNoRow
	}
	if err != nil {
		return engine.Date{}, wrapError(err, "SELECT", "cur_date")
	}
	return engine.DateOf(date), nil
}

func (t *tx) AdvanceDate() (engine.Date, error) {
	var date time.Time
	err := t.tx.QueryRowContext(t.ctx,
		`UPDATE cur_date SET current = current + INTERVAL '1 day' RETURNING current`).Scan(&date)
	if err == sql.ErrNoRows {
		return engine.Date{}, engine.ErrNoRow
	}
	if err != nil {
		return engine.Date{}, wrapError(err, "UPDATE", "cur_date")
	}
	return engine.DateOf(date), nil
}

// requireAffected converts a zero-rows-affected result to engine.ErrNoRow.
func requireAffected(res sql.Result, operation, table string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapError(err, operation, table)
	}
	if n == 0 {
		return engine.ErrNoRow
	}
	return nil
}

package postgres

import (
	"context"

	"github.com/medatechnology/goutil/simplelog"
)

// schemaStatements creates the four tables the store uses. item_seq is
// a plain sequence column so item listings can preserve insertion order
// while item_id stays a caller-visible UUID.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id   SERIAL PRIMARY KEY,
		product_name TEXT NOT NULL,
		stock        INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id      TEXT PRIMARY KEY,
		customer_name TEXT NOT NULL,
		order_date    DATE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		item_seq   BIGSERIAL,
		item_id    TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL REFERENCES orders (order_id),
		product_id INTEGER NOT NULL REFERENCES products (product_id),
		quantity   INTEGER NOT NULL CHECK (quantity > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS cur_date (
		current DATE NOT NULL
	)`,
}

// seedStatements load a starter catalog and initialize the calendar,
// and are written to be safe to run repeatedly.
var seedStatements = []string{
	`INSERT INTO products (product_name, stock)
	 SELECT v.name, v.stock
	   FROM (VALUES
		('Keyboard', 15),
		('Mouse', 20),
		('Monitor', 8),
		('USB-C Cable', 40),
		('Laptop Stand', 12)
	   ) AS v(name, stock)
	  WHERE NOT EXISTS (SELECT 1 FROM products)`,
	`INSERT INTO cur_date (current)
	 SELECT CURRENT_DATE
	  WHERE NOT EXISTS (SELECT 1 FROM cur_date)`,
}

// Bootstrap creates the schema if missing and seeds the catalog and
// calendar when both are empty.
func (s *Store) Bootstrap(ctx context.Context) error {
	if s.db == nil {
		return ErrNotConnected
	}
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			simplelog.LogErr(err, "cannot create schema")
			return wrapError(err, "CREATE", "")
		}
	}
	for _, stmt := range seedStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			simplelog.LogErr(err, "cannot seed database")
			return wrapError(err, "INSERT", "")
		}
	}
	simplelog.LogThis("database schema bootstrapped")
	return nil
}

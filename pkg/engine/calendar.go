package engine

import (
	"context"
	"log/slog"
)

// Calendar is the single-row simulated "current date". It only moves
// forward, one whole day per advance, and every date comparison in the
// engine goes through it.
type Calendar struct {
	store   Store
	catalog *Catalog
	orders  *Orders
	logger  *slog.Logger
}

// AdvanceResult reports what one calendar advance did.
type AdvanceResult struct {
	Current Date
	Expired int
}

// Current returns the calendar's current date.
func (c *Calendar) Current(ctx context.Context) (Date, error) {
	const op = "calendar.Current"

	tx, err := c.store.Begin(ctx)
	if err != nil {
		return Date{}, wrap(op, err)
	}
	defer tx.Rollback()

	current, err := c.currentIn(tx, op)
	if err != nil {
		return Date{}, err
	}
	if err := tx.Commit(); err != nil {
		return Date{}, wrap(op, err)
	}
	return current, nil
}

// Advance moves the calendar forward one day, expires every order whose
// date fell behind the new current date (cascading and crediting their
// reserved stock), then restocks every product. The whole batch is one
// transaction: expiration runs against the already-advanced date, and
// restocking runs on every advance whether or not anything expired.
func (c *Calendar) Advance(ctx context.Context) (AdvanceResult, error) {
	const op = "calendar.Advance"

	tx, err := c.store.Begin(ctx)
	if err != nil {
		return AdvanceResult{}, wrap(op, err)
	}
	defer tx.Rollback()

	current, err := tx.AdvanceDate()
	if err != nil {
		if noRow(err) {
			return AdvanceResult{}, E(KindNotFound, op, "current date is not initialized")
		}
		return AdvanceResult{}, wrap(op, err)
	}

	expired, err := tx.ListOrdersBefore(current)
	if err != nil {
		return AdvanceResult{}, wrap(op, err)
	}
	for _, order := range expired {
		if _, err := c.orders.deleteCascade(tx, op, order.ID); err != nil {
			return AdvanceResult{}, err
		}
	}

	if err := c.catalog.restockAll(tx, op); err != nil {
		return AdvanceResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return AdvanceResult{}, wrap(op, err)
	}

	c.logger.Info("calendar advanced",
		"current", current.String(), "orders_expired", len(expired))
	return AdvanceResult{Current: current, Expired: len(expired)}, nil
}

// currentIn reads the calendar row inside an existing transaction, for
// operations that compare dates as part of their own atomic unit.
func (c *Calendar) currentIn(tx Tx, op string) (Date, error) {
	current, err := tx.CurrentDate()
	if err != nil {
		if noRow(err) {
			return Date{}, E(KindNotFound, op, "current date is not initialized")
		}
		return Date{}, wrap(op, err)
	}
	return current, nil
}

// Package engine implements the order/inventory consistency core:
// catalog stock authority, order store, line-item ledger and the
// advance-day batch. All multi-step mutations run inside a single store
// transaction, and every error carries a closed classification that
// the request layer maps to HTTP codes.
package engine

import (
	"context"
	"log/slog"
)

// Engine bundles the core components over one collaborator store.
type Engine struct {
	Catalog  *Catalog
	Orders   *Orders
	Ledger   *Ledger
	Calendar *Calendar

	store Store
}

// New wires the engine components over the given store.
func New(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	catalog := &Catalog{store: store, logger: logger}
	calendar := &Calendar{store: store, catalog: catalog, logger: logger}
	orders := &Orders{store: store, catalog: catalog, calendar: calendar, logger: logger}
	calendar.orders = orders
	ledger := &Ledger{store: store, catalog: catalog, logger: logger}

	return &Engine{
		Catalog:  catalog,
		Orders:   orders,
		Ledger:   ledger,
		Calendar: calendar,
		store:    store,
	}
}

// Ready reports whether the collaborator store is reachable.
func (e *Engine) Ready(ctx context.Context) bool {
	return e.store.Ping(ctx) == nil
}

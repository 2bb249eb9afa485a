// Package memory is an in-process implementation of the engine store,
// used for tests and as the dev fallback when no database is reachable.
// A transaction holds the store lock from Begin until Commit or
// Rollback, and Rollback restores a snapshot taken at Begin, so the
// engine sees the same atomicity it gets from a real database.
package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/medatechnology/orderdesk/pkg/engine"
)

// Store keeps all state in maps guarded by a single mutex.
type Store struct {
	mu sync.Mutex

	products map[int]engine.Product
	orders   map[string]engine.Order
	items    map[string]engine.LineItem
	itemSeq  map[string]int64
	nextSeq  int64

	current engine.Date
	dateSet bool
}

// New returns an empty store. Seed it before use, or the calendar and
// catalog operations will report missing rows.
func New() *Store {
	return &Store{
		products: make(map[int]engine.Product),
		orders:   make(map[string]engine.Order),
		items:    make(map[string]engine.LineItem),
		itemSeq:  make(map[string]int64),
		nextSeq:  1,
	}
}

// Seed loads a product catalog and initializes the calendar.
func (s *Store) Seed(products []engine.Product, current engine.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.products[p.ID] = p
	}
	s.current = current
	s.dateSet = true
}

// NewWithDefaults returns a store seeded with a small starter catalog
// and today's date, for running without a database.
func NewWithDefaults() *Store {
	s := New()
	s.Seed([]engine.Product{
		{ID: 1, Name: "Keyboard", Stock: 15},
		{ID: 2, Name: "Mouse", Stock: 20},
		{ID: 3, Name: "Monitor", Stock: 8},
		{ID: 4, Name: "USB-C Cable", Stock: 40},
		{ID: 5, Name: "Laptop Stand", Stock: 12},
	}, engine.Today())
	return s
}

// Begin locks the store and snapshots its state. Only one transaction
// runs at a time; callers must Commit or Rollback to release the lock.
func (s *Store) Begin(ctx context.Context) (engine.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &tx{store: s, snap: s.snapshot()}, nil
}

// Ping always succeeds; the store is in-process.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

type snapshot struct {
	products map[int]engine.Product
	orders   map[string]engine.Order
	items    map[string]engine.LineItem
	itemSeq  map[string]int64
	nextSeq  int64
	current  engine.Date
	dateSet  bool
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		products: make(map[int]engine.Product, len(s.products)),
		orders:   make(map[string]engine.Order, len(s.orders)),
		items:    make(map[string]engine.LineItem, len(s.items)),
		itemSeq:  make(map[string]int64, len(s.itemSeq)),
		nextSeq:  s.nextSeq,
		current:  s.current,
		dateSet:  s.dateSet,
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.items {
		snap.items[k] = v
	}
	for k, v := range s.itemSeq {
		snap.itemSeq[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.orders = snap.orders
	s.items = snap.items
	s.itemSeq = snap.itemSeq
	s.nextSeq = snap.nextSeq
	s.current = snap.current
	s.dateSet = snap.dateSet
}

type tx struct {
	store *Store
	snap  snapshot
	done  bool
}

func (t *tx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.restore(t.snap)
	t.store.mu.Unlock()
	return nil
}

func (t *tx) ListProducts() ([]engine.ProductRef, error) {
	refs := make([]engine.ProductRef, 0, len(t.store.products))
	for _, p := range t.store.products {
		refs = append(refs, engine.ProductRef{ID: p.ID, Name: p.Name})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

func (t *tx) GetProduct(productID int) (engine.Product, error) {
	p, ok := t.store.products[productID]
	if !ok {
		return engine.Product{}, engine.ErrNoRow
	}
	return p, nil
}

func (t *tx) AdjustStock(productID, delta int) error {
	p, ok := t.store.products[productID]
	if !ok {
		return engine.ErrNoRow
	}
	if p.Stock+delta < 0 {
		return engine.ErrNoRow
	}
	p.Stock += delta
	t.store.products[productID] = p
	return nil
}

func (t *tx) RestockAll(maxBonus int) error {
	for id, p := range t.store.products {
		p.Stock += rand.Intn(maxBonus) + 1
		t.store.products[id] = p
	}
	return nil
}

func (t *tx) InsertOrder(o engine.Order) error {
	if _, ok := t.store.orders[o.ID]; ok {
		return engine.ErrDuplicate
	}
	t.store.orders[o.ID] = o
	return nil
}

func (t *tx) GetOrder(orderID string) (engine.Order, error) {
	o, ok := t.store.orders[orderID]
	if !ok {
		return engine.Order{}, engine.ErrNoRow
	}
	return o, nil
}

func (t *tx) DeleteOrder(orderID string) error {
	if _, ok := t.store.orders[orderID]; !ok {
		return engine.ErrNoRow
	}
	delete(t.store.orders, orderID)
	return nil
}

func (t *tx) ListOrders() ([]engine.Order, error) {
	orders := make([]engine.Order, 0, len(t.store.orders))
	for _, o := range t.store.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].Date.Before(orders[j].Date) {
			return true
		}
		if orders[j].Date.Before(orders[i].Date) {
			return false
		}
		return orders[i].ID < orders[j].ID
	})
	return orders, nil
}

func (t *tx) ListOrdersBefore(cutoff engine.Date) ([]engine.Order, error) {
	var expired []engine.Order
	for _, o := range t.store.orders {
		if o.Date.Before(cutoff) {
			expired = append(expired, o)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	return expired, nil
}

func (t *tx) InsertItem(item engine.LineItem) error {
	if _, ok := t.store.items[item.ID]; ok {
		return engine.ErrDuplicate
	}
	t.store.items[item.ID] = item
	t.store.itemSeq[item.ID] = t.store.nextSeq
	t.store.nextSeq++
	return nil
}

func (t *tx) GetItem(itemID string) (engine.LineItem, error) {
	item, ok := t.store.items[itemID]
	if !ok {
		return engine.LineItem{}, engine.ErrNoRow
	}
	t.joinName(&item)
	return item, nil
}

func (t *tx) ListItemsByOrder(orderID string) ([]engine.LineItem, error) {
	var items []engine.LineItem
	for _, item := range t.store.items {
		if item.OrderID == orderID {
			t.joinName(&item)
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return t.store.itemSeq[items[i].ID] < t.store.itemSeq[items[j].ID]
	})
	return items, nil
}

func (t *tx) SetItemQuantity(itemID string, quantity int) error {
	item, ok := t.store.items[itemID]
	if !ok {
		return engine.ErrNoRow
	}
	item.Quantity = quantity
	t.store.items[itemID] = item
	return nil
}

func (t *tx) SetItemOrder(itemID, orderID string) error {
	item, ok := t.store.items[itemID]
	if !ok {
		return engine.ErrNoRow
	}
	item.OrderID = orderID
	t.store.items[itemID] = item
	return nil
}

func (t *tx) DeleteItem(orderID, itemID string) error {
	item, ok := t.store.items[itemID]
	if !ok || item.OrderID != orderID {
		return engine.ErrNoRow
	}
	delete(t.store.items, itemID)
	delete(t.store.itemSeq, itemID)
	return nil
}

func (t *tx) CurrentDate() (engine.Date, error) {
	if !t.store.dateSet {
		return engine.Date{}, engine.ErrNoRow
	}
	return t.store.current, nil
}

func (t *tx) AdvanceDate() (engine.Date, error) {
	if !t.store.dateSet {
		return engine.Date{}, engine.ErrNoRow
	}
	t.store.current = t.store.current.Next()
	return t.store.current, nil
}

// joinName mirrors the SQL join the database stores do: a line item is
// always reported with its product's current name.
func (t *tx) joinName(item *engine.LineItem) {
	if p, ok := t.store.products[item.ProductID]; ok {
		item.ProductName = p.Name
	}
}

package engine_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/medatechnology/orderdesk/pkg/engine"
	"github.com/medatechnology/orderdesk/pkg/storage/memory"
)

func testDate(t *testing.T, s string) engine.Date {
	t.Helper()
	d, err := engine.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

// newTestEngine returns an engine over a seeded in-memory store with
// the calendar at 2024-01-01.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	store := memory.New()
	store.Seed([]engine.Product{
		{ID: 1, Name: "Widget", Stock: 10},
		{ID: 2, Name: "Gadget", Stock: 7},
	}, testDate(t, "2024-01-01"))
	return engine.New(store, slog.Default())
}

func mustCreateOrder(t *testing.T, eng *engine.Engine, id, customer, date string) engine.Order {
	t.Helper()
	o, err := eng.Orders.Create(context.Background(), id, customer, testDate(t, date))
	if err != nil {
		t.Fatalf("Create order %s: %v", id, err)
	}
	return o
}

func mustAddItem(t *testing.T, eng *engine.Engine, orderID string, productID, qty int) engine.LineItem {
	t.Helper()
	item, err := eng.Ledger.AddItem(context.Background(), orderID, productID, qty)
	if err != nil {
		t.Fatalf("AddItem order=%s product=%d qty=%d: %v", orderID, productID, qty, err)
	}
	return item
}

func stockOf(t *testing.T, eng *engine.Engine, productID int) int {
	t.Helper()
	p, err := eng.Catalog.Get(context.Background(), productID)
	if err != nil {
		t.Fatalf("Get product %d: %v", productID, err)
	}
	return p.Stock
}

func TestStockConservation(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	mustCreateOrder(t, eng, "o1", "Ada", "2024-01-05")

	item := mustAddItem(t, eng, "o1", 1, 3)
	if got := stockOf(t, eng, 1); got != 7 {
		t.Errorf("stock after add = %d, want 7", got)
	}

	if _, err := eng.Ledger.UpdateQuantity(ctx, item.ID, 5); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if got := stockOf(t, eng, 1); got != 5 {
		t.Errorf("stock after update to 5 = %d, want 5", got)
	}

	if _, err := eng.Ledger.UpdateQuantity(ctx, item.ID, 2); err != nil {
		t.Fatalf("UpdateQuantity down: %v", err)
	}
	if got := stockOf(t, eng, 1); got != 8 {
		t.Errorf("stock after update to 2 = %d, want 8", got)
	}

	if err := eng.Ledger.DeleteItem(ctx, "o1", item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if got := stockOf(t, eng, 1); got != 10 {
		t.Errorf("stock after delete = %d, want 10", got)
	}
}

func TestNoNegativeStock(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	mustCreateOrder(t, eng, "o1", "Ada", "2024-01-05")

	if _, err := eng.Ledger.AddItem(ctx, "o1", 1, 11); !engine.IsInsufficientStock(err) {
		t.Fatalf("AddItem over stock: got %v, want insufficient stock", err)
	}
	if got := stockOf(t, eng, 1); got != 10 {
		t.Errorf("stock after failed add = %d, want 10", got)
	}

	item := mustAddItem(t, eng, "o1", 1, 3)
	// 7 left + the 3 already reserved makes 10 the maximum new quantity.
	if _, err := eng.Ledger.UpdateQuantity(ctx, item.ID, 11); !engine.IsInsufficientStock(err) {
		t.Fatalf("UpdateQuantity over stock: got %v, want insufficient stock", err)
	}
	if got := stockOf(t, eng, 1); got != 7 {
		t.Errorf("stock after failed update = %d, want 7", got)
	}
	got, err := eng.Ledger.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Quantity != 3 {
		t.Errorf("item quantity after failed update = %d, want 3", got.Quantity)
	}

	if _, err := eng.Ledger.UpdateQuantity(ctx, item.ID, 10); err != nil {
		t.Fatalf("UpdateQuantity to exact availability: %v", err)
	}
	if got := stockOf(t, eng, 1); got != 0 {
		t.Errorf("stock after exact reservation = %d, want 0", got)
	}
}

func TestQuantityValidation(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	mustCreateOrder(t, eng, "o1", "Ada", "2024-01-05")

	for _, qty := range []int{0, -4} {
		if _, err := eng.Ledger.AddItem(ctx, "o1", 1, qty); !engine.IsValidation(err) {
			t.Errorf("AddItem qty=%d: got %v, want validation error", qty, err)
		}
	}

	item := mustAddItem(t, eng, "o1", 1, 2)
	if _, err := eng.Ledger.UpdateQuantity(ctx, item.ID, 0); !engine.IsValidation(err) {
		t.Errorf("UpdateQuantity qty=0: got %v, want validation error", err)
	}
}

func TestMovePreservesReservation(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	mustCreateOrder(t, eng, "o1", "Ada", "2024-01-05")
	mustCreateOrder(t, eng, "o2", "Grace", "2024-01-06")

	item := mustAddItem(t, eng, "o1", 2, 4)
	before := stockOf(t, eng, 2)

	moved, err := eng.Ledger.MoveItem(ctx, item.ID, "o2")
	if err != nil {
		t.Fatalf("MoveItem: %v", err)
	}
	if moved.OrderID != "o2" {
		t.Errorf("moved item order = %s, want o2", moved.OrderID)
	}
	if moved.Quantity != 4 {
		t.Errorf("moved item quantity = %d, want 4", moved.Quantity)
	}
	if got := stockOf(t, eng, 2); got != before {
		t.Errorf("stock changed on move: %d -> %d", before, got)
	}

	items, err := eng.Ledger.ListByOrder(ctx, "o1")
	if err != nil {
		t.Fatalf("ListByOrder: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("source order still has %d items", len(items))
	}
}

func TestMoveToUnknownOrder(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	mustCreateOrder(t, eng, "o1", "Ada", "2024-01-05")
	item := mustAddItem(t, eng, "o1", 1, 2)

	if _, err := eng.Ledger.MoveItem(ctx, item.ID, "nope"); !engine.IsNotFound(err) {
		t.Fatalf("MoveItem to unknown order: got %v, want not found", err)
	}
	got, err := eng.Ledger.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem after failed move: %v", err)
	}
	if got.OrderID != "o1" {
		t.Errorf("item order after failed move = %s, want o1", got.OrderID)
	}
}

func TestCascadeDelete(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	mustCreateOrder(t, eng, "o1", "Ada", "2024-01-05")

	item1 := mustAddItem(t, eng, "o1", 1, 3)
	mustAddItem(t, eng, "o1", 2, 2)

	if err := eng.Orders.Delete(ctx, "o1"); err != nil {
		t.Fatalf("Delete order: %v", err)
	}
	if got := stockOf(t, eng, 1); got != 10 {
		t.Errorf("product 1 stock after cascade = %d, want 10", got)
	}
	if got := stockOf(t, eng, 2); got != 7 {
		t.Errorf("product 2 stock after cascade = %d, want 7", got)
	}
	if _, err := eng.Ledger.GetItem(ctx, item1.ID); !engine.IsNotFound(err) {
		t.Errorf("item still exists after cascade: %v", err)
	}

	orders, err := eng.Orders.List(ctx)
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("orders remaining after delete = %d, want 0", len(orders))
	}
}

func TestDeleteUnknownOrder(t *testing.T) {
	eng := newTestEngine(t)
	if err := eng.Orders.Delete(context.Background(), "nope"); !engine.IsNotFound(err) {
		t.Fatalf("Delete unknown order: got %v, want not found", err)
	}
}

func TestDeleteItemOnWrongOrder(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	mustCreateOrder(t, eng, "o1", "Ada", "2024-01-05")
	mustCreateOrder(t, eng, "o2", "Grace", "2024-01-05")
	item := mustAddItem(t, eng, "o1", 1, 2)

	if err := eng.Ledger.DeleteItem(ctx, "o2", item.ID); !engine.IsNotFound(err) {
		t.Fatalf("DeleteItem via wrong order: got %v, want not found", err)
	}
	if got := stockOf(t, eng, 1); got != 8 {
		t.Errorf("stock after failed delete = %d, want 8", got)
	}
}

func TestOrderDateValidation(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	if _, err := eng.Orders.Create(ctx, "late", "Ada", testDate(t, "2023-12-31")); !engine.IsValidation(err) {
		t.Fatalf("Create with past date: got %v, want validation error", err)
	}
	if _, err := eng.Orders.Create(ctx, "", "", testDate(t, "2024-01-05")); !engine.IsValidation(err) {
		t.Fatalf("Create without customer: got %v, want validation error", err)
	}

	orders, err := eng.Orders.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("rejected creates left %d orders behind", len(orders))
	}

	// Ordering on the current date is allowed.
	if _, err := eng.Orders.Create(ctx, "today", "Ada", testDate(t, "2024-01-01")); err != nil {
		t.Fatalf("Create on current date: %v", err)
	}
}

func TestDuplicateOrderConflict(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	mustCreateOrder(t, eng, "o1", "Ada", "2024-01-05")

	if _, err := eng.Orders.Create(ctx, "o1", "Grace", testDate(t, "2024-01-06")); !engine.IsConflict(err) {
		t.Fatalf("duplicate create: got %v, want conflict", err)
	}
}

func TestCreateOrderGeneratesID(t *testing.T) {
	eng := newTestEngine(t)
	o := mustCreateOrder(t, eng, "", "Ada", "2024-01-05")
	if o.ID == "" {
		t.Fatal("empty order id after create")
	}
	if _, err := eng.Ledger.ListByOrder(context.Background(), o.ID); err != nil {
		t.Fatalf("generated order not usable: %v", err)
	}
}

func TestAddItemUnknownReferences(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	mustCreateOrder(t, eng, "o1", "Ada", "2024-01-05")

	if _, err := eng.Ledger.AddItem(ctx, "nope", 1, 2); !engine.IsNotFound(err) {
		t.Errorf("unknown order: got %v, want not found", err)
	}
	if _, err := eng.Ledger.AddItem(ctx, "o1", 99, 2); !engine.IsNotFound(err) {
		t.Errorf("unknown product: got %v, want not found", err)
	}
	if got := stockOf(t, eng, 1); got != 10 {
		t.Errorf("stock after failed adds = %d, want 10", got)
	}
}

func TestAdvanceExpiresAndRestocks(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	stale := mustCreateOrder(t, eng, "stale", "Ada", "2024-01-01")
	keep := mustCreateOrder(t, eng, "keep", "Grace", "2024-01-02")
	mustAddItem(t, eng, stale.ID, 1, 3)
	mustAddItem(t, eng, keep.ID, 2, 2)

	result, err := eng.Calendar.Advance(ctx)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := result.Current.String(); got != "2024-01-02" {
		t.Errorf("current after advance = %s, want 2024-01-02", got)
	}
	if result.Expired != 1 {
		t.Errorf("expired = %d, want 1", result.Expired)
	}

	orders, err := eng.Orders.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != keep.ID {
		t.Fatalf("surviving orders = %v, want only %s", orders, keep.ID)
	}

	// Product 1: 10 - 3 reserved, credited back on expiry, plus a
	// restock bonus of 1 to 10.
	if got := stockOf(t, eng, 1); got < 11 || got > 20 {
		t.Errorf("product 1 stock after advance = %d, want in [11,20]", got)
	}
	// Product 2: reservation on the kept order stays debited.
	if got := stockOf(t, eng, 2); got < 6 || got > 15 {
		t.Errorf("product 2 stock after advance = %d, want in [6,15]", got)
	}

	current, err := eng.Calendar.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if current.String() != "2024-01-02" {
		t.Errorf("Current() = %s, want 2024-01-02", current)
	}
}

func TestAdvanceRestocksWithoutExpiry(t *testing.T) {
	eng := newTestEngine(t)

	result, err := eng.Calendar.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if result.Expired != 0 {
		t.Errorf("expired = %d, want 0", result.Expired)
	}
	if got := stockOf(t, eng, 1); got < 11 || got > 20 {
		t.Errorf("product 1 stock after empty advance = %d, want in [11,20]", got)
	}
}

func TestIdempotentReads(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	mustCreateOrder(t, eng, "o1", "Ada", "2024-01-05")
	mustAddItem(t, eng, "o1", 1, 3)

	for i := 0; i < 3; i++ {
		items, err := eng.Ledger.ListByOrder(ctx, "o1")
		if err != nil {
			t.Fatalf("ListByOrder: %v", err)
		}
		if len(items) != 1 || items[0].Quantity != 3 {
			t.Fatalf("ListByOrder pass %d = %v", i, items)
		}
		if got := stockOf(t, eng, 1); got != 7 {
			t.Fatalf("stock drifted to %d on read pass %d", got, i)
		}
	}
}

func TestItemsListedInInsertionOrder(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	mustCreateOrder(t, eng, "o1", "Ada", "2024-01-05")

	first := mustAddItem(t, eng, "o1", 2, 1)
	second := mustAddItem(t, eng, "o1", 1, 1)
	third := mustAddItem(t, eng, "o1", 2, 2)

	items, err := eng.Ledger.ListByOrder(ctx, "o1")
	if err != nil {
		t.Fatalf("ListByOrder: %v", err)
	}
	want := []string{first.ID, second.ID, third.ID}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, item := range items {
		if item.ID != want[i] {
			t.Errorf("position %d = %s, want %s", i, item.ID, want[i])
		}
		if item.ProductName == "" {
			t.Errorf("position %d missing product name", i)
		}
	}
}

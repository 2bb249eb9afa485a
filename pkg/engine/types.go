package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a whole calendar day. The engine never deals in finer
// granularity: order dates and the simulated current date are all days.
type Date struct {
	t time.Time
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// DateOf truncates a time.Time to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Today returns the real-world current day. Used only to seed a fresh
// store; after that the calendar row is the single source of truth.
func Today() Date {
	return DateOf(time.Now())
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return Date{t: d.t.AddDate(0, 0, 1)}
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Time returns the underlying midnight-UTC instant.
func (d Date) Time() time.Time {
	return d.t
}

func (d Date) String() string {
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ProductRef identifies a product without exposing its stock level.
// Catalog listings return refs; stock is only visible through Get.
type ProductRef struct {
	ID   int    `json:"product_id"`
	Name string `json:"product_name"`
}

// Product is a catalog entry with its tracked stock count. Stock is
// mutated only by the line-item lifecycle and restocking; it never goes
// negative.
type Product struct {
	ID    int    `json:"product_id"`
	Name  string `json:"product_name"`
	Stock int    `json:"stock"`
}

// Order is a customer's pending request. It owns zero or more line
// items; deleting it cascades to them.
type Order struct {
	ID       string `json:"order_id"`
	Customer string `json:"customer_name"`
	Date     Date   `json:"order_date"`
}

// LineItem is one product-and-quantity entry within an order. A live
// item reserves Quantity units of its product's stock; the reservation
// travels with the item when it moves between orders.
type LineItem struct {
	ID          string `json:"item_id"`
	OrderID     string `json:"order_id"`
	ProductID   int    `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

package rqlite

import (
	"fmt"

	"github.com/medatechnology/goutil/object"

	"github.com/medatechnology/orderdesk/pkg/engine"
)

// rqlite returns rows as JSON, so numeric columns arrive as int64 or
// float64 depending on the value. These helpers normalize row values.

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	case int:
		return n
	case string:
		return object.Int(n, false)
	default:
		return 0
	}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func scanOrder(row map[string]interface{}) (engine.Order, error) {
	date, err := engine.ParseDate(toString(row["order_date"]))
	if err != nil {
		return engine.Order{}, err
	}
	return engine.Order{
		ID:       toString(row["order_id"]),
		Customer: toString(row["customer_name"]),
		Date:     date,
	}, nil
}

func scanItem(row map[string]interface{}) engine.LineItem {
	return engine.LineItem{
		ID:          toString(row["item_id"]),
		OrderID:     toString(row["order_id"]),
		ProductID:   toInt(row["product_id"]),
		ProductName: toString(row["product_name"]),
		Quantity:    toInt(row["quantity"]),
	}
}

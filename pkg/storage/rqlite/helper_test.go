package rqlite

import "testing"

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want int
	}{
		{"int64", int64(42), 42},
		{"float64", float64(7), 7},
		{"int", 3, 3},
		{"numeric string", "15", 15},
		{"garbage string", "abc", 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toInt(tt.in); got != tt.want {
				t.Errorf("toInt(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestToString(t *testing.T) {
	if got := toString("hello"); got != "hello" {
		t.Errorf("toString = %q", got)
	}
	if got := toString(nil); got != "" {
		t.Errorf("toString(nil) = %q", got)
	}
	if got := toString(int64(5)); got != "5" {
		t.Errorf("toString(5) = %q", got)
	}
}

func TestScanOrder(t *testing.T) {
	row := map[string]interface{}{
		"order_id":      "o1",
		"customer_name": "Ada",
		"order_date":    "2024-01-05",
	}
	o, err := scanOrder(row)
	if err != nil {
		t.Fatalf("scanOrder: %v", err)
	}
	if o.ID != "o1" || o.Customer != "Ada" || o.Date.String() != "2024-01-05" {
		t.Errorf("scanOrder = %+v", o)
	}

	row["order_date"] = "not a date"
	if _, err := scanOrder(row); err == nil {
		t.Error("scanOrder accepted malformed date")
	}
}

func TestConfigValidate(t *testing.T) {
	config := &Config{}
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if config.URL != DefaultURL {
		t.Errorf("URL = %s, want %s", config.URL, DefaultURL)
	}
	if config.Consistency != DefaultConsistency {
		t.Errorf("Consistency = %s, want %s", config.Consistency, DefaultConsistency)
	}

	config = &Config{URL: "http://node1:4001/"}
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if config.URL != "http://node1:4001" {
		t.Errorf("trailing slash kept: %s", config.URL)
	}

	config = &Config{URL: "node1:4001"}
	if err := config.Validate(); err == nil {
		t.Error("Validate accepted URL without scheme")
	}
}

package middlewares_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/medatechnology/orderdesk/pkg/middlewares"
)

func newChain(t *testing.T) (*echo.Echo, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	e := echo.New()
	middlewares.Setup(e, logger)
	e.GET("/ping", func(c *echo.Context) error {
		return (*c).JSON(http.StatusOK, map[string]string{"pong": "ok"})
	})
	e.GET("/boom", func(c *echo.Context) error {
		panic("boom")
	})
	return e, &buf
}

func TestRequestIDAssigned(t *testing.T) {
	e, _ := newChain(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("no request id assigned")
	}
}

func TestCORSHeaders(t *testing.T) {
	e, _ := newChain(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "http://example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRecoverFromPanic(t *testing.T) {
	e, _ := newChain(t)

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status after panic = %d, want 500", rec.Code)
	}
}

func TestRequestLoggerFields(t *testing.T) {
	e, buf := newChain(t)

	req := httptest.NewRequest(http.MethodGet, "/ping?x=1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output not one JSON line: %q: %v", buf.String(), err)
	}
	if entry["msg"] != "request" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["method"] != http.MethodGet {
		t.Errorf("method = %v", entry["method"])
	}
	if entry["uri"] != "/ping?x=1" {
		t.Errorf("uri = %v", entry["uri"])
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Error("log entry missing request_id")
	}
	if _, ok := entry["latency_ms"]; !ok {
		t.Error("log entry missing latency_ms")
	}
}

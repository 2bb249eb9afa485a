package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/medatechnology/orderdesk/pkg/engine"
)

// Handler translates HTTP requests into engine operations.
type Handler struct {
	eng    *engine.Engine
	logger *slog.Logger
}

func New(eng *engine.Engine, logger *slog.Logger) *Handler {
	return &Handler{
		eng:    eng,
		logger: logger,
	}
}

type createOrderRequest struct {
	OrderID  string `json:"orderId"`
	Customer string `json:"customer"`
	Date     string `json:"date"`
}

type addItemRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type moveItemRequest struct {
	TargetOrderID string `json:"target_order_id"`
}

// statusFor maps the engine's error classification to HTTP status codes.
func statusFor(err error) int {
	switch engine.KindOf(err) {
	case engine.KindValidation, engine.KindInsufficientStock:
		return http.StatusBadRequest
	case engine.KindNotFound:
		return http.StatusNotFound
	case engine.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the standard error body. Internal errors are logged with
// the operation context; classified errors carry their own message.
func (h *Handler) fail(c *echo.Context, op string, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "op", op, "error", err)
	}
	return (*c).JSON(status, map[string]string{
		"message": engine.UserMessage(err),
	})
}

func (h *Handler) ListProducts(c *echo.Context) error {
	products, err := h.eng.Catalog.List((*c).Request().Context())
	if err != nil {
		return h.fail(c, "ListProducts", err)
	}
	if products == nil {
		products = []engine.ProductRef{}
	}
	return (*c).JSON(http.StatusOK, map[string]interface{}{
		"products": products,
	})
}

func (h *Handler) ListOrders(c *echo.Context) error {
	orders, err := h.eng.Orders.List((*c).Request().Context())
	if err != nil {
		return h.fail(c, "ListOrders", err)
	}
	if orders == nil {
		orders = []engine.Order{}
	}
	return (*c).JSON(http.StatusOK, map[string]interface{}{
		"orders": orders,
	})
}

func (h *Handler) CreateOrder(c *echo.Context) error {
	var req createOrderRequest
	if err := (*c).Bind(&req); err != nil {
		return (*c).JSON(http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "invalid request body",
		})
	}

	var date engine.Date
	if req.Date != "" {
		var err error
		if date, err = engine.ParseDate(req.Date); err != nil {
			return (*c).JSON(http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"message": "date must be formatted as YYYY-MM-DD",
			})
		}
	}

	order, err := h.eng.Orders.Create((*c).Request().Context(), req.OrderID, req.Customer, date)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("request failed", "op", "CreateOrder", "error", err)
		}
		return (*c).JSON(status, map[string]interface{}{
			"success": false,
			"message": engine.UserMessage(err),
		})
	}

	return (*c).JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"order_id": order.ID,
	})
}

func (h *Handler) DeleteOrder(c *echo.Context) error {
	orderID := (*c).Param("order_id")
	if err := h.eng.Orders.Delete((*c).Request().Context(), orderID); err != nil {
		return h.fail(c, "DeleteOrder", err)
	}
	return (*c).JSON(http.StatusOK, map[string]string{
		"message": "order deleted",
	})
}

func (h *Handler) ListItems(c *echo.Context) error {
	orderID := (*c).Param("order_id")
	items, err := h.eng.Ledger.ListByOrder((*c).Request().Context(), orderID)
	if err != nil {
		return h.fail(c, "ListItems", err)
	}
	if items == nil {
		items = []engine.LineItem{}
	}
	return (*c).JSON(http.StatusOK, map[string]interface{}{
		"items": items,
	})
}

func (h *Handler) AddItem(c *echo.Context) error {
	orderID := (*c).Param("order_id")

	var req addItemRequest
	if err := (*c).Bind(&req); err != nil {
		return (*c).JSON(http.StatusBadRequest, map[string]string{
			"message": "invalid request body",
		})
	}

	item, err := h.eng.Ledger.AddItem((*c).Request().Context(), orderID, req.ProductID, req.Quantity)
	if err != nil {
		return h.fail(c, "AddItem", err)
	}
	return (*c).JSON(http.StatusCreated, map[string]string{
		"item_id": item.ID,
	})
}

func (h *Handler) UpdateItem(c *echo.Context) error {
	itemID := (*c).Param("item_id")

	var req updateItemRequest
	if err := (*c).Bind(&req); err != nil {
		return (*c).JSON(http.StatusBadRequest, map[string]string{
			"message": "invalid request body",
		})
	}

	if _, err := h.eng.Ledger.UpdateQuantity((*c).Request().Context(), itemID, req.Quantity); err != nil {
		return h.fail(c, "UpdateItem", err)
	}
	return (*c).JSON(http.StatusOK, map[string]string{
		"message": "item updated",
	})
}

func (h *Handler) DeleteItem(c *echo.Context) error {
	orderID := (*c).Param("order_id")
	itemID := (*c).Param("item_id")

	if err := h.eng.Ledger.DeleteItem((*c).Request().Context(), orderID, itemID); err != nil {
		return h.fail(c, "DeleteItem", err)
	}
	return (*c).JSON(http.StatusOK, map[string]string{
		"message": "item deleted",
	})
}

func (h *Handler) MoveItem(c *echo.Context) error {
	itemID := (*c).Param("item_id")

	var req moveItemRequest
	if err := (*c).Bind(&req); err != nil {
		return (*c).JSON(http.StatusBadRequest, map[string]string{
			"message": "invalid request body",
		})
	}

	item, err := h.eng.Ledger.MoveItem((*c).Request().Context(), itemID, req.TargetOrderID)
	if err != nil {
		return h.fail(c, "MoveItem", err)
	}
	return (*c).JSON(http.StatusOK, item)
}

func (h *Handler) GetDate(c *echo.Context) error {
	current, err := h.eng.Calendar.Current((*c).Request().Context())
	if err != nil {
		return h.fail(c, "GetDate", err)
	}
	return (*c).JSON(http.StatusOK, map[string]string{
		"cur_date": current.String(),
	})
}

func (h *Handler) AdvanceDate(c *echo.Context) error {
	result, err := h.eng.Calendar.Advance((*c).Request().Context())
	if err != nil {
		return h.fail(c, "AdvanceDate", err)
	}
	return (*c).JSON(http.StatusOK, map[string]interface{}{
		"message":  "date advanced",
		"cur_date": result.Current.String(),
	})
}

func (h *Handler) HealthCheck(c *echo.Context) error {
	return (*c).JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (h *Handler) ReadinessCheck(c *echo.Context) error {
	ready := h.eng.Ready((*c).Request().Context())
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	return (*c).JSON(status, map[string]interface{}{
		"ready": ready,
	})
}

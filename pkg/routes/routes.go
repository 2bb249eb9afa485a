package routes

import (
	"github.com/labstack/echo/v5"

	"github.com/medatechnology/orderdesk/pkg/handlers"
)

// Setup registers the API route table.
func Setup(e *echo.Echo, h *handlers.Handler) {

	e.GET("/health", func(c *echo.Context) error { return h.HealthCheck(c) })
	e.GET("/ready", func(c *echo.Context) error { return h.ReadinessCheck(c) })

	v1 := e.Group("/api/v1")

	v1.GET("/products", func(c *echo.Context) error { return h.ListProducts(c) })

	orders := v1.Group("/orders")
	{
		orders.GET("", func(c *echo.Context) error { return h.ListOrders(c) })
		orders.POST("", func(c *echo.Context) error { return h.CreateOrder(c) })
		orders.DELETE("/:order_id", func(c *echo.Context) error { return h.DeleteOrder(c) })

		orders.GET("/:order_id/items", func(c *echo.Context) error { return h.ListItems(c) })
		orders.POST("/:order_id/items", func(c *echo.Context) error { return h.AddItem(c) })
		orders.PATCH("/:order_id/items/:item_id", func(c *echo.Context) error { return h.UpdateItem(c) })
		orders.DELETE("/:order_id/items/:item_id", func(c *echo.Context) error { return h.DeleteItem(c) })
		orders.PATCH("/:order_id/items/:item_id/move", func(c *echo.Context) error { return h.MoveItem(c) })
	}

	v1.GET("/date", func(c *echo.Context) error { return h.GetDate(c) })
	v1.PATCH("/date/next", func(c *echo.Context) error { return h.AdvanceDate(c) })
}

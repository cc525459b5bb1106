package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"marketview/internal/domain"
	applog "marketview/internal/log"
	"marketview/internal/services"
	"marketview/internal/validate"
)

// PartialHeader lists the categories missing from an aggregate response.
const PartialHeader = "X-Catalog-Partial"

type APIHandler struct {
	Catalog *services.CatalogService
	Dev     bool
	Timeout time.Duration
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeError maps service errors to statuses. Internal messages only reach
// the body in development.
func (h *APIHandler) writeError(c *fiber.Ctx, err error, msg string) error {
	switch {
	case errors.Is(err, domain.ErrUnknownCategory):
		applog.Security(c, "validation.fail", map[string]any{"field": "category"})
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: h.Catalog.Registry.InvalidCategoryMessage()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errorBody{Error: "Product not found"})
	}
	applog.Error(c, "api.error", err, nil)
	body := errorBody{Error: msg}
	if h.Dev {
		body.Detail = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}

// List serves GET /products/:category.
func (h *APIHandler) List(c *fiber.Ctx) error {
	return h.list(c, c.Params("category"))
}

func (h *APIHandler) list(c *fiber.Ctx, key string) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()
	products, err := h.Catalog.List(ctx, key)
	if err != nil {
		return h.writeError(c, err, "Failed to fetch products")
	}
	return c.JSON(products)
}

// Get serves GET /products/:category/:id.
func (h *APIHandler) Get(c *fiber.Ctx) error {
	key := c.Params("category")
	if _, err := h.Catalog.Registry.Resolve(key); err != nil {
		return h.writeError(c, err, "Failed to fetch product")
	}
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "id"})
		return h.writeError(c, domain.ErrNotFound, "")
	}

	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()
	p, err := h.Catalog.Get(ctx, key, id)
	if err != nil {
		return h.writeError(c, err, "Failed to fetch product")
	}
	return c.JSON(p)
}

// Products serves GET /products, optionally narrowed by ?category=.
func (h *APIHandler) Products(c *fiber.Ctx) error {
	if key := c.Query("category"); key != "" {
		return h.list(c, key)
	}

	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()
	all, err := h.Catalog.ListAll(ctx)
	if err != nil {
		return h.writeError(c, err, "Failed to fetch products")
	}
	if len(all.Failed) > 0 {
		keys := make([]string, len(all.Failed))
		for i, k := range all.Failed {
			keys[i] = string(k)
		}
		c.Set(PartialHeader, strings.Join(keys, ","))
	}
	return c.JSON(all.Products)
}

type healthBody struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// Health reports liveness and store reachability; it always answers 200.
func (h *APIHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.Timeout)
	defer cancel()
	db := "connected"
	if err := h.Catalog.Ping(ctx); err != nil {
		applog.Error(c, "health.db", err, nil)
		db = "disconnected"
	}
	return c.JSON(healthBody{
		Status:    "ok",
		Database:  db,
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// RouteNotFound answers unknown API paths.
func RouteNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(errorBody{Error: "Route not found"})
}

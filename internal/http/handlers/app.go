package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	applog "marketview/internal/log"
)

// NewApp builds the fiber application: middleware chain, JSON API under both
// / and /api, and the HTML pages.
func NewApp(d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        NewEngine(),
		ErrorHandler: d.errorHandler,
	})
	app.Server().MaxRequestBodySize = 1 << 20

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New())
	app.Use(helmet.New())
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
	}
	if d.Cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        d.Cfg.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				p := c.Path()
				return p == "/metrics" || strings.HasSuffix(p, "/health")
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.limit.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(errorBody{Error: "rate limit exceeded, retry soon"})
			},
		}))
	}
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."}, layout)
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	app.Use(Session())

	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}

	api := app.Group("/api")
	mountAPI(api, d)
	api.Use(RouteNotFound)
	mountAPI(app, d)

	app.Get("/search", d.Search.Page)
	app.Get("/dashboard", d.Pages.Dashboard)
	app.Get("/", d.Pages.Home)
	app.Get("/:category", d.Pages.Listing)
	app.Get("/:category/product/:id", d.Pages.Detail)
	app.Post("/:category/product/:id/favorite", d.Pages.ToggleFavorite)

	app.Use(func(c *fiber.Ctx) error {
		return notFound(c, "Page not found")
	})
	return app
}

func mountAPI(r fiber.Router, d *Deps) {
	r.Get("/health", d.API.Health)
	r.Get("/products", d.API.Products)
	r.Get("/products/:category", d.API.List)
	r.Get("/products/:category/:id", d.API.Get)
	r.Get("/search.json", d.Search.JSON)
}

// errorHandler catches whatever a handler returned. The body never carries
// internal messages outside development.
func (d *Deps) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	if strings.HasPrefix(c.Path(), "/api/") {
		body := errorBody{Error: "Internal server error"}
		if code < fiber.StatusInternalServerError {
			body.Error = utils.StatusMessage(code)
		} else if d.Cfg.Development() {
			body.Detail = err.Error()
		}
		return c.Status(code).JSON(body)
	}

	msg := "Something went wrong. Please try again."
	if code == fiber.StatusNotFound {
		msg = "Page not found"
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}, layout); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

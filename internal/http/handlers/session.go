package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "marketview/internal/log"
)

const sidCookie = "sid"

// Session makes sure every browser carries a sid cookie; personalization is
// stored under it. Unparsable ids are replaced.
func Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(sidCookie)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     sidCookie,
				Value:    sid,
				Path:     "/",
				Expires:  time.Now().Add(365 * 24 * time.Hour),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
				Secure:   false,
			})
		}
		c.Locals(sidCookie, sid)

		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			c.SetUserContext(applog.WithRequestID(c.UserContext(), rid))
		}
		return c.Next()
	}
}

func sessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sidCookie).(string)
	return sid
}

// requestContext bounds a storage read by the configured timeout.
func requestContext(c *fiber.Ctx, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), d)
}

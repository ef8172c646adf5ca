package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"estatedesk/internal/domain"
	applog "estatedesk/internal/log"
	"estatedesk/internal/services"
)

const SessionCookie = "admin_session"

// LoadAdmin resolves the caller's session, if any, into Locals("auth").
// Pages read the session cookie; the JSON API only accepts a bearer token.
func LoadAdmin(sessions *services.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		api := strings.HasPrefix(c.Path(), "/api/")
		tok := c.Cookies(SessionCookie)
		if api {
			tok = bearer(c)
		}
		if tok == "" {
			return c.Next()
		}
		a, err := sessions.Authenticate(c.UserContext(), tok)
		switch {
		case err == nil:
			c.Locals("auth", a)
			c.Locals("token", tok)
		case errors.Is(err, domain.ErrUnauthorized):
			if !api {
				clearSessionCookie(c)
			}
		default:
			applog.Error(c, "auth.session.lookup.fail", err, nil)
		}
		return c.Next()
	}
}

// RequireAdmin guards the admin pages.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !authOf(c).Authenticated() {
			applog.Security(c, "access.denied.admin", nil)
			return c.Redirect("/admin/login")
		}
		return c.Next()
	}
}

// RequireAPIAdmin guards the admin JSON endpoints.
func RequireAPIAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !authOf(c).Authenticated() {
			applog.Security(c, "access.denied.api", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		return c.Next()
	}
}

func bearer(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func setSessionCookie(c *fiber.Ctx, token string, expires time.Time, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
		Expires:  expires,
	})
}

func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "estatedesk/internal/log"
	"estatedesk/internal/services"
	"estatedesk/internal/validate"
)

type AuthHandler struct {
	Sessions     *services.SessionManager
	Flashes      *Flashes
	SecureCookie bool
}

// GET /admin/login
func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if authOf(c).Authenticated() {
		return c.Redirect("/admin")
	}
	return render(c, "login", fiber.Map{"Err": ""})
}

// POST /admin/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok || pass == "" {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_format"})
		c.Status(fiber.StatusUnauthorized)
		return render(c, "login", fiber.Map{"Err": "Invalid credentials.", "Email": email})
	}

	s, err := h.Sessions.Login(c.UserContext(), email, pass)
	if err != nil {
		if statusOf(err) != fiber.StatusUnauthorized {
			return pageError(c, "auth.login", err, nil)
		}
		applog.Security(c, "auth.login.fail", map[string]any{"email": email})
		c.Status(fiber.StatusUnauthorized)
		return render(c, "login", fiber.Map{"Err": "Invalid credentials.", "Email": email})
	}

	setSessionCookie(c, s.Token, s.Auth.ExpiresAt, h.SecureCookie)
	c.Locals("auth", s.Auth)
	applog.Audit(c, "auth.login.success", map[string]any{"email": s.Auth.Email})
	return c.Redirect("/admin")
}

// POST /admin/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if tok := c.Cookies(SessionCookie); tok != "" {
		if err := h.Sessions.Logout(c.UserContext(), tok); err != nil {
			applog.Error(c, "auth.logout.fail", err, nil)
		}
	}
	clearSessionCookie(c)
	applog.Audit(c, "auth.logout", nil)
	h.Flashes.Set(c, "info", "You have been logged out.")
	return c.Redirect("/")
}

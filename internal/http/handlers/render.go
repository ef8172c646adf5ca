package handlers

import (
	"github.com/gofiber/fiber/v2"

	"estatedesk/internal/domain"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// Inject the signed-in admin if present
	if a := authOf(c); a.Authenticated() {
		data["Admin"] = a
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("csrf").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	if f, ok := c.Locals("flash").(Flash); ok {
		if _, set := data["Flash"]; !set {
			data["Flash"] = f
		}
		clearFlash(c)
	}
	return c.Render(tmpl, data)
}

func notFoundPage(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}

func authOf(c *fiber.Ctx) domain.AuthContext {
	a, _ := c.Locals("auth").(domain.AuthContext)
	return a
}

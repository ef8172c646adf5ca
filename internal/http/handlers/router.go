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

	applog "estatedesk/internal/log"
)

func isAPI(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/") }

// loginLimiter throttles credential checks per client address.
func loginLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			if isAPI(c) {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
			}
			c.Status(fiber.StatusTooManyRequests)
			return render(c, "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	})
}

// NewApp assembles middleware and routes. Static assets are served from ./web/static.
func NewApp(d *Deps, views fiber.Views) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        views,
		ErrorHandler: ErrorHandler,
		BodyLimit:    d.Cfg.BodyLimit(),
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(recover.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/uploads/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests. Please slow down.")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   d.Cfg.CookieSecure,
		ContextKey:     "csrf",
		// The API authenticates with bearer tokens, never cookies.
		Next: isAPI,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(d.Flashes.Middleware())
	app.Use(LoadAdmin(d.Sessions))

	// ---------- Static assets ----------
	app.Static("/static", "./web/static")
	app.Get("/uploads/*", d.MediaHandler.Serve)

	// Public pages
	pub := d.PublicHandler
	app.Get("/", pub.Home)
	app.Get("/listings", pub.List)
	app.Get("/listings/:id", pub.Detail)

	inq := d.InquiryHandler
	app.Get("/listings/:id/apply", inq.ApplyForm)
	app.Post("/listings/:id/apply", inq.Apply)
	app.Get("/contact", inq.ContactForm)
	app.Post("/contact", inq.Contact)

	// Auth routes (login throttled)
	app.Get("/admin/login", d.AuthHandler.LoginForm)
	app.Post("/admin/login", loginLimiter(), d.AuthHandler.Login)
	app.Post("/admin/logout", d.AuthHandler.Logout)

	// Admin
	adm := d.AdminHandler
	admin := app.Group("/admin", RequireAdmin())
	admin.Get("/", adm.Dashboard)
	admin.Get("/listings/new", adm.NewListing)
	admin.Post("/listings", adm.CreateListing)
	admin.Get("/listings/:id/edit", adm.EditListing)
	admin.Post("/listings/:id", adm.UpdateListing)
	admin.Post("/listings/:id/delete", adm.DeleteListing)
	admin.Post("/listings/:id/images", adm.UploadImages)
	admin.Post("/images/:id/delete", adm.DeleteImage)
	admin.Get("/inquiries", adm.InquiriesPage)
	admin.Post("/inquiries/:id/delete", adm.DeleteInquiry)
	admin.Get("/admins", adm.AdminsPage)
	admin.Post("/admins", adm.CreateAdmin)

	// API
	api := d.APIHandler
	v1 := app.Group("/api/v1")
	v1.Post("/auth/login", loginLimiter(), api.Login)
	v1.Post("/auth/logout", api.Logout)
	v1.Get("/listings", api.ListListings)
	v1.Get("/listings/:id", api.GetListing)
	v1.Post("/listings/:id/inquiries", api.Apply)
	v1.Post("/contact", api.Contact)

	v1admin := v1.Group("/admin", RequireAPIAdmin())
	v1admin.Get("/listings", api.AdminListListings)
	v1admin.Post("/listings", api.CreateListing)
	v1admin.Patch("/listings/:id", api.UpdateListing)
	v1admin.Delete("/listings/:id", api.DeleteListing)
	v1admin.Post("/listings/:id/images", api.UploadImages)
	v1admin.Delete("/images/:id", api.DeleteImage)
	v1admin.Get("/inquiries", api.ListInquiries)
	v1admin.Get("/inquiries/:id", api.GetInquiry)
	v1admin.Delete("/inquiries/:id", api.DeleteInquiry)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		if isAPI(c) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
		}
		return notFoundPage(c, "Page not found")
	})
	return app
}

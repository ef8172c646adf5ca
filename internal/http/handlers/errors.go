package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"estatedesk/internal/domain"
	applog "estatedesk/internal/log"
)

// statusOf maps the domain error taxonomy onto HTTP status codes.
func statusOf(err error) int {
	var ve *domain.ValidationError
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrUnsupportedFile):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// publicMessage never exposes storage details.
func publicMessage(err error) string {
	switch statusOf(err) {
	case fiber.StatusBadRequest:
		return "Please correct the highlighted fields."
	case fiber.StatusNotFound:
		return "Not found"
	case fiber.StatusUnauthorized:
		return "Invalid credentials."
	case fiber.StatusUnsupportedMediaType:
		return "Only PNG, JPEG, WebP and GIF images are accepted (" + fileOf(err) + ")."
	case fiber.StatusRequestEntityTooLarge:
		return "That file is too large (" + fileOf(err) + ")."
	}
	return "Something went wrong. Please try again."
}

// fileOf extracts the file name prefix the upload service puts on its errors.
func fileOf(err error) string {
	name, _, ok := strings.Cut(err.Error(), ":")
	if !ok {
		return "upload"
	}
	return name
}

func fieldsOf(err error) map[string]string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// logFailure picks the log level for a failed operation.
func logFailure(c *fiber.Ctx, action string, err error, fields map[string]any) {
	switch statusOf(err) {
	case fiber.StatusInternalServerError:
		applog.Error(c, action+".fail", err, fields)
	case fiber.StatusNotFound:
		applog.Info(c, action+".notfound", fields)
	default:
		if fields == nil {
			fields = map[string]any{}
		}
		fields["reason"] = err.Error()
		applog.Security(c, action+".rejected", fields)
	}
}

// apiError writes the JSON error body used by every /api/v1 endpoint.
func apiError(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	logFailure(c, action, err, fields)
	body := fiber.Map{"error": publicMessage(err)}
	if f := fieldsOf(err); f != nil {
		body["fields"] = f
	}
	return c.Status(statusOf(err)).JSON(body)
}

// pageError renders the generic error page, or sends the visitor to log in.
func pageError(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	logFailure(c, action, err, fields)
	if errors.Is(err, domain.ErrUnauthorized) {
		return c.Redirect("/admin/login")
	}
	return c.Status(statusOf(err)).Render("notfound", fiber.Map{"Message": publicMessage(err)})
}

// ErrorHandler is the app-wide fallback for errors returned by handlers and middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := statusOf(err)
	if code >= 500 {
		applog.Error(c, "server.error", err, nil)
	}
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && code < 500 {
		msg = fe.Message
	}
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

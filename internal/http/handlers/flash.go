package handlers

import (
	"crypto/sha256"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/securecookie"
)

const flashCookie = "flash"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string // success | danger | info
	Message string
}

// Flashes signs and encrypts flash cookies with keys derived from the app secret.
type Flashes struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func NewFlashes(secret string, secure bool) *Flashes {
	hashKey := sha256.Sum256([]byte("flash-hash:" + secret))
	blockKey := sha256.Sum256([]byte("flash-block:" + secret))
	codec := securecookie.New(hashKey[:], blockKey[:])
	codec.MaxAge(300)
	return &Flashes{codec: codec, secure: secure}
}

func (f *Flashes) Set(c *fiber.Ctx, kind, msg string) {
	v, err := f.codec.Encode(flashCookie, Flash{Kind: kind, Message: msg})
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    v,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   f.secure,
		Expires:  time.Now().Add(5 * time.Minute),
	})
}

// Middleware decodes an incoming flash into Locals; render consumes it.
func (f *Flashes) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := c.Cookies(flashCookie); raw != "" {
			var fl Flash
			if err := f.codec.Decode(flashCookie, raw, &fl); err == nil {
				c.Locals("flash", fl)
			} else {
				clearFlash(c)
			}
		}
		return c.Next()
	}
}

func clearFlash(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

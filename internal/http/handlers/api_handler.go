package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"estatedesk/internal/domain"
	applog "estatedesk/internal/log"
	"estatedesk/internal/services"
	"estatedesk/internal/validate"
)

// APIHandler serves /api/v1. Admin routes authenticate with a bearer token.
type APIHandler struct {
	Sessions       *services.SessionManager
	Listings       *services.ListingService
	Uploads        *services.UploadService
	Inquiries      *services.InquiryService
	MaxUploadBytes int64
}

func badJSON(c *fiber.Ctx, err error) error {
	applog.Security(c, "validation.fail", map[string]any{"reason": "malformed json"})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
}

// POST /api/v1/auth/login
func (h *APIHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badJSON(c, err)
	}
	s, err := h.Sessions.Login(c.UserContext(), body.Email, body.Password)
	if err != nil {
		return apiError(c, "api.auth.login", err, map[string]any{"email": body.Email})
	}
	c.Locals("auth", s.Auth)
	applog.Audit(c, "api.auth.login.success", map[string]any{"email": s.Auth.Email})
	return c.JSON(fiber.Map{"token": s.Token, "expires_at": s.Auth.ExpiresAt})
}

// POST /api/v1/auth/logout
func (h *APIHandler) Logout(c *fiber.Ctx) error {
	if tok := bearer(c); tok != "" {
		if err := h.Sessions.Logout(c.UserContext(), tok); err != nil {
			return apiError(c, "api.auth.logout", err, nil)
		}
	}
	applog.Audit(c, "api.auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/listings
func (h *APIHandler) ListListings(c *fiber.Ctx) error {
	q, err := validate.ListingQuery(query(c))
	if err != nil {
		return apiError(c, "api.listings.search", err, nil)
	}
	page, err := h.Listings.Search(c.UserContext(), q)
	if err != nil {
		return apiError(c, "api.listings.search", err, nil)
	}
	return c.JSON(page)
}

// GET /api/v1/listings/:id
func (h *APIHandler) GetListing(c *fiber.Ctx) error {
	l, err := h.Listings.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return apiError(c, "api.listings.get", err, map[string]any{"listing_id": c.Params("id")})
	}
	return c.JSON(l)
}

func (h *APIHandler) submit(c *fiber.Ctx, kind, listingID string) error {
	var in domain.InquiryInput
	if err := c.BodyParser(&in); err != nil {
		return badJSON(c, err)
	}
	in.Kind = kind
	if listingID != "" {
		in.ListingID = listingID
	}
	q, err := h.Inquiries.Submit(c.UserContext(), in)
	if err != nil {
		return apiError(c, "api.inquiry."+kind, err, map[string]any{"listing_id": in.ListingID})
	}
	applog.Info(c, "api.inquiry."+kind, map[string]any{"inquiry_id": q.ID})
	return c.Status(fiber.StatusCreated).JSON(q)
}

// POST /api/v1/listings/:id/inquiries
func (h *APIHandler) Apply(c *fiber.Ctx) error {
	return h.submit(c, domain.InquiryApplication, c.Params("id"))
}

// POST /api/v1/contact
func (h *APIHandler) Contact(c *fiber.Ctx) error {
	return h.submit(c, domain.InquiryContact, "")
}

// ---------- admin ----------

// GET /api/v1/admin/listings
func (h *APIHandler) AdminListListings(c *fiber.Ctx) error {
	q, err := validate.ListingQuery(query(c))
	if err != nil {
		return apiError(c, "api.admin.listings.search", err, nil)
	}
	q.IncludeInactive = c.Query("status") != domain.StatusActive
	page, err := h.Listings.AdminSearch(c.UserContext(), authOf(c), q)
	if err != nil {
		return apiError(c, "api.admin.listings.search", err, nil)
	}
	return c.JSON(page)
}

// POST /api/v1/admin/listings
func (h *APIHandler) CreateListing(c *fiber.Ctx) error {
	var in domain.ListingInput
	if err := c.BodyParser(&in); err != nil {
		return badJSON(c, err)
	}
	l, err := h.Listings.Create(c.UserContext(), authOf(c), in)
	if err != nil {
		return apiError(c, "api.admin.listing.create", err, nil)
	}
	applog.Audit(c, "admin.listing.create", map[string]any{"listing_id": l.ID, "title": l.Title})
	return c.Status(fiber.StatusCreated).JSON(l)
}

// PATCH /api/v1/admin/listings/:id
func (h *APIHandler) UpdateListing(c *fiber.Ctx) error {
	id := c.Params("id")
	var p domain.ListingPatch
	if err := c.BodyParser(&p); err != nil {
		return badJSON(c, err)
	}
	l, err := h.Listings.Update(c.UserContext(), authOf(c), id, p)
	if err != nil {
		return apiError(c, "api.admin.listing.update", err, map[string]any{"listing_id": id})
	}
	applog.Audit(c, "admin.listing.update", map[string]any{"listing_id": id})
	return c.JSON(l)
}

// DELETE /api/v1/admin/listings/:id
func (h *APIHandler) DeleteListing(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Listings.Delete(c.UserContext(), authOf(c), id); err != nil {
		return apiError(c, "api.admin.listing.delete", err, map[string]any{"listing_id": id})
	}
	applog.Audit(c, "admin.listing.delete", map[string]any{"listing_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/v1/admin/listings/:id/images (multipart, field "images")
func (h *APIHandler) UploadImages(c *fiber.Ctx) error {
	id := c.Params("id")
	blobs, err := readBlobs(c, h.MaxUploadBytes)
	if err == nil {
		var imgs []domain.Image
		imgs, err = h.Uploads.AttachImages(c.UserContext(), authOf(c), id, blobs)
		if err == nil {
			applog.Audit(c, "admin.images.upload", map[string]any{"listing_id": id, "count": len(imgs)})
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"images": imgs})
		}
	}
	return apiError(c, "api.admin.images.upload", err, map[string]any{"listing_id": id})
}

// DELETE /api/v1/admin/images/:id
func (h *APIHandler) DeleteImage(c *fiber.Ctx) error {
	id := c.Params("id")
	im, err := h.Uploads.RemoveImage(c.UserContext(), authOf(c), id)
	if err != nil {
		return apiError(c, "api.admin.images.delete", err, map[string]any{"image_id": id})
	}
	applog.Audit(c, "admin.images.delete", map[string]any{"image_id": id, "listing_id": im.ListingID})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/admin/inquiries
func (h *APIHandler) ListInquiries(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("per_page"))
	res, err := h.Inquiries.List(c.UserContext(), authOf(c), page, size)
	if err != nil {
		return apiError(c, "api.admin.inquiries.list", err, nil)
	}
	return c.JSON(res)
}

// GET /api/v1/admin/inquiries/:id
func (h *APIHandler) GetInquiry(c *fiber.Ctx) error {
	id := c.Params("id")
	q, err := h.Inquiries.Get(c.UserContext(), authOf(c), id)
	if err != nil {
		return apiError(c, "api.admin.inquiries.get", err, map[string]any{"inquiry_id": id})
	}
	return c.JSON(q)
}

// DELETE /api/v1/admin/inquiries/:id
func (h *APIHandler) DeleteInquiry(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Inquiries.Delete(c.UserContext(), authOf(c), id); err != nil {
		return apiError(c, "api.admin.inquiries.delete", err, map[string]any{"inquiry_id": id})
	}
	applog.Audit(c, "admin.inquiries.delete", map[string]any{"inquiry_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

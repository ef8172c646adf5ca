package handlers

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"estatedesk/internal/domain"
	applog "estatedesk/internal/log"
	"estatedesk/internal/services"
	"estatedesk/internal/validate"
)

type AdminHandler struct {
	Listings       *services.ListingService
	Uploads        *services.UploadService
	Inquiries      *services.InquiryService
	Creds          *services.CredentialService
	Flashes        *Flashes
	MaxUploadBytes int64
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	q, err := validate.ListingQuery(query(c))
	if err != nil {
		q = domain.ListingQuery{}.Normalized()
	}
	q.IncludeInactive = true
	page, err := h.Listings.AdminSearch(c.UserContext(), authOf(c), q)
	if err != nil {
		return pageError(c, "admin.listings.list", err, nil)
	}
	return render(c, "admin_dashboard", fiber.Map{"Page": page, "Q": q.Text})
}

func (h *AdminHandler) renderForm(c *fiber.Ctx, status int, data fiber.Map) error {
	c.Status(status)
	return render(c, "admin_listing_form", data)
}

// GET /admin/listings/new
func (h *AdminHandler) NewListing(c *fiber.Ctx) error {
	return h.renderForm(c, fiber.StatusOK, fiber.Map{
		"Form":   domain.ListingInput{Type: domain.ListingTypeRent, Status: domain.StatusActive, Bedrooms: 1, Bathrooms: 1},
		"Action": "/admin/listings",
	})
}

// POST /admin/listings
func (h *AdminHandler) CreateListing(c *fiber.Ctx) error {
	in, err := validate.ListingForm(form(c))
	if err == nil {
		var l *domain.Listing
		l, err = h.Listings.Create(c.UserContext(), authOf(c), in)
		if err == nil {
			applog.Audit(c, "admin.listing.create", map[string]any{"listing_id": l.ID, "title": l.Title})
			h.Flashes.Set(c, "success", "Listing created. Add photos below.")
			return c.Redirect("/admin/listings/" + l.ID + "/edit")
		}
	}
	if fields := fieldsOf(err); fields != nil {
		applog.Security(c, "validation.fail", map[string]any{"form": "listing", "fields": fields})
		return h.renderForm(c, fiber.StatusBadRequest, fiber.Map{"Form": in, "Errors": fields, "Action": "/admin/listings"})
	}
	return pageError(c, "admin.listing.create", err, nil)
}

// GET /admin/listings/:id/edit
func (h *AdminHandler) EditListing(c *fiber.Ctx) error {
	l, err := h.Listings.AdminGet(c.UserContext(), authOf(c), c.Params("id"))
	if err != nil {
		return pageError(c, "admin.listing.edit", err, map[string]any{"listing_id": c.Params("id")})
	}
	return h.renderForm(c, fiber.StatusOK, editData(l))
}

func editData(l *domain.Listing) fiber.Map {
	return fiber.Map{
		"L": l,
		"Form": domain.ListingInput{
			Title: l.Title, Description: l.Description, Price: l.Price, Bedrooms: l.Bedrooms,
			Bathrooms: l.Bathrooms, Sqft: l.Sqft, Type: l.Type, Address: l.Address,
			City: l.City, State: l.State, Status: l.Status,
		},
		"Action": "/admin/listings/" + l.ID,
	}
}

// POST /admin/listings/:id
func (h *AdminHandler) UpdateListing(c *fiber.Ctx) error {
	id := c.Params("id")
	auth := authOf(c)
	in, err := validate.ListingForm(form(c))
	if err == nil {
		_, err = h.Listings.Update(c.UserContext(), auth, id, domain.PatchFrom(in))
		if err == nil {
			applog.Audit(c, "admin.listing.update", map[string]any{"listing_id": id})
			h.Flashes.Set(c, "success", "Listing updated.")
			return c.Redirect("/admin/listings/" + id + "/edit")
		}
	}
	if fields := fieldsOf(err); fields != nil {
		applog.Security(c, "validation.fail", map[string]any{"form": "listing", "fields": fields})
		l, gerr := h.Listings.AdminGet(c.UserContext(), auth, id)
		if gerr != nil {
			return pageError(c, "admin.listing.update", gerr, map[string]any{"listing_id": id})
		}
		data := editData(l)
		data["Form"], data["Errors"] = in, fields
		return h.renderForm(c, fiber.StatusBadRequest, data)
	}
	return pageError(c, "admin.listing.update", err, map[string]any{"listing_id": id})
}

// POST /admin/listings/:id/delete
func (h *AdminHandler) DeleteListing(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Listings.Delete(c.UserContext(), authOf(c), id); err != nil {
		return pageError(c, "admin.listing.delete", err, map[string]any{"listing_id": id})
	}
	applog.Audit(c, "admin.listing.delete", map[string]any{"listing_id": id})
	h.Flashes.Set(c, "success", "Listing deleted.")
	return c.Redirect("/admin")
}

// POST /admin/listings/:id/images
func (h *AdminHandler) UploadImages(c *fiber.Ctx) error {
	id := c.Params("id")
	auth := authOf(c)
	blobs, err := readBlobs(c, h.MaxUploadBytes)
	if err == nil {
		var imgs []domain.Image
		imgs, err = h.Uploads.AttachImages(c.UserContext(), auth, id, blobs)
		if err == nil {
			applog.Audit(c, "admin.images.upload", map[string]any{"listing_id": id, "count": len(imgs)})
			h.Flashes.Set(c, "success", fmt.Sprintf("%d photo(s) uploaded.", len(imgs)))
			return c.Redirect("/admin/listings/" + id + "/edit")
		}
	}
	switch statusOf(err) {
	case fiber.StatusBadRequest, fiber.StatusUnsupportedMediaType, fiber.StatusRequestEntityTooLarge:
		applog.Security(c, "upload.rejected", map[string]any{"listing_id": id, "reason": err.Error()})
		l, gerr := h.Listings.AdminGet(c.UserContext(), auth, id)
		if gerr != nil {
			return pageError(c, "admin.images.upload", gerr, map[string]any{"listing_id": id})
		}
		data := editData(l)
		msg := publicMessage(err)
		if fields := fieldsOf(err); fields != nil {
			msg = "Photos " + fields["images"] + "."
		}
		data["Flash"] = Flash{Kind: "danger", Message: msg}
		return h.renderForm(c, statusOf(err), data)
	}
	return pageError(c, "admin.images.upload", err, map[string]any{"listing_id": id})
}

// readBlobs reads the "images" files of a multipart form, each capped just
// past limit so oversize files are still reported as too large.
func readBlobs(c *fiber.Ctx, limit int64) ([]domain.Blob, error) {
	mf, err := c.MultipartForm()
	if err != nil {
		return nil, domain.NewValidationError("images", "choose at least one file")
	}
	files := mf.File["images"]
	blobs := make([]domain.Blob, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, limit+1))
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, domain.Blob{Name: fh.Filename, Data: data})
	}
	return blobs, nil
}

// POST /admin/images/:id/delete
func (h *AdminHandler) DeleteImage(c *fiber.Ctx) error {
	id := c.Params("id")
	im, err := h.Uploads.RemoveImage(c.UserContext(), authOf(c), id)
	if err != nil {
		return pageError(c, "admin.images.delete", err, map[string]any{"image_id": id})
	}
	applog.Audit(c, "admin.images.delete", map[string]any{"image_id": id, "listing_id": im.ListingID})
	h.Flashes.Set(c, "success", "Photo removed.")
	return c.Redirect("/admin/listings/" + im.ListingID + "/edit")
}

// GET /admin/inquiries
func (h *AdminHandler) InquiriesPage(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page"))
	res, err := h.Inquiries.List(c.UserContext(), authOf(c), page, 25)
	if err != nil {
		return pageError(c, "admin.inquiries.list", err, nil)
	}
	return render(c, "admin_inquiries", fiber.Map{"Page": res})
}

// POST /admin/inquiries/:id/delete
func (h *AdminHandler) DeleteInquiry(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Inquiries.Delete(c.UserContext(), authOf(c), id); err != nil {
		return pageError(c, "admin.inquiries.delete", err, map[string]any{"inquiry_id": id})
	}
	applog.Audit(c, "admin.inquiries.delete", map[string]any{"inquiry_id": id})
	h.Flashes.Set(c, "success", "Inquiry deleted.")
	return c.Redirect("/admin/inquiries")
}

// GET /admin/admins
func (h *AdminHandler) AdminsPage(c *fiber.Ctx) error {
	return h.renderAdmins(c, fiber.StatusOK, fiber.Map{})
}

func (h *AdminHandler) renderAdmins(c *fiber.Ctx, status int, data fiber.Map) error {
	admins, err := h.Creds.List(c.UserContext(), authOf(c))
	if err != nil {
		return pageError(c, "admin.admins.list", err, nil)
	}
	data["Admins"] = admins
	c.Status(status)
	return render(c, "admin_admins", data)
}

// POST /admin/admins
func (h *AdminHandler) CreateAdmin(c *fiber.Ctx) error {
	email, name := c.FormValue("email"), c.FormValue("name")
	a, err := h.Creds.Create(c.UserContext(), authOf(c), email, name, c.FormValue("password"))
	if err != nil {
		if fields := fieldsOf(err); fields != nil {
			applog.Security(c, "validation.fail", map[string]any{"form": "admin", "fields": fields})
			return h.renderAdmins(c, fiber.StatusBadRequest, fiber.Map{"Errors": fields, "Email": email, "Name": name})
		}
		return pageError(c, "admin.admins.create", err, nil)
	}
	applog.Audit(c, "admin.admins.create", map[string]any{"new_admin": a.Email})
	h.Flashes.Set(c, "success", "Admin "+a.Email+" added.")
	return c.Redirect("/admin/admins")
}

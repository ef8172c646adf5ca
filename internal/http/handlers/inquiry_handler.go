package handlers

import (
	"github.com/gofiber/fiber/v2"

	"estatedesk/internal/domain"
	applog "estatedesk/internal/log"
	"estatedesk/internal/services"
	"estatedesk/internal/validate"
)

type InquiryHandler struct {
	Inquiries *services.InquiryService
	Listings  *services.ListingService
	Flashes   *Flashes
}

func inquiryForm(c *fiber.Ctx, kind string) domain.InquiryInput {
	get := form(c)
	return domain.InquiryInput{
		ListingID: get("listing_id"),
		Kind:      kind,
		Name:      get("full_name"),
		Email:     get("email"),
		Phone:     get("phone"),
		Subject:   get("subject"),
		MoveIn:    get("move_in"),
		Message:   get("message"),
	}
}

// GET /listings/:id/apply
func (h *InquiryHandler) ApplyForm(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, "This listing is no longer available")
	}
	l, err := h.Listings.Get(c.UserContext(), id)
	if err != nil {
		return notFoundPage(c, "This listing is no longer available")
	}
	return render(c, "apply", fiber.Map{"L": l, "Form": domain.InquiryInput{}})
}

// POST /listings/:id/apply
func (h *InquiryHandler) Apply(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFoundPage(c, "This listing is no longer available")
	}
	l, err := h.Listings.Get(c.UserContext(), id)
	if err != nil {
		return notFoundPage(c, "This listing is no longer available")
	}
	in := inquiryForm(c, domain.InquiryApplication)
	in.ListingID = id

	q, err := h.Inquiries.Submit(c.UserContext(), in)
	if err != nil {
		if fields := fieldsOf(err); fields != nil {
			applog.Security(c, "validation.fail", map[string]any{"form": "apply", "fields": fields})
			c.Status(fiber.StatusBadRequest)
			return render(c, "apply", fiber.Map{"L": l, "Form": in, "Errors": fields,
				"Flash": Flash{Kind: "danger", Message: "Please complete all required fields."}})
		}
		return pageError(c, "inquiry.apply", err, map[string]any{"listing_id": id})
	}
	applog.Info(c, "inquiry.apply", map[string]any{"inquiry_id": q.ID, "listing_id": id})
	h.Flashes.Set(c, "success", "Application submitted. We'll be in touch shortly.")
	return c.Redirect("/listings/" + id)
}

// GET /contact
func (h *InquiryHandler) ContactForm(c *fiber.Ctx) error {
	data := fiber.Map{"Form": domain.InquiryInput{}}
	if id, ok := validate.ID(c.Query("listing")); ok {
		if l, err := h.Listings.Get(c.UserContext(), id); err == nil {
			data["L"] = l
			data["Form"] = domain.InquiryInput{ListingID: l.ID, Subject: "Question about " + l.Title}
		}
	}
	return render(c, "contact", data)
}

// POST /contact
func (h *InquiryHandler) Contact(c *fiber.Ctx) error {
	in := inquiryForm(c, domain.InquiryContact)
	q, err := h.Inquiries.Submit(c.UserContext(), in)
	if err != nil {
		if fields := fieldsOf(err); fields != nil {
			applog.Security(c, "validation.fail", map[string]any{"form": "contact", "fields": fields})
			c.Status(fiber.StatusBadRequest)
			return render(c, "contact", fiber.Map{"Form": in, "Errors": fields,
				"Flash": Flash{Kind: "danger", Message: "Please complete all required fields."}})
		}
		if statusOf(err) == fiber.StatusNotFound {
			c.Status(fiber.StatusNotFound)
			return render(c, "contact", fiber.Map{"Form": in,
				"Flash": Flash{Kind: "danger", Message: "That listing is no longer available."}})
		}
		return pageError(c, "inquiry.contact", err, nil)
	}
	applog.Info(c, "inquiry.contact", map[string]any{"inquiry_id": q.ID})
	h.Flashes.Set(c, "success", "Thanks! We'll reply shortly.")
	return c.Redirect("/contact")
}

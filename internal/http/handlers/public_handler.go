package handlers

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"estatedesk/internal/domain"
	applog "estatedesk/internal/log"
	"estatedesk/internal/services"
	"estatedesk/internal/validate"
)

type PublicHandler struct {
	Listings *services.ListingService
}

var filterKeys = []string{"q", "city", "type", "min_price", "max_price", "min_beds", "sort"}

// GET /
func (h *PublicHandler) Home(c *fiber.Ctx) error {
	latest, err := h.Listings.Latest(c.UserContext(), 6)
	if err != nil {
		return pageError(c, "home", err, nil)
	}
	cities, _ := h.Listings.Cities(c.UserContext())
	return render(c, "home", fiber.Map{"Listings": latest, "Cities": cities})
}

// GET /listings
func (h *PublicHandler) List(c *fiber.Ctx) error {
	filters := map[string]string{}
	for _, k := range filterKeys {
		filters[k] = c.Query(k)
	}
	if filters["type"] == "" {
		filters["type"] = c.Query("mode")
	}
	cities, _ := h.Listings.Cities(c.UserContext())
	data := fiber.Map{"Filters": filters, "Cities": cities, "Sorts": domain.Sorts}

	q, err := validate.ListingQuery(query(c))
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"form": "search", "fields": fieldsOf(err)})
		data["Errors"] = fieldsOf(err)
		data["Page"] = domain.ListingPage{Items: []domain.Listing{}, Page: 1}
		c.Status(fiber.StatusBadRequest)
		return render(c, "listings", data)
	}
	page, err := h.Listings.Search(c.UserContext(), q)
	if err != nil {
		return pageError(c, "search", err, nil)
	}
	data["Page"] = page
	if page.HasPrev() {
		data["PrevURL"] = pageURL(filters, q.PageSize, page.PrevPage())
	}
	if page.HasNext {
		data["NextURL"] = pageURL(filters, q.PageSize, page.NextPage())
	}
	return render(c, "listings", data)
}

func pageURL(filters map[string]string, size, page int) string {
	v := url.Values{}
	for k, val := range filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	if size != domain.DefaultPageSize {
		v.Set("per_page", strconv.Itoa(size))
	}
	v.Set("page", strconv.Itoa(page))
	return "/listings?" + v.Encode()
}

// GET /listings/:id
func (h *PublicHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "listing"})
		return notFoundPage(c, "This listing is no longer available")
	}
	l, err := h.Listings.Get(c.UserContext(), id)
	if err != nil {
		if statusOf(err) == fiber.StatusNotFound {
			return notFoundPage(c, "This listing is no longer available")
		}
		return pageError(c, "listing.view", err, map[string]any{"listing_id": id})
	}
	return render(c, "listing", fiber.Map{"L": l})
}

func query(c *fiber.Ctx) validate.Getter { return func(k string) string { return c.Query(k) } }

func form(c *fiber.Ctx) validate.Getter { return func(k string) string { return c.FormValue(k) } }

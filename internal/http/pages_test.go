package handlers_test

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func createListingViaForm(t *testing.T, c *client, vals url.Values) string {
	t.Helper()
	resp := c.postForm("/admin/listings", vals)
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("create listing: expected 302, got %d body=%s", resp.StatusCode, readBody(t, resp))
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/admin/listings/") || !strings.HasSuffix(loc, "/edit") {
		t.Fatalf("unexpected redirect %q", loc)
	}
	return strings.TrimSuffix(strings.TrimPrefix(loc, "/admin/listings/"), "/edit")
}

func TestAdminListingPages(t *testing.T) {
	app := newTestApp(t, nil)
	c := newClient(t, app)
	c.login()

	// invalid form re-renders with every problem
	resp := c.postForm("/admin/listings", url.Values{"title": {""}, "price": {"lots"}, "type": {"castle"}})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := readBody(t, resp)
	for _, want := range []string{"is required", "must be a whole number", "must be one of"} {
		if !strings.Contains(body, want) {
			t.Fatalf("form error %q missing", want)
		}
	}

	id := createListingViaForm(t, c, url.Values{
		"title": {"Seaside Villa"}, "price": {"500000"}, "bedrooms": {"3"}, "bathrooms": {"2.5"},
		"type": {"sale"}, "city": {"Malibu"}, "state": {"CA"}, "description": {"Ocean views."},
	})

	body = readBody(t, c.get("/admin/listings/"+id+"/edit"))
	if !strings.Contains(body, "Listing created. Add photos below.") || !strings.Contains(body, `value="Seaside Villa"`) {
		t.Fatalf("edit page missing flash or values")
	}

	// public detail shows formatted price
	body = readBody(t, c.get("/listings/"+id))
	if !strings.Contains(body, "Seaside Villa") || !strings.Contains(body, "$500,000") {
		t.Fatalf("detail page missing listing: %s", body)
	}

	// deactivate: hidden from the public, still visible to the admin
	resp = c.postForm("/admin/listings/"+id, url.Values{
		"title": {"Seaside Villa"}, "price": {"450000"}, "bedrooms": {"3"}, "type": {"sale"}, "status": {"inactive"},
	})
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("update: expected 302, got %d", resp.StatusCode)
	}
	if resp := newClient(t, app).get("/listings/" + id); resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("inactive listing visible to public: %d", resp.StatusCode)
	}
	body = readBody(t, c.get("/admin"))
	if !strings.Contains(body, "Seaside Villa") || !strings.Contains(body, "$450,000") {
		t.Fatalf("dashboard missing updated listing")
	}

	resp = c.postForm("/admin/listings/"+id+"/delete", url.Values{})
	if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/admin" {
		t.Fatalf("delete: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if resp := c.get("/admin/listings/" + id + "/edit"); resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("deleted listing edit page: expected 404, got %d", resp.StatusCode)
	}
}

func TestPublicSearchPage(t *testing.T) {
	app := newTestApp(t, nil)
	c := newClient(t, app)
	c.login()
	createListingViaForm(t, c, url.Values{"title": {"Garden Flat"}, "price": {"1800"}, "city": {"Austin"}, "type": {"rent"}})
	createListingViaForm(t, c, url.Values{"title": {"Hill House"}, "price": {"725000"}, "city": {"Denver"}, "type": {"sale"}})

	v := newClient(t, app)
	body := readBody(t, v.get("/listings?type=rent"))
	if !strings.Contains(body, "Garden Flat") || strings.Contains(body, "Hill House") {
		t.Fatalf("type filter not applied")
	}
	body = readBody(t, v.get("/listings?city=denver&min_price=700000"))
	if !strings.Contains(body, "Hill House") || strings.Contains(body, "Garden Flat") {
		t.Fatalf("city/price filter not applied")
	}
	body = readBody(t, v.get("/listings?per_page=1&sort=price_asc"))
	if !strings.Contains(body, "Garden Flat") || !strings.Contains(body, "page=2") {
		t.Fatalf("paging link missing")
	}

	resp := v.get("/listings?min_price=cheap")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("bad filter: expected 400, got %d", resp.StatusCode)
	}

	// home lists the latest and escapes untrusted text
	body = readBody(t, v.get("/"))
	if !strings.Contains(body, "Hill House") || !strings.Contains(body, "Austin") {
		t.Fatalf("home page missing listings")
	}
}

func TestTemplateAutoEscape(t *testing.T) {
	app := newTestApp(t, nil)
	c := newClient(t, app)
	c.login()
	id := createListingViaForm(t, c, url.Values{
		"title": {"<script>alert(1)</script>"}, "price": {"100"}, "description": {"<img src=x onerror=alert(1)>"},
	})
	body := readBody(t, newClient(t, app).get("/listings/"+id))
	if strings.Contains(body, "<script>alert(1)</script>") || strings.Contains(body, "<img src=x") {
		t.Fatalf("unescaped user content in page")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Fatalf("escaped title missing")
	}
}

func TestInquiryForms(t *testing.T) {
	app := newTestApp(t, nil)
	admin := newClient(t, app)
	admin.login()
	id := createListingViaForm(t, admin, url.Values{"title": {"Garden Flat"}, "price": {"1800"}, "type": {"rent"}})

	v := newClient(t, app)
	if body := readBody(t, v.get("/listings/"+id+"/apply")); !strings.Contains(body, "Apply for Garden Flat") {
		t.Fatalf("apply form missing")
	}

	// missing phone re-renders the form with the entered values
	resp := v.postForm("/listings/"+id+"/apply", url.Values{"full_name": {"Ada"}, "email": {"ada@example.com"}})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "Please complete all required fields.") || !strings.Contains(body, `value="Ada"`) {
		t.Fatalf("apply errors not rendered")
	}

	resp = v.postForm("/listings/"+id+"/apply", url.Values{
		"full_name": {"Ada Lovelace"}, "email": {"Ada@Example.com"}, "phone": {"+1 555 0100"},
		"move_in": {"2026-12-01"}, "message": {"Two cats."},
	})
	if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/listings/"+id {
		t.Fatalf("apply: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if body := readBody(t, v.get("/listings/"+id)); !strings.Contains(body, "Application submitted.") {
		t.Fatalf("apply flash missing")
	}

	if resp := v.get("/listings/does-not-exist/apply"); resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("apply for unknown listing: %d", resp.StatusCode)
	}

	// contact prefilled from a listing
	if body := readBody(t, v.get("/contact?listing="+id)); !strings.Contains(body, "Question about Garden Flat") {
		t.Fatalf("contact subject not prefilled")
	}
	resp = v.postForm("/contact", url.Values{
		"full_name": {"Bob"}, "email": {"bob@example.com"}, "subject": {"Parking"}, "message": {"Is there parking?"},
		"listing_id": {id},
	})
	if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/contact" {
		t.Fatalf("contact: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if body := readBody(t, v.get("/contact")); !strings.Contains(body, "Thanks!") {
		t.Fatalf("contact flash missing")
	}
	// the flash is shown once
	if body := readBody(t, v.get("/contact")); strings.Contains(body, "Thanks!") {
		t.Fatalf("flash shown twice")
	}

	body = readBody(t, admin.get("/admin/inquiries"))
	for _, want := range []string{"ada@example.com", "Two cats.", "Parking", "Garden Flat"} {
		if !strings.Contains(body, want) {
			t.Fatalf("inbox missing %q", want)
		}
	}
}

func TestCreateAdminPage(t *testing.T) {
	app := newTestApp(t, nil)
	c := newClient(t, app)
	c.login()

	resp := c.postForm("/admin/admins", url.Values{"email": {"not-an-email"}, "password": {"short"}})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp = c.postForm("/admin/admins", url.Values{"email": {"ops@example.com"}, "name": {"Ops"}, "password": {"longenough1"}})
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("create admin: %d", resp.StatusCode)
	}
	if body := readBody(t, c.get("/admin/admins")); !strings.Contains(body, "ops@example.com") {
		t.Fatalf("new admin not listed")
	}

	second := newClient(t, app)
	resp = second.postForm("/admin/login", url.Values{"email": {"ops@example.com"}, "password": {"longenough1"}})
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("new admin login: %d", resp.StatusCode)
	}
}

func TestUploadsTraversalBlocked(t *testing.T) {
	app := newTestApp(t, nil)
	var status int
	entries := captureLogs(t, func() {
		resp, err := app.Test(httptest.NewRequest("GET", "/uploads/%2e%2e/%2e%2e/go.mod", nil))
		if err != nil {
			t.Fatal(err)
		}
		status = resp.StatusCode
	})
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if findLog(entries, "media.traversal.block") == nil {
		t.Fatalf("traversal attempt not logged: %+v", entries)
	}
	resp, err := app.Test(httptest.NewRequest("GET", "/uploads/missing/file.png", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("missing upload: expected 404, got %d", resp.StatusCode)
	}
}

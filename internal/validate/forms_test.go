package validate

import (
	"errors"
	"testing"

	"estatedesk/internal/domain"
)

func getter(m map[string]string) Getter { return func(k string) string { return m[k] } }

func TestListingQueryDefaults(t *testing.T) {
	q, err := ListingQuery(getter(nil))
	if err != nil {
		t.Fatal(err)
	}
	if q.Page != 1 || q.PageSize != domain.DefaultPageSize || q.Sort != domain.SortNewest {
		t.Fatalf("unexpected defaults: %+v", q)
	}
	if q.MinPrice != nil || q.MaxPrice != nil || q.MinBedrooms != nil || q.Type != "" {
		t.Fatalf("no filters expected: %+v", q)
	}
}

func TestListingQueryParsesFilters(t *testing.T) {
	q, err := ListingQuery(getter(map[string]string{
		"q": "villa", "mode": "sale", "min_price": "100", "max_price": "900",
		"min_beds": "2", "sort": "PRICE_DESC", "page": "3", "per_page": "500",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if q.Text != "villa" || q.Type != "sale" || *q.MinPrice != 100 || *q.MaxPrice != 900 || *q.MinBedrooms != 2 {
		t.Fatalf("filters not parsed: %+v", q)
	}
	if q.Sort != domain.SortPriceDesc || q.Page != 3 || q.PageSize != domain.MaxPageSize {
		t.Fatalf("sort/paging not normalized: %+v", q)
	}
}

func TestListingQueryRejectsBadInput(t *testing.T) {
	_, err := ListingQuery(getter(map[string]string{
		"min_price": "abc", "min_beds": "-1", "type": "lease",
	}))
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want validation error, got %v", err)
	}
	for _, f := range []string{"min_price", "min_beds", "type"} {
		if _, ok := ve.Fields[f]; !ok {
			t.Fatalf("missing field %s in %v", f, ve.Fields)
		}
	}

	_, err = ListingQuery(getter(map[string]string{"min_price": "500", "max_price": "100"}))
	if !errors.As(err, &ve) || ve.Fields["max_price"] == "" {
		t.Fatalf("min > max should be rejected, got %v", err)
	}
}

func TestListingFormReportsEveryField(t *testing.T) {
	_, err := ListingForm(getter(map[string]string{
		"title": "", "price": "-5", "bedrooms": "x", "type": "lease",
	}))
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want validation error, got %v", err)
	}
	for _, f := range []string{"title", "price", "bedrooms", "type"} {
		if _, ok := ve.Fields[f]; !ok {
			t.Fatalf("missing field %s in %v", f, ve.Fields)
		}
	}
}

func TestListingFormDefaults(t *testing.T) {
	in, err := ListingForm(getter(map[string]string{"title": "Cottage", "price": "1200"}))
	if err != nil {
		t.Fatal(err)
	}
	if in.Type != domain.ListingTypeRent || in.Status != domain.StatusActive || in.Bedrooms != 1 || in.Bathrooms != 1 {
		t.Fatalf("defaults not applied: %+v", in)
	}
}

func TestStructUsesFormNames(t *testing.T) {
	err := Struct(domain.InquiryInput{Kind: "contact", Email: "nope"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want validation error, got %v", err)
	}
	if ve.Fields["full_name"] != "is required" {
		t.Fatalf("name should be reported under its form key: %v", ve.Fields)
	}
	if ve.Fields["email"] != "must be a valid email address" {
		t.Fatalf("bad email message: %v", ve.Fields)
	}
}

func TestListingQueryRejectsHugePage(t *testing.T) {
	_, err := ListingQuery(getter(map[string]string{"page": "4611686018427387904"}))
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["page"] == "" {
		t.Fatalf("huge page should be rejected, got %v", err)
	}

	q, err := ListingQuery(getter(map[string]string{"page": "1000000", "per_page": "9223372036854775807"}))
	if err != nil {
		t.Fatal(err)
	}
	if q.Page != domain.MaxPage || q.PageSize != domain.MaxPageSize || q.Offset() < 0 {
		t.Fatalf("paging not bounded: %+v", q)
	}
}

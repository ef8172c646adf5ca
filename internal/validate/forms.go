package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"estatedesk/internal/domain"
)

// Getter reads one named value from a query string or form body.
type Getter func(key string) string

// ListingQuery builds the typed search query once at the boundary.
// Unknown sort keys fall back to newest; malformed numbers are rejected.
func ListingQuery(get Getter) (domain.ListingQuery, error) {
	var q domain.ListingQuery
	ve := &domain.ValidationError{}

	if raw := strings.TrimSpace(get("q")); raw != "" {
		text, ok := Q(raw)
		if !ok {
			ve.Add("q", "may only contain letters, numbers and basic punctuation")
		}
		q.Text = text
	}
	if raw := strings.TrimSpace(get("city")); raw != "" {
		city, ok := Q(raw)
		if !ok {
			ve.Add("city", "may only contain letters, numbers and basic punctuation")
		}
		q.City = city
	}

	mode := get("type")
	if mode == "" {
		mode = get("mode")
	}
	switch m := strings.ToLower(strings.TrimSpace(mode)); m {
	case "", "all":
	case domain.ListingTypeRent, domain.ListingTypeSale:
		q.Type = m
	default:
		ve.Add("type", "must be one of: rent, sale, all")
	}

	q.MinPrice = optInt64(get("min_price"), "min_price", ve)
	q.MaxPrice = optInt64(get("max_price"), "max_price", ve)
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		ve.Add("max_price", "must not be below min_price")
	}
	if n := optInt64(get("min_beds"), "min_beds", ve); n != nil {
		beds := int(*n)
		q.MinBedrooms = &beds
	}

	q.Sort = strings.ToLower(strings.TrimSpace(get("sort")))
	if p := optInt64(get("page"), "page", ve); p != nil {
		if *p > domain.MaxPage {
			ve.Add("page", fmt.Sprintf("must be at most %d", domain.MaxPage))
		} else {
			q.Page = int(*p)
		}
	}
	if p := optInt64(get("per_page"), "per_page", ve); p != nil && *p <= domain.MaxPageSize {
		q.PageSize = int(*p)
	} else if p != nil {
		q.PageSize = domain.MaxPageSize
	}

	if err := ve.Err(); err != nil {
		return domain.ListingQuery{}, err
	}
	return q.Normalized(), nil
}

func optInt64(raw, field string, ve *domain.ValidationError) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		ve.Add(field, "must be a whole number, zero or more")
		return nil
	}
	return &n
}

// ListingForm parses the admin create/edit form. Blank numbers default the way
// the listing form always has: one bed, one bath, no size.
func ListingForm(get Getter) (domain.ListingInput, error) {
	ve := &domain.ValidationError{}
	in := domain.ListingInput{
		Title:       strings.TrimSpace(get("title")),
		Description: strings.TrimSpace(get("description")),
		Type:        strings.ToLower(strings.TrimSpace(get("type"))),
		Address:     strings.TrimSpace(get("address")),
		City:        strings.TrimSpace(get("city")),
		State:       strings.TrimSpace(get("state")),
		Status:      strings.ToLower(strings.TrimSpace(get("status"))),
	}
	if in.Type == "" {
		in.Type = domain.ListingTypeRent
	}
	if in.Status == "" {
		in.Status = domain.StatusActive
	}

	if raw := strings.TrimSpace(get("price")); raw == "" {
		ve.Add("price", "is required")
	} else if n, err := strconv.ParseInt(raw, 10, 64); err != nil {
		ve.Add("price", "must be a whole number")
	} else {
		in.Price = n
	}
	in.Bedrooms = formInt(get("bedrooms"), 1, "bedrooms", ve)
	in.Sqft = formInt(get("sqft"), 0, "sqft", ve)
	if raw := strings.TrimSpace(get("bathrooms")); raw == "" {
		in.Bathrooms = 1
	} else if f, err := strconv.ParseFloat(raw, 64); err != nil {
		ve.Add("bathrooms", "must be a number")
	} else {
		in.Bathrooms = f
	}

	// Report parse failures and rule violations together.
	if ve.Empty() {
		return in, Struct(in)
	}
	var rules *domain.ValidationError
	if errors.As(Struct(in), &rules) {
		for f, msg := range rules.Fields {
			ve.Add(f, msg)
		}
	}
	return in, ve
}

func formInt(raw string, def int, field string, ve *domain.ValidationError) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		ve.Add(field, "must be a whole number")
		return def
	}
	return n
}

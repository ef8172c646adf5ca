package repos

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"estatedesk/internal/domain"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertListing(t *testing.T, r *ListingRepo, title string, price int64, beds int, created time.Time) domain.Listing {
	t.Helper()
	ts := domain.Timestamp(created)
	l := domain.Listing{
		ID: uuid.NewString(), Title: title, Price: price, Bedrooms: beds, Bathrooms: 1,
		Type: domain.ListingTypeSale, City: "Springfield", Status: domain.StatusActive,
		CreatedAt: ts, UpdatedAt: ts,
	}
	if err := r.Create(context.Background(), &l); err != nil {
		t.Fatal(err)
	}
	return l
}

func TestSearchSortsWithStableTieBreak(t *testing.T) {
	db := openTestDB(t)
	r := NewListingRepo(db)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertListing(t, r, fmt.Sprintf("House %d", i), 100000, 2, base.Add(time.Duration(i)*time.Hour))
	}

	q := domain.ListingQuery{Sort: domain.SortPriceAsc, PageSize: 2}.Normalized()
	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		q.Page = page
		items, total, err := r.Search(context.Background(), q)
		if err != nil {
			t.Fatal(err)
		}
		if total != 5 {
			t.Fatalf("want total 5, got %d", total)
		}
		for _, l := range items {
			if seen[l.ID] {
				t.Fatalf("listing %s repeated across pages", l.ID)
			}
			seen[l.ID] = true
		}
	}
	if len(seen) != 5 {
		t.Fatalf("pages should cover every listing, got %d", len(seen))
	}

	items, _, err := r.Search(context.Background(), domain.ListingQuery{}.Normalized())
	if err != nil {
		t.Fatal(err)
	}
	if items[0].Title != "House 4" {
		t.Fatalf("newest first expected, got %s", items[0].Title)
	}
}

func TestSearchEscapesLikeWildcards(t *testing.T) {
	db := openTestDB(t)
	r := NewListingRepo(db)
	now := time.Now()
	insertListing(t, r, "100% ocean view", 1, 1, now)
	insertListing(t, r, "1000 acre ranch", 1, 1, now)

	items, total, err := r.Search(context.Background(), domain.ListingQuery{Text: "100%"}.Normalized())
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || items[0].Title != "100% ocean view" {
		t.Fatalf("percent must match literally, got %d items", total)
	}
}

func TestSearchHidesInactiveUnlessAsked(t *testing.T) {
	db := openTestDB(t)
	r := NewListingRepo(db)
	l := insertListing(t, r, "Hidden", 5, 1, time.Now())
	l.Status = domain.StatusInactive
	if err := r.Update(context.Background(), &l); err != nil {
		t.Fatal(err)
	}

	_, total, _ := r.Search(context.Background(), domain.ListingQuery{}.Normalized())
	if total != 0 {
		t.Fatalf("inactive listing leaked into public search")
	}
	_, total, _ = r.Search(context.Background(), domain.ListingQuery{IncludeInactive: true}.Normalized())
	if total != 1 {
		t.Fatalf("admin search should include inactive, got %d", total)
	}
}

func TestDeleteKeepsInquiryWithAbsentReference(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	lr, ir, qr := NewListingRepo(db), NewImageRepo(db), NewInquiryRepo(db)
	l := insertListing(t, lr, "Seaside Villa", 500000, 3, time.Now())

	ts := domain.Timestamp(time.Now())
	added, err := ir.AddBatch(ctx, l.ID, []domain.Image{
		{ID: uuid.NewString(), FilePath: l.ID + "/a.png", CreatedAt: ts},
		{ID: uuid.NewString(), FilePath: l.ID + "/b.png", CreatedAt: ts},
	})
	if err != nil {
		t.Fatal(err)
	}
	if added[0].Position != 0 || added[1].Position != 1 {
		t.Fatalf("positions not sequential: %+v", added)
	}

	inq := domain.Inquiry{ID: uuid.NewString(), ListingID: l.ID, Kind: domain.InquiryApplication,
		Name: "Ann", Email: "ann@example.com", Phone: "555", CreatedAt: ts}
	if err := qr.Create(ctx, &inq); err != nil {
		t.Fatal(err)
	}

	imgs, err := lr.Delete(ctx, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(imgs) != 2 {
		t.Fatalf("delete should return image rows, got %d", len(imgs))
	}
	if left, _ := ir.ForListing(ctx, l.ID); len(left) != 0 {
		t.Fatalf("image rows survived delete")
	}
	if _, err := lr.Delete(ctx, l.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}

	got, err := qr.Get(ctx, inq.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ListingID != "" || got.SubmittedFor != l.ID || !got.ListingGone() {
		t.Fatalf("inquiry should read back with absent reference: %+v", got)
	}
}

func TestCreateIfNoneOnlyOnce(t *testing.T) {
	db := openTestDB(t)
	r := NewAdminRepo(db)
	ctx := context.Background()
	mk := func(email string) *domain.Admin {
		return &domain.Admin{ID: uuid.NewString(), Email: email, Name: email, Hash: "x", Active: true,
			CreatedAt: domain.Timestamp(time.Now())}
	}
	if ok, err := r.CreateIfNone(ctx, mk("a@example.com")); err != nil || !ok {
		t.Fatalf("first bootstrap should create: %v %v", ok, err)
	}
	if ok, err := r.CreateIfNone(ctx, mk("b@example.com")); err != nil || ok {
		t.Fatalf("second bootstrap should be a no-op: %v %v", ok, err)
	}
	if n, _ := r.Count(ctx); n != 1 {
		t.Fatalf("want 1 admin, got %d", n)
	}
}

func TestSearchFoldsNonASCIICase(t *testing.T) {
	db := openTestDB(t)
	r := NewListingRepo(db)
	l := insertListing(t, r, "École Villa", 300000, 3, time.Now())
	l.City = "São Paulo"
	if err := r.Update(context.Background(), &l); err != nil {
		t.Fatal(err)
	}
	insertListing(t, r, "Plain Cottage", 100000, 1, time.Now())

	for _, text := range []string{"école", "ÉCOLE", "École", "villa"} {
		items, total, err := r.Search(context.Background(), domain.ListingQuery{Text: text}.Normalized())
		if err != nil {
			t.Fatal(err)
		}
		if total != 1 || items[0].ID != l.ID {
			t.Fatalf("%q: want the accented listing, got %d", text, total)
		}
	}
	for _, city := range []string{"SÃO", "paulo", "são paulo"} {
		_, total, err := r.Search(context.Background(), domain.ListingQuery{City: city}.Normalized())
		if err != nil {
			t.Fatal(err)
		}
		if total != 1 {
			t.Fatalf("city %q: want substring match, got %d", city, total)
		}
	}
}

func TestRefoldFillsMissingKeys(t *testing.T) {
	db := openTestDB(t)
	r := NewListingRepo(db)
	insertListing(t, r, "Öland Cabin", 90000, 2, time.Now())
	if _, err := db.Exec(`UPDATE listings SET search_text = '', city_key = ''`); err != nil {
		t.Fatal(err)
	}
	if err := addListingKeys(db); err != nil {
		t.Fatalf("upgrade must tolerate existing columns: %v", err)
	}
	_, total, err := r.Search(context.Background(), domain.ListingQuery{Text: "öland", City: "spring"}.Normalized())
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("refolded listing should match, got %d", total)
	}
}

func TestSearchHugePageIsEmpty(t *testing.T) {
	db := openTestDB(t)
	r := NewListingRepo(db)
	insertListing(t, r, "Only One", 1, 1, time.Now())

	q := domain.ListingQuery{Page: 1 << 62}.Normalized()
	if q.Page != domain.MaxPage || q.Offset() < 0 {
		t.Fatalf("page not clamped: page=%d offset=%d", q.Page, q.Offset())
	}
	items, total, err := r.Search(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(items) != 0 {
		t.Fatalf("far page must be empty, got %d items of %d", len(items), total)
	}
}

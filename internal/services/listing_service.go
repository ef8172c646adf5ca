package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"estatedesk/internal/domain"
	applog "estatedesk/internal/log"
	"estatedesk/internal/repos"
	"estatedesk/internal/storage"
	"estatedesk/internal/validate"
)

type ListingService struct {
	Listings *repos.ListingRepo
	Images   *repos.ImageRepo
	Store    storage.Store
	now      func() time.Time
}

func NewListingService(listings *repos.ListingRepo, images *repos.ImageRepo, store storage.Store) *ListingService {
	return &ListingService{Listings: listings, Images: images, Store: store, now: time.Now}
}

func normalizeInput(in domain.ListingInput) domain.ListingInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if in.Type == "" {
		in.Type = domain.ListingTypeRent
	}
	if in.Status == "" {
		in.Status = domain.StatusActive
	}
	return in
}

func (s *ListingService) Create(ctx context.Context, auth domain.AuthContext, in domain.ListingInput) (*domain.Listing, error) {
	if err := auth.Require(); err != nil {
		return nil, err
	}
	in = normalizeInput(in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	ts := domain.Timestamp(s.now())
	l := &domain.Listing{ID: uuid.NewString(), CreatedAt: ts, UpdatedAt: ts, Images: []domain.Image{}}
	apply(l, in)
	if err := s.Listings.Create(ctx, l); err != nil {
		return nil, domain.Storage("create listing", err)
	}
	return l, nil
}

// Update merges the non-nil fields of p into the stored listing. Last write wins.
func (s *ListingService) Update(ctx context.Context, auth domain.AuthContext, id string, p domain.ListingPatch) (*domain.Listing, error) {
	if err := auth.Require(); err != nil {
		return nil, err
	}
	l, err := s.Listings.Get(ctx, id)
	if err != nil {
		return nil, domain.Storage("update listing", err)
	}
	in := merge(inputOf(*l), p)
	in = normalizeInput(in)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	apply(l, in)
	l.UpdatedAt = domain.Timestamp(s.now())
	if err := s.Listings.Update(ctx, l); err != nil {
		return nil, domain.Storage("update listing", err)
	}
	if l.Images, err = s.Images.ForListing(ctx, l.ID); err != nil {
		return nil, domain.Storage("update listing", err)
	}
	return l, nil
}

// Delete removes the listing rows first; stored files go afterwards and a
// failure there is logged, never undone.
func (s *ListingService) Delete(ctx context.Context, auth domain.AuthContext, id string) error {
	if err := auth.Require(); err != nil {
		return err
	}
	imgs, err := s.Listings.Delete(ctx, id)
	if err != nil {
		return domain.Storage("delete listing", err)
	}
	for _, im := range imgs {
		if err := s.Store.Delete(ctx, im.FilePath); err != nil {
			applog.Background("error", "listing.delete.file", err, map[string]any{"listing_id": id, "key": im.FilePath})
		}
	}
	if err := s.Store.DeletePrefix(ctx, id); err != nil {
		applog.Background("error", "listing.delete.prefix", err, map[string]any{"listing_id": id})
	}
	return nil
}

// Get is the public read: inactive listings are not found.
func (s *ListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.IsActive() {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

func (s *ListingService) AdminGet(ctx context.Context, auth domain.AuthContext, id string) (*domain.Listing, error) {
	if err := auth.Require(); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *ListingService) load(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := s.Listings.Get(ctx, id)
	if err != nil {
		return nil, domain.Storage("get listing", err)
	}
	if l.Images, err = s.Images.ForListing(ctx, id); err != nil {
		return nil, domain.Storage("get listing", err)
	}
	return l, nil
}

// Search runs a public search; inactive listings are never included.
func (s *ListingService) Search(ctx context.Context, q domain.ListingQuery) (domain.ListingPage, error) {
	q.IncludeInactive = false
	return s.search(ctx, q)
}

// AdminSearch honours IncludeInactive.
func (s *ListingService) AdminSearch(ctx context.Context, auth domain.AuthContext, q domain.ListingQuery) (domain.ListingPage, error) {
	if err := auth.Require(); err != nil {
		return domain.ListingPage{}, err
	}
	return s.search(ctx, q)
}

func (s *ListingService) search(ctx context.Context, q domain.ListingQuery) (domain.ListingPage, error) {
	q = q.Normalized()
	items, total, err := s.Listings.Search(ctx, q)
	if err != nil {
		return domain.ListingPage{}, domain.Storage("search listings", err)
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	byListing, err := s.Images.ForListings(ctx, ids)
	if err != nil {
		return domain.ListingPage{}, domain.Storage("search listings", err)
	}
	for i := range items {
		items[i].Images = byListing[items[i].ID]
		if items[i].Images == nil {
			items[i].Images = []domain.Image{}
		}
	}
	return domain.ListingPage{
		Items:    items,
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    total,
		HasNext:  q.Offset()+len(items) < total,
	}, nil
}

// Latest returns the n newest active listings for the home page.
func (s *ListingService) Latest(ctx context.Context, n int) ([]domain.Listing, error) {
	page, err := s.Search(ctx, domain.ListingQuery{Sort: domain.SortNewest, PageSize: n})
	return page.Items, err
}

func (s *ListingService) Cities(ctx context.Context) ([]string, error) {
	out, err := s.Listings.Cities(ctx)
	return out, domain.Storage("list cities", err)
}

func apply(l *domain.Listing, in domain.ListingInput) {
	l.Title, l.Description = in.Title, in.Description
	l.Price, l.Bedrooms, l.Bathrooms, l.Sqft = in.Price, in.Bedrooms, in.Bathrooms, in.Sqft
	l.Type, l.Status = in.Type, in.Status
	l.Address, l.City, l.State = in.Address, in.City, in.State
}

func inputOf(l domain.Listing) domain.ListingInput {
	return domain.ListingInput{
		Title: l.Title, Description: l.Description, Price: l.Price, Bedrooms: l.Bedrooms,
		Bathrooms: l.Bathrooms, Sqft: l.Sqft, Type: l.Type, Address: l.Address,
		City: l.City, State: l.State, Status: l.Status,
	}
}

func merge(in domain.ListingInput, p domain.ListingPatch) domain.ListingInput {
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Price != nil {
		in.Price = *p.Price
	}
	if p.Bedrooms != nil {
		in.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		in.Bathrooms = *p.Bathrooms
	}
	if p.Sqft != nil {
		in.Sqft = *p.Sqft
	}
	if p.Type != nil {
		in.Type = *p.Type
	}
	if p.Address != nil {
		in.Address = *p.Address
	}
	if p.City != nil {
		in.City = *p.City
	}
	if p.State != nil {
		in.State = *p.State
	}
	if p.Status != nil {
		in.Status = *p.Status
	}
	return in
}

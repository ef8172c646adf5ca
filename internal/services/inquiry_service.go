package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"estatedesk/internal/domain"
	"estatedesk/internal/repos"
	"estatedesk/internal/validate"
)

type InquiryService struct {
	Inquiries *repos.InquiryRepo
	Listings  *repos.ListingRepo
	now       func() time.Time
}

func NewInquiryService(inquiries *repos.InquiryRepo, listings *repos.ListingRepo) *InquiryService {
	return &InquiryService{Inquiries: inquiries, Listings: listings, now: time.Now}
}

// Submit records a visitor's application or contact message.
func (s *InquiryService) Submit(ctx context.Context, in domain.InquiryInput) (*domain.Inquiry, error) {
	in.ListingID = strings.TrimSpace(in.ListingID)
	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	in.MoveIn = strings.TrimSpace(in.MoveIn)
	in.Message = strings.TrimSpace(in.Message)
	if in.Kind == "" {
		in.Kind = domain.InquiryContact
	}

	ve := &domain.ValidationError{}
	if err := validate.Struct(in); err != nil {
		var rules *domain.ValidationError
		if !errors.As(err, &rules) {
			return nil, err
		}
		for f, msg := range rules.Fields {
			ve.Add(f, msg)
		}
	}
	switch in.Kind {
	case domain.InquiryApplication:
		if in.ListingID == "" {
			ve.Add("listing_id", "is required")
		}
		if in.Phone == "" {
			ve.Add("phone", "is required")
		}
	case domain.InquiryContact:
		if in.Subject == "" {
			ve.Add("subject", "is required")
		}
		if in.Message == "" {
			ve.Add("message", "is required")
		}
	}
	if in.Phone != "" {
		if _, ok := validate.Phone(in.Phone); !ok {
			ve.Add("phone", "must be a valid phone number")
		}
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	if in.ListingID != "" {
		ok, err := s.Listings.Exists(ctx, in.ListingID)
		if err != nil {
			return nil, domain.Storage("submit inquiry", err)
		}
		if !ok {
			return nil, domain.ErrNotFound
		}
	}

	q := &domain.Inquiry{
		ID:           uuid.NewString(),
		ListingID:    in.ListingID,
		SubmittedFor: in.ListingID,
		Kind:         in.Kind,
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Subject:      in.Subject,
		MoveIn:       in.MoveIn,
		Message:      in.Message,
		CreatedAt:    domain.Timestamp(s.now()),
	}
	if err := s.Inquiries.Create(ctx, q); err != nil {
		return nil, domain.Storage("submit inquiry", err)
	}
	return q, nil
}

// InquiryPage is one page of the admin inbox, newest first.
type InquiryPage struct {
	Items    []domain.Inquiry `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int              `json:"total"`
	HasNext  bool             `json:"has_next"`
}

func (s *InquiryService) List(ctx context.Context, auth domain.AuthContext, page, pageSize int) (InquiryPage, error) {
	if err := auth.Require(); err != nil {
		return InquiryPage{}, err
	}
	if page < 1 {
		page = 1
	}
	if page > domain.MaxPage {
		page = domain.MaxPage
	}
	if pageSize <= 0 {
		pageSize = 25
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize
	items, total, err := s.Inquiries.List(ctx, pageSize, offset)
	if err != nil {
		return InquiryPage{}, domain.Storage("list inquiries", err)
	}
	return InquiryPage{Items: items, Page: page, PageSize: pageSize, Total: total, HasNext: offset+len(items) < total}, nil
}

func (s *InquiryService) Get(ctx context.Context, auth domain.AuthContext, id string) (*domain.Inquiry, error) {
	if err := auth.Require(); err != nil {
		return nil, err
	}
	q, err := s.Inquiries.Get(ctx, id)
	return q, domain.Storage("get inquiry", err)
}

func (s *InquiryService) Delete(ctx context.Context, auth domain.AuthContext, id string) error {
	if err := auth.Require(); err != nil {
		return err
	}
	return domain.Storage("delete inquiry", s.Inquiries.Delete(ctx, id))
}

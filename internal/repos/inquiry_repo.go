package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"estatedesk/internal/domain"
)

type InquiryRepo struct{ db *sqlx.DB }

func NewInquiryRepo(db *sqlx.DB) *InquiryRepo { return &InquiryRepo{db: db} }

// listing_id is resolved against listings so a deleted listing reads back empty;
// submitted_for keeps the raw stored id.
const inquirySelect = `
  SELECT
    i.id,
    COALESCE(l.id, '')         AS listing_id,
    COALESCE(l.title, '')      AS listing_title,
    COALESCE(i.listing_id, '') AS submitted_for,
    i.kind, i.name, i.email, i.phone, i.subject, i.move_in, i.message, i.created_at
  FROM inquiries i
  LEFT JOIN listings l ON l.id = i.listing_id`

func (r *InquiryRepo) Create(ctx context.Context, q *domain.Inquiry) error {
	var listingID any
	if q.ListingID != "" {
		listingID = q.ListingID
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO inquiries(id, listing_id, kind, name, email, phone, subject, move_in, message, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		q.ID, listingID, q.Kind, q.Name, q.Email, q.Phone, q.Subject, q.MoveIn, q.Message, q.CreatedAt)
	return err
}

// List returns newest first with the total count.
func (r *InquiryRepo) List(ctx context.Context, limit, offset int) ([]domain.Inquiry, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM inquiries`); err != nil {
		return nil, 0, err
	}
	out := []domain.Inquiry{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(inquirySelect+`
	  ORDER BY i.created_at DESC, i.id ASC
	  LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *InquiryRepo) Get(ctx context.Context, id string) (*domain.Inquiry, error) {
	var q domain.Inquiry
	err := r.db.GetContext(ctx, &q, r.db.Rebind(inquirySelect+` WHERE i.id = ?`), id)
	if err != nil {
		return nil, notFound("get inquiry", err)
	}
	return &q, nil
}

func (r *InquiryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM inquiries WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

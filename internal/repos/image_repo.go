package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"estatedesk/internal/domain"
)

type ImageRepo struct{ db *sqlx.DB }

func NewImageRepo(db *sqlx.DB) *ImageRepo { return &ImageRepo{db: db} }

const imageCols = `id, listing_id, file_path, sort_order, created_at`

func (r *ImageRepo) ForListing(ctx context.Context, listingID string) ([]domain.Image, error) {
	out := []domain.Image{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT `+imageCols+` FROM images
		WHERE listing_id = ?
		ORDER BY sort_order, id`), listingID)
	return out, err
}

// ForListings loads images for many listings at once, grouped by listing id.
func (r *ImageRepo) ForListings(ctx context.Context, ids []string) (map[string][]domain.Image, error) {
	out := map[string][]domain.Image{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`
		SELECT `+imageCols+` FROM images
		WHERE listing_id IN (?)
		ORDER BY listing_id, sort_order, id`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Image
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	for _, im := range rows {
		out[im.ListingID] = append(out[im.ListingID], im)
	}
	return out, nil
}

// AddBatch appends imgs after the listing's current last position, all or nothing.
// Positions and listing ids are assigned here; the listing must exist.
func (r *ImageRepo) AddBatch(ctx context.Context, listingID string, imgs []domain.Image) ([]domain.Image, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM listings WHERE id = ?`), listingID); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}

	var next int
	if err := tx.GetContext(ctx, &next, tx.Rebind(`
		SELECT COALESCE(MAX(sort_order) + 1, 0) FROM images WHERE listing_id = ?`), listingID); err != nil {
		return nil, err
	}

	out := make([]domain.Image, 0, len(imgs))
	for _, im := range imgs {
		im.ListingID = listingID
		im.Position = next
		next++
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO images(id, listing_id, file_path, sort_order, created_at)
			VALUES(:id, :listing_id, :file_path, :sort_order, :created_at)`, im); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ImageRepo) Get(ctx context.Context, id string) (*domain.Image, error) {
	var im domain.Image
	err := r.db.GetContext(ctx, &im, r.db.Rebind(`SELECT `+imageCols+` FROM images WHERE id = ?`), id)
	if err != nil {
		return nil, notFound("get image", err)
	}
	return &im, nil
}

func (r *ImageRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM images WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

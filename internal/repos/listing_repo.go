package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"estatedesk/internal/domain"
)

type ListingRepo struct{ db *sqlx.DB }

func NewListingRepo(db *sqlx.DB) *ListingRepo { return &ListingRepo{db: db} }

const listingCols = `
    id, title, description, price, bedrooms, bathrooms, sqft, listing_type,
    address, city, state, status, created_at, updated_at`

// id breaks ties so paging stays stable.
var listingOrder = map[string]string{
	domain.SortNewest:    `created_at DESC, id ASC`,
	domain.SortOldest:    `created_at ASC, id ASC`,
	domain.SortPriceAsc:  `price ASC, id ASC`,
	domain.SortPriceDesc: `price DESC, id ASC`,
	domain.SortBedsDesc:  `bedrooms DESC, id ASC`,
}

// listingRow carries the lowercased match columns next to the listing.
// Case folding is done in Go; SQLite's LOWER only folds ASCII.
type listingRow struct {
	domain.Listing
	SearchText string `db:"search_text"`
	CityKey    string `db:"city_key"`
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func rowOf(l *domain.Listing) listingRow {
	return listingRow{
		Listing:    *l,
		SearchText: fold(strings.Join([]string{l.Title, l.Description, l.Address, l.City, l.State}, "\n")),
		CityKey:    fold(l.City),
	}
}

func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO listings(id, title, description, price, bedrooms, bathrooms, sqft, listing_type,
		                     address, city, state, status, created_at, updated_at, search_text, city_key)
		VALUES(:id, :title, :description, :price, :bedrooms, :bathrooms, :sqft, :listing_type,
		       :address, :city, :state, :status, :created_at, :updated_at, :search_text, :city_key)`, rowOf(l))
	return err
}

// Update overwrites every editable column; created_at is never touched.
func (r *ListingRepo) Update(ctx context.Context, l *domain.Listing) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE listings SET
		  title=:title, description=:description, price=:price, bedrooms=:bedrooms,
		  bathrooms=:bathrooms, sqft=:sqft, listing_type=:listing_type, address=:address,
		  city=:city, state=:state, status=:status, updated_at=:updated_at,
		  search_text=:search_text, city_key=:city_key
		WHERE id=:id`, rowOf(l))
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *ListingRepo) Get(ctx context.Context, id string) (*domain.Listing, error) {
	var l domain.Listing
	err := r.db.GetContext(ctx, &l, r.db.Rebind(`SELECT `+listingCols+` FROM listings WHERE id = ?`), id)
	if err != nil {
		return nil, notFound("get listing", err)
	}
	return &l, nil
}

func (r *ListingRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM listings WHERE id = ?`), id)
	return n > 0, err
}

// Delete removes the listing and its image rows in one transaction and
// returns the image rows so the caller can remove the stored files.
func (r *ListingRepo) Delete(ctx context.Context, id string) ([]domain.Image, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	imgs := []domain.Image{}
	if err := tx.SelectContext(ctx, &imgs, tx.Rebind(`
		SELECT id, listing_id, file_path, sort_order, created_at
		FROM images WHERE listing_id = ? ORDER BY sort_order, id`), id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM images WHERE listing_id = ?`), id); err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM listings WHERE id = ?`), id)
	if err != nil {
		return nil, err
	}
	if err := mustAffect(res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return imgs, nil
}

// Search returns one page of listings plus the total match count.
// q is expected to be Normalized.
func (r *ListingRepo) Search(ctx context.Context, q domain.ListingQuery) ([]domain.Listing, int, error) {
	where := []string{`1=1`}
	args := []any{}

	if !q.IncludeInactive {
		where = append(where, `status = ?`)
		args = append(args, domain.StatusActive)
	}
	if t := strings.TrimSpace(q.Text); t != "" {
		where = append(where, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(fold(t))+"%")
	}
	if c := strings.TrimSpace(q.City); c != "" {
		where = append(where, `city_key LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(fold(c))+"%")
	}
	if q.Type != "" {
		where = append(where, `listing_type = ?`)
		args = append(args, q.Type)
	}
	if q.MinPrice != nil {
		where = append(where, `price >= ?`)
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, `price <= ?`)
		args = append(args, *q.MaxPrice)
	}
	if q.MinBedrooms != nil {
		where = append(where, `bedrooms >= ?`)
		args = append(args, *q.MinBedrooms)
	}
	cond := strings.Join(where, ` AND `)

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM listings WHERE `+cond), args...); err != nil {
		return nil, 0, err
	}

	order, ok := listingOrder[q.Sort]
	if !ok {
		order = listingOrder[domain.SortNewest]
	}
	sql := `SELECT ` + listingCols + ` FROM listings WHERE ` + cond + `
	  ORDER BY ` + order + `
	  LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), q.PageSize, q.Offset())

	out := []domain.Listing{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(sql), pageArgs...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Cities lists distinct non-empty cities of active listings for the filter dropdown.
func (r *ListingRepo) Cities(ctx context.Context) ([]string, error) {
	out := []string{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT DISTINCT city FROM listings
		WHERE status = ? AND city <> ''
		ORDER BY city`), domain.StatusActive)
	return out, err
}

// Refold rewrites the match columns of listings that have none, which is
// every row of a database created before they existed.
func (r *ListingRepo) Refold(ctx context.Context) (int, error) {
	stale := []domain.Listing{}
	if err := r.db.SelectContext(ctx, &stale, `SELECT `+listingCols+` FROM listings WHERE search_text = ''`); err != nil {
		return 0, err
	}
	for i := range stale {
		if _, err := r.db.NamedExecContext(ctx, `
			UPDATE listings SET search_text=:search_text, city_key=:city_key WHERE id=:id`, rowOf(&stale[i])); err != nil {
			return i, err
		}
	}
	return len(stale), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

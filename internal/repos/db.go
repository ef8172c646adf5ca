package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"estatedesk/internal/domain"
)

// OpenDB connects, creates the schema and optionally seeds a sample listing.
// driver is "sqlite" (modernc, pure Go) or "postgres" (lib/pq).
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// One connection: keeps :memory: databases alive and serialises writers.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
			return nil, err
		}
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Admins & Sessions
CREATE TABLE IF NOT EXISTS admins(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- jti of the signed token
  admin_id TEXT NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
  created_at TEXT NOT NULL,
  expires_at TEXT NOT NULL,
  last_seen TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sessions_admin   ON sessions(admin_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);

-- Listings
CREATE TABLE IF NOT EXISTS listings(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price BIGINT NOT NULL CHECK (price >= 0),
  bedrooms INTEGER NOT NULL DEFAULT 0 CHECK (bedrooms >= 0),
  bathrooms DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (bathrooms >= 0),
  sqft INTEGER NOT NULL DEFAULT 0 CHECK (sqft >= 0),
  listing_type TEXT NOT NULL CHECK (listing_type IN ('rent','sale')),
  address TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','inactive')),
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  search_text TEXT NOT NULL DEFAULT '',  -- lowercased title/description/address/city/state
  city_key TEXT NOT NULL DEFAULT ''      -- lowercased city
);
CREATE INDEX IF NOT EXISTS idx_listings_status     ON listings(status);
CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at);
CREATE INDEX IF NOT EXISTS idx_listings_price      ON listings(price);

-- Images (owned by a listing, display order = sort_order)
CREATE TABLE IF NOT EXISTS images(
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
  file_path TEXT NOT NULL UNIQUE,
  sort_order INTEGER NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_images_listing ON images(listing_id, sort_order);

-- Inquiries: listing_id is a weak reference and may outlive the listing
CREATE TABLE IF NOT EXISTS inquiries(
  id TEXT PRIMARY KEY,
  listing_id TEXT,
  kind TEXT NOT NULL CHECK (kind IN ('application','contact')),
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  subject TEXT NOT NULL DEFAULT '',
  move_in TEXT NOT NULL DEFAULT '',
  message TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inquiries_created_at ON inquiries(created_at);
`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return addListingKeys(db)
}

// addListingKeys upgrades listings tables created without the match columns.
func addListingKeys(db *sqlx.DB) error {
	for _, col := range []string{"search_text", "city_key"} {
		_, err := db.Exec(`ALTER TABLE listings ADD COLUMN ` + col + ` TEXT NOT NULL DEFAULT ''`)
		if err != nil && !duplicateColumn(err) {
			return fmt.Errorf("add listings.%s: %w", col, err)
		}
	}
	n, err := NewListingRepo(db).Refold(context.Background())
	if err != nil {
		return fmt.Errorf("refold listings: %w", err)
	}
	if n > 0 {
		log.Printf("[schema] refolded %d listings", n)
	}
	return nil
}

func duplicateColumn(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42701" // duplicate_column
	}
	return strings.Contains(err.Error(), "duplicate column")
}

// SeedSample inserts one demo listing when the listings table is empty.
func SeedSample(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM listings`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting sample listing")
	now := domain.Timestamp(time.Now())
	sample := domain.Listing{
		ID:          uuid.NewString(),
		Title:       "Modern Downtown Loft",
		Description: "Sunny loft with floor-to-ceiling windows, polished concrete floors, and in-unit laundry.",
		Price:       2950,
		Bedrooms:    1,
		Bathrooms:   1,
		Sqft:        740,
		Type:        domain.ListingTypeRent,
		Address:     "123 Market St, Unit 504",
		City:        "Los Angeles",
		State:       "CA",
		Status:      domain.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return NewListingRepo(db).Create(ctx, &sample)
}

// notFound maps sql.ErrNoRows to domain.ErrNotFound and wraps the rest.
func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mustAffect reports ErrNotFound when a keyed write touched nothing.
func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

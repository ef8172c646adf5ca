package domain

import (
	"strings"
	"time"
)

// TimeLayout is fixed width so stored timestamps sort lexically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

func Timestamp(t time.Time) string { return t.UTC().Format(TimeLayout) }

func ParseTimestamp(s string) (time.Time, error) { return time.Parse(TimeLayout, s) }

const (
	ListingTypeRent = "rent"
	ListingTypeSale = "sale"

	StatusActive   = "active"
	StatusInactive = "inactive"

	InquiryApplication = "application"
	InquiryContact     = "contact"
)

type Admin struct {
	ID        string `db:"id"`
	Email     string `db:"email"`
	Name      string `db:"name"`
	Hash      string `db:"password_hash"`
	Active    bool   `db:"active"`
	CreatedAt string `db:"created_at"`
}

// Session is the server-side half of an admin login; the signed token carries its ID.
type Session struct {
	ID        string `db:"id"`
	AdminID   string `db:"admin_id"`
	CreatedAt string `db:"created_at"`
	ExpiresAt string `db:"expires_at"`
	LastSeen  string `db:"last_seen"`
}

type Listing struct {
	ID          string  `db:"id" json:"id"`
	Title       string  `db:"title" json:"title"`
	Description string  `db:"description" json:"description"`
	Price       int64   `db:"price" json:"price"`
	Bedrooms    int     `db:"bedrooms" json:"bedrooms"`
	Bathrooms   float64 `db:"bathrooms" json:"bathrooms"`
	Sqft        int     `db:"sqft" json:"sqft"`
	Type        string  `db:"listing_type" json:"type"` // rent | sale
	Address     string  `db:"address" json:"address"`
	City        string  `db:"city" json:"city"`
	State       string  `db:"state" json:"state"`
	Status      string  `db:"status" json:"status"` // active | inactive
	CreatedAt   string  `db:"created_at" json:"created_at"`
	UpdatedAt   string  `db:"updated_at" json:"updated_at"`

	Images []Image `db:"-" json:"images"`
}

func (l Listing) IsActive() bool { return l.Status == StatusActive }

func (l Listing) ForRent() bool { return l.Type == ListingTypeRent }

// Location joins the non-empty address parts.
func (l Listing) Location() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Address, l.City, l.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Cover is the first image in display order, if any.
func (l Listing) Cover() *Image {
	if len(l.Images) == 0 {
		return nil
	}
	return &l.Images[0]
}

type Image struct {
	ID        string `db:"id" json:"id"`
	ListingID string `db:"listing_id" json:"listing_id"`
	FilePath  string `db:"file_path" json:"file_path"` // storage key: <listing_id>/<file>
	Position  int    `db:"sort_order" json:"position"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

func (i Image) URL() string { return "/uploads/" + i.FilePath }

type Inquiry struct {
	ID string `db:"id" json:"id"`
	// ListingID is empty when the referenced listing no longer exists.
	ListingID    string `db:"listing_id" json:"listing_id,omitempty"`
	ListingTitle string `db:"listing_title" json:"listing_title,omitempty"`
	// SubmittedFor keeps the id the visitor applied for, even after deletion.
	SubmittedFor string `db:"submitted_for" json:"submitted_for,omitempty"`
	Kind         string `db:"kind" json:"kind"`
	Name         string `db:"name" json:"name"`
	Email        string `db:"email" json:"email"`
	Phone        string `db:"phone" json:"phone,omitempty"`
	Subject      string `db:"subject" json:"subject,omitempty"`
	MoveIn       string `db:"move_in" json:"move_in,omitempty"`
	Message      string `db:"message" json:"message,omitempty"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

func (q Inquiry) ListingGone() bool { return q.SubmittedFor != "" && q.ListingID == "" }

// Blob is one uploaded file as received from the client.
type Blob struct {
	Name string
	Data []byte
}

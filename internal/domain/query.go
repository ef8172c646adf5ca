package domain

const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortBedsDesc  = "beds_desc"

	DefaultPageSize = 12
	MaxPageSize     = 50
	// MaxPage keeps (Page-1)*PageSize far from overflow on any driver.
	MaxPage = 1_000_000
)

var Sorts = []string{SortNewest, SortOldest, SortPriceAsc, SortPriceDesc, SortBedsDesc}

// ListingQuery is the typed public search. Nil pointers mean "no bound".
type ListingQuery struct {
	Text        string
	City        string
	Type        string
	MinPrice    *int64
	MaxPrice    *int64
	MinBedrooms *int
	Sort        string
	Page        int
	PageSize    int

	// IncludeInactive is only honoured for authenticated admin searches.
	IncludeInactive bool
}

// Normalized fills defaults and clamps paging.
func (q ListingQuery) Normalized() ListingQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	valid := false
	for _, s := range Sorts {
		if q.Sort == s {
			valid = true
			break
		}
	}
	if !valid {
		q.Sort = SortNewest
	}
	return q
}

func (q ListingQuery) Offset() int { return (q.Page - 1) * q.PageSize }

type ListingPage struct {
	Items    []Listing `json:"items"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Total    int       `json:"total"`
	HasNext  bool      `json:"has_next"`
}

func (p ListingPage) HasPrev() bool { return p.Page > 1 }
func (p ListingPage) NextPage() int { return p.Page + 1 }
func (p ListingPage) PrevPage() int { return p.Page - 1 }

// ListingInput is the full set of editable listing fields.
type ListingInput struct {
	Title       string  `json:"title" form:"title" validate:"required,max=150"`
	Description string  `json:"description" form:"description" validate:"max=5000"`
	Price       int64   `json:"price" form:"price" validate:"gte=0"`
	Bedrooms    int     `json:"bedrooms" form:"bedrooms" validate:"gte=0,lte=100"`
	Bathrooms   float64 `json:"bathrooms" form:"bathrooms" validate:"gte=0,lte=100"`
	Sqft        int     `json:"sqft" form:"sqft" validate:"gte=0"`
	Type        string  `json:"type" form:"type" validate:"oneof=rent sale"`
	Address     string  `json:"address" form:"address" validate:"max=200"`
	City        string  `json:"city" form:"city" validate:"max=80"`
	State       string  `json:"state" form:"state" validate:"max=40"`
	Status      string  `json:"status" form:"status" validate:"oneof=active inactive"`
}

// ListingPatch carries a partial update; nil fields keep their stored value.
type ListingPatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *int64   `json:"price"`
	Bedrooms    *int     `json:"bedrooms"`
	Bathrooms   *float64 `json:"bathrooms"`
	Sqft        *int     `json:"sqft"`
	Type        *string  `json:"type"`
	Address     *string  `json:"address"`
	City        *string  `json:"city"`
	State       *string  `json:"state"`
	Status      *string  `json:"status"`
}

// PatchFrom turns a full input into a patch that overwrites every field.
func PatchFrom(in ListingInput) ListingPatch {
	return ListingPatch{
		Title: &in.Title, Description: &in.Description, Price: &in.Price,
		Bedrooms: &in.Bedrooms, Bathrooms: &in.Bathrooms, Sqft: &in.Sqft,
		Type: &in.Type, Address: &in.Address, City: &in.City, State: &in.State,
		Status: &in.Status,
	}
}

// InquiryInput is a visitor submission from the apply or contact form.
type InquiryInput struct {
	ListingID string `json:"listing_id" form:"listing_id"`
	Kind      string `json:"kind" form:"kind" validate:"oneof=application contact"`
	Name      string `json:"name" form:"full_name" validate:"required,max=120"`
	Email     string `json:"email" form:"email" validate:"required,email,max=120"`
	Phone     string `json:"phone" form:"phone" validate:"max=50"`
	Subject   string `json:"subject" form:"subject" validate:"max=200"`
	MoveIn    string `json:"move_in" form:"move_in" validate:"max=40"`
	Message   string `json:"message" form:"message" validate:"max=5000"`
}

package domain

import "time"

type Listing struct {
	ID          int64     `json:"id"`
	SellerID    int64     `json:"seller_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceMinor  int64     `json:"price_minor"`
	Category    string    `json:"category"`
	Rating      float64   `json:"rating"`
	InStock     bool      `json:"in_stock"`
	CreatedAt   time.Time `json:"created_at"`
}

// Review of a listing. Only buyers with a completed order containing the
// listing may leave one.
type Review struct {
	ID                int64     `json:"id"`
	ListingID         int64     `json:"listing_id"`
	AuthorID          int64     `json:"author_id"`
	AuthorName        string    `json:"author_name"`
	Rating            int32     `json:"rating"`
	Comment           string    `json:"comment"`
	VerifiedPurchase  bool      `json:"verified_purchase"`
	CreatedAt         time.Time `json:"created_at"`
}

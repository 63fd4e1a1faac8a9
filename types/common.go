package types

import "math"

// Image references a binary asset held by the external object store.
type Image struct {
	// PublicID is the object key used to address (and later delete) the asset.
	PublicID string `json:"public_id"`

	// URL is the stable public URL of the asset.
	URL string `json:"url"`
}

// Page describes an offset/limit window over a listing.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the number of records to skip. It saturates at math.MaxInt
// instead of overflowing.
func (p Page) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit).
func (p Page) TotalPages(total int) int {
	if p.Limit < 1 || total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

package types

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Listing represents a rentable property record.
type Listing struct {
	// ID is the unique identifier of the listing.
	ID int `json:"listing_id" db:"id"`

	// OwnerID references the user who created the listing and holds
	// elevated action rights over it.
	OwnerID int `json:"owner_id" db:"owner_id"`

	// Title is the short human-readable headline of the listing.
	Title string `json:"title" db:"title"`

	// Description is the full free-form description.
	Description string `json:"description" db:"description"`

	// Price is the monthly rent.
	Price float64 `json:"price" db:"price"`

	// Location is the city the property is in.
	Location string `json:"location" db:"location"`

	// IsRental distinguishes rentals from rooms offered in shared flats.
	IsRental bool `json:"isRental" db:"is_rental"`

	// Images holds stored image paths, each carrying exactly one
	// "uploads/" prefix and no leading slash.
	Images []string `json:"images" db:"images"`

	// Status is the lifecycle state of the listing, "active" by default.
	Status string `json:"status" db:"status"`

	// Preferences mirrors the user preference bag for the flat itself.
	// Nil when never set.
	Preferences *Preferences `json:"preferences" db:"preferences"`

	// Created is the timestamp at which the listing was created.
	Created time.Time `json:"created" db:"created"`

	// Updated is the timestamp of the most recent update.
	Updated time.Time `json:"updated" db:"updated"`
}

// DefaultListingStatus is applied when a create request omits the status.
const DefaultListingStatus = "active"

// ListingFilter captures the recognized search parameters. Zero-valued
// fields do not constrain the search: an empty Location matches every
// city, nil price bounds are open, and false flags are "don't filter"
// rather than "must be false".
type ListingFilter struct {
	Location      string
	MinPrice      *float64
	MaxPrice      *float64
	Smoking       bool
	Vegan         bool
	PetFriendly   bool
	PartyFriendly bool
}

// ErrInvalidFilter is returned when a price parameter is not numeric.
var ErrInvalidFilter = errors.New("invalid search filter")

// ParseListingFilter reconstructs a filter from request query parameters.
// Unrecognized parameters are ignored. Boolean flags engage only when the
// parameter is present with the literal value "true".
func ParseListingFilter(values url.Values) (ListingFilter, error) {
	var filter ListingFilter

	filter.Location = strings.TrimSpace(values.Get("location"))

	for param, target := range map[string]**float64{
		"min_price": &filter.MinPrice,
		"max_price": &filter.MaxPrice,
	} {
		raw := strings.TrimSpace(values.Get(param))
		if raw == "" {
			continue
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return ListingFilter{}, ErrInvalidFilter
		}
		*target = &price
	}

	filter.Smoking = values.Get("smoking") == "true"
	filter.Vegan = values.Get("vegan") == "true"
	filter.PetFriendly = values.Get("pet_friendly") == "true"
	filter.PartyFriendly = values.Get("party_friendly") == "true"

	return filter, nil
}

// Query encodes the filter canonically: empty and false fields are
// omitted, engaged boolean flags serialize as the literal "true".
// The encoding round-trips through ParseListingFilter.
func (f ListingFilter) Query() url.Values {
	values := url.Values{}
	if f.Location != "" {
		values.Set("location", f.Location)
	}
	if f.MinPrice != nil {
		values.Set("min_price", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		values.Set("max_price", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	for param, engaged := range map[string]bool{
		"smoking":        f.Smoking,
		"vegan":          f.Vegan,
		"pet_friendly":   f.PetFriendly,
		"party_friendly": f.PartyFriendly,
	} {
		if engaged {
			values.Set(param, "true")
		}
	}
	return values
}

// IsZero reports whether the filter constrains nothing.
func (f ListingFilter) IsZero() bool {
	return len(f.Query()) == 0
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Turquoise-stack/FLAT-CLUB/types"
)

// ListingRepository handles persistence for listings.
type ListingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

const listingColumns = `id, owner_id, title, description, price, location, is_rental, images, status, preferences, created, updated`

func scanListing(row interface{ Scan(...any) error }) (types.Listing, error) {
	var listing types.Listing
	var imagesJSON, prefsJSON []byte
	err := row.Scan(
		&listing.ID,
		&listing.OwnerID,
		&listing.Title,
		&listing.Description,
		&listing.Price,
		&listing.Location,
		&listing.IsRental,
		&imagesJSON,
		&listing.Status,
		&prefsJSON,
		&listing.Created,
		&listing.Updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Listing{}, ErrNotFound
		}
		return types.Listing{}, err
	}

	_ = json.Unmarshal(imagesJSON, &listing.Images)
	if len(prefsJSON) > 0 {
		_ = json.Unmarshal(prefsJSON, &listing.Preferences)
	}
	return listing, nil
}

func (r *ListingRepository) Get(ctx context.Context, id int) (types.Listing, error) {
	const query = `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	return scanListing(r.db.QueryRowContext(ctx, query, id))
}

func (r *ListingRepository) List(ctx context.Context, offset, limit int) ([]types.Listing, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 6
	}

	const countQuery = `SELECT COUNT(1) FROM listings`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `SELECT ` + listingColumns + ` FROM listings ORDER BY id OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	listings, err := collectListings(rows, limit)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// Search returns every listing matching the filter, ordered by id.
// Zero-valued filter fields do not constrain the result.
func (r *ListingRepository) Search(ctx context.Context, filter types.ListingFilter) ([]types.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings`

	var conditions []string
	var args []any

	addCondition := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.Location != "" {
		addCondition(`lower(location) = lower($%d)`, filter.Location)
	}
	if filter.MinPrice != nil {
		addCondition(`price >= $%d`, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		addCondition(`price <= $%d`, *filter.MaxPrice)
	}
	for flag, engaged := range map[string]bool{
		"smoking":        filter.Smoking,
		"vegan":          filter.Vegan,
		"pet_friendly":   filter.PetFriendly,
		"party_friendly": filter.PartyFriendly,
	} {
		if engaged {
			conditions = append(conditions, fmt.Sprintf(`COALESCE((preferences->>'%s')::boolean, FALSE)`, flag))
		}
	}

	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectListings(rows, 0)
}

func (r *ListingRepository) Create(ctx context.Context, listing types.Listing) (types.Listing, error) {
	now := time.Now()
	listing.Created = now
	listing.Updated = now
	if listing.Images == nil {
		listing.Images = []string{}
	}

	imagesJSON, err := json.Marshal(listing.Images)
	if err != nil {
		return types.Listing{}, err
	}
	prefsJSON, err := marshalNullable(listing.Preferences == nil, listing.Preferences)
	if err != nil {
		return types.Listing{}, err
	}

	const query = `
		INSERT INTO listings (owner_id, title, description, price, location, is_rental, images, status, preferences, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		listing.OwnerID,
		listing.Title,
		listing.Description,
		listing.Price,
		listing.Location,
		listing.IsRental,
		imagesJSON,
		listing.Status,
		prefsJSON,
		listing.Created,
		listing.Updated,
	).Scan(&listing.ID); err != nil {
		return types.Listing{}, err
	}
	return listing, nil
}

func (r *ListingRepository) Update(ctx context.Context, listing types.Listing) (types.Listing, error) {
	listing.Updated = time.Now()

	prefsJSON, err := marshalNullable(listing.Preferences == nil, listing.Preferences)
	if err != nil {
		return types.Listing{}, err
	}

	const query = `
		UPDATE listings
		SET title = $1,
			description = $2,
			price = $3,
			location = $4,
			is_rental = $5,
			status = $6,
			preferences = $7,
			updated = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		listing.Title,
		listing.Description,
		listing.Price,
		listing.Location,
		listing.IsRental,
		listing.Status,
		prefsJSON,
		listing.Updated,
		listing.ID,
	)
	if err != nil {
		return types.Listing{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Listing{}, err
	}
	if affected == 0 {
		return types.Listing{}, ErrNotFound
	}
	return listing, nil
}

func (r *ListingRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM listings WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func collectListings(rows *sql.Rows, sizeHint int) ([]types.Listing, error) {
	listings := make([]types.Listing, 0, sizeHint)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

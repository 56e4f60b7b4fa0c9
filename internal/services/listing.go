package services

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/Turquoise-stack/FLAT-CLUB/internal/cache"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/storage"
	"github.com/Turquoise-stack/FLAT-CLUB/types"
)

const searchCachePrefix = "listings:search"

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	Get(ctx context.Context, id int) (types.Listing, error)
	List(ctx context.Context, offset, limit int) ([]types.Listing, int, error)
	Search(ctx context.Context, filter types.ListingFilter) ([]types.Listing, error)
	Create(ctx context.Context, listing types.Listing) (types.Listing, error)
	Update(ctx context.Context, listing types.Listing) (types.Listing, error)
	Delete(ctx context.Context, id int) error
}

// ImageUpload is one image file attached to a listing create request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ListingService encapsulates listing use-cases: CRUD, filtered search
// with a Redis read-through cache, and image storage.
type ListingService struct {
	repo   ListingRepository
	images *storage.ImageStore
	cache  *cache.QueryCache
	logger *slog.Logger
}

func NewListingService(repo ListingRepository, images *storage.ImageStore, queryCache *cache.QueryCache, logger *slog.Logger) *ListingService {
	return &ListingService{
		repo:   repo,
		images: images,
		cache:  queryCache,
		logger: logger,
	}
}

func (s *ListingService) Get(ctx context.Context, id int) (types.Listing, error) {
	return s.repo.Get(ctx, id)
}

func (s *ListingService) List(ctx context.Context, offset, limit int) ([]types.Listing, int, error) {
	if limit <= 0 {
		limit = 6
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, offset, limit)
}

// Search returns listings matching the filter. Results are memoized in
// the query cache keyed by the filter's canonical encoding; cache faults
// fall through to the database.
func (s *ListingService) Search(ctx context.Context, filter types.ListingFilter) ([]types.Listing, error) {
	key := cache.QueryKey(searchCachePrefix, filter.Query())

	var cached []types.Listing
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("search cache read failed", "error", err)
	} else if hit {
		return cached, nil
	}

	listings, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, listings); err != nil {
		s.logger.Warn("search cache write failed", "error", err)
	}
	return listings, nil
}

// Create stores the listing's images and persists the record with the
// resulting canonical image paths.
func (s *ListingService) Create(ctx context.Context, listing types.Listing, uploads []ImageUpload) (types.Listing, error) {
	if listing.Status == "" {
		listing.Status = types.DefaultListingStatus
	}

	paths := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		path, err := s.images.Save(ctx, upload.Filename, bytes.NewReader(upload.Data), int64(len(upload.Data)), upload.ContentType)
		if err != nil {
			s.removeImages(ctx, paths)
			return types.Listing{}, err
		}
		paths = append(paths, path)
	}
	listing.Images = paths

	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		s.removeImages(ctx, paths)
		return types.Listing{}, err
	}
	return created, nil
}

func (s *ListingService) Update(ctx context.Context, listing types.Listing) (types.Listing, error) {
	return s.repo.Update(ctx, listing)
}

// Delete removes the listing and its stored images. Image removal is
// best-effort; the record is gone either way.
func (s *ListingService) Delete(ctx context.Context, id int) error {
	listing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeImages(ctx, listing.Images)
	return nil
}

func (s *ListingService) removeImages(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := s.images.Remove(ctx, path); err != nil {
			s.logger.Warn("image removal failed", "path", path, "error", err)
		}
	}
}

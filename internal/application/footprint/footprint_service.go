// Package footprint implements the footprint use cases: CRUD, listing,
// geocoding and image upload.
package footprint

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/footprint"
	"github.com/halo-extras/backend/internal/domain/shared"
)

// DefaultPageSize is used when the list query carries no size
const DefaultPageSize = 10

// DefaultMaxImageSize bounds uploads when no limit is configured
const DefaultMaxImageSize int64 = 10 << 20

// ImageStorage stores footprint images and returns their public URL
type ImageStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, storageKey string) error
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// FootprintService handles footprint business operations
type FootprintService struct {
	repo           footprint.FootprintRepository
	geocoder       footprint.Geocoder
	images         ImageStorage
	eventPublisher shared.EventPublisher
	baseConfig     footprint.BaseConfig
	maxImageSize   int64
	logger         *zap.Logger
}

// NewFootprintService creates a new FootprintService
func NewFootprintService(
	repo footprint.FootprintRepository,
	geocoder footprint.Geocoder,
	baseConfig footprint.BaseConfig,
	logger *zap.Logger,
) *FootprintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FootprintService{
		repo:         repo,
		geocoder:     geocoder,
		baseConfig:   baseConfig,
		maxImageSize: DefaultMaxImageSize,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for footprint events
func (s *FootprintService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetImageStorage sets the image store and the accepted upload size
func (s *FootprintService) SetImageStorage(images ImageStorage, maxSize int64) {
	s.images = images
	if maxSize > 0 {
		s.maxImageSize = maxSize
	}
}

// Create creates a new footprint
func (s *FootprintService) Create(ctx context.Context, req CreateFootprintRequest) (*FootprintResponse, error) {
	location, err := requestLocation(req.Longitude, req.Latitude)
	if err != nil {
		return nil, err
	}

	fp, err := footprint.NewFootprint(req.details(), location)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, fp); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, fp)

	resp := ToFootprintResponse(fp)
	return &resp, nil
}

// GetByID retrieves a footprint by ID
func (s *FootprintService) GetByID(ctx context.Context, id uuid.UUID) (*FootprintResponse, error) {
	fp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToFootprintResponse(fp)
	return &resp, nil
}

// Update replaces the fields of an existing footprint
func (s *FootprintService) Update(ctx context.Context, id uuid.UUID, req UpdateFootprintRequest) (*FootprintResponse, error) {
	location, err := requestLocation(req.Longitude, req.Latitude)
	if err != nil {
		return nil, err
	}

	fp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fp.Update(CreateFootprintRequest(req).details(), location); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, fp); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, fp)

	resp := ToFootprintResponse(fp)
	return &resp, nil
}

// Delete removes a footprint
func (s *FootprintService) Delete(ctx context.Context, id uuid.UUID) error {
	fp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	fp.MarkDeleted()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishEvents(ctx, fp)
	return nil
}

// List returns one page of footprints and the total match count
func (s *FootprintService) List(ctx context.Context, query ListFootprintsQuery) ([]FootprintResponse, int64, error) {
	filter := listFilter(query)

	items, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToFootprintResponses(items), total, nil
}

// ListAll returns every footprint, newest first
func (s *FootprintService) ListAll(ctx context.Context) ([]FootprintResponse, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToFootprintResponses(items), nil
}

// Geocode resolves an address through the configured geocoder
func (s *FootprintService) Geocode(ctx context.Context, address string) (*LocationResponse, error) {
	loc, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}
	return &LocationResponse{Longitude: loc.Longitude, Latitude: loc.Latitude}, nil
}

// Config returns the public map widget configuration
func (s *FootprintService) Config() footprint.BaseConfig {
	return s.baseConfig
}

// UploadImage stores an image and returns where it can be fetched
func (s *FootprintService) UploadImage(ctx context.Context, filename, contentType string, data []byte) (*ImageUploadResponse, error) {
	if s.images == nil {
		return nil, shared.NewDomainError("NOT_CONFIGURED", "Image storage is not configured")
	}
	if len(data) == 0 {
		return nil, shared.NewDomainError("INVALID_FILE", "File is empty")
	}
	if int64(len(data)) > s.maxImageSize {
		return nil, shared.NewDomainError("FILE_TOO_LARGE", "File exceeds the maximum upload size")
	}

	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, shared.NewDomainError("INVALID_FILE_TYPE", "Only JPEG, PNG, GIF and WebP images are allowed")
	}
	if ext == ".jpg" && strings.EqualFold(path.Ext(filename), ".jpeg") {
		ext = ".jpeg"
	}

	key := "footprints/" + uuid.NewString() + ext
	url, err := s.images.Upload(ctx, key, data, contentType)
	if err != nil {
		s.logger.Error("Failed to upload footprint image", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return &ImageUploadResponse{
		Key:         key,
		URL:         url,
		ContentType: contentType,
		Size:        len(data),
	}, nil
}

// publishEvents hands pending aggregate events to the bus.
// Publishing failures are logged; the write already succeeded.
func (s *FootprintService) publishEvents(ctx context.Context, fp *footprint.Footprint) {
	events := fp.GetDomainEvents()
	fp.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish footprint events",
			zap.String("footprint_id", fp.ID.String()),
			zap.Error(err))
	}
}

func requestLocation(longitude, latitude *float64) (footprint.Location, error) {
	if longitude == nil || latitude == nil {
		return footprint.Location{}, shared.NewDomainError("INVALID_INPUT", "Longitude and latitude are required")
	}
	return footprint.NewLocation(*longitude, *latitude)
}

// listFilter maps the widget query onto a repository filter.
// Sort has the form "field,dir" and defaults to createTime desc.
func listFilter(query ListFootprintsQuery) shared.Filter {
	filter := shared.DefaultFilter()
	filter.Search = strings.TrimSpace(query.Keyword)
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.Size > 0 {
		filter.PageSize = query.Size
	} else {
		filter.PageSize = DefaultPageSize
	}

	if sort := strings.TrimSpace(query.Sort); sort != "" {
		field, dir, _ := strings.Cut(sort, ",")
		if field = strings.TrimSpace(field); field != "" {
			filter.OrderBy = field
		}
		if dir = strings.TrimSpace(dir); dir != "" {
			filter.OrderDir = strings.ToLower(dir)
		}
	}

	if query.Author != "" {
		filter.Filters[footprint.FilterKeyAuthor] = query.Author
	}
	if query.FootprintType != "" {
		filter.Filters[footprint.FilterKeyFootprintType] = query.FootprintType
	}
	return filter
}

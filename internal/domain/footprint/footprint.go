package footprint

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/halo-extras/backend/internal/domain/shared"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MaxAddressLength     = 200
)

// Location is a WGS84 longitude/latitude pair
type Location struct {
	Longitude float64 `gorm:"not null"`
	Latitude  float64 `gorm:"not null"`
}

// NewLocation validates the coordinate ranges
func NewLocation(longitude, latitude float64) (Location, error) {
	if longitude < -180 || longitude > 180 {
		return Location{}, shared.NewDomainError("INVALID_LONGITUDE", "Longitude must be between -180 and 180")
	}
	if latitude < -90 || latitude > 90 {
		return Location{}, shared.NewDomainError("INVALID_LATITUDE", "Latitude must be between -90 and 90")
	}
	return Location{Longitude: longitude, Latitude: latitude}, nil
}

// String formats the location as "lng,lat"
func (l Location) String() string {
	return fmt.Sprintf("%g,%g", l.Longitude, l.Latitude)
}

// Details carries the editable fields of a footprint
type Details struct {
	Name          string
	Description   string
	Address       string
	FootprintType string
	Image         string
	Article       string
	Author        string
}

// Footprint is a geotagged journal entry shown on the site map
type Footprint struct {
	shared.BaseAggregateRoot
	Name          string    `gorm:"type:varchar(100);not null;index"`
	Description   string    `gorm:"type:varchar(500)"`
	Location      Location  `gorm:"embedded"`
	Address       string    `gorm:"type:varchar(200)"`
	FootprintType string    `gorm:"type:varchar(50);index"`
	Image         string    `gorm:"type:varchar(500)"`
	Article       string    `gorm:"type:varchar(500)"`
	Author        string    `gorm:"type:varchar(100);index"`
	CreateTime    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Footprint) TableName() string {
	return "footprints"
}

// NewFootprint creates a footprint after validating its fields
func NewFootprint(details Details, location Location) (*Footprint, error) {
	details = normalize(details)
	if err := validateDetails(details); err != nil {
		return nil, err
	}

	fp := &Footprint{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Location:          location,
	}
	fp.apply(details)
	fp.CreateTime = fp.CreatedAt

	fp.AddDomainEvent(NewFootprintCreatedEvent(fp))
	return fp, nil
}

// Update replaces the editable fields and the location
func (f *Footprint) Update(details Details, location Location) error {
	details = normalize(details)
	if err := validateDetails(details); err != nil {
		return err
	}

	f.apply(details)
	f.Location = location
	f.UpdatedAt = time.Now()
	f.IncrementVersion()

	f.AddDomainEvent(NewFootprintUpdatedEvent(f))
	return nil
}

// MarkDeleted records the deletion event before the row is removed
func (f *Footprint) MarkDeleted() {
	f.AddDomainEvent(NewFootprintDeletedEvent(f))
}

func (f *Footprint) apply(d Details) {
	f.Name = d.Name
	f.Description = d.Description
	f.Address = d.Address
	f.FootprintType = d.FootprintType
	f.Image = d.Image
	f.Article = d.Article
	f.Author = d.Author
}

func normalize(d Details) Details {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Address = strings.TrimSpace(d.Address)
	d.FootprintType = strings.TrimSpace(d.FootprintType)
	d.Author = strings.TrimSpace(d.Author)
	return d
}

func validateDetails(d Details) error {
	if d.Name == "" {
		return shared.NewDomainError("INVALID_NAME", "Footprint name cannot be empty")
	}
	if utf8.RuneCountInString(d.Name) > MaxNameLength {
		return shared.NewDomainError("INVALID_NAME", "Footprint name cannot exceed 100 characters")
	}
	if utf8.RuneCountInString(d.Description) > MaxDescriptionLength {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	if utf8.RuneCountInString(d.Address) > MaxAddressLength {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 200 characters")
	}
	return nil
}

// BaseConfig is the public map widget configuration
type BaseConfig struct {
	Title    string `json:"title"`
	GaoDeKey string `json:"gaoDeKey"`
	Describe string `json:"describe"`
	HSLA     string `json:"hsla"`
	LogoName string `json:"logoName"`
	MapStyle string `json:"mapStyle"`
}

package footprint

import (
	"time"

	"github.com/google/uuid"

	"github.com/halo-extras/backend/internal/domain/footprint"
)

// CreateFootprintRequest represents a request to create a footprint
type CreateFootprintRequest struct {
	Name          string   `json:"name" binding:"required,min=1,max=100"`
	Description   string   `json:"description" binding:"max=500"`
	Longitude     *float64 `json:"longitude" binding:"required,min=-180,max=180"`
	Latitude      *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Address       string   `json:"address" binding:"max=200"`
	FootprintType string   `json:"footprintType" binding:"max=50"`
	Image         string   `json:"image" binding:"max=500"`
	Article       string   `json:"article" binding:"max=500"`
	Author        string   `json:"author" binding:"max=100"`
}

// UpdateFootprintRequest replaces every editable field of a footprint
type UpdateFootprintRequest CreateFootprintRequest

// ListFootprintsQuery holds the list filters
type ListFootprintsQuery struct {
	Keyword       string `form:"keyword"`
	Author        string `form:"author"`
	FootprintType string `form:"footprintType"`
	Sort          string `form:"sort"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	Size          int    `form:"size" binding:"omitempty,min=1,max=100"`
}

// FootprintResponse represents a footprint in API responses
type FootprintResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Longitude     float64   `json:"longitude"`
	Latitude      float64   `json:"latitude"`
	Address       string    `json:"address"`
	FootprintType string    `json:"footprintType"`
	Image         string    `json:"image"`
	Article       string    `json:"article"`
	Author        string    `json:"author"`
	CreateTime    time.Time `json:"createTime"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// LocationResponse is a geocoding result
type LocationResponse struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// ImageUploadResponse is returned after an image upload
type ImageUploadResponse struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// ToFootprintResponse converts a domain footprint to its response
func ToFootprintResponse(f *footprint.Footprint) FootprintResponse {
	return FootprintResponse{
		ID:            f.ID,
		Name:          f.Name,
		Description:   f.Description,
		Longitude:     f.Location.Longitude,
		Latitude:      f.Location.Latitude,
		Address:       f.Address,
		FootprintType: f.FootprintType,
		Image:         f.Image,
		Article:       f.Article,
		Author:        f.Author,
		CreateTime:    f.CreateTime,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// ToFootprintResponses converts a slice of footprints
func ToFootprintResponses(items []footprint.Footprint) []FootprintResponse {
	out := make([]FootprintResponse, len(items))
	for i := range items {
		out[i] = ToFootprintResponse(&items[i])
	}
	return out
}

func (r CreateFootprintRequest) details() footprint.Details {
	return footprint.Details{
		Name:          r.Name,
		Description:   r.Description,
		Address:       r.Address,
		FootprintType: r.FootprintType,
		Image:         r.Image,
		Article:       r.Article,
		Author:        r.Author,
	}
}

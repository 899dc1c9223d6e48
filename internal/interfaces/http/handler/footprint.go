package handler

import (
	"context"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	footprintapp "github.com/halo-extras/backend/internal/application/footprint"
	"github.com/halo-extras/backend/internal/domain/footprint"
	"github.com/halo-extras/backend/internal/interfaces/http/dto"
)

// FootprintService is the application surface used by FootprintHandler
type FootprintService interface {
	Create(ctx context.Context, req footprintapp.CreateFootprintRequest) (*footprintapp.FootprintResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*footprintapp.FootprintResponse, error)
	Update(ctx context.Context, id uuid.UUID, req footprintapp.UpdateFootprintRequest) (*footprintapp.FootprintResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query footprintapp.ListFootprintsQuery) ([]footprintapp.FootprintResponse, int64, error)
	ListAll(ctx context.Context) ([]footprintapp.FootprintResponse, error)
	Geocode(ctx context.Context, address string) (*footprintapp.LocationResponse, error)
	Config() footprint.BaseConfig
	UploadImage(ctx context.Context, filename, contentType string, data []byte) (*footprintapp.ImageUploadResponse, error)
	ImportCSV(ctx context.Context, r io.Reader) (*footprintapp.ImportResult, error)
}

var _ FootprintService = (*footprintapp.FootprintService)(nil)

// DefaultMaxImageSize caps image uploads when no limit is configured
const DefaultMaxImageSize int64 = 10 << 20

// MaxImportFileSize caps CSV imports
const MaxImportFileSize int64 = 2 << 20

// FootprintHandler handles footprint HTTP requests
type FootprintHandler struct {
	BaseHandler
	service      FootprintService
	maxImageSize int64
}

// NewFootprintHandler creates a new FootprintHandler
func NewFootprintHandler(service FootprintService, maxImageSize int64) *FootprintHandler {
	if maxImageSize <= 0 {
		maxImageSize = DefaultMaxImageSize
	}
	return &FootprintHandler{service: service, maxImageSize: maxImageSize}
}

// Create godoc
// @ID           createFootprint
// @Summary      Create a footprint
// @Description  Create a new geotagged footprint
// @Tags         footprints
// @Accept       json
// @Produce      json
// @Param        request body footprintapp.CreateFootprintRequest true "Footprint"
// @Success      201 {object} APIResponse[footprintapp.FootprintResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /footprints [post]
func (h *FootprintHandler) Create(c *gin.Context) {
	var req footprintapp.CreateFootprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	fp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, fp)
}

// GetByID godoc
// @ID           getFootprintById
// @Summary      Get a footprint
// @Tags         footprints
// @Produce      json
// @Param        id path string true "Footprint ID" format(uuid)
// @Success      200 {object} APIResponse[footprintapp.FootprintResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /footprints/{id} [get]
func (h *FootprintHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	fp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fp)
}

// Update godoc
// @ID           updateFootprint
// @Summary      Update a footprint
// @Description  Replace every editable field of a footprint
// @Tags         footprints
// @Accept       json
// @Produce      json
// @Param        id      path string true "Footprint ID" format(uuid)
// @Param        request body footprintapp.UpdateFootprintRequest true "Footprint"
// @Success      200 {object} APIResponse[footprintapp.FootprintResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /footprints/{id} [put]
func (h *FootprintHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req footprintapp.UpdateFootprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	fp, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fp)
}

// Delete godoc
// @ID           deleteFootprint
// @Summary      Delete a footprint
// @Tags         footprints
// @Param        id path string true "Footprint ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /footprints/{id} [delete]
func (h *FootprintHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// List godoc
// @ID           listFootprints
// @Summary      List footprints
// @Description  Page through footprints. sort has the form field,dir and defaults to createTime,desc
// @Tags         footprints
// @Produce      json
// @Param        keyword       query string false "Name contains"
// @Param        author        query string false "Author"
// @Param        footprintType query string false "Footprint type"
// @Param        sort          query string false "Sort" default(createTime,desc)
// @Param        page          query int    false "Page (1-based)" default(1)
// @Param        size          query int    false "Page size" default(10)
// @Success      200 {object} APIResponse[[]footprintapp.FootprintResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /footprints [get]
func (h *FootprintHandler) List(c *gin.Context) {
	var query footprintapp.ListFootprintsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	items, total, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, size := query.Page, query.Size
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = footprintapp.DefaultPageSize
	}
	h.SuccessWithMeta(c, items, total, page, size)
}

// ListAll godoc
// @ID           listAllFootprints
// @Summary      List every footprint
// @Description  All footprints newest first, for map rendering
// @Tags         footprints
// @Produce      json
// @Success      200 {object} APIResponse[[]footprintapp.FootprintResponse]
// @Router       /listAllFootprints [get]
func (h *FootprintHandler) ListAll(c *gin.Context) {
	items, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Geocode godoc
// @ID           geocodeFootprintAddress
// @Summary      Geocode an address
// @Description  Resolve an address to coordinates through Amap
// @Tags         footprints
// @Produce      json
// @Param        address path string true "Address"
// @Success      200 {object} APIResponse[footprintapp.LocationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /footprints/location/{address} [get]
func (h *FootprintHandler) Geocode(c *gin.Context) {
	address := strings.TrimSpace(c.Param("address"))
	if address == "" {
		h.BadRequest(c, "Address is required")
		return
	}

	loc, err := h.service.Geocode(c.Request.Context(), address)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, loc)
}

// Config godoc
// @ID           getFootprintConfig
// @Summary      Map widget configuration
// @Tags         footprints
// @Produce      json
// @Success      200 {object} APIResponse[footprint.BaseConfig]
// @Router       /footprints/config [get]
func (h *FootprintHandler) Config(c *gin.Context) {
	h.Success(c, h.service.Config())
}

// UploadImage godoc
// @ID           uploadFootprintImage
// @Summary      Upload a footprint image
// @Description  Store a JPEG, PNG, GIF or WebP image and return its URL
// @Tags         footprints
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Image"
// @Success      201 {object} APIResponse[footprintapp.ImageUploadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /footprints/images [post]
func (h *FootprintHandler) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Form field 'file' is required")
		return
	}
	if fh.Size > h.maxImageSize {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeFileTooLarge), dto.ErrCodeFileTooLarge, "File exceeds the maximum upload size")
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxImageSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return
	}

	resp, err := h.service.UploadImage(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Import godoc
// @ID           importFootprints
// @Summary      Import footprints from CSV
// @Description  Create one footprint per CSV row. Rows need a name plus longitude and latitude or an address to geocode.
// @Tags         footprints
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "UTF-8 CSV file"
// @Success      200 {object} APIResponse[footprintapp.ImportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /footprints/import [post]
func (h *FootprintHandler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Form field 'file' is required")
		return
	}
	if fh.Size > MaxImportFileSize {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeFileTooLarge), dto.ErrCodeFileTooLarge, "File exceeds the maximum import size")
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer f.Close()

	result, err := h.service.ImportCSV(c.Request.Context(), io.LimitReader(f, MaxImportFileSize))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *FootprintHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid footprint ID format")
		return uuid.Nil, false
	}
	return id, true
}

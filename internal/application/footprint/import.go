package footprint

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/footprint"
	"github.com/halo-extras/backend/internal/domain/shared"
	csvimport "github.com/halo-extras/backend/internal/infrastructure/import"
)

// MaxImportRows bounds the data rows accepted in one CSV import
const MaxImportRows = 500

// ImportResult summarizes a CSV import
type ImportResult struct {
	TotalRows    int                  `json:"totalRows"`
	ImportedRows int                  `json:"importedRows"`
	ErrorRows    int                  `json:"errorRows"`
	Errors       []csvimport.RowError `json:"errors"`
	TotalErrors  int                  `json:"totalErrors"`
	IsTruncated  bool                 `json:"isTruncated"`
	Imported     []FootprintResponse  `json:"imported"`
}

// importHeaderAliases maps normalized CSV headers to field names
var importHeaderAliases = map[string]string{
	"name":           "name",
	"名称":             "name",
	"description":    "description",
	"描述":             "description",
	"longitude":      "longitude",
	"lng":            "longitude",
	"lon":            "longitude",
	"经度":             "longitude",
	"latitude":       "latitude",
	"lat":            "latitude",
	"纬度":             "latitude",
	"address":        "address",
	"地址":             "address",
	"footprinttype":  "footprintType",
	"footprint_type": "footprintType",
	"类型":             "footprintType",
	"image":          "image",
	"图片":             "image",
	"article":        "article",
	"文章":             "article",
	"author":         "author",
	"作者":             "author",
}

func importRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("name").Required().MaxLength(100).Unique().Build(),
		csvimport.Field("description").MaxLength(500).Build(),
		csvimport.Field("longitude").Range(decimal.NewFromInt(-180), decimal.NewFromInt(180)).Build(),
		csvimport.Field("latitude").Range(decimal.NewFromInt(-90), decimal.NewFromInt(90)).Build(),
		csvimport.Field("address").MaxLength(200).Build(),
		csvimport.Field("footprintType").MaxLength(50).Build(),
		csvimport.Field("image").MaxLength(500).Build(),
		csvimport.Field("article").MaxLength(500).Build(),
		csvimport.Field("author").MaxLength(100).Build(),
	}
}

// ImportCSV creates one footprint per CSV row. File level problems fail the
// whole import with INVALID_FILE; row problems are reported in the result
// and the remaining rows are still imported.
func (s *FootprintService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	parser, err := csvimport.NewParser(r, csvimport.WithHeaderAliases(importHeaderAliases))
	if err != nil {
		return nil, invalidFile(err)
	}
	if missing := parser.MissingHeaders("name"); len(missing) > 0 {
		return nil, shared.NewDomainError("INVALID_FILE", "Missing required column: name")
	}
	hasCoordinates := len(parser.MissingHeaders("longitude", "latitude")) == 0
	if !hasCoordinates && !parser.HasHeader("address") {
		return nil, shared.NewDomainError("INVALID_FILE", "Either longitude and latitude columns or an address column is required")
	}

	rows, err := parser.ReadAll(MaxImportRows)
	if err != nil {
		return nil, invalidFile(err)
	}

	validator := csvimport.NewValidator(importRules()...)
	collected := csvimport.NewErrorCollection(0)
	malformed := parser.Malformed()
	collected.Add(malformed...)
	result := &ImportResult{
		TotalRows: len(rows) + len(malformed),
		ErrorRows: len(malformed),
		Imported:  []FootprintResponse{},
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fp, rowErr := s.importRow(ctx, validator, row)
		if rowErr != nil {
			result.ErrorRows++
			collected.Add(rowErr...)
			continue
		}
		result.ImportedRows++
		result.Imported = append(result.Imported, ToFootprintResponse(fp))
	}

	result.Errors = collected.Errors()
	if result.Errors == nil {
		result.Errors = []csvimport.RowError{}
	}
	result.TotalErrors = collected.Total()
	result.IsTruncated = collected.Truncated()

	s.logger.Info("Footprint CSV import finished",
		zap.Int("total_rows", result.TotalRows),
		zap.Int("imported_rows", result.ImportedRows),
		zap.Int("error_rows", result.ErrorRows))
	return result, nil
}

func (s *FootprintService) importRow(ctx context.Context, v *csvimport.Validator, row *csvimport.Row) (*footprint.Footprint, []csvimport.RowError) {
	if errs := v.ValidateRow(row); len(errs) > 0 {
		return nil, errs
	}

	location, rowErr := s.rowLocation(ctx, row)
	if rowErr != nil {
		return nil, []csvimport.RowError{*rowErr}
	}

	fp, err := footprint.NewFootprint(footprint.Details{
		Name:          row.Get("name"),
		Description:   row.Get("description"),
		Address:       row.Get("address"),
		FootprintType: row.Get("footprintType"),
		Image:         row.Get("image"),
		Article:       row.Get("article"),
		Author:        row.Get("author"),
	}, location)
	if err != nil {
		return nil, []csvimport.RowError{*csvimport.NewRowError(row.Line, "", csvimport.CodeRejected, err.Error())}
	}

	if err := s.repo.Save(ctx, fp); err != nil {
		s.logger.Error("Failed to save imported footprint", zap.Int("row", row.Line), zap.Error(err))
		return nil, []csvimport.RowError{*csvimport.NewRowError(row.Line, "", csvimport.CodeRejected, "failed to save footprint")}
	}
	s.publishEvents(ctx, fp)
	return fp, nil
}

// rowLocation prefers explicit coordinates and falls back to geocoding the
// address.
func (s *FootprintService) rowLocation(ctx context.Context, row *csvimport.Row) (footprint.Location, *csvimport.RowError) {
	lng, lat := row.Get("longitude"), row.Get("latitude")
	switch {
	case lng != "" && lat != "":
		longitude, _ := strconv.ParseFloat(lng, 64)
		latitude, _ := strconv.ParseFloat(lat, 64)
		loc, err := footprint.NewLocation(longitude, latitude)
		if err != nil {
			return footprint.Location{}, csvimport.NewRowError(row.Line, "", csvimport.CodeOutOfRange, err.Error())
		}
		return loc, nil
	case lng != "":
		return footprint.Location{}, csvimport.NewRowError(row.Line, "latitude", csvimport.CodeRequired, "value is required")
	case lat != "":
		return footprint.Location{}, csvimport.NewRowError(row.Line, "longitude", csvimport.CodeRequired, "value is required")
	}

	address := row.Get("address")
	if address == "" {
		return footprint.Location{}, csvimport.NewRowError(row.Line, "", csvimport.CodeRequired,
			"longitude and latitude or an address is required")
	}
	if s.geocoder == nil {
		return footprint.Location{}, csvimport.NewRowError(row.Line, "address", csvimport.CodeRejected, "geocoding is not configured")
	}
	loc, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		e := csvimport.NewRowError(row.Line, "address", csvimport.CodeRejected, "could not geocode address")
		e.Value = address
		return footprint.Location{}, e
	}
	return loc, nil
}

func invalidFile(err error) error {
	var rowErr *csvimport.RowError
	switch {
	case errors.Is(err, csvimport.ErrTooManyRows):
		return shared.Errorf("INVALID_FILE", "File has more than %d data rows", MaxImportRows)
	case errors.As(err, &rowErr):
		return shared.NewDomainError("INVALID_FILE", rowErr.Error())
	default:
		return shared.NewDomainError("INVALID_FILE", strings.TrimSpace(err.Error()))
	}
}

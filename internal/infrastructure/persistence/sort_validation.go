package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// FootprintSortFields contains allowed sort fields for footprints
var FootprintSortFields = map[string]bool{
	"create_time":    true,
	"created_at":     true,
	"updated_at":     true,
	"name":           true,
	"footprint_type": true,
	"author":         true,
}

// footprintSortAliases maps the camelCase names used by the widget API to columns
var footprintSortAliases = map[string]string{
	"createTime":    "create_time",
	"footprintType": "footprint_type",
}

// footprintOrderClause builds a safe ORDER BY clause for a footprint filter
func footprintOrderClause(orderBy, orderDir string) string {
	if alias, ok := footprintSortAliases[strings.TrimSpace(orderBy)]; ok {
		orderBy = alias
	}
	return ValidateSortField(orderBy, FootprintSortFields, "create_time") + " " + ValidateSortOrder(orderDir)
}

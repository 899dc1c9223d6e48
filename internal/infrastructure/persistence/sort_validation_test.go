package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	assert.Equal(t, "ASC", ValidateSortOrder("asc"))
	assert.Equal(t, "ASC", ValidateSortOrder(" ASC "))
	assert.Equal(t, "DESC", ValidateSortOrder("desc"))
	assert.Equal(t, "DESC", ValidateSortOrder(""))
	assert.Equal(t, "DESC", ValidateSortOrder("asc; DROP TABLE footprints"))
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "name", ValidateSortField("name", FootprintSortFields, "create_time"))
	assert.Equal(t, "create_time", ValidateSortField("", FootprintSortFields, "create_time"))
	assert.Equal(t, "create_time", ValidateSortField("password", FootprintSortFields, "create_time"))
}

func TestFootprintOrderClause(t *testing.T) {
	tests := []struct {
		orderBy, orderDir, want string
	}{
		{"", "", "create_time DESC"},
		{"createTime", "asc", "create_time ASC"},
		{"footprintType", "desc", "footprint_type DESC"},
		{"name", "ASC", "name ASC"},
		{"1; --", "asc", "create_time ASC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, footprintOrderClause(tt.orderBy, tt.orderDir))
	}
}

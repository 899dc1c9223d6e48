package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostSummary(t *testing.T) {
	s, err := NewPostSummary("post-1", "/archives/post-1", "text")
	require.NoError(t, err)
	assert.Equal(t, "post-1", s.PostName)
	assert.Equal(t, "/archives/post-1", s.PostURL)

	before := s.UpdatedAt
	s.Rewrite("other")
	assert.Equal(t, "other", s.Summary)
	assert.False(t, s.UpdatedAt.Before(before))

	_, err = NewPostSummary(" ", "", "")
	assert.Error(t, err)
}

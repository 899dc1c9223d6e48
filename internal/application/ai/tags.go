package ai

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/halo-extras/backend/internal/domain/post"
)

var (
	tagSeparators   = regexp.MustCompile(`[\n,，]`)
	tagBulletPrefix = regexp.MustCompile(`^(?:[-•*\x{25CF}\x{25E6}\x{2023}\x{2043}\x{2219}]+\s*)?(?:\d+[.、)）]\s*)?`)
	tagFolder       = cases.Fold()
)

// TagKey is the comparison key of a tag name: NFKC-normalized,
// width-folded and case-folded.
func TagKey(name string) string {
	return tagFolder.String(width.Fold.String(norm.NFKC.String(strings.TrimSpace(name))))
}

// ParseTags splits a model reply into at most limit tag names.
// Bullets and list numbers such as "1." or "2、" are stripped, while digits
// that belong to the tag ("5G", "3D打印") are kept. Names longer than
// post.MaxTagLength runes are dropped and duplicates are removed keeping the
// first spelling.
func ParseTags(reply string, limit int) []string {
	if limit <= 0 || strings.TrimSpace(reply) == "" {
		return []string{}
	}

	parts := tagSeparators.Split(strings.ReplaceAll(reply, "\r", "\n"), -1)
	seen := make(map[string]struct{}, len(parts))
	tags := make([]string, 0, limit)
	for _, part := range parts {
		name := strings.TrimSpace(tagBulletPrefix.ReplaceAllString(strings.TrimSpace(part), ""))
		if name == "" || utf8.RuneCountInString(name) > post.MaxTagLength {
			continue
		}
		key := TagKey(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, name)
		if len(tags) >= limit {
			break
		}
	}
	return tags
}

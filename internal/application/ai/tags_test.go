package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		limit int
		want  []string
	}{
		{"comma separated", "Go,并发，微服务", 6, []string{"Go", "并发", "微服务"}},
		{"numbered lines", "1. 数据库\n2、缓存\r\n- 运维", 6, []string{"数据库", "缓存", "运维"}},
		{"bullets", "• 前端\n* 后端", 6, []string{"前端", "后端"}},
		{"leading digits belong to the tag", "3D打印,5G,2024年终总结,云计算", 6, []string{"3D打印", "5G", "2024年终总结", "云计算"}},
		{"bullet before number", "- 1. Rust\n2) Go\n3）缓存", 6, []string{"Rust", "Go", "缓存"}},
		{"dedupes case and width", "Redis,redis,ＲＥＤＩＳ", 6, []string{"Redis"}},
		{"drops long names", "这是一个非常非常长的标签名称啊,短", 6, []string{"短"}},
		{"caps at limit", "a,b,c,d", 2, []string{"a", "b"}},
		{"empty reply", "  ", 6, []string{}},
		{"zero limit", "a", 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.reply, tt.limit))
		})
	}
}

func TestTagKey(t *testing.T) {
	assert.Equal(t, TagKey("Golang"), TagKey(" ＧＯＬＡＮＧ "))
	assert.NotEqual(t, TagKey("go"), TagKey("rust"))
}

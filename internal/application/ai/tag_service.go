package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/ai"
	"github.com/halo-extras/backend/internal/domain/post"
)

// MaxTagCount caps the number of tags a caller may request
const MaxTagCount = 20

// TagService suggests tags for posts, preferring tags that already exist
type TagService struct {
	engine       engine
	posts        post.PostRepository
	tags         post.TagRepository
	defaultCount int
	logger       *zap.Logger
}

// NewTagService creates a new TagService
func NewTagService(
	factory ai.ProviderFactory,
	resolver *ConfigResolver,
	posts post.PostRepository,
	tags post.TagRepository,
	defaultCount int,
	logger *zap.Logger,
) *TagService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCount <= 0 {
		defaultCount = 6
	}
	return &TagService{
		engine:       engine{factory: factory, resolver: resolver},
		posts:        posts,
		tags:         tags,
		defaultCount: defaultCount,
		logger:       logger,
	}
}

// GenerateTags suggests tags for a post. With req.Ensure the suggested
// tags that do not exist yet are created.
func (s *TagService) GenerateTags(ctx context.Context, req GenerateTagsRequest) (*GenerateTagsResponse, error) {
	if strings.TrimSpace(req.PostName) == "" {
		return nil, invalid("postName 不能为空")
	}
	count := req.MaxCount
	if count <= 0 {
		count = s.defaultCount
	}
	if count > MaxTagCount {
		count = MaxTagCount
	}

	p, err := s.posts.FindByName(ctx, req.PostName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Content) == "" {
		return newTagsResponse(nil), nil
	}

	existing, err := s.tags.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]string, len(existing))
	names := make([]string, 0, len(existing))
	for _, t := range existing {
		known[TagKey(t.DisplayName)] = t.DisplayName
		names = append(names, t.DisplayName)
	}

	rc := s.engine.resolver.Resolve(ai.FunctionTags)
	role := rc.SystemPrompt
	if strings.TrimSpace(role) == "" {
		role = DefaultTagPrompt
	}
	reply, _, err := s.engine.chat(ctx, ai.FunctionTags, buildTagPrompt(role, count, names, p.Content))
	if err != nil {
		s.logger.Error("Tag generation failed",
			zap.String("post", req.PostName),
			zap.String("ai_type", rc.AIType),
			zap.Error(err))
		return nil, failed("生成失败: ", err)
	}

	infos := make([]TagInfo, 0, count)
	var missing []*post.Tag
	for _, name := range ParseTags(reply, count) {
		if display, ok := known[TagKey(name)]; ok {
			infos = append(infos, TagInfo{Name: display, IsExisting: true})
			continue
		}
		infos = append(infos, TagInfo{Name: name})
		if req.Ensure {
			t, err := post.NewTag(name)
			if err != nil {
				return nil, err
			}
			missing = append(missing, t)
		}
	}

	if len(missing) > 0 {
		if err := s.tags.SaveBatch(ctx, missing); err != nil {
			return nil, err
		}
		s.logger.Info("Created suggested tags", zap.String("post", req.PostName), zap.Int("count", len(missing)))
	}
	return newTagsResponse(infos), nil
}

func newTagsResponse(infos []TagInfo) *GenerateTagsResponse {
	if infos == nil {
		infos = []TagInfo{}
	}
	resp := &GenerateTagsResponse{Success: true, Message: "success", Tags: infos, TotalCount: len(infos)}
	for _, t := range infos {
		if t.IsExisting {
			resp.ExistingCount++
		}
	}
	resp.NewCount = resp.TotalCount - resp.ExistingCount
	return resp
}

func buildTagPrompt(role string, count int, existing []string, content string) string {
	var b strings.Builder
	b.WriteString("请你按照以下要求：" + role + "\n")
	fmt.Fprintf(&b, "请你给我符合文章内容的%d个标签，仅返回中文标签，使用逗号或换行分隔，不要编号与解释。\n", count)
	if len(existing) > 0 {
		b.WriteString("\n【重要】系统中已有以下标签，请优先从中选择合适的标签，只有当已有标签完全不匹配时才创建新标签：\n")
		b.WriteString(strings.Join(existing, "、"))
		b.WriteString("\n\n")
	}
	b.WriteString("文章正文如下：\n" + content)
	return b.String()
}

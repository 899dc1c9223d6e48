package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/ai"
)

// Request limits
const (
	MaxTopicLength         = 1000
	MaxTitleContentLength  = 10000
	MaxPolishContentLength = 8000
	DefaultTitleCount      = 5
	DefaultArticleLength   = 2000
)

var articleStyles = map[string]string{
	"通俗易懂": "用简单语言解释复杂概念，适合大众阅读",
	"正式学术": "严谨的学术写作风格，适合论文和研究报告",
	"新闻资讯": "客观、简洁的新闻报道风格，注重事实",
	"技术文档": "详细、准确的技术说明，适合开发者",
	"创意文学": "富有想象力的文学表达，语言优美",
	"幽默风趣": "轻松幽默的表达方式，增加趣味性",
	"严谨专业": "专业、权威的写作风格，适合商务场合",
	"轻松活泼": "轻松愉快的表达方式，亲和力强",
	"商务正式": "正式的商务写作风格，专业且礼貌",
	"科普教育": "通俗易懂的科学解释，适合教学",
	"个人博客": "个人化的写作风格，亲切自然",
	"产品介绍": "突出产品特点，吸引用户关注",
	"教程指南": "步骤清晰，易于跟随操作",
	"评论分析": "深入分析，提供独到见解",
	"故事叙述": "生动有趣的故事化表达",
	"对话访谈": "问答形式，互动性强",
}

var titleStyles = map[string]string{
	"有利于SEO的标题": "优化搜索引擎排名，包含关键词，吸引点击",
	"吸引眼球的标题":   "使用数字、疑问句、对比等技巧，增加点击率",
	"简洁明了":      "直接表达核心内容，简洁有力",
	"文艺范":       "富有诗意和文学性，语言优美",
	"专业术语":      "使用专业词汇，体现权威性",
	"疑问式":       "以疑问句形式，引发读者思考",
	"数字式":       "包含具体数字，增加可信度",
	"对比式":       "通过对比突出文章价值",
	"故事式":       "具有故事性，引人入胜",
	"热点式":       "结合当前热点话题",
}

var numberedLine = regexp.MustCompile(`^\s*\d+\s*[.、)）:：]\s*(.+?)\s*$`)

// GenerationService writes articles, suggests titles and polishes text
type GenerationService struct {
	engine          engine
	polishMaxLength int
	logger          *zap.Logger
}

// NewGenerationService creates a new GenerationService
func NewGenerationService(factory ai.ProviderFactory, resolver *ConfigResolver, polishMaxLength int, logger *zap.Logger) *GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if polishMaxLength <= 0 {
		polishMaxLength = 2000
	}
	return &GenerationService{
		engine:          engine{factory: factory, resolver: resolver},
		polishMaxLength: polishMaxLength,
		logger:          logger,
	}
}

// GenerateArticle writes an article about req.Topic
func (s *GenerationService) GenerateArticle(ctx context.Context, req GenerateArticleRequest) (*GenerateArticleResponse, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return nil, invalid("文章主题不能为空")
	}
	if utf8.RuneCountInString(req.Topic) > MaxTopicLength {
		return nil, invalid("文章主题长度不能超过1000个字符")
	}
	if req.Format == "" {
		req.Format = "markdown"
	}
	if req.Style == "" {
		req.Style = "通俗易懂"
	}
	if req.Type == "" {
		req.Type = "full"
	}
	if req.MaxLength <= 0 {
		req.MaxLength = DefaultArticleLength
	}

	rc := s.engine.resolver.Resolve(ai.FunctionGenerate)
	content, _, err := s.engine.chat(ctx, ai.FunctionGenerate, buildArticlePrompt(req, rc.SystemPrompt))
	if err != nil {
		s.logger.Error("Article generation failed", zap.String("ai_type", rc.AIType), zap.Error(err))
		return nil, failed("生成失败: ", err)
	}

	s.logger.Info("Article generated", zap.String("ai_type", rc.AIType), zap.Int("length", utf8.RuneCountInString(content)))
	return &GenerateArticleResponse{Success: true, Content: content, Message: "文章生成成功"}, nil
}

// GenerateTitles suggests titles for req.Content
func (s *GenerationService) GenerateTitles(ctx context.Context, req GenerateTitleRequest) (*GenerateTitleResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, invalid("文章内容不能为空")
	}
	if utf8.RuneCountInString(req.Content) > MaxTitleContentLength {
		return nil, invalid("文章内容长度不能超过10000个字符")
	}
	if req.Style == "" {
		req.Style = "有利于SEO的标题"
	}
	if req.Count <= 0 {
		req.Count = DefaultTitleCount
	}

	rc := s.engine.resolver.Resolve(ai.FunctionTitle)
	content, _, err := s.engine.chat(ctx, ai.FunctionTitle, buildTitlePrompt(req, rc.SystemPrompt))
	if err != nil {
		s.logger.Error("Title generation failed", zap.String("ai_type", rc.AIType), zap.Error(err))
		return nil, failed("生成失败: ", err)
	}

	return &GenerateTitleResponse{
		Success: true,
		Titles:  ParseTitles(content, req.Count),
		Content: content,
		Message: "标题生成成功",
	}, nil
}

// Polish rewrites a text fragment for fluency
func (s *GenerationService) Polish(ctx context.Context, req PolishRequest) (*PolishResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, invalid("文章内容不能为空")
	}
	length := utf8.RuneCountInString(req.Content)
	if length > MaxPolishContentLength {
		return nil, invalid("文章内容长度不能超过8000个字符")
	}
	if length > s.polishMaxLength {
		return nil, invalid(fmt.Sprintf("内容长度(%d)超过最大限制(%d)，请分段润色", length, s.polishMaxLength))
	}

	rc := s.engine.resolver.Resolve(ai.FunctionPolish)
	systemPrompt := rc.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultPolishPrompt
	}
	prompt := fmt.Sprintf("%s\n\n需要润色的内容：\n%s\n\n请直接返回润色后的内容：", systemPrompt, req.Content)

	polished, _, err := s.engine.chat(ctx, ai.FunctionPolish, prompt)
	if err != nil {
		s.logger.Error("Polish failed", zap.String("ai_type", rc.AIType), zap.Error(err))
		return nil, &OperationError{Message: PolishErrorMessage(err), Err: err}
	}
	polished = strings.TrimSpace(polished)

	return &PolishResponse{
		Success:         true,
		OriginalContent: req.Content,
		PolishedContent: polished,
		Message:         "文章润色成功",
		OriginalLength:  length,
		PolishedLength:  utf8.RuneCountInString(polished),
	}, nil
}

// PolishErrorMessage maps a provider failure to a friendly message
func PolishErrorMessage(err error) string {
	switch ai.KindOf(err) {
	case ai.KindTimeout:
		return "AI服务响应超时，请稍后重试"
	case ai.KindUnauthorized:
		return "API密钥无效，请检查配置"
	case ai.KindRateLimited:
		return "API调用频率超限，请稍后重试"
	case ai.KindConnection:
		return "网络连接失败，请检查网络设置"
	case ai.KindForbidden:
		return "API访问被拒绝，请检查权限配置"
	case ai.KindConfig:
		return "AI服务配置不完整: " + reason(err)
	default:
		return "文章润色服务暂时不可用，请稍后重试"
	}
}

// ParseTitles extracts up to count titles from numbered lines.
// A reply without numbering falls back to its non-empty lines.
func ParseTitles(reply string, count int) []string {
	lines := strings.Split(strings.ReplaceAll(reply, "\r", ""), "\n")
	titles := make([]string, 0, count)
	for _, line := range lines {
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			if t := cleanTitle(m[1]); t != "" {
				titles = append(titles, t)
			}
		}
		if len(titles) >= count {
			return titles
		}
	}
	if len(titles) > 0 {
		return titles
	}
	for _, line := range lines {
		if t := cleanTitle(line); t != "" {
			titles = append(titles, t)
		}
		if len(titles) >= count {
			break
		}
	}
	return titles
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*#")
	s = strings.TrimSpace(s)
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}, {"《", "》"}} {
		if strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) && len(s) > len(pair[0])+len(pair[1]) {
			s = strings.TrimSuffix(strings.TrimPrefix(s, pair[0]), pair[1])
		}
	}
	return strings.TrimSpace(s)
}

func describe(styles map[string]string, style string) string {
	if d, ok := styles[style]; ok {
		return d
	}
	return style
}

func buildArticlePrompt(req GenerateArticleRequest, systemPrompt string) string {
	var b strings.Builder
	if strings.TrimSpace(systemPrompt) != "" {
		b.WriteString(systemPrompt)
		b.WriteString("\n\n")
	}
	b.WriteString("请根据以下要求生成文章：\n")
	b.WriteString("主题：" + req.Topic + "\n")
	b.WriteString("写作风格：" + describe(articleStyles, req.Style) + "\n")
	b.WriteString("生成类型：完整文章\n")
	fmt.Fprintf(&b, "文章长度：约%d字\n", req.MaxLength)
	switch req.Format {
	case "markdown":
		b.WriteString("输出格式：请使用Markdown格式输出\n")
	case "html":
		b.WriteString("输出格式：请使用HTML格式输出\n")
	}
	b.WriteString("\n请直接输出生成的内容，不要包含任何解释或说明。")
	return b.String()
}

func buildTitlePrompt(req GenerateTitleRequest, systemPrompt string) string {
	var b strings.Builder
	if strings.TrimSpace(systemPrompt) != "" {
		b.WriteString(systemPrompt)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "请根据以下文章内容生成%d个标题：\n\n", req.Count)
	b.WriteString("文章内容：\n" + req.Content + "\n\n")
	b.WriteString("写作风格：" + describe(titleStyles, req.Style) + "\n\n")
	b.WriteString("请按以下格式输出标题，每个标题占一行：\n")
	for i := 1; i <= req.Count; i++ {
		fmt.Fprintf(&b, "%d. 标题%d\n", i, i)
	}
	b.WriteString("\n注意：标题要简洁有力，能够吸引读者注意，准确反映文章内容。")
	return b.String()
}

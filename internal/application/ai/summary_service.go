package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/halo-extras/backend/internal/domain/ai"
	"github.com/halo-extras/backend/internal/domain/post"
	"github.com/halo-extras/backend/internal/domain/shared"
	"github.com/halo-extras/backend/internal/domain/summary"
	"github.com/halo-extras/backend/internal/infrastructure/metrics"
)

// Summary generation triggers, used as metric labels
const (
	TriggerManual  = "manual"
	TriggerSync    = "sync"
	TriggerPublish = "publish"
)

const noSummaryMessage = "未找到摘要内容"

// ErrSyncInProgress is returned when a bulk sync is already running
var ErrSyncInProgress = shared.NewDomainError("INVALID_STATE", "摘要同步正在进行中")

// SummaryService generates post summaries and writes them back to posts
type SummaryService struct {
	engine      engine
	posts       post.PostRepository
	summaries   summary.SummaryRepository
	concurrency int
	logger      *zap.Logger

	syncing  atomic.Bool
	total    atomic.Int64
	finished atomic.Int64
	wg       sync.WaitGroup
}

// NewSummaryService creates a new SummaryService. concurrency bounds the
// number of posts summarized at once during a bulk sync.
func NewSummaryService(
	factory ai.ProviderFactory,
	resolver *ConfigResolver,
	posts post.PostRepository,
	summaries summary.SummaryRepository,
	concurrency int,
	logger *zap.Logger,
) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 3
	}
	return &SummaryService{
		engine:      engine{factory: factory, resolver: resolver},
		posts:       posts,
		summaries:   summaries,
		concurrency: concurrency,
		logger:      logger,
	}
}

// GenerateSummary summarizes a post and stores the result
func (s *SummaryService) GenerateSummary(ctx context.Context, postName string) (*GenerateSummaryResponse, error) {
	if strings.TrimSpace(postName) == "" {
		return nil, invalid("postName 不能为空")
	}
	text, err := s.generate(ctx, postName, TriggerManual)
	if err != nil {
		return nil, err
	}
	return &GenerateSummaryResponse{Success: true, Message: "摘要生成成功", Summary: text}, nil
}

// FindSummaries returns the stored summaries of a post
func (s *SummaryService) FindSummaries(ctx context.Context, postName string) ([]SummaryResponse, error) {
	found, err := s.summaries.FindByPostName(ctx, postName)
	if err != nil {
		return nil, err
	}
	out := make([]SummaryResponse, 0, len(found))
	for _, ps := range found {
		out = append(out, SummaryResponse{PostName: ps.PostName, PostURL: ps.PostURL, PostSummary: ps.Summary})
	}
	return out, nil
}

// UpdateContent copies the stored summary of a post into its excerpt.
// Blacklisted posts, manual excerpts and unchanged text are reported
// as unsuccessful without touching the post.
func (s *SummaryService) UpdateContent(ctx context.Context, postName string) (*UpdateContentResponse, error) {
	if strings.TrimSpace(postName) == "" {
		return nil, invalid("postName 不能为空")
	}
	p, err := s.posts.FindByName(ctx, postName)
	if err != nil {
		return nil, err
	}
	found, err := s.summaries.FindByPostName(ctx, postName)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return &UpdateContentResponse{Message: noSummaryMessage, SummaryContent: noSummaryMessage}, nil
	}
	text := found[0].Summary

	switch {
	case p.IsBlackListed():
		return &UpdateContentResponse{Message: "文章在黑名单中，不进行摘要更新", SummaryContent: text, BlackList: true}, nil
	case p.HasManualSummary():
		return &UpdateContentResponse{Message: "文章已手动更新摘要，跳过AI更新", SummaryContent: text}, nil
	case p.Excerpt == text:
		return &UpdateContentResponse{Message: "摘要内容未发生变化，无需更新", SummaryContent: text}, nil
	}

	p.ApplySummary(text)
	if err := s.posts.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Post excerpt updated from summary", zap.String("post", postName))
	return &UpdateContentResponse{Success: true, Message: "成功", SummaryContent: text}, nil
}

// SyncAll starts a background summary run over every post that has not
// been synced yet. Every post counts toward total; finished moves once per
// attempt. Summaries are stored but excerpts are left to UpdateContent.
func (s *SummaryService) SyncAll(ctx context.Context) error {
	if !s.syncing.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	s.total.Store(0)
	s.finished.Store(0)

	all, err := s.posts.ListAll(ctx)
	if err != nil {
		s.syncing.Store(false)
		return err
	}
	pending := make([]string, 0, len(all))
	for _, p := range all {
		if !p.SummarySynced() {
			pending = append(pending, p.Name)
		}
	}
	s.total.Store(int64(len(all)))

	s.logger.Info("Summary sync started",
		zap.Int("total", len(all)),
		zap.Int("pending", len(pending)))

	metrics.SummarySyncActive.Set(1)
	s.wg.Add(1)
	go s.runSync(context.WithoutCancel(ctx), pending)
	return nil
}

func (s *SummaryService) runSync(ctx context.Context, names []string) {
	defer s.wg.Done()
	defer s.syncing.Store(false)
	defer metrics.SummarySyncActive.Set(0)

	var failures atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, name := range names {
		g.Go(func() error {
			defer s.finished.Add(1)
			if _, err := s.generate(ctx, name, TriggerSync); err != nil {
				failures.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("Summary sync finished",
		zap.Int64("finished", s.finished.Load()),
		zap.Int64("failed", failures.Load()))
}

// SyncProgress reports the current or last bulk sync
func (s *SummaryService) SyncProgress() SyncProgress {
	return SyncProgress{Total: s.total.Load(), Finished: s.finished.Load()}
}

// Syncing reports whether a bulk sync is running
func (s *SummaryService) Syncing() bool {
	return s.syncing.Load()
}

// Wait blocks until a running bulk sync completes
func (s *SummaryService) Wait() {
	s.wg.Wait()
}

// generate asks the summary function for a post summary and upserts it.
// A provider failure is returned and nothing is stored.
func (s *SummaryService) generate(ctx context.Context, postName, trigger string) (text string, err error) {
	defer func() {
		metrics.SummaryGeneratedTotal.WithLabelValues(trigger, metrics.Outcome(err)).Inc()
	}()

	p, err := s.posts.FindByName(ctx, postName)
	if err != nil {
		return "", err
	}

	rc := s.engine.resolver.Resolve(ai.FunctionSummary)
	systemPrompt := rc.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSummaryPrompt
	}

	text, _, err = s.engine.chat(ctx, ai.FunctionSummary, systemPrompt+"\n"+p.Content)
	if err != nil {
		s.logger.Error("Summary generation failed",
			zap.String("post", postName),
			zap.String("trigger", trigger),
			zap.String("ai_type", rc.AIType),
			zap.Error(err))
		return "", failed("文章摘要生成异常：", err)
	}
	text = strings.TrimSpace(text)

	if err := s.upsert(ctx, p, text); err != nil {
		return "", err
	}
	s.logger.Info("Summary generated", zap.String("post", postName), zap.String("trigger", trigger))
	return text, nil
}

func (s *SummaryService) upsert(ctx context.Context, p *post.Post, text string) error {
	existing, err := s.summaries.FindByPostName(ctx, p.Name)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		ps := existing[0]
		ps.Rewrite(text)
		return s.summaries.Save(ctx, &ps)
	}
	ps, err := summary.NewPostSummary(p.Name, p.Permalink, text)
	if err != nil {
		return err
	}
	return s.summaries.Save(ctx, ps)
}

// PostPublishedHandler summarizes posts as they are published
type PostPublishedHandler struct {
	service *SummaryService
	enabled bool
	logger  *zap.Logger
}

// NewPostPublishedHandler creates the handler; when enabled is false
// published posts are ignored.
func NewPostPublishedHandler(service *SummaryService, enabled bool, logger *zap.Logger) *PostPublishedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostPublishedHandler{service: service, enabled: enabled, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *PostPublishedHandler) EventTypes() []string {
	return []string{post.EventTypePostPublished}
}

// Handle implements shared.EventHandler
func (h *PostPublishedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.enabled {
		return nil
	}
	e, ok := event.(*post.PostPublishedEvent)
	if !ok {
		return nil
	}
	if _, err := h.service.generate(ctx, e.PostName, TriggerPublish); err != nil {
		var opErr *OperationError
		if errors.As(err, &opErr) {
			// provider failures are not retried
			h.logger.Warn("Auto summary skipped", zap.String("post", e.PostName), zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}

var _ shared.EventHandler = (*PostPublishedHandler)(nil)

// Package feed はフィードのフェッチとパースを提供する。
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/feedkeeper/internal/ingest"
	"github.com/hitoshi/feedkeeper/internal/model"
	"github.com/hitoshi/feedkeeper/internal/repository"
)

// FetcherService はフィード取得のインターフェース。
// テスタビリティのためFetcherを抽象化する。
type FetcherService interface {
	Fetch(ctx context.Context, rawURL string) (*model.ParsedChannel, error)
}

// Ingester は取り込みリコンサイラのインターフェース。
type Ingester interface {
	Ingest(ctx context.Context, parsed *model.ParsedChannel) (*ingest.Result, error)
}

// SubscriptionEnsurer は購読の冪等な作成のインターフェース。
type SubscriptionEnsurer interface {
	EnsureSubscription(ctx context.Context, userID, channelID string) error
}

// MetricsCollector は取り込みメトリクス収集のインターフェース。
type MetricsCollector interface {
	RecordIngestSuccess()
	RecordIngestFailure(reason string)
	RecordItemsInserted(count int)
	RecordFetchLatency(duration time.Duration)
}

// Service はフィード取り込みと読み出しのサービス層。
// フェッチ → 取り込み → 購読作成のフローを統括する。
type Service struct {
	fetcher     FetcherService
	reconciler  Ingester
	subscriber  SubscriptionEnsurer
	channelRepo repository.ChannelRepository
	itemRepo    repository.ItemRepository
	metrics     MetricsCollector
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	fetcher FetcherService,
	reconciler Ingester,
	subscriber SubscriptionEnsurer,
	channelRepo repository.ChannelRepository,
	itemRepo repository.ItemRepository,
	metrics MetricsCollector,
	logger *slog.Logger,
) *Service {
	return &Service{
		fetcher:     fetcher,
		reconciler:  reconciler,
		subscriber:  subscriber,
		channelRepo: channelRepo,
		itemRepo:    itemRepo,
		metrics:     metrics,
		logger:      logger,
	}
}

// AddFeed はフィードURLをフェッチ・パースして保存状態へ取り込む。
// userIDが空でない場合は取り込んだチャンネルへの購読を冪等に作成する。
// 同一URLの再取り込みは重複を生まない（Reconciler参照）。
func (s *Service) AddFeed(ctx context.Context, userID, rawURL string) (*ingest.Result, error) {
	start := time.Now()

	parsed, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.recordFailure("fetch")
		return nil, err
	}
	s.recordFetchLatency(time.Since(start))

	result, err := s.reconciler.Ingest(ctx, parsed)
	if err != nil {
		s.recordFailure("persist")
		return nil, err
	}

	if userID != "" {
		if err := s.subscriber.EnsureSubscription(ctx, userID, result.ChannelID); err != nil {
			s.recordFailure("subscribe")
			return nil, fmt.Errorf("購読の作成に失敗しました: %w", err)
		}
	}

	s.recordSuccess(result.InsertedItems)

	s.logger.Info("フィードを登録しました",
		slog.String("feed_url", rawURL),
		slog.String("channel_id", result.ChannelID),
		slog.Int("new_items", result.InsertedItems),
	)

	return result, nil
}

// ListChannels は全チャンネルを返す。
func (s *Service) ListChannels(ctx context.Context) ([]*model.Channel, error) {
	return s.channelRepo.List(ctx)
}

// GetChannel はチャンネルを取得する。見つからない場合はnilを返す。
func (s *Service) GetChannel(ctx context.Context, channelID string) (*model.Channel, error) {
	return s.channelRepo.FindByID(ctx, channelID)
}

// ListItems はチャンネルの記事一覧をpublished_at降順で返す。
func (s *Service) ListItems(ctx context.Context, channelID string) ([]*model.Item, error) {
	return s.itemRepo.ListByChannel(ctx, channelID)
}

func (s *Service) recordSuccess(inserted int) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordIngestSuccess()
	s.metrics.RecordItemsInserted(inserted)
}

func (s *Service) recordFailure(reason string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordIngestFailure(reason)
}

func (s *Service) recordFetchLatency(d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordFetchLatency(d)
}

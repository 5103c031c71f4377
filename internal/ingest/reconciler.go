package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/feedkeeper/internal/model"
	"github.com/hitoshi/feedkeeper/internal/repository"
	"github.com/hitoshi/feedkeeper/internal/security"
)

// Result は1回の取り込み結果を表す。
type Result struct {
	ChannelID     string
	InsertedItems int
}

// Reconciler はパース済みチャンネルを保存済み状態へ突き合わせる。
//
// アルゴリズム:
//  1. feed_linkで既存チャンネルを検索する。
//  2. 存在しなければ作成、存在すればメタデータと更新日時を上書きする。
//  3. 各記事について(channel, GUID)で既存記事を検索し、
//     存在すればConflictPolicyに従い、存在しなければ挿入する。
//
// 同一フィードの並行取り込みはDB側のUNIQUE制約で直列化される。
// 制約衝突の敗者は「既に存在する」結果を受け取り、スキップとして扱われる。
// 記事リスト全体のアトミック性は保証しない（記事単位の冪等性のみ）。
type Reconciler struct {
	channelRepo repository.ChannelRepository
	itemRepo    repository.ItemRepository
	sanitizer   security.ContentSanitizerService
	policy      ConflictPolicy
	logger      *slog.Logger
}

// NewReconciler はReconcilerの新しいインスタンスを生成する。
func NewReconciler(
	channelRepo repository.ChannelRepository,
	itemRepo repository.ItemRepository,
	sanitizer security.ContentSanitizerService,
	policy ConflictPolicy,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		channelRepo: channelRepo,
		itemRepo:    itemRepo,
		sanitizer:   sanitizer,
		policy:      policy,
		logger:      logger,
	}
}

// Ingest はパース済みチャンネルを永続化し、チャンネルIDと新規挿入記事数を返す。
// 同一入力で2回呼び出しても保存状態は変化しない（冪等性、重複チャンネル・重複記事なし）。
func (r *Reconciler) Ingest(ctx context.Context, parsed *model.ParsedChannel) (*Result, error) {
	channel, err := r.resolveChannel(ctx, parsed)
	if err != nil {
		return nil, err
	}

	inserted := 0
	for _, parsedItem := range parsed.Items {
		ok, err := r.reconcileItem(ctx, channel.ID, parsedItem)
		if err != nil {
			// 永続化エラーは残りのバッチを中断して呼び出し側へ返す。
			// ここまでに挿入済みの記事はロールバックされない。
			return nil, fmt.Errorf("記事の取り込みに失敗しました: %w", err)
		}
		if ok {
			inserted++
		}
	}

	r.logger.Info("フィード取り込みが完了しました",
		slog.String("channel_id", channel.ID),
		slog.String("feed_link", channel.FeedLink),
		slog.String("policy", r.policy.Name()),
		slog.Int("items_inserted", inserted),
		slog.Int("items_total", len(parsed.Items)),
	)

	return &Result{ChannelID: channel.ID, InsertedItems: inserted}, nil
}

// resolveChannel はfeed_linkで既存チャンネルを検索し、
// 存在しなければ作成、存在すればメタデータを上書きする。
func (r *Reconciler) resolveChannel(ctx context.Context, parsed *model.ParsedChannel) (*model.Channel, error) {
	existing, err := r.channelRepo.FindByFeedLink(ctx, parsed.FeedLink)
	if err != nil {
		return nil, fmt.Errorf("チャンネルの検索に失敗しました: %w", err)
	}

	now := time.Now().UTC()

	if existing != nil {
		// メタデータリフレッシュ。IDとfeed_linkは変更しない。
		existing.Title = parsed.Title
		existing.SiteLink = parsed.SiteLink
		existing.Description = parsed.Description
		existing.UpdatedAt = now
		if err := r.channelRepo.UpdateMetadata(ctx, existing); err != nil {
			return nil, fmt.Errorf("チャンネルメタデータの更新に失敗しました: %w", err)
		}
		return existing, nil
	}

	channel := &model.Channel{
		ID:          uuid.New().String(),
		Title:       parsed.Title,
		SiteLink:    parsed.SiteLink,
		FeedLink:    parsed.FeedLink,
		Description: parsed.Description,
		UpdatedAt:   now,
		CreatedAt:   now,
	}

	created, err := r.channelRepo.Create(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("チャンネルの作成に失敗しました: %w", err)
	}
	if created {
		return channel, nil
	}

	// 並行取り込みで別リクエストが先にチャンネルを作成した場合。
	// feed_linkのUNIQUE制約が直列化点となり、敗者は勝者の行を読み直す。
	winner, err := r.channelRepo.FindByFeedLink(ctx, parsed.FeedLink)
	if err != nil {
		return nil, fmt.Errorf("並行作成されたチャンネルの再取得に失敗しました: %w", err)
	}
	if winner == nil {
		return nil, fmt.Errorf("チャンネルの作成が競合しましたが既存行が見つかりません: feed_link=%s", parsed.FeedLink)
	}

	r.logger.Info("チャンネル作成が競合したため既存チャンネルを使用します",
		slog.String("channel_id", winner.ID),
		slog.String("feed_link", winner.FeedLink),
	)

	return winner, nil
}

// reconcileItem は1記事を突き合わせる。新規挿入した場合はtrueを返す。
func (r *Reconciler) reconcileItem(ctx context.Context, channelID string, parsed model.ParsedItem) (bool, error) {
	existing, err := r.itemRepo.FindByChannelAndGUID(ctx, channelID, parsed.GUID)
	if err != nil {
		return false, err
	}

	if existing != nil {
		switch r.policy.Resolve(existing, parsed) {
		case ConflictUpdate:
			// 既定のfirst-write-winsでは到達しない。上書きポリシー導入時の拡張点。
			return false, nil
		default:
			return false, nil
		}
	}

	item := r.buildItem(channelID, parsed)

	created, err := r.itemRepo.Create(ctx, item)
	if err != nil {
		return false, err
	}
	if !created {
		// 並行取り込みで同じGUIDが先に挿入された場合。
		// (channel_id, guid)のUNIQUE制約衝突はエラーではなくスキップとして扱う。
		return false, nil
	}

	return true, nil
}

// buildItem はParsedItemから保存用のItemを構築する。
// 説明・拡張コンテンツは保存前にサニタイズされる。
func (r *Reconciler) buildItem(channelID string, parsed model.ParsedItem) *model.Item {
	now := time.Now().UTC()

	item := &model.Item{
		ID:          uuid.New().String(),
		ChannelID:   channelID,
		GUID:        parsed.GUID,
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: r.sanitizer.Sanitize(parsed.Description),
		Content:     r.sanitizer.Sanitize(parsed.Content),
		PublishedAt: now,
		CreatedAt:   now,
	}

	if parsed.PublishedAt != nil {
		item.PublishedAt = parsed.PublishedAt.UTC()
	}

	return item
}

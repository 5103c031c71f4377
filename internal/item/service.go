// Package item は記事の読み出しと合成ビューの構築を提供する。
package item

import (
	"context"
	"fmt"

	"github.com/hitoshi/feedkeeper/internal/model"
	"github.com/hitoshi/feedkeeper/internal/repository"
)

// Service は記事読み出しのサービス層。
type Service struct {
	itemRepo repository.ItemRepository
	seenRepo repository.SeenStateRepository
}

// NewService はServiceを生成する。
func NewService(itemRepo repository.ItemRepository, seenRepo repository.SeenStateRepository) *Service {
	return &Service{
		itemRepo: itemRepo,
		seenRepo: seenRepo,
	}
}

// GetItem は記事を取得する。見つからない場合はnilを返す。
func (s *Service) GetItem(ctx context.Context, itemID string) (*model.Item, error) {
	return s.itemRepo.FindByID(ctx, itemID)
}

// GetComposite は記事と閲覧ユーザーの既読フラグを結合したビューを返す。
// 記事が見つからない場合はnilを返す。
func (s *Service) GetComposite(ctx context.Context, itemID, userID string) (*model.CompositeItem, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	seen := false
	if userID != "" {
		state, err := s.seenRepo.FindByUserAndItem(ctx, userID, itemID)
		if err != nil {
			return nil, fmt.Errorf("既読状態の取得に失敗しました: %w", err)
		}
		if state != nil {
			seen = state.Seen
		}
	}

	composite := BuildComposite(item, seen)
	return &composite, nil
}

// ListComposite はチャンネルの全記事を閲覧ユーザーの既読フラグと結合し、
// published_at降順で返す。未認証（userIDが空）の場合は全記事が未読扱いとなる。
// 降順の順序はフィードリーダーAPIとしての契約であり、実装詳細ではない。
func (s *Service) ListComposite(ctx context.Context, channelID, userID string) ([]model.CompositeItem, error) {
	withSeen, err := s.itemRepo.ListByChannelWithSeen(ctx, channelID, userID)
	if err != nil {
		return nil, err
	}

	composites := make([]model.CompositeItem, 0, len(withSeen))
	for _, row := range withSeen {
		composites = append(composites, BuildComposite(&row.Item, row.Seen))
	}

	return composites, nil
}

// BuildComposite は記事と既読フラグからCompositeItemを構築する純関数。
func BuildComposite(item *model.Item, seen bool) model.CompositeItem {
	return model.CompositeItem{
		ItemID:      item.ID,
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		Content:     item.Content,
		PublishedAt: item.PublishedAt,
		Seen:        seen,
	}
}

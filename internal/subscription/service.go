// Package subscription は購読とユーザーごとの既読状態の管理を提供する。
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/feedkeeper/internal/model"
	"github.com/hitoshi/feedkeeper/internal/repository"
)

// Service は購読・既読状態に関するビジネスロジックを提供する。
// 副作用は(user, channel)・(user, item)の行に限定され、
// 他ユーザーの状態には影響しない。
type Service struct {
	subRepo  repository.SubscriptionRepository
	seenRepo repository.SeenStateRepository
	itemRepo repository.ItemRepository
}

// NewService はServiceを生成する。
func NewService(
	subRepo repository.SubscriptionRepository,
	seenRepo repository.SeenStateRepository,
	itemRepo repository.ItemRepository,
) *Service {
	return &Service{
		subRepo:  subRepo,
		seenRepo: seenRepo,
		itemRepo: itemRepo,
	}
}

// EnsureSubscription は(user, channel)の購読を冪等に作成する。
// 既に存在する場合は何もしない。
func (s *Service) EnsureSubscription(ctx context.Context, userID, channelID string) error {
	now := time.Now().UTC()
	sub := &model.Subscription{
		ID:        uuid.New().String(),
		UserID:    userID,
		ChannelID: channelID,
		CreatedAt: now,
	}

	if err := s.subRepo.Ensure(ctx, sub); err != nil {
		return fmt.Errorf("購読の作成に失敗しました: %w", err)
	}
	return nil
}

// SetSeen は(user, item)の既読フラグを冪等にUPSERTする。
// 記事が存在しない場合はITEM_NOT_FOUNDエラーを返す。
func (s *Service) SetSeen(ctx context.Context, userID, itemID string, seen bool) (*model.SeenState, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("記事の確認に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}

	state, err := s.seenRepo.Upsert(ctx, userID, itemID, seen)
	if err != nil {
		return nil, fmt.Errorf("既読状態の更新に失敗しました: %w", err)
	}
	return state, nil
}

// GetSeen は(user, item)の既読フラグを返す。
// 行が存在しない場合はfalseを返す（不存在は未読を意味し、エラーではない）。
func (s *Service) GetSeen(ctx context.Context, userID, itemID string) (bool, error) {
	state, err := s.seenRepo.FindByUserAndItem(ctx, userID, itemID)
	if err != nil {
		return false, fmt.Errorf("既読状態の取得に失敗しました: %w", err)
	}
	if state == nil {
		return false, nil
	}
	return state.Seen, nil
}

package item

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/feedkeeper/internal/model"
)

// --- テスト用モック ---

type mockItemRepo struct {
	findByIDFn              func(ctx context.Context, id string) (*model.Item, error)
	listByChannelWithSeenFn func(ctx context.Context, channelID, userID string) ([]model.ItemWithSeen, error)
}

func (m *mockItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockItemRepo) FindByChannelAndGUID(ctx context.Context, channelID, guid string) (*model.Item, error) {
	return nil, nil
}

func (m *mockItemRepo) ListByChannel(ctx context.Context, channelID string) ([]*model.Item, error) {
	return nil, nil
}

func (m *mockItemRepo) ListByChannelWithSeen(ctx context.Context, channelID, userID string) ([]model.ItemWithSeen, error) {
	return m.listByChannelWithSeenFn(ctx, channelID, userID)
}

func (m *mockItemRepo) Create(ctx context.Context, item *model.Item) (bool, error) {
	return false, nil
}

type mockSeenRepo struct {
	findByUserAndItemFn func(ctx context.Context, userID, itemID string) (*model.SeenState, error)
}

func (m *mockSeenRepo) FindByUserAndItem(ctx context.Context, userID, itemID string) (*model.SeenState, error) {
	return m.findByUserAndItemFn(ctx, userID, itemID)
}

func (m *mockSeenRepo) Upsert(ctx context.Context, userID, itemID string, seen bool) (*model.SeenState, error) {
	return nil, nil
}

// TestBuildComposite は記事と既読フラグからの合成が純粋な変換であることを確認する
func TestBuildComposite(t *testing.T) {
	published := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	item := &model.Item{
		ID:          "item-1",
		ChannelID:   "ch-1",
		GUID:        "guid-1",
		Title:       "記事タイトル",
		Link:        "https://example.com/1",
		Description: "概要",
		Content:     "<p>本文</p>",
		PublishedAt: published,
	}

	composite := BuildComposite(item, true)

	if composite.ItemID != "item-1" {
		t.Errorf("ItemID = %q, want %q", composite.ItemID, "item-1")
	}
	if composite.Title != "記事タイトル" {
		t.Errorf("Title = %q, want %q", composite.Title, "記事タイトル")
	}
	if !composite.PublishedAt.Equal(published) {
		t.Errorf("PublishedAt = %v, want %v", composite.PublishedAt, published)
	}
	if !composite.Seen {
		t.Error("Seen = false, want true")
	}
}

// TestService_GetComposite_SeenResolution は既読フラグの解決を確認する
func TestService_GetComposite_SeenResolution(t *testing.T) {
	itemRepo := &mockItemRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Item, error) {
			if id == "item-1" {
				return &model.Item{ID: "item-1", Title: "記事"}, nil
			}
			return nil, nil
		},
	}

	t.Run("既読行がある場合", func(t *testing.T) {
		seenRepo := &mockSeenRepo{
			findByUserAndItemFn: func(ctx context.Context, userID, itemID string) (*model.SeenState, error) {
				return &model.SeenState{UserID: userID, ItemID: itemID, Seen: true}, nil
			},
		}
		svc := NewService(itemRepo, seenRepo)

		composite, err := svc.GetComposite(context.Background(), "item-1", "user-1")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if !composite.Seen {
			t.Error("Seen = false, want true")
		}
	})

	t.Run("既読行がない場合は未読", func(t *testing.T) {
		seenRepo := &mockSeenRepo{
			findByUserAndItemFn: func(ctx context.Context, userID, itemID string) (*model.SeenState, error) {
				return nil, nil
			},
		}
		svc := NewService(itemRepo, seenRepo)

		composite, err := svc.GetComposite(context.Background(), "item-1", "user-1")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if composite.Seen {
			t.Error("Seen = true, want false（既定は未読）")
		}
	})

	t.Run("未認証ユーザーは常に未読扱い", func(t *testing.T) {
		seenRepo := &mockSeenRepo{
			findByUserAndItemFn: func(ctx context.Context, userID, itemID string) (*model.SeenState, error) {
				t.Fatal("未認証の場合は既読状態を参照しないはず")
				return nil, nil
			},
		}
		svc := NewService(itemRepo, seenRepo)

		composite, err := svc.GetComposite(context.Background(), "item-1", "")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if composite.Seen {
			t.Error("Seen = true, want false")
		}
	})

	t.Run("記事が見つからない場合はnil", func(t *testing.T) {
		svc := NewService(itemRepo, &mockSeenRepo{
			findByUserAndItemFn: func(ctx context.Context, userID, itemID string) (*model.SeenState, error) {
				return nil, nil
			},
		})

		composite, err := svc.GetComposite(context.Background(), "missing", "user-1")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if composite != nil {
			t.Errorf("composite = %+v, want nil", composite)
		}
	})
}

// TestService_ListComposite_PreservesDescendingOrder は合成ビューが
// リポジトリのpublished_at降順を保持することを確認する
func TestService_ListComposite_PreservesDescendingOrder(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	t3 := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	itemRepo := &mockItemRepo{
		listByChannelWithSeenFn: func(ctx context.Context, channelID, userID string) ([]model.ItemWithSeen, error) {
			// リポジトリはpublished_at降順で返す契約
			return []model.ItemWithSeen{
				{Item: model.Item{ID: "item-3", PublishedAt: t3}, Seen: false},
				{Item: model.Item{ID: "item-2", PublishedAt: t2}, Seen: true},
				{Item: model.Item{ID: "item-1", PublishedAt: t1}, Seen: false},
			}, nil
		},
	}
	svc := NewService(itemRepo, &mockSeenRepo{})

	composites, err := svc.ListComposite(context.Background(), "ch-1", "user-1")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if len(composites) != 3 {
		t.Fatalf("件数 = %d, want 3", len(composites))
	}

	wantOrder := []string{"item-3", "item-2", "item-1"}
	for i, want := range wantOrder {
		if composites[i].ItemID != want {
			t.Errorf("composites[%d].ItemID = %q, want %q（新しい順）", i, composites[i].ItemID, want)
		}
	}
	for i := 0; i < len(composites)-1; i++ {
		if composites[i].PublishedAt.Before(composites[i+1].PublishedAt) {
			t.Errorf("published_atが降順になっていません: %v < %v", composites[i].PublishedAt, composites[i+1].PublishedAt)
		}
	}

	if composites[1].ItemID == "item-2" && !composites[1].Seen {
		t.Error("item-2のSeenフラグが引き継がれていません")
	}
}

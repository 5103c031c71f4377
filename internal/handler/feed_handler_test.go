package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/feedkeeper/internal/ingest"
	"github.com/hitoshi/feedkeeper/internal/model"
)

// --- テスト用モック ---

type mockFeedService struct {
	addFeedFn      func(ctx context.Context, userID, rawURL string) (*ingest.Result, error)
	listChannelsFn func(ctx context.Context) ([]*model.Channel, error)
	getChannelFn   func(ctx context.Context, channelID string) (*model.Channel, error)
	listItemsFn    func(ctx context.Context, channelID string) ([]*model.Item, error)
}

func (m *mockFeedService) AddFeed(ctx context.Context, userID, rawURL string) (*ingest.Result, error) {
	return m.addFeedFn(ctx, userID, rawURL)
}

func (m *mockFeedService) ListChannels(ctx context.Context) ([]*model.Channel, error) {
	return m.listChannelsFn(ctx)
}

func (m *mockFeedService) GetChannel(ctx context.Context, channelID string) (*model.Channel, error) {
	return m.getChannelFn(ctx, channelID)
}

func (m *mockFeedService) ListItems(ctx context.Context, channelID string) ([]*model.Item, error) {
	return m.listItemsFn(ctx, channelID)
}

// postForm はフォームエンコードされたPOSTリクエストを生成する。
func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// TestFeedHandler_AddFeed_MissingFeedURL はfeed_url欠落時に400が返ることを検証する。
func TestFeedHandler_AddFeed_MissingFeedURL(t *testing.T) {
	called := false
	h := NewFeedHandler(&mockFeedService{
		addFeedFn: func(ctx context.Context, userID, rawURL string) (*ingest.Result, error) {
			called = true
			return nil, nil
		},
	})

	req := postForm("/add_feed", url.Values{})
	w := httptest.NewRecorder()

	h.AddFeed(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
	if called {
		t.Error("feed_url欠落時にサービスが呼ばれました")
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidRequest)
	}
}

// TestFeedHandler_AddFeed_Success は取り込み成功時に200空ボディが返ることを検証する。
func TestFeedHandler_AddFeed_Success(t *testing.T) {
	var gotURL, gotUserID string
	h := NewFeedHandler(&mockFeedService{
		addFeedFn: func(ctx context.Context, userID, rawURL string) (*ingest.Result, error) {
			gotUserID = userID
			gotURL = rawURL
			return &ingest.Result{ChannelID: "ch-1", InsertedItems: 3}, nil
		},
	})

	req := postForm("/add_feed", url.Values{"feed_url": {"https://example.com/rss.xml"}})
	w := httptest.NewRecorder()

	h.AddFeed(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Errorf("body = %q, want empty", body)
	}
	if gotURL != "https://example.com/rss.xml" {
		t.Errorf("feed_url = %q", gotURL)
	}
	// 匿名リクエストではユーザーIDは空
	if gotUserID != "" {
		t.Errorf("userID = %q, want empty", gotUserID)
	}
}

// TestFeedHandler_AddFeed_FetchFailure はフェッチ失敗が502に変換されることを検証する。
func TestFeedHandler_AddFeed_FetchFailure(t *testing.T) {
	h := NewFeedHandler(&mockFeedService{
		addFeedFn: func(ctx context.Context, userID, rawURL string) (*ingest.Result, error) {
			return nil, model.NewFetchFailedError("connection refused")
		},
	})

	req := postForm("/add_feed", url.Values{"feed_url": {"https://unreachable.example.com/rss.xml"}})
	w := httptest.NewRecorder()

	h.AddFeed(w, req)

	if w.Result().StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadGateway)
	}
}

// TestFeedHandler_ListFeeds はチャンネル一覧のJSONレスポンスを検証する。
func TestFeedHandler_ListFeeds(t *testing.T) {
	h := NewFeedHandler(&mockFeedService{
		listChannelsFn: func(ctx context.Context) ([]*model.Channel, error) {
			return []*model.Channel{
				{ID: "ch-1", Title: "Blog A", FeedLink: "https://a.example.com/rss"},
				{ID: "ch-2", Title: "Blog B", FeedLink: "https://b.example.com/rss"},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/feeds", nil)
	w := httptest.NewRecorder()

	h.ListFeeds(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body []channelResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("len = %d, want 2", len(body))
	}
	if body[0].ID != "ch-1" || body[1].ID != "ch-2" {
		t.Errorf("unexpected channel order: %+v", body)
	}
}

// TestFeedHandler_GetFeed_NotFound は未知IDで404が返ることを検証する。
func TestFeedHandler_GetFeed_NotFound(t *testing.T) {
	h := NewFeedHandler(&mockFeedService{
		getChannelFn: func(ctx context.Context, channelID string) (*model.Channel, error) {
			return nil, nil
		},
	})

	r := chi.NewRouter()
	r.Get("/feed/{id}", h.GetFeed)

	req := httptest.NewRequest(http.MethodGet, "/feed/unknown", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

// TestFeedHandler_GetFeed_ReturnsChannelWithItems はチャンネル詳細のJSON形状を検証する。
// 公開JSONにはGUIDと外部キーを含めず、空の拡張コンテンツはキー自体を省略する。
func TestFeedHandler_GetFeed_ReturnsChannelWithItems(t *testing.T) {
	published := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	h := NewFeedHandler(&mockFeedService{
		getChannelFn: func(ctx context.Context, channelID string) (*model.Channel, error) {
			return &model.Channel{ID: "ch-1", Title: "Blog A", FeedLink: "https://a.example.com/rss"}, nil
		},
		listItemsFn: func(ctx context.Context, channelID string) ([]*model.Item, error) {
			return []*model.Item{
				{ID: "item-1", ChannelID: "ch-1", GUID: "guid-1", Title: "記事1", PublishedAt: published},
			}, nil
		},
	})

	r := chi.NewRouter()
	r.Get("/feed/{id}", h.GetFeed)

	req := httptest.NewRequest(http.MethodGet, "/feed/ch-1", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	raw, _ := io.ReadAll(resp.Body)
	bodyStr := string(raw)

	if strings.Contains(bodyStr, "guid") {
		t.Error("公開JSONにguidが含まれています")
	}
	if strings.Contains(bodyStr, "channel_id") {
		t.Error("公開JSONにchannel_idが含まれています")
	}
	if strings.Contains(bodyStr, `"content"`) {
		t.Error("空の拡張コンテンツはキー自体が省略されるべき")
	}

	var body channelDetailResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.ID != "ch-1" {
		t.Errorf("id = %q, want %q", body.ID, "ch-1")
	}
	if len(body.Items) != 1 || body.Items[0].ID != "item-1" {
		t.Errorf("unexpected items: %+v", body.Items)
	}
}

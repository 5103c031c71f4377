package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/feedkeeper/internal/middleware"
	"github.com/hitoshi/feedkeeper/internal/model"
)

// ItemServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type ItemServiceInterface interface {
	// GetComposite は記事と閲覧ユーザーの既読フラグの合成ビューを返す。
	// 記事が見つからない場合はnilを返す。userIDが空なら未読扱い。
	GetComposite(ctx context.Context, itemID, userID string) (*model.CompositeItem, error)
	// ListComposite はチャンネルの全記事の合成ビューをpublished_at降順で返す。
	ListComposite(ctx context.Context, channelID, userID string) ([]model.CompositeItem, error)
}

// ChannelFinder はチャンネル存在確認のためのインターフェース。
type ChannelFinder interface {
	GetChannel(ctx context.Context, channelID string) (*model.Channel, error)
}

// SeenUpdater は既読フラグ更新のためのインターフェース。
// subscription.Serviceの部分集合として定義する。
type SeenUpdater interface {
	SetSeen(ctx context.Context, userID, itemID string, seen bool) (*model.SeenState, error)
}

// ItemHandler は記事読み出しと既読状態のHTTPハンドラー。
type ItemHandler struct {
	service  ItemServiceInterface
	channels ChannelFinder
	seen     SeenUpdater
}

// NewItemHandler はItemHandlerを生成する。
func NewItemHandler(service ItemServiceInterface, channels ChannelFinder, seen SeenUpdater) *ItemHandler {
	return &ItemHandler{
		service:  service,
		channels: channels,
		seen:     seen,
	}
}

// compositeItemResponse は記事と既読フラグの合成ビューのAPIレスポンス。
// 拡張コンテンツは存在しない場合キー自体を省略する。
type compositeItemResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Seen        bool      `json:"seen"`
}

// updateSeenRequest は既読フラグ更新リクエストのボディ。
type updateSeenRequest struct {
	Seen bool `json:"seen"`
}

// seenStateResponse は既読フラグ更新のAPIレスポンス。
type seenStateResponse struct {
	ItemID string `json:"item_id"`
	Seen   bool   `json:"seen"`
}

// GetItem は記事を閲覧ユーザーの既読フラグ付きで返す。
// GET /item/{id}
// 認証は任意: 未認証の場合は未読扱いとなる。
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")
	userID, _ := middleware.UserIDFromContext(r.Context())

	composite, err := h.service.GetComposite(r.Context(), itemID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if composite == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewItemNotFoundError(itemID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCompositeItemResponse(composite))
}

// ListItems はチャンネルの記事一覧を既読フラグ付きで返す。
// GET /items/{id} （idはチャンネルID）
// 認証は任意: 未認証の場合は全記事が未読扱いとなる。
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "id")
	userID, _ := middleware.UserIDFromContext(r.Context())

	channel, err := h.channels.GetChannel(r.Context(), channelID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if channel == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewChannelNotFoundError(channelID))
		return
	}

	composites, err := h.service.ListComposite(r.Context(), channelID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]compositeItemResponse, 0, len(composites))
	for i := range composites {
		resp = append(resp, toCompositeItemResponse(&composites[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// UpdateSeen は記事の既読フラグを更新する。
// PUT /item/{id}/seen
// 認証必須: 認証ミドルウェアの後段に配置すること。
func (h *ItemHandler) UpdateSeen(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	itemID := chi.URLParam(r, "id")

	var req updateSeenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	state, err := h.seen.SetSeen(r.Context(), userID, itemID, req.Seen)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(seenStateResponse{
		ItemID: state.ItemID,
		Seen:   state.Seen,
	})
}

// toCompositeItemResponse はmodel.CompositeItemからAPIレスポンスに変換する。
func toCompositeItemResponse(c *model.CompositeItem) compositeItemResponse {
	return compositeItemResponse{
		ID:          c.ItemID,
		Title:       c.Title,
		Link:        c.Link,
		Description: c.Description,
		Content:     c.Content,
		PublishedAt: c.PublishedAt,
		Seen:        c.Seen,
	}
}

// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/feedkeeper/internal/ingest"
	"github.com/hitoshi/feedkeeper/internal/middleware"
	"github.com/hitoshi/feedkeeper/internal/model"
)

// FeedServiceInterface はフィードハンドラーが必要とするサービスインターフェース。
type FeedServiceInterface interface {
	// AddFeed はURLをフェッチ・パースして保存状態へ取り込む。
	AddFeed(ctx context.Context, userID, rawURL string) (*ingest.Result, error)
	// ListChannels は全チャンネルを返す。
	ListChannels(ctx context.Context) ([]*model.Channel, error)
	// GetChannel はチャンネルを取得する。見つからない場合はnilを返す。
	GetChannel(ctx context.Context, channelID string) (*model.Channel, error)
	// ListItems はチャンネルの記事一覧をpublished_at降順で返す。
	ListItems(ctx context.Context, channelID string) ([]*model.Item, error)
}

// FeedHandler はフィード管理のHTTPハンドラー。
type FeedHandler struct {
	service FeedServiceInterface
}

// NewFeedHandler はFeedHandlerを生成する。
func NewFeedHandler(service FeedServiceInterface) *FeedHandler {
	return &FeedHandler{service: service}
}

// channelResponse はチャンネル情報のAPIレスポンス。
// 内部ID以外の連結フィールドは公開しない。
type channelResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	SiteLink    string `json:"site_link"`
	FeedLink    string `json:"feed_link"`
	Description string `json:"description"`
}

// itemResponse は記事情報のAPIレスポンス。
// GUIDとチャンネルへの外部キーは公開JSONに含めない。
// 拡張コンテンツは存在しない場合キー自体を省略する。
type itemResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// channelDetailResponse はチャンネルとその記事一覧のAPIレスポンス。
type channelDetailResponse struct {
	channelResponse
	Items []itemResponse `json:"items"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// AddFeed はフィードURLの取り込みを処理する。
// POST /add_feed （フォームフィールド feed_url）
// 認証は任意: 認証済みの場合のみ取り込んだチャンネルへの購読を作成する。
func (h *FeedHandler) AddFeed(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "application/x-www-form-urlencoded形式でリクエストしてください。",
		})
		return
	}

	feedURL := r.PostFormValue("feed_url")
	if feedURL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("feed_url"))
		return
	}

	// 匿名でも取り込みは許可する（購読は作成されない）
	userID, _ := middleware.UserIDFromContext(r.Context())

	if _, err := h.service.AddFeed(r.Context(), userID, feedURL); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ListFeeds は全チャンネルの一覧を返す。
// GET /feeds
func (h *FeedHandler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	channels, err := h.service.ListChannels(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]channelResponse, 0, len(channels))
	for _, ch := range channels {
		resp = append(resp, toChannelResponse(ch))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetFeed はチャンネルとその記事一覧を返す。
// GET /feed/{id}
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "id")

	channel, err := h.service.GetChannel(r.Context(), channelID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if channel == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewChannelNotFoundError(channelID))
		return
	}

	items, err := h.service.ListItems(r.Context(), channelID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := channelDetailResponse{
		channelResponse: toChannelResponse(channel),
		Items:           make([]itemResponse, 0, len(items)),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, toItemResponse(it))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- ヘルパー関数 ---

// toChannelResponse はmodel.ChannelからAPIレスポンスに変換する。
func toChannelResponse(ch *model.Channel) channelResponse {
	return channelResponse{
		ID:          ch.ID,
		Title:       ch.Title,
		SiteLink:    ch.SiteLink,
		FeedLink:    ch.FeedLink,
		Description: ch.Description,
	}
}

// toItemResponse はmodel.ItemからAPIレスポンスに変換する。
func toItemResponse(it *model.Item) itemResponse {
	return itemResponse{
		ID:          it.ID,
		Title:       it.Title,
		Link:        it.Link,
		Description: it.Description,
		Content:     it.Content,
		PublishedAt: it.PublishedAt,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidURL, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeFetchFailed:
		return http.StatusBadGateway
	case model.ErrCodeParseFailed:
		return http.StatusUnprocessableEntity
	case model.ErrCodeChannelNotFound, model.ErrCodeItemNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeUsernameTaken:
		return http.StatusConflict
	case model.ErrCodeConfigMissing:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

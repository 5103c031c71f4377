package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/feedkeeper/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	TokenResolver     middleware.TokenResolver
	StatusRecorder    middleware.HTTPStatusRecorder

	// サービス
	FeedService FeedServiceInterface
	ItemService ItemServiceInterface
	SeenUpdater SeenUpdater
	AuthService AuthServiceInterface

	// Prometheusスクレイプ用ハンドラー（省略可）
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → CORS → OptionalAuth → RateLimit(General)
//
// CORSヘッダーは読み書き問わず全ルートに一様に付与する。
// 認証は読み出し系と/add_feedでは任意、既読フラグ更新では必須。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.TokenResolver != nil {
		r.Use(middleware.NewOptionalAuthMiddleware(deps.TokenResolver))
	}
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.GeneralMiddleware())
	}

	feedHandler := NewFeedHandler(deps.FeedService)
	itemHandler := NewItemHandler(deps.ItemService, deps.FeedService, deps.SeenUpdater)
	authHandler := NewAuthHandler(deps.AuthService)

	// フロントエンド
	r.Get("/", IndexHandler())
	r.Handle("/static/*", StaticHandler())

	// 読み出し系（認証は任意）
	r.Get("/feeds", feedHandler.ListFeeds)
	r.Get("/feed/{id}", feedHandler.GetFeed)
	r.Get("/item/{id}", itemHandler.GetItem)
	r.Get("/items/{id}", itemHandler.ListItems)

	// フィード登録（登録専用レート制限を追加）
	if deps.RateLimiter != nil {
		r.With(deps.RateLimiter.FeedRegistrationMiddleware()).Post("/add_feed", feedHandler.AddFeed)
	} else {
		r.Post("/add_feed", feedHandler.AddFeed)
	}

	// 認証
	r.Post("/login", authHandler.Login)
	r.Post("/signup", authHandler.Signup)

	// 既読フラグ更新（認証必須）
	if deps.TokenResolver != nil {
		r.With(middleware.NewAuthMiddleware(deps.TokenResolver)).Put("/item/{id}/seen", itemHandler.UpdateSeen)
	} else {
		r.Put("/item/{id}/seen", itemHandler.UpdateSeen)
	}

	// 運用エンドポイント
	r.Get("/health", healthHandler)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	return r
}

// healthHandler は稼働確認用の200レスポンスを返す。
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/feedkeeper/internal/model"
)

// ChannelRepository はチャンネルデータの永続化インターフェース。
type ChannelRepository interface {
	// FindByID は指定IDのチャンネルを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Channel, error)

	// FindByFeedLink はフィードURLでチャンネルを検索する。見つからない場合はnilを返す。
	// フィードURLは再取り込み時の照合キーであり、feed_linkにUNIQUE制約がある。
	FindByFeedLink(ctx context.Context, feedLink string) (*model.Channel, error)

	// List は全チャンネルを作成日時昇順で返す。
	List(ctx context.Context) ([]*model.Channel, error)

	// Create はチャンネルを作成する。
	// 同一feed_linkのチャンネルが既に存在する場合（並行取り込みの敗者）は
	// 何も挿入せずfalseを返す。この場合エラーにはならない。
	Create(ctx context.Context, channel *model.Channel) (bool, error)

	// UpdateMetadata はチャンネルのタイトル・サイトリンク・説明・更新日時を
	// 上書きする。IDは変更されない。
	UpdateMetadata(ctx context.Context, channel *model.Channel) error
}

// ItemRepository は記事データの永続化インターフェース。
type ItemRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Item, error)

	// FindByChannelAndGUID はchannel_idとguidで記事を検索する。見つからない場合はnilを返す。
	// GUIDの一意性はチャンネル内に限定される。
	FindByChannelAndGUID(ctx context.Context, channelID, guid string) (*model.Item, error)

	// ListByChannel はチャンネルの記事一覧をpublished_at降順で返す。
	ListByChannel(ctx context.Context, channelID string) ([]*model.Item, error)

	// ListByChannelWithSeen はチャンネルの記事一覧をユーザーの既読フラグと
	// LEFT JOINしてpublished_at降順で返す。seen_states行が存在しない記事は未読扱い。
	ListByChannelWithSeen(ctx context.Context, channelID, userID string) ([]model.ItemWithSeen, error)

	// Create は記事を作成する。
	// 同一(channel_id, guid)の記事が既に存在する場合は何も挿入せずfalseを返す。
	// 並行取り込みで同じGUIDが同時に挿入された場合の敗者もこの経路で吸収される。
	Create(ctx context.Context, item *model.Item) (bool, error)
}

// SubscriptionRepository は購読データの永続化インターフェース。
type SubscriptionRepository interface {
	// FindByUserAndChannel はユーザーIDとチャンネルIDで購読を検索する。見つからない場合はnilを返す。
	FindByUserAndChannel(ctx context.Context, userID, channelID string) (*model.Subscription, error)

	// Ensure は購読を冪等に作成する。既に存在する場合は何もしない。
	Ensure(ctx context.Context, subscription *model.Subscription) error

	// ListByUserID はユーザーの購読一覧を返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Subscription, error)
}

// SeenStateRepository はユーザーごとの記事既読フラグの永続化インターフェース。
type SeenStateRepository interface {
	// FindByUserAndItem はユーザーIDと記事IDで既読状態を取得する。
	// 行が存在しない場合はnilを返す（未読を意味し、エラーではない）。
	FindByUserAndItem(ctx context.Context, userID, itemID string) (*model.SeenState, error)

	// Upsert は既読フラグを冪等にUPSERTする。
	// UNIQUE(user_id, item_id)制約を利用したINSERT ON CONFLICTで実装する。
	Upsert(ctx context.Context, userID, itemID string, seen bool) (*model.SeenState, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	// 同一usernameのユーザーが既に存在する場合は何も挿入せずfalseを返す。
	Create(ctx context.Context, user *model.User) (bool, error)
}

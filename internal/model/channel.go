// Package model はドメインモデルを定義する。
package model

import "time"

// Channel は購読対象のフィードソースを表す。
// FeedLink（フィードの取得元URL）が再取り込み時の照合キーとなり、
// 1つのFeedLinkに対してChannelは最大1件しか存在しない。
type Channel struct {
	ID          string
	Title       string
	SiteLink    string
	FeedLink    string
	Description string
	UpdatedAt   time.Time
	CreatedAt   time.Time
}

// ParsedChannel はフィードパーサーから取得した未保存のチャンネルデータを表す。
// フェッチ・パース層の出力であり、取り込みリコンサイラへの入力となる。
type ParsedChannel struct {
	Title       string
	SiteLink    string
	FeedLink    string
	Description string
	Items       []ParsedItem
}

// Subscription はユーザーとチャンネルの購読関係を表す。
// (user_id, channel_id) の組み合わせで一意。
type Subscription struct {
	ID        string
	UserID    string
	ChannelID string
	CreatedAt time.Time
}

// Package model はドメインモデルを定義する。
package model

import "time"

// Item はチャンネル内の1記事を表す。
// GUIDはフィード提供元が付与する識別子で、チャンネル内で一意
// （グローバルには一意ではない）。一度保存された記事は再取り込みで
// 変更されない（first-write-winsポリシー、ingestパッケージ参照）。
type Item struct {
	ID          string
	ChannelID   string
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string // サニタイズ済みHTML。空の場合は拡張コンテンツなし
	PublishedAt time.Time
	CreatedAt   time.Time
}

// ItemWithSeen は記事とユーザーごとの既読フラグを結合したモデル。
// seen_statesテーブルとLEFT JOINして取得される。行が存在しない場合は未読扱い。
type ItemWithSeen struct {
	Item
	Seen bool
}

// CompositeItem は記事と閲覧ユーザーの既読フラグを結合したAPI応答用ビュー。
// 保存されず、クエリごとに再計算される。
type CompositeItem struct {
	ItemID      string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time
	Seen        bool
}

// SeenState はユーザーごとの記事既読フラグを表す。
// (user_id, item_id) の組み合わせで一意。行の不存在は未読を意味する。
type SeenState struct {
	ID        string
	UserID    string
	ItemID    string
	Seen      bool
	UpdatedAt time.Time
	CreatedAt time.Time
}

// ParsedItem はフィードパーサーから取得した未保存の記事データを表す。
type ParsedItem struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string // 未サニタイズのHTML
	PublishedAt *time.Time
}

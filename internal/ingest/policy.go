// Package ingest はパース済みフィードを保存済み状態へ突き合わせる取り込み処理を提供する。
package ingest

import "github.com/hitoshi/feedkeeper/internal/model"

// ConflictAction は既存記事と重複した取得記事に対する処理を表す。
type ConflictAction int

const (
	// ConflictSkip は既存記事を変更せず取得記事を破棄する。
	ConflictSkip ConflictAction = iota
	// ConflictUpdate は既存記事を取得記事の内容で上書きする。
	ConflictUpdate
)

// ConflictPolicy は同一(channel, GUID)の記事が既に存在する場合の
// 解決戦略を表す。取り込みの制御フローから分離された名前付きポリシーとして
// 定義することで、戦略の差し替えをリコンサイラ本体に手を入れずに行える。
type ConflictPolicy interface {
	// Name はログ出力用のポリシー名を返す。
	Name() string
	// Resolve は既存記事と取得記事から実行すべき処理を決定する。
	Resolve(existing *model.Item, incoming model.ParsedItem) ConflictAction
}

// firstWriteWins は最初に保存された記事を保持するポリシー。
// 提供元でタイトルや本文が変更されても既存記事は変更されない。
// 本サービスの既定ポリシー。
type firstWriteWins struct{}

// FirstWriteWins はfirst-write-winsポリシーを返す。
func FirstWriteWins() ConflictPolicy {
	return firstWriteWins{}
}

func (firstWriteWins) Name() string {
	return "first_write_wins"
}

func (firstWriteWins) Resolve(existing *model.Item, incoming model.ParsedItem) ConflictAction {
	return ConflictSkip
}

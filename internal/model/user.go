// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはSHA-256ダイジェストのbase64エンコード文字列
// （authパッケージ参照）。
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Claims は署名付きトークンのペイロードを表す。
// 永続化されず、トークンの生存期間だけ存在する。
type Claims struct {
	Name     string
	IssuedAt time.Time
}

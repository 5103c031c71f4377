// Package auth はパスワード検証とトークン発行を提供する。
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// HashPassword はパスワードの一方向ダイジェストを計算し、
// base64エンコードした文字列を返す。
//
// 注意: ソルトなしの単一SHA-256であり、現代の基準では弱い。
// 既存の保存済みハッシュとの互換性のため方式を維持している。
// 方式変更は保存データの移行を伴うプロダクト判断になる。
func HashPassword(plaintext string) string {
	digest := sha256.Sum256([]byte(plaintext))
	return base64.StdEncoding.EncodeToString(digest[:])
}

// VerifyPassword は平文パスワードのダイジェストを保存済みハッシュと比較する。
// タイミング攻撃を避けるため定数時間比較を使用する。
func VerifyPassword(storedHash, plaintext string) bool {
	computed := HashPassword(plaintext)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(computed)) == 1
}

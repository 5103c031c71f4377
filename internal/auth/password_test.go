package auth

import "testing"

// TestHashPassword はダイジェストが決定的であることを確認する
func TestHashPassword(t *testing.T) {
	h1 := HashPassword("password123")
	h2 := HashPassword("password123")
	if h1 != h2 {
		t.Errorf("同じ入力に対してハッシュが一致しません: %q != %q", h1, h2)
	}
	if h1 == HashPassword("password124") {
		t.Error("異なる入力に対してハッシュが一致しました")
	}
	// SHA-256(32バイト)のbase64は44文字
	if len(h1) != 44 {
		t.Errorf("ハッシュ長が不正です: got %d, want 44", len(h1))
	}
}

// TestVerifyPassword はパスワード検証の成否を確認する
func TestVerifyPassword(t *testing.T) {
	stored := HashPassword("correct horse")

	if !VerifyPassword(stored, "correct horse") {
		t.Error("正しいパスワードで検証が失敗しました")
	}
	if VerifyPassword(stored, "wrong horse") {
		t.Error("誤ったパスワードで検証が成功しました")
	}
	if VerifyPassword(stored, "") {
		t.Error("空パスワードで検証が成功しました")
	}
}

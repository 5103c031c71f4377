package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/feedkeeper/internal/model"
)

// TestTokenIssuer_RoundTrip はトークンの発行と検証を確認する
func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 0)

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("トークン発行に失敗しました: %v", err)
	}
	if token == "" {
		t.Fatal("空のトークンが返されました")
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("トークン検証に失敗しました: %v", err)
	}
	if claims.Name != "alice" {
		t.Errorf("nameクレームが不正です: got %q, want %q", claims.Name, "alice")
	}
	if claims.IssuedAt.IsZero() {
		t.Error("iatクレームが設定されていません")
	}
}

// TestTokenIssuer_MissingSecret は署名鍵未設定時のエラーを確認する
func TestTokenIssuer_MissingSecret(t *testing.T) {
	issuer := NewTokenIssuer("", 0)

	_, err := issuer.Issue("alice")
	if err == nil {
		t.Fatal("署名鍵未設定でエラーが返されませんでした")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返されませんでした: %v", err)
	}
	if apiErr.Code != "CONFIG_MISSING" {
		t.Errorf("エラーコードが不正です: got %q, want CONFIG_MISSING", apiErr.Code)
	}
}

// TestTokenIssuer_WrongSecret は異なる鍵で署名されたトークンの拒否を確認する
func TestTokenIssuer_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", 0)
	other := NewTokenIssuer("secret-b", 0)

	token, err := other.Issue("alice")
	if err != nil {
		t.Fatalf("トークン発行に失敗しました: %v", err)
	}

	if _, err := issuer.Parse(token); err == nil {
		t.Error("異なる鍵のトークンが受理されました")
	}
}

// TestTokenIssuer_Expiry は有効期限の付与と期限切れの拒否を確認する
func TestTokenIssuer_Expiry(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("トークン発行に失敗しました: %v", err)
	}

	if _, err := issuer.Parse(token); err == nil {
		t.Error("期限切れトークンが受理されました")
	}
}

// TestTokenIssuer_NoExpiryByDefault はmaxAge=0のとき期限切れにならないことを確認する
func TestTokenIssuer_NoExpiryByDefault(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 0)
	issuer.now = func() time.Time { return time.Now().Add(-365 * 24 * time.Hour) }

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("トークン発行に失敗しました: %v", err)
	}

	if _, err := issuer.Parse(token); err != nil {
		t.Errorf("有効期限なしトークンが拒否されました: %v", err)
	}
}

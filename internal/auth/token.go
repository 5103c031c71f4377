package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/feedkeeper/internal/model"
)

// TokenIssuer はHS256署名のベアラートークンを発行・検証する。
// maxAgeが0の場合、トークンは有効期限を持たない(expクレームを付与しない)。
type TokenIssuer struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewTokenIssuer は新しいTokenIssuerを作成する。
// secretが空の場合でも作成自体は成功し、発行・検証時にエラーを返す。
func NewTokenIssuer(secret string, maxAge time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Issue はユーザー名を主体とするトークンを発行する。
// 署名鍵が未設定の場合はCONFIG_MISSINGエラーを返す。
func (t *TokenIssuer) Issue(username string) (string, error) {
	if len(t.secret) == 0 {
		return "", model.NewConfigMissingError("JWT_SECRET")
	}

	issuedAt := t.now()
	claims := jwt.MapClaims{
		"name": username,
		"iat":  issuedAt.Unix(),
	}
	if t.maxAge > 0 {
		claims["exp"] = issuedAt.Add(t.maxAge).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗しました: %w", err)
	}
	return signed, nil
}

// Parse はトークンを検証し、クレームを返す。
// 署名不正・期限切れ・アルゴリズム不一致はエラーになる。
func (t *TokenIssuer) Parse(tokenString string) (*model.Claims, error) {
	if len(t.secret) == 0 {
		return nil, model.NewConfigMissingError("JWT_SECRET")
	}

	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("予期しない署名方式です: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗しました: %w", err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("トークンのクレームが不正です")
	}

	name, ok := mapClaims["name"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("トークンにnameクレームがありません")
	}

	claims := &model.Claims{Name: name}
	if iat, ok := mapClaims["iat"].(float64); ok {
		claims.IssuedAt = time.Unix(int64(iat), 0)
	}
	return claims, nil
}

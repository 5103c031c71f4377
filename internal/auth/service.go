package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/feedkeeper/internal/model"
)

// UserFinder はユーザー検索に必要な操作を表す。
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// UserCreator はユーザー登録に必要な操作を表す。
type UserCreator interface {
	Create(ctx context.Context, user *model.User) (bool, error)
}

// UserStore は認証サービスが必要とするユーザー永続化操作をまとめたもの。
type UserStore interface {
	UserFinder
	UserCreator
}

// Service は認証とユーザー登録を提供する。
type Service struct {
	users  UserStore
	issuer *TokenIssuer
}

// NewService は新しい認証サービスを作成する。
func NewService(users UserStore, issuer *TokenIssuer) *Service {
	return &Service{users: users, issuer: issuer}
}

// CheckCredentials はユーザー名とパスワードを検証する。
// 認証成功時はユーザーを返す。ユーザーが存在しない場合と
// パスワードが一致しない場合はどちらも (nil, nil) を返し、
// 呼び出し側から区別できないようにする。
func (s *Service) CheckCredentials(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		// 存在しないユーザーでも計算コストを揃えるためハッシュは計算する
		_ = HashPassword(password)
		return nil, nil
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return nil, nil
	}
	return user, nil
}

// Login は資格情報を検証し、成功時にベアラートークンを発行する。
// 資格情報が不正な場合は ("", nil, nil) を返す。
func (s *Service) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.CheckCredentials(ctx, username, password)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, nil
	}
	token, err := s.issuer.Issue(user.Username)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Signup は新しいユーザーを登録する。
// ユーザー名が既に使用されている場合はUSERNAME_TAKENエラーを返す。
func (s *Service) Signup(ctx context.Context, username, password string) (*model.User, error) {
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: HashPassword(password),
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	if !created {
		return nil, model.NewUsernameTakenError(username)
	}
	return user, nil
}

// ResolveUser はトークンを検証し、対応するユーザーを返す。
// トークンが不正な場合とユーザーが存在しない場合は (nil, nil) を返す。
func (s *Service) ResolveUser(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.issuer.Parse(tokenString)
	if err != nil {
		return nil, nil
	}
	user, err := s.users.FindByUsername(ctx, claims.Name)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	return user, nil
}

package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/feedkeeper/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login は資格情報を検証し、成功時に署名付きトークンを発行する。
	// 資格情報が不正な場合は ("", nil, nil) を返す。
	Login(ctx context.Context, username, password string) (string, *model.User, error)
	// Signup は新しいユーザーを登録する。
	Signup(ctx context.Context, username, password string) (*model.User, error)
}

// AuthHandler は認証とユーザー登録のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login は資格情報を検証し、成功時にトークン文字列をそのままボディとして返す。
// POST /login （フォームフィールド username, password）
// フィールド欠落時はストア参照より前に400を返す。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username, password, ok := parseCredentials(w, r)
	if !ok {
		return
	}

	token, user, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(token))
}

// Signup は新しいユーザーを登録し、発行したトークンをボディとして返す。
// POST /signup （フォームフィールド username, password）
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	username, password, ok := parseCredentials(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Signup(r.Context(), username, password); err != nil {
		handleServiceError(w, err)
		return
	}

	token, user, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(token))
}

// parseCredentials はフォームからユーザー名とパスワードを取り出す。
// 欠落時は400を書き込み、okにfalseを返す。
func parseCredentials(w http.ResponseWriter, r *http.Request) (username, password string, ok bool) {
	if err := r.ParseForm(); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "application/x-www-form-urlencoded形式でリクエストしてください。",
		})
		return "", "", false
	}

	username = r.PostFormValue("username")
	password = r.PostFormValue("password")
	if username == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("username"))
		return "", "", false
	}
	if password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingParameterError("password"))
		return "", "", false
	}
	return username, password, true
}

// Package modelsはデータベース構造体とリクエスト/レスポンス構造体を定義します。
package models

import "time"

// User はユーザーのデータベース構造体を表します。
// JSONタグ: クライアントとの通信用
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // JSONに出さない。DBに保存するハッシュ化されたパスワード
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRegisterRequest はユーザー登録リクエストの構造体です。
type UserRegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` // 生パスワード
}

// UserLoginRequest はユーザーログインリクエストの構造体です。
type UserLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthUser はトークンと一緒に返すユーザー情報です (パスワードは含めない)。
type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// AuthResponse は登録・ログイン成功時のレスポンスです。
type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// JWTClaims はトークンから取り出した認証済みユーザー情報です。
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

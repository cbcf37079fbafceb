package model

import "time"

// User はサービス利用ユーザーを表す。
// スケジューラは通知の宛先解決（メールアドレス、表示名）のために参照する。
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session はユーザーのログインセッションを表す。
// 期限切れセッションはクリーンアップジョブにより日次で削除される。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// OTPCode はメール認証等に使用するワンタイムコードを表す。
// 期限切れコードはクリーンアップジョブにより毎時削除される。
type OTPCode struct {
	ID        string
	Email     string
	Code      string
	Kind      OTPKind
	Verified  bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// OTPKind はワンタイムコードの用途を表す。
type OTPKind string

const (
	// OTPKindLogin はログイン認証用。
	OTPKindLogin OTPKind = "login"
	// OTPKindRegistration は新規登録のメール確認用。
	OTPKindRegistration OTPKind = "registration"
	// OTPKindPasswordReset はパスワードリセット用。
	OTPKindPasswordReset OTPKind = "password_reset"
)

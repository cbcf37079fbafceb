package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// 原因カテゴリと対処方法を含み、API層からそのまま返却できる。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, scheduling, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeReminderNotFound = "REMINDER_NOT_FOUND"
	ErrCodeTaskNotFound     = "TASK_NOT_FOUND"
	ErrCodeInvalidChannel   = "INVALID_CHANNEL"
	ErrCodeEmailSendFailed  = "EMAIL_SEND_FAILED"
)

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "scheduling",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewReminderNotFoundError はリマインダー未検出エラーを生成する。
func NewReminderNotFoundError(reminderID string) *APIError {
	return &APIError{
		Code:     ErrCodeReminderNotFound,
		Message:  fmt.Sprintf("指定されたリマインダーが見つかりません: %s", reminderID),
		Category: "scheduling",
		Action:   "リマインダーIDを確認してください。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "scheduling",
		Action:   "タスクIDを確認してください。",
	}
}

// NewInvalidChannelError は無効な通知チャネルエラーを生成する。
func NewInvalidChannelError(channel string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidChannel,
		Message:  fmt.Sprintf("無効な通知チャネルです: %s", channel),
		Category: "validation",
		Action:   "チャネルには push、email のいずれかを指定してください。",
	}
}

// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/voclio/voclio/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// ReminderRepository はリマインダーデータの永続化インターフェース。
type ReminderRepository interface {
	// FindByID は指定IDのリマインダーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Reminder, error)

	// Create はリマインダーを作成する。
	Create(ctx context.Context, reminder *model.Reminder) error

	// ListDue は送信対象のリマインダーを取得する。
	// remind_at <= now かつ status = 'pending' かつ dismissed = false の
	// リマインダーをremind_at昇順（古いものから）でlimit件まで、
	// FOR UPDATE SKIP LOCKEDで排他的に取得する。選択は読み取り専用で、
	// ライフサイクル状態は変更しない。
	ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error)

	// UpdateStatus はリマインダーのライフサイクル状態を更新する。
	// sentAtがnilでない場合はsent_atも同時に記録する。
	UpdateStatus(ctx context.Context, id string, status model.ReminderStatus, sentAt *time.Time) error
}

// TaskRepository はタスクデータの永続化インターフェース。
// スケジューラからは読み取り専用で使用される。
type TaskRepository interface {
	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// ListDueWithin は期限が[now, now+horizon)に入るタスクを取得する。
	// 完了/キャンセル済みのタスクは対象外。
	ListDueWithin(ctx context.Context, now time.Time, horizon time.Duration) ([]*model.Task, error)

	// ListOverdue は期限をnowより前に超過したタスクを取得する。
	// 完了/キャンセル済みのタスクは対象外。
	ListOverdue(ctx context.Context, now time.Time) ([]*model.Task, error)
}

// NotificationRepository はアプリ内通知の永続化インターフェース。
type NotificationRepository interface {
	// Create は通知レコードを作成する。
	Create(ctx context.Context, notification *model.Notification) error

	// CountUnreadByUserID はユーザーの未読通知数を返す。
	CountUnreadByUserID(ctx context.Context, userID string) (int, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。冪等。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// OTPRepository はワンタイムコードの永続化インターフェース。
type OTPRepository interface {
	// Create はワンタイムコードを作成する。
	Create(ctx context.Context, code *model.OTPCode) error
	// DeleteExpired は期限切れコードを削除し、削除件数を返す。冪等。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

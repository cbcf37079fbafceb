// Package model はドメインモデルを定義する。
package model

import "time"

// Reminder はユーザーが設定したリマインダーを表す。
// タスクに紐付く場合はTaskIDが設定され、通知文面の生成に使用される。
type Reminder struct {
	ID        string
	UserID    string
	TaskID    string // 紐付くタスクがない場合は空文字
	RemindAt  time.Time
	Kind      ReminderKind
	Channels  []Channel
	Status    ReminderStatus
	Dismissed bool
	SentAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReminderKind はリマインダーの種別を表す。
// 現状はワンタイムのみをサポートする。
type ReminderKind string

const (
	// ReminderKindOneTime は一度だけ発火するリマインダー。
	ReminderKindOneTime ReminderKind = "one_time"
)

// ReminderStatus はリマインダーのライフサイクル状態を表す。
//
// 状態遷移: pending → sent | failed | dismissed。
// pending以外に遷移したリマインダーが自動的に再発火することはない。
type ReminderStatus string

const (
	// ReminderStatusPending は未送信の状態。スイープの選択対象。
	ReminderStatusPending ReminderStatus = "pending"
	// ReminderStatusSent はディスパッチ完了後の状態。
	// チャネルの一部（メール等）が失敗していてもsentになる。
	ReminderStatusSent ReminderStatus = "sent"
	// ReminderStatusFailed はディスパッチ前のハード障害で送信できなかった状態。
	ReminderStatusFailed ReminderStatus = "failed"
	// ReminderStatusDismissed はユーザー操作で却下された状態。
	ReminderStatusDismissed ReminderStatus = "dismissed"
)

// Channel は通知の配信チャネルを表す。
type Channel string

const (
	// ChannelPush はアプリ内通知（Notificationレコードの作成）。
	ChannelPush Channel = "push"
	// ChannelEmail はメール配信。
	ChannelEmail Channel = "email"
)

// HasChannel は指定チャネルがリマインダーに設定されているかを返す。
func (r *Reminder) HasChannel(c Channel) bool {
	for _, ch := range r.Channels {
		if ch == c {
			return true
		}
	}
	return false
}

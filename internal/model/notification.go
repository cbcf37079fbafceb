package model

import "time"

// Notification はユーザーへのアプリ内通知を表す。
// 発火イベント1件につき1レコード作成される（チャネルごとではない）。
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Category  NotificationCategory
	Priority  NotificationPriority
	IsRead    bool
	ReadAt    *time.Time
	RelatedID string // 関連エンティティ（タスク、リマインダー等）のID。ない場合は空文字
	CreatedAt time.Time
}

// NotificationCategory は通知の分類を表す。
type NotificationCategory string

const (
	// CategoryTask はタスク関連の通知。
	CategoryTask NotificationCategory = "task"
	// CategoryReminder はリマインダー発火の通知。
	CategoryReminder NotificationCategory = "reminder"
	// CategoryAchievement は実績獲得の通知。
	CategoryAchievement NotificationCategory = "achievement"
	// CategorySystem はシステム通知。
	CategorySystem NotificationCategory = "system"
	// CategoryGeneral はその他の通知。
	CategoryGeneral NotificationCategory = "general"
)

// NotificationPriority は通知の優先度を表す。
type NotificationPriority string

const (
	// PriorityLow は低優先度。
	PriorityLow NotificationPriority = "low"
	// PriorityNormal は通常優先度。
	PriorityNormal NotificationPriority = "normal"
	// PriorityHigh は高優先度。
	PriorityHigh NotificationPriority = "high"
	// PriorityUrgent は緊急。
	PriorityUrgent NotificationPriority = "urgent"
)

// Package notify は通知レコードの文面組み立てを提供する。
// リマインダー発火とタスク期限イベントからアプリ内通知を生成する。
package notify

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/voclio/voclio/internal/model"
)

// ReminderTriggered はリマインダー発火時のアプリ内通知を組み立てる。
// タスクに紐付く場合はタスクタイトルを文面に含める（読み取り専用の結合）。
func ReminderTriggered(reminder *model.Reminder, task *model.Task, now time.Time) *model.Notification {
	message := "You have a reminder"
	if task != nil {
		message = fmt.Sprintf("Reminder for task: %s", task.Title)
	}

	return &model.Notification{
		ID:        uuid.New().String(),
		UserID:    reminder.UserID,
		Title:     "🔔 Reminder",
		Message:   message,
		Category:  model.CategoryReminder,
		Priority:  model.PriorityHigh,
		RelatedID: reminder.ID,
		CreatedAt: now,
	}
}

// TaskDueSoon は期限が近いタスクの通知を組み立てる。
// hoursLeftは期限までの残り時間（四捨五入した時間数）。
func TaskDueSoon(task *model.Task, hoursLeft int, now time.Time) *model.Notification {
	return &model.Notification{
		ID:        uuid.New().String(),
		UserID:    task.UserID,
		Title:     "⏰ Task due soon",
		Message:   fmt.Sprintf("Task %q is due in %d hours", task.Title, hoursLeft),
		Category:  model.CategoryTask,
		Priority:  model.PriorityHigh,
		RelatedID: task.ID,
		CreatedAt: now,
	}
}

// TaskOverdue は期限を超過したタスクの通知を組み立てる。
func TaskOverdue(task *model.Task, now time.Time) *model.Notification {
	return &model.Notification{
		ID:        uuid.New().String(),
		UserID:    task.UserID,
		Title:     "⚠️ Task overdue",
		Message:   fmt.Sprintf("Task %q is past its due date", task.Title),
		Category:  model.CategoryTask,
		Priority:  model.PriorityUrgent,
		RelatedID: task.ID,
		CreatedAt: now,
	}
}

// HoursUntil は期限までの残り時間を四捨五入した時間数で返す。
func HoursUntil(dueAt, now time.Time) int {
	return int(math.Round(dueAt.Sub(now).Hours()))
}

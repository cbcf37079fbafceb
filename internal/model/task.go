package model

import "time"

// Task はユーザーのタスクを表す。
// スケジューラはDueAtとStatusを読み取るのみで、タスク自体は変更しない。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	DueAt       *time.Time
	Status      TaskStatus
	Priority    TaskPriority
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskStatus はタスクの進行状態を表す。
type TaskStatus string

const (
	// TaskStatusPending は未着手の状態。
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress は進行中の状態。
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted は完了した状態。期限評価の対象外。
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusCancelled はキャンセルされた状態。期限評価の対象外。
	TaskStatusCancelled TaskStatus = "cancelled"
)

// TaskPriority はタスクの優先度を表す。
type TaskPriority string

const (
	// TaskPriorityLow は低優先度。
	TaskPriorityLow TaskPriority = "low"
	// TaskPriorityMedium は中優先度。
	TaskPriorityMedium TaskPriority = "medium"
	// TaskPriorityHigh は高優先度。
	TaskPriorityHigh TaskPriority = "high"
	// TaskPriorityUrgent は緊急。
	TaskPriorityUrgent TaskPriority = "urgent"
)

// DeadlineEligible はタスクが期限評価の対象かどうかを返す。
// 期限が設定されており、かつ完了/キャンセル以外の状態のタスクのみが対象。
func (t *Task) DeadlineEligible() bool {
	if t.DueAt == nil {
		return false
	}
	return t.Status != TaskStatusCompleted && t.Status != TaskStatusCancelled
}

package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/voclio/voclio/internal/model"
)

// TestReminderTriggered_WithTask はタスク紐付きリマインダーの文面を検証する。
func TestReminderTriggered_WithTask(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	reminder := &model.Reminder{ID: "rem-1", UserID: "user-1"}
	task := &model.Task{ID: "task-1", Title: "買い物リストを作る"}

	n := ReminderTriggered(reminder, task, now)

	if n.UserID != "user-1" {
		t.Errorf("UserID = %s, want user-1", n.UserID)
	}
	if n.Category != model.CategoryReminder {
		t.Errorf("Category = %s, want reminder", n.Category)
	}
	if n.Priority != model.PriorityHigh {
		t.Errorf("Priority = %s, want high", n.Priority)
	}
	if n.RelatedID != "rem-1" {
		t.Errorf("RelatedID = %s, want rem-1", n.RelatedID)
	}
	if !strings.Contains(n.Message, task.Title) {
		t.Errorf("Message %q should contain task title", n.Message)
	}
	if n.ID == "" {
		t.Error("ID should be generated")
	}
	if !n.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", n.CreatedAt, now)
	}
}

// TestReminderTriggered_WithoutTask はタスクなしリマインダーの汎用文面を検証する。
func TestReminderTriggered_WithoutTask(t *testing.T) {
	now := time.Now()
	reminder := &model.Reminder{ID: "rem-2", UserID: "user-1"}

	n := ReminderTriggered(reminder, nil, now)

	if n.Message != "You have a reminder" {
		t.Errorf("Message = %q, want generic reminder text", n.Message)
	}
}

// TestTaskDueSoon_MessageContainsHours は残り時間が文面に含まれることを検証する。
func TestTaskDueSoon_MessageContainsHours(t *testing.T) {
	now := time.Now()
	task := &model.Task{ID: "task-1", UserID: "user-1", Title: "レポート提出"}

	n := TaskDueSoon(task, 2, now)

	if !strings.Contains(n.Message, "2") {
		t.Errorf("Message %q should reference 2 hours", n.Message)
	}
	if n.Category != model.CategoryTask {
		t.Errorf("Category = %s, want task", n.Category)
	}
	if n.Priority != model.PriorityHigh {
		t.Errorf("Priority = %s, want high", n.Priority)
	}
	if n.RelatedID != "task-1" {
		t.Errorf("RelatedID = %s, want task-1", n.RelatedID)
	}
}

// TestTaskOverdue_UrgentPriority は超過タスク通知がurgentであることを検証する。
func TestTaskOverdue_UrgentPriority(t *testing.T) {
	task := &model.Task{ID: "task-1", UserID: "user-1", Title: "請求書の支払い"}

	n := TaskOverdue(task, time.Now())

	if n.Priority != model.PriorityUrgent {
		t.Errorf("Priority = %s, want urgent", n.Priority)
	}
	if n.Category != model.CategoryTask {
		t.Errorf("Category = %s, want task", n.Category)
	}
}

// TestHoursUntil_Rounding は残り時間の四捨五入を検証する。
func TestHoursUntil_Rounding(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		dueAt time.Time
		want  int
	}{
		{"ちょうど2時間後", now.Add(2 * time.Hour), 2},
		{"1時間29分後は1時間に丸める", now.Add(89 * time.Minute), 1},
		{"1時間31分後は2時間に丸める", now.Add(91 * time.Minute), 2},
		{"30分後は1時間に丸める", now.Add(30 * time.Minute), 1},
		{"期限ちょうど", now, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HoursUntil(tt.dueAt, now); got != tt.want {
				t.Errorf("HoursUntil = %d, want %d", got, tt.want)
			}
		})
	}
}

// Package taskdue はタスク期限の定期スイープ処理を提供する。
// 期限が近いタスクと期限超過タスクを検出し、アプリ内通知を作成する。
package taskdue

import (
	"context"
	"log/slog"
	"time"

	"github.com/voclio/voclio/internal/metrics"
	"github.com/voclio/voclio/internal/model"
	"github.com/voclio/voclio/internal/notify"
	"github.com/voclio/voclio/internal/repository"
)

// Sweeper はタスク期限の1サイクル分の評価を行う。
//
// 期限が[now, now+horizon)に入るタスクには残り時間付きの高優先度通知、
// 期限をnowより前に超過したタスクにはurgent通知を作成する。
// タスク自体のライフサイクルは変更しない（読み取り専用）。
//
// 超過タスクは超過している限り毎サイクル再通知される。重複抑止は
// 意図的に行っていない。
type Sweeper struct {
	taskRepo  repository.TaskRepository
	notifRepo repository.NotificationRepository
	logger    *slog.Logger
	metrics   metrics.Recorder
	horizon   time.Duration
}

// NewSweeper はSweeperの新しいインスタンスを生成する。
// horizonが0以下の場合はデフォルト値24時間を使用する。
func NewSweeper(
	taskRepo repository.TaskRepository,
	notifRepo repository.NotificationRepository,
	logger *slog.Logger,
	recorder metrics.Recorder,
	horizon time.Duration,
) *Sweeper {
	if horizon <= 0 {
		horizon = 24 * time.Hour
	}
	return &Sweeper{
		taskRepo:  taskRepo,
		notifRepo: notifRepo,
		logger:    logger,
		metrics:   recorder,
		horizon:   horizon,
	}
}

// RunOnce は期限が近いタスクと超過タスクを1回評価し、通知を作成する。
// 片方の選択クエリが失敗しても、もう片方の評価は続行される。
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) error {
	start := time.Now()

	var dueSoonCount, overdueCount int

	dueSoon, err := s.taskRepo.ListDueWithin(ctx, now, s.horizon)
	if err != nil {
		s.logger.Error("期限間近タスクの取得に失敗しました",
			slog.String("error", err.Error()),
		)
	} else {
		for _, task := range dueSoon {
			if s.notifyDueSoon(ctx, task, now) {
				dueSoonCount++
			}
		}
	}

	overdue, err := s.taskRepo.ListOverdue(ctx, now)
	if err != nil {
		s.logger.Error("期限超過タスクの取得に失敗しました",
			slog.String("error", err.Error()),
		)
	} else {
		for _, task := range overdue {
			if s.notifyOverdue(ctx, task, now) {
				overdueCount++
			}
		}
	}

	if dueSoonCount > 0 || overdueCount > 0 {
		duration := time.Since(start)
		s.logger.Info("タスク期限スイープが完了しました",
			slog.Int("due_soon_count", dueSoonCount),
			slog.Int("overdue_count", overdueCount),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
	}

	return nil
}

// notifyDueSoon は期限間近タスクの通知を作成する。作成できた場合はtrueを返す。
func (s *Sweeper) notifyDueSoon(ctx context.Context, task *model.Task, now time.Time) bool {
	if task.DueAt == nil {
		return false
	}

	hoursLeft := notify.HoursUntil(*task.DueAt, now)
	n := notify.TaskDueSoon(task, hoursLeft, now)

	if err := s.notifRepo.Create(ctx, n); err != nil {
		s.logger.Error("期限間近通知の作成に失敗しました",
			slog.String("task_id", task.ID),
			slog.String("user_id", task.UserID),
			slog.String("error", err.Error()),
		)
		return false
	}

	s.metrics.RecordNotificationCreated(string(model.CategoryTask))
	return true
}

// notifyOverdue は期限超過タスクの通知を作成する。作成できた場合はtrueを返す。
func (s *Sweeper) notifyOverdue(ctx context.Context, task *model.Task, now time.Time) bool {
	n := notify.TaskOverdue(task, now)

	if err := s.notifRepo.Create(ctx, n); err != nil {
		s.logger.Error("期限超過通知の作成に失敗しました",
			slog.String("task_id", task.ID),
			slog.String("user_id", task.UserID),
			slog.String("error", err.Error()),
		)
		return false
	}

	s.metrics.RecordNotificationCreated(string(model.CategoryTask))
	return true
}

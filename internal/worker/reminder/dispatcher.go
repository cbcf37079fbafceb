// Package reminder はリマインダーの定期スイープとディスパッチ処理を提供する。
// 発火対象リマインダーの選択、チャネル別の通知配信、
// ライフサイクル状態の更新を行う。
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voclio/voclio/internal/mailer"
	"github.com/voclio/voclio/internal/metrics"
	"github.com/voclio/voclio/internal/model"
	"github.com/voclio/voclio/internal/notify"
	"github.com/voclio/voclio/internal/repository"
)

// Dispatcher は1件のリマインダーをチャネル別に配信する。
//
// チャネルは互いに独立して処理される: メール送信の失敗はアプリ内通知の
// 作成を妨げず、その逆も同様。チャネル単位の失敗はログに記録されるが
// エラーとして返されない。Dispatchがエラーを返すのはハード障害
// （ユーザーの解決失敗など、配信処理に到達できない場合）のみ。
type Dispatcher struct {
	userRepo  repository.UserRepository
	taskRepo  repository.TaskRepository
	notifRepo repository.NotificationRepository
	sender    mailer.Sender
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// NewDispatcher はDispatcherの新しいインスタンスを生成する。
func NewDispatcher(
	userRepo repository.UserRepository,
	taskRepo repository.TaskRepository,
	notifRepo repository.NotificationRepository,
	sender mailer.Sender,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *Dispatcher {
	return &Dispatcher{
		userRepo:  userRepo,
		taskRepo:  taskRepo,
		notifRepo: notifRepo,
		sender:    sender,
		logger:    logger,
		metrics:   recorder,
	}
}

// Dispatch はリマインダーを設定された全チャネルに配信する。
// 戻り値のエラーはハード障害を意味し、呼び出し側はリマインダーを
// failedに遷移させる。チャネル単位の失敗ではnilを返す。
func (d *Dispatcher) Dispatch(ctx context.Context, r *model.Reminder, now time.Time) error {
	// 通知先ユーザーの解決。失敗はハード障害として扱う。
	user, err := d.userRepo.FindByID(ctx, r.UserID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError(r.UserID)
	}

	// 紐付くタスクの解決（表示文面用の読み取り専用結合）。
	// タスクが削除済みの場合はnilのまま汎用文面で配信を続行する。
	var task *model.Task
	if r.TaskID != "" {
		task, err = d.taskRepo.FindByID(ctx, r.TaskID)
		if err != nil {
			return fmt.Errorf("タスクの取得に失敗: %w", err)
		}
	}

	if r.HasChannel(model.ChannelEmail) {
		d.dispatchEmail(ctx, r, user, task)
	}

	if r.HasChannel(model.ChannelPush) {
		d.dispatchPush(ctx, r, task, now)
	}

	return nil
}

// dispatchEmail はメールチャネルへの配信を試行する。
// 失敗はログとメトリクスに記録されるが、他チャネルの処理を妨げない。
func (d *Dispatcher) dispatchEmail(ctx context.Context, r *model.Reminder, user *model.User, task *model.Task) {
	title := "Reminder"
	message := "You have a reminder"
	if task != nil {
		title = task.Title
		if task.Description != "" {
			message = task.Description
		}
	}

	subject, body := mailer.ReminderEmail(title, message, r.RemindAt)
	if err := d.sender.Send(ctx, user.Email, subject, body); err != nil {
		d.logger.Error("リマインダーメールの送信に失敗しました",
			slog.String("reminder_id", r.ID),
			slog.String("user_id", r.UserID),
			slog.String("error", err.Error()),
		)
		d.metrics.RecordChannelFailure(string(model.ChannelEmail))
		return
	}

	d.metrics.RecordEmailSent()
}

// dispatchPush はアプリ内通知レコードを作成する。
// 失敗はログとメトリクスに記録されるが、リマインダー全体を失敗にしない。
func (d *Dispatcher) dispatchPush(ctx context.Context, r *model.Reminder, task *model.Task, now time.Time) {
	n := notify.ReminderTriggered(r, task, now)
	if err := d.notifRepo.Create(ctx, n); err != nil {
		d.logger.Error("アプリ内通知の作成に失敗しました",
			slog.String("reminder_id", r.ID),
			slog.String("user_id", r.UserID),
			slog.String("error", err.Error()),
		)
		d.metrics.RecordChannelFailure(string(model.ChannelPush))
		return
	}

	d.metrics.RecordNotificationCreated(string(model.CategoryReminder))
}

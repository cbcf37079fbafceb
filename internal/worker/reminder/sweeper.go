package reminder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voclio/voclio/internal/metrics"
	"github.com/voclio/voclio/internal/model"
	"github.com/voclio/voclio/internal/repository"
)

// DispatchService はリマインダー配信の実行インターフェース。
type DispatchService interface {
	// Dispatch はリマインダーを全チャネルに配信する。
	// エラーはハード障害を意味する。
	Dispatch(ctx context.Context, r *model.Reminder, now time.Time) error
}

// Sweeper は発火対象リマインダーの1サイクル分の処理を行う。
// 選択されたリマインダーをsemaphoreパターンで並列配信し、
// 配信結果に応じてライフサイクル状態を更新する。
//
// 1リマインダーにつき状態遷移は1回のみ: 配信完了でsent（チャネルの一部が
// 失敗していても)、ハード障害でfailed。failedに遷移したリマインダーが
// 次のサイクルで自動的に再試行されることはない。
type Sweeper struct {
	reminderRepo   repository.ReminderRepository
	dispatcher     DispatchService
	logger         *slog.Logger
	metrics        metrics.Recorder
	batchLimit     int
	maxConcurrency int
}

// NewSweeper はSweeperの新しいインスタンスを生成する。
// batchLimitが0以下の場合はデフォルト値50、
// maxConcurrencyが0以下の場合はデフォルト値5を使用する。
func NewSweeper(
	reminderRepo repository.ReminderRepository,
	dispatcher DispatchService,
	logger *slog.Logger,
	recorder metrics.Recorder,
	batchLimit int,
	maxConcurrency int,
) *Sweeper {
	if batchLimit <= 0 {
		batchLimit = 50
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	return &Sweeper{
		reminderRepo:   reminderRepo,
		dispatcher:     dispatcher,
		logger:         logger,
		metrics:        recorder,
		batchLimit:     batchLimit,
		maxConcurrency: maxConcurrency,
	}
}

// RunOnce は発火対象リマインダーを1回取得し、並列で配信を実行する。
// 選択はbatchLimit件までに制限され、古いものから順に処理される。
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) error {
	start := time.Now()

	reminders, err := s.reminderRepo.ListDue(ctx, now, s.batchLimit)
	if err != nil {
		return err
	}

	if len(reminders) == 0 {
		return nil
	}

	s.logger.Info("リマインダースイープを開始します",
		slog.Int("reminder_count", len(reminders)),
	)

	var sentCount, failedCount atomic.Int64

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, reminder := range reminders {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(r *model.Reminder) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			if s.process(ctx, r, now) {
				sentCount.Add(1)
			} else {
				failedCount.Add(1)
			}
		}(reminder)
	}

	wg.Wait()

	duration := time.Since(start)
	s.logger.Info("リマインダースイープが完了しました",
		slog.Int("reminder_count", len(reminders)),
		slog.Int64("sent_count", sentCount.Load()),
		slog.Int64("failed_count", failedCount.Load()),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// process は1件のリマインダーを配信し、状態を遷移させる。
// sentに遷移した場合はtrueを返す。
func (s *Sweeper) process(ctx context.Context, r *model.Reminder, now time.Time) bool {
	if err := s.dispatcher.Dispatch(ctx, r, now); err != nil {
		s.logger.Error("リマインダーのディスパッチに失敗しました",
			slog.String("reminder_id", r.ID),
			slog.String("user_id", r.UserID),
			slog.String("error", err.Error()),
		)
		if updateErr := s.reminderRepo.UpdateStatus(ctx, r.ID, model.ReminderStatusFailed, nil); updateErr != nil {
			s.logger.Error("リマインダー状態の更新に失敗しました",
				slog.String("reminder_id", r.ID),
				slog.String("error", updateErr.Error()),
			)
		}
		s.metrics.RecordReminderFailed()
		return false
	}

	sentAt := now
	if err := s.reminderRepo.UpdateStatus(ctx, r.ID, model.ReminderStatusSent, &sentAt); err != nil {
		s.logger.Error("リマインダー状態の更新に失敗しました",
			slog.String("reminder_id", r.ID),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordReminderFailed()
		return false
	}

	s.logger.Info("リマインダーを送信しました",
		slog.String("reminder_id", r.ID),
		slog.String("user_id", r.UserID),
	)
	s.metrics.RecordReminderSent()
	return true
}

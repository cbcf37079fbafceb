// Package cleanup は期限切れエフェメラルレコードの自動削除ジョブを提供する。
// ワンタイムコードは毎時、期限切れセッションは日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voclio/voclio/internal/metrics"
)

// ExpiredDeleter は期限切れレコードの削除処理を抽象化するインターフェース。
// OTPRepositoryとSessionRepositoryのDeleteExpiredを受け付けることができる。
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Job は期限切れレコードの自動削除ジョブ。
// 削除述語は冪等であり、失敗したサイクルは次の定期実行で自然に再試行される。
type Job struct {
	deleter ExpiredDeleter
	target  string // 削除対象の名前（ログ・メトリクス用）
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewJob は新しいJobを生成する。
// targetには削除対象のテーブル名（otp_codes, sessions等）を指定する。
func NewJob(deleter ExpiredDeleter, target string, logger *slog.Logger, recorder metrics.Recorder) *Job {
	return &Job{
		deleter: deleter,
		target:  target,
		logger:  logger,
		metrics: recorder,
	}
}

// Run は期限切れレコードを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *Job) Run(ctx context.Context, now time.Time) error {
	start := time.Now()

	deletedCount, err := j.deleter.DeleteExpired(ctx, now)
	if err != nil {
		j.logger.Error("クリーンアップジョブの実行に失敗しました",
			slog.String("target", j.target),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("クリーンアップの実行に失敗 (%s): %w", j.target, err)
	}

	j.metrics.RecordCleanupDeleted(j.target, deletedCount)

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.String("target", j.target),
		slog.Int64("deleted_count", deletedCount),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

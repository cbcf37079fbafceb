// Package scheduler は定期ジョブのオーケストレーションを提供する。
// ジョブごとに独立したティッカーを持ち、同一ジョブの重複実行を防ぎながら
// 異なるジョブ同士は並行に実行する。
package scheduler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voclio/voclio/internal/metrics"
)

// Clock は現在時刻の取得を抽象化するインターフェース。
// テストでは固定時刻を返す実装に差し替える。
type Clock interface {
	Now() time.Time
}

// SystemClock は実時刻を返すClockの実装。
type SystemClock struct{}

// Now は現在時刻を返す。
func (SystemClock) Now() time.Time { return time.Now() }

// JobFunc は1サイクル分のジョブ処理。nowにはサイクル開始時点の時刻が渡される。
type JobFunc func(ctx context.Context, now time.Time) error

// job は登録された定期ジョブの実行状態を保持する。
type job struct {
	name     string
	interval time.Duration
	fn       JobFunc
	running  atomic.Bool
}

// Scheduler は複数の定期ジョブのライフサイクルを管理する。
//
// ティッカーはジョブの完了を待たずにスケジュール通りに発火する。
// 前回の実行が継続中のジョブはそのティックをスキップする
// （キューイングはしない）。ジョブ内のエラーとpanicはログに記録され、
// 次のティックの発火を妨げない。
type Scheduler struct {
	clock       Clock
	logger      *slog.Logger
	metrics     metrics.Recorder
	stopTimeout time.Duration

	jobs []*job

	started    atomic.Bool
	loopCancel context.CancelFunc
	runCancel  context.CancelFunc
	wg         sync.WaitGroup
}

// New はSchedulerの新しいインスタンスを生成する。
// stopTimeoutはStop時に実行中ジョブの完了を待つ上限時間。
// 0以下の場合はデフォルト値30秒を使用する。
func New(clock Clock, logger *slog.Logger, recorder metrics.Recorder, stopTimeout time.Duration) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if stopTimeout <= 0 {
		stopTimeout = 30 * time.Second
	}
	return &Scheduler{
		clock:       clock,
		logger:      logger,
		metrics:     recorder,
		stopTimeout: stopTimeout,
	}
}

// Register は定期ジョブを登録する。Start後の登録は無効。
func (s *Scheduler) Register(name string, interval time.Duration, fn JobFunc) {
	s.jobs = append(s.jobs, &job{
		name:     name,
		interval: interval,
		fn:       fn,
	})
}

// Start は登録された全ジョブのティッカーを起動する。
// 各ジョブは起動直後に1回実行され、以降は各自の間隔で実行される。
// すでに起動済みの場合は何もしない（冪等）。
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		s.logger.Warn("スケジューラはすでに起動しています")
		return
	}

	// ループ用とジョブ実行用でコンテキストを分離する。
	// Stopはまずループを止めて新しいバッチの開始を防ぎ、
	// 実行中のジョブはstopTimeoutまで完了を待ってから打ち切る。
	loopCtx, loopCancel := context.WithCancel(ctx)
	runCtx, runCancel := context.WithCancel(context.WithoutCancel(ctx))
	s.loopCancel = loopCancel
	s.runCancel = runCancel

	s.logger.Info("スケジューラを開始しました",
		slog.Int("job_count", len(s.jobs)),
	)

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(loopCtx, runCtx, j)
	}
}

// runLoop は1ジョブ分のティッカーループ。起動直後に1回実行する。
func (s *Scheduler) runLoop(loopCtx, runCtx context.Context, j *job) {
	defer s.wg.Done()

	s.logger.Info("定期ジョブを開始しました",
		slog.String("job", j.name),
		slog.Duration("interval", j.interval),
	)

	s.dispatch(runCtx, j)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-loopCtx.Done():
			s.logger.Info("定期ジョブを停止しました",
				slog.String("job", j.name),
			)
			return
		case <-ticker.C:
			s.dispatch(runCtx, j)
		}
	}
}

// dispatch はジョブの1サイクルを起動する。
// 前回のサイクルが実行中の場合はこのティックをスキップする。
func (s *Scheduler) dispatch(runCtx context.Context, j *job) {
	if !j.running.CompareAndSwap(false, true) {
		s.logger.Warn("前回の実行が継続中のためティックをスキップします",
			slog.String("job", j.name),
		)
		s.metrics.RecordSweepSkipped(j.name)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer j.running.Store(false)
		s.runJob(runCtx, j)
	}()
}

// runJob はジョブの1サイクルを実行する。panicはここで回収され、
// 次のティックの発火を妨げない。
func (s *Scheduler) runJob(ctx context.Context, j *job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("定期ジョブでpanicが発生しました",
				slog.String("job", j.name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	start := time.Now()
	if err := j.fn(ctx, s.clock.Now()); err != nil {
		s.logger.Error("定期ジョブの実行に失敗しました",
			slog.String("job", j.name),
			slog.String("error", err.Error()),
		)
	}
	s.metrics.RecordSweepDuration(j.name, time.Since(start))
}

// Stop は全ティッカーを停止し、実行中のジョブの完了を待つ。
// stopTimeoutを超えても完了しない場合はジョブのコンテキストを
// キャンセルして打ち切る。未起動または停止済みの場合は何もしない。
func (s *Scheduler) Stop() {
	if !s.started.CompareAndSwap(true, false) {
		return
	}

	s.logger.Info("スケジューラを停止しています")
	s.loopCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("スケジューラが正常に停止しました")
	case <-time.After(s.stopTimeout):
		s.logger.Warn("停止タイムアウトにより実行中のジョブを打ち切ります",
			slog.Duration("stop_timeout", s.stopTimeout),
		)
		s.runCancel()
		<-done
	}
	s.runCancel()
}

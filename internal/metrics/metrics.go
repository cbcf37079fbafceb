// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス収集のインターフェース。
// スイープワーカーやディスパッチャから利用する。
type Recorder interface {
	RecordReminderSent()
	RecordReminderFailed()
	RecordChannelFailure(channel string)
	RecordNotificationCreated(category string)
	RecordEmailSent()
	RecordCleanupDeleted(target string, count int64)
	RecordSweepDuration(job string, duration time.Duration)
	RecordSweepSkipped(job string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	reminderSent        prometheus.Counter
	reminderFailed      prometheus.Counter
	channelFailures     *prometheus.CounterVec
	notificationCreated *prometheus.CounterVec
	emailSent           prometheus.Counter
	cleanupDeleted      *prometheus.CounterVec
	sweepDuration       *prometheus.HistogramVec
	sweepSkipped        *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		reminderSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voclio_reminder_sent_total",
			Help: "sentに遷移したリマインダーの合計数",
		}),
		reminderFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voclio_reminder_failed_total",
			Help: "failedに遷移したリマインダーの合計数",
		}),
		channelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voclio_channel_failure_total",
			Help: "チャネル別の配信失敗数",
		}, []string{"channel"}),
		notificationCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voclio_notification_created_total",
			Help: "カテゴリ別のアプリ内通知作成数",
		}, []string{"category"}),
		emailSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voclio_email_sent_total",
			Help: "送信に成功したメールの合計数",
		}),
		cleanupDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voclio_cleanup_deleted_total",
			Help: "クリーンアップ対象別の削除行数",
		}, []string{"target"}),
		sweepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voclio_sweep_duration_seconds",
			Help:    "ジョブ別のスイープ処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		sweepSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voclio_sweep_skipped_total",
			Help: "前回実行中のためスキップされたティックの数",
		}, []string{"job"}),
	}

	reg.MustRegister(
		c.reminderSent,
		c.reminderFailed,
		c.channelFailures,
		c.notificationCreated,
		c.emailSent,
		c.cleanupDeleted,
		c.sweepDuration,
		c.sweepSkipped,
	)

	return c
}

// RecordReminderSent はリマインダーのsent遷移を記録する。
func (c *Collector) RecordReminderSent() {
	c.reminderSent.Inc()
}

// RecordReminderFailed はリマインダーのfailed遷移を記録する。
func (c *Collector) RecordReminderFailed() {
	c.reminderFailed.Inc()
}

// RecordChannelFailure はチャネル別の配信失敗を記録する。
func (c *Collector) RecordChannelFailure(channel string) {
	c.channelFailures.WithLabelValues(channel).Inc()
}

// RecordNotificationCreated はアプリ内通知の作成を記録する。
func (c *Collector) RecordNotificationCreated(category string) {
	c.notificationCreated.WithLabelValues(category).Inc()
}

// RecordEmailSent はメール送信成功を記録する。
func (c *Collector) RecordEmailSent() {
	c.emailSent.Inc()
}

// RecordCleanupDeleted はクリーンアップで削除された行数を記録する。
func (c *Collector) RecordCleanupDeleted(target string, count int64) {
	c.cleanupDeleted.WithLabelValues(target).Add(float64(count))
}

// RecordSweepDuration はスイープの処理時間を記録する。
func (c *Collector) RecordSweepDuration(job string, duration time.Duration) {
	c.sweepDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordSweepSkipped はオーバーラップ防止によるティックのスキップを記録する。
func (c *Collector) RecordSweepSkipped(job string) {
	c.sweepSkipped.WithLabelValues(job).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ Recorder = (*Collector)(nil)

// Nop は何も記録しないRecorder。テストおよびメトリクス無効時に使用する。
type Nop struct{}

func (Nop) RecordReminderSent()                                 {}
func (Nop) RecordReminderFailed()                               {}
func (Nop) RecordChannelFailure(channel string)                 {}
func (Nop) RecordNotificationCreated(category string)           {}
func (Nop) RecordEmailSent()                                    {}
func (Nop) RecordCleanupDeleted(target string, count int64)     {}
func (Nop) RecordSweepDuration(job string, d time.Duration)     {}
func (Nop) RecordSweepSkipped(job string)                       {}

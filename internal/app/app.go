// Package app はアプリケーションの初期化と起動モードの振り分けを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/voclio/voclio/internal/config"
	"github.com/voclio/voclio/internal/database"
	"github.com/voclio/voclio/internal/handoff"
	"github.com/voclio/voclio/internal/logger"
	"github.com/voclio/voclio/internal/mailer"
	"github.com/voclio/voclio/internal/metrics"
	"github.com/voclio/voclio/internal/ops"
	"github.com/voclio/voclio/internal/repository"
	"github.com/voclio/voclio/internal/scheduler"
	"github.com/voclio/voclio/internal/worker/cleanup"
	reminderpkg "github.com/voclio/voclio/internal/worker/reminder"
	"github.com/voclio/voclio/internal/worker/taskdue"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("OPS_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("ops_port", cfg.OpsPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runWorker(cfg)
	}
}

// runWorker はスケジューラワーカーモードで起動する。
// DB接続を開き、リマインダー/タスク期限/クリーンアップの各定期ジョブと
// 運用HTTPサーバーを起動する。SIGINTまたはSIGTERMシグナルを受信すると
// グレースフルシャットダウンを行う。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	reminderRepo := repository.NewPostgresReminderRepo(db)
	taskRepo := repository.NewPostgresTaskRepo(db)
	notifRepo := repository.NewPostgresNotificationRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	otpRepo := repository.NewPostgresOTPRepo(db)

	// 4. メール送信の初期化（SES + レート制御）
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	sender := mailer.NewRateLimitedSender(
		mailer.NewSESSender(awsCfg, cfg.EmailFrom),
		cfg.EmailRatePerSec,
	)

	// 5. スイープ処理の初期化
	dispatcher := reminderpkg.NewDispatcher(
		userRepo, taskRepo, notifRepo, sender, slog.Default(), collector,
	)
	reminderSweeper := reminderpkg.NewSweeper(
		reminderRepo, dispatcher, slog.Default(), collector,
		cfg.ReminderBatchLimit, cfg.ReminderMaxConcurrent,
	)
	taskSweeper := taskdue.NewSweeper(
		taskRepo, notifRepo, slog.Default(), collector, cfg.TaskDueSoonHorizon,
	)

	// 6. クリーンアップジョブの初期化
	otpCleanup := cleanup.NewJob(otpRepo, "otp_codes", slog.Default(), collector)
	sessionCleanup := cleanup.NewJob(sessionRepo, "sessions", slog.Default(), collector)

	// 7. OAuthハンドオフストアとそのパージジョブ
	handoffStore := handoff.NewStore(cfg.HandoffTTL)
	handoffCleanup := cleanup.NewJob(handoffStore, "handoff", slog.Default(), collector)

	// 8. スケジューラへのジョブ登録
	sched := scheduler.New(scheduler.SystemClock{}, slog.Default(), collector, cfg.StopTimeout)
	sched.Register("reminder_sweep", cfg.ReminderSweepInterval, reminderSweeper.RunOnce)
	sched.Register("task_sweep", cfg.TaskSweepInterval, taskSweeper.RunOnce)
	sched.Register("otp_cleanup", cfg.OTPCleanupInterval, otpCleanup.Run)
	sched.Register("session_cleanup", cfg.SessionCleanupInterval, sessionCleanup.Run)
	sched.Register("handoff_cleanup", cfg.HandoffCleanupInterval, handoffCleanup.Run)

	// 9. 運用HTTPサーバー（/healthz, /metrics）
	server := &http.Server{
		Addr:         ":" + cfg.OpsPort,
		Handler:      ops.NewRouter(db, registry, slog.Default()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("ops server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("ops server listen error", slog.String("error", err.Error()))
		}
	}()

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	slog.Info("worker starting",
		slog.Duration("reminder_sweep_interval", cfg.ReminderSweepInterval),
		slog.Duration("task_sweep_interval", cfg.TaskSweepInterval),
		slog.Int("reminder_batch_limit", cfg.ReminderBatchLimit),
		slog.Int("reminder_max_concurrent", cfg.ReminderMaxConcurrent),
	)

	sched.Start(context.Background())

	<-stop
	slog.Info("shutting down worker...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("ops server shutdown failed", slog.String("error", err.Error()))
	}

	sched.Stop()

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}

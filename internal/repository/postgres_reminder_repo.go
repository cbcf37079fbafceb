package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/voclio/voclio/internal/model"
)

// PostgresReminderRepo はPostgreSQLを使用したリマインダーリポジトリ。
type PostgresReminderRepo struct {
	db *sql.DB
}

// NewPostgresReminderRepo はPostgresReminderRepoを生成する。
func NewPostgresReminderRepo(db *sql.DB) *PostgresReminderRepo {
	return &PostgresReminderRepo{db: db}
}

// FindByID は指定IDのリマインダーを取得する。見つからない場合はnilを返す。
func (r *PostgresReminderRepo) FindByID(ctx context.Context, id string) (*model.Reminder, error) {
	reminder := &model.Reminder{}
	var taskID sql.NullString
	var sentAt sql.NullTime
	var channels []string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, task_id, remind_at, kind, channels, status, dismissed, sent_at,
		        created_at, updated_at
		 FROM reminders
		 WHERE id = $1`,
		id,
	).Scan(
		&reminder.ID, &reminder.UserID, &taskID, &reminder.RemindAt, &reminder.Kind,
		pq.Array(&channels), &reminder.Status, &reminder.Dismissed, &sentAt,
		&reminder.CreatedAt, &reminder.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("リマインダーの取得に失敗しました: %w", err)
	}

	reminder.TaskID = nullStringValue(taskID)
	reminder.Channels = toChannels(channels)
	if sentAt.Valid {
		t := sentAt.Time
		reminder.SentAt = &t
	}

	return reminder, nil
}

// Create はリマインダーを作成する。
func (r *PostgresReminderRepo) Create(ctx context.Context, reminder *model.Reminder) error {
	channels := make([]string, 0, len(reminder.Channels))
	for _, c := range reminder.Channels {
		channels = append(channels, string(c))
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (id, user_id, task_id, remind_at, kind, channels, status,
		                        dismissed, sent_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		reminder.ID, reminder.UserID, nullString(reminder.TaskID), reminder.RemindAt,
		reminder.Kind, pq.Array(channels), reminder.Status, reminder.Dismissed,
		reminder.SentAt, reminder.CreatedAt, reminder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("リマインダーの作成に失敗しました: %w", err)
	}
	return nil
}

// ListDue は送信対象のリマインダーを取得する。
// remind_at <= now かつ status = 'pending' かつ dismissed = false のリマインダーを
// remind_at昇順でlimit件まで、FOR UPDATE SKIP LOCKEDで排他的に取得する。
func (r *PostgresReminderRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, task_id, remind_at, kind, channels, status, dismissed, sent_at,
		        created_at, updated_at
		 FROM reminders
		 WHERE remind_at <= $1
		   AND status = 'pending'
		   AND dismissed = false
		 ORDER BY remind_at ASC
		 LIMIT $2
		 FOR UPDATE SKIP LOCKED`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("送信対象リマインダーの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reminders []*model.Reminder
	for rows.Next() {
		reminder := &model.Reminder{}
		var taskID sql.NullString
		var sentAt sql.NullTime
		var channels []string

		if err := rows.Scan(
			&reminder.ID, &reminder.UserID, &taskID, &reminder.RemindAt, &reminder.Kind,
			pq.Array(&channels), &reminder.Status, &reminder.Dismissed, &sentAt,
			&reminder.CreatedAt, &reminder.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("送信対象リマインダーの読み取りに失敗しました: %w", err)
		}

		reminder.TaskID = nullStringValue(taskID)
		reminder.Channels = toChannels(channels)
		if sentAt.Valid {
			t := sentAt.Time
			reminder.SentAt = &t
		}

		reminders = append(reminders, reminder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("送信対象リマインダーの走査に失敗しました: %w", err)
	}

	return reminders, nil
}

// UpdateStatus はリマインダーのライフサイクル状態を更新する。
// sentAtがnilでない場合はsent_atも記録する。行単位の更新のためロック不要。
func (r *PostgresReminderRepo) UpdateStatus(ctx context.Context, id string, status model.ReminderStatus, sentAt *time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reminders
		 SET status = $2, sent_at = COALESCE($3, sent_at), updated_at = now()
		 WHERE id = $1`,
		id, status, sentAt,
	)
	if err != nil {
		return fmt.Errorf("リマインダー状態の更新に失敗しました: %w", err)
	}
	return nil
}

func toChannels(values []string) []model.Channel {
	channels := make([]model.Channel, 0, len(values))
	for _, v := range values {
		channels = append(channels, model.Channel(v))
	}
	return channels
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ ReminderRepository = (*PostgresReminderRepo)(nil)

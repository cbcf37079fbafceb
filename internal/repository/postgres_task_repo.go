package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/voclio/voclio/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
// スケジューラからは読み取り専用で使用され、タスク自体を変更することはない。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

const taskColumns = `id, user_id, title, description, due_at, status, priority, created_at, updated_at`

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`,
		id,
	)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	return task, nil
}

// ListDueWithin は期限が[now, now+horizon)に入るタスクを取得する。
// 完了/キャンセル済みのタスクは対象外。期限の近いものから順に返す。
func (r *PostgresTaskRepo) ListDueWithin(ctx context.Context, now time.Time, horizon time.Duration) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE due_at IS NOT NULL
		   AND due_at >= $1
		   AND due_at < $2
		   AND status NOT IN ('completed', 'cancelled')
		 ORDER BY due_at ASC`,
		now, now.Add(horizon),
	)
	if err != nil {
		return nil, fmt.Errorf("期限間近タスクの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListOverdue は期限をnowより前に超過したタスクを取得する。
// 完了/キャンセル済みのタスクは対象外。超過の大きいものから順に返す。
func (r *PostgresTaskRepo) ListOverdue(ctx context.Context, now time.Time) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE due_at IS NOT NULL
		   AND due_at < $1
		   AND status NOT IN ('completed', 'cancelled')
		 ORDER BY due_at ASC`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("期限超過タスクの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// rowScanner は*sql.Rowと*sql.Rowsの双方を受け付けるScan抽象。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	task := &model.Task{}
	var description sql.NullString
	var dueAt sql.NullTime

	if err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &description, &dueAt,
		&task.Status, &task.Priority, &task.CreatedAt, &task.UpdatedAt,
	); err != nil {
		return nil, err
	}

	task.Description = nullStringValue(description)
	if dueAt.Valid {
		t := dueAt.Time
		task.DueAt = &t
	}
	return task, nil
}

func collectTasks(rows *sql.Rows) ([]*model.Task, error) {
	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("タスクの読み取りに失敗しました: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タスクの走査に失敗しました: %w", err)
	}
	return tasks, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)

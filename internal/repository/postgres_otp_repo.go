package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/voclio/voclio/internal/model"
)

// PostgresOTPRepo はPostgreSQLを使用したワンタイムコードリポジトリ。
type PostgresOTPRepo struct {
	db *sql.DB
}

// NewPostgresOTPRepo はPostgresOTPRepoを生成する。
func NewPostgresOTPRepo(db *sql.DB) *PostgresOTPRepo {
	return &PostgresOTPRepo{db: db}
}

// Create はワンタイムコードを作成する。
func (r *PostgresOTPRepo) Create(ctx context.Context, code *model.OTPCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_codes (id, email, code, kind, verified, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		code.ID, code.Email, code.Code, code.Kind, code.Verified, code.ExpiresAt, code.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create otp code: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れコードを削除し、削除件数を返す。
// 猶予期間は設けず、expires_atを過ぎたものを無条件に削除する。冪等。
func (r *PostgresOTPRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_codes WHERE expires_at < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otp codes: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ OTPRepository = (*PostgresOTPRepo)(nil)

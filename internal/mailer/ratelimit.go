package mailer

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedSender は送信レートを制御するSenderのラッパー。
// メールプロバイダのスロットリングを避けるため、トークンバケット方式で
// 秒間送信数を制限する。レート超過時はトークン獲得まで送信をブロックする。
type RateLimitedSender struct {
	inner   Sender
	limiter *rate.Limiter
}

// NewRateLimitedSender はRateLimitedSenderを生成する。
// perSecondが0以下の場合はデフォルト値5を使用する。
func NewRateLimitedSender(inner Sender, perSecond int) *RateLimitedSender {
	if perSecond <= 0 {
		perSecond = 5
	}
	return &RateLimitedSender{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// Send はレート制限を適用してメールを送信する。
// コンテキストがキャンセルされた場合は待機を中断しエラーを返す。
func (s *RateLimitedSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.inner.Send(ctx, to, subject, htmlBody)
}

var _ Sender = (*RateLimitedSender)(nil)

// Package mailer はリマインダーメールの送信機能を提供する。
// Amazon SES v2 APIを使用した送信実装と、送信レート制御、
// HTMLテンプレートの組み立てを含む。
package mailer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Sender はメール送信のインターフェース。
// 送信失敗は呼び出し側でチャネル単位の障害として処理され、
// リマインダー全体の処理を中断しない。
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SESSender はAmazon SES v2を使用したSenderの実装。
type SESSender struct {
	client    *sesv2.Client
	fromEmail string
}

// NewSESSender はSESSenderを生成する。
// fromEmailにはSESで検証済みの送信元アドレスを指定する。
func NewSESSender(cfg aws.Config, fromEmail string) *SESSender {
	return &SESSender{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
	}
}

// Send はHTMLメールを送信する。
func (s *SESSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
				},
			},
		},
	})
	return err
}

var _ Sender = (*SESSender)(nil)

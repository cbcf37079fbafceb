package mailer

import (
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy はユーザー入力テキストのサニタイズポリシー。
// リマインダーのタイトルと本文はユーザーが自由に入力できるため、
// HTMLメールに埋め込む前に全てのタグを除去する。
var textPolicy = bluemonday.StrictPolicy()

// ReminderEmail はリマインダーメールの件名とHTML本文を組み立てる。
// titleとmessageはユーザー入力のため、埋め込み前にサニタイズされる。
func ReminderEmail(title, message string, remindAt time.Time) (subject, htmlBody string) {
	safeTitle := textPolicy.Sanitize(title)
	safeMessage := textPolicy.Sanitize(message)

	subject = fmt.Sprintf("Reminder: %s", safeTitle)

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	fmt.Fprintf(&b, `<h2 style="color: #333;">⏰ Reminder: %s</h2>`, safeTitle)
	fmt.Fprintf(&b, `<p style="font-size: 16px;">%s</p>`, safeMessage)
	fmt.Fprintf(&b, `<p style="color: #666;">Scheduled for: %s</p>`, remindAt.Format("Jan 2, 2006 15:04 MST"))
	b.WriteString(`<hr style="margin: 30px 0; border: none; border-top: 1px solid #eee;">`)
	b.WriteString(`<p style="color: #999; font-size: 12px;">Voclio - Voice Notes &amp; Task Management</p>`)
	b.WriteString(`</div>`)

	return subject, b.String()
}

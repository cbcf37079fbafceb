package reminder

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/voclio/voclio/internal/metrics"
	"github.com/voclio/voclio/internal/model"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// --- モック実装 ---

type mockReminderRepo struct {
	mu        sync.Mutex
	dueList   []*model.Reminder
	listErr   error
	gotNow    time.Time
	gotLimit  int
	updates   []statusUpdate
	updateErr error
}

type statusUpdate struct {
	id     string
	status model.ReminderStatus
	sentAt *time.Time
}

func (m *mockReminderRepo) FindByID(ctx context.Context, id string) (*model.Reminder, error) {
	return nil, nil
}

func (m *mockReminderRepo) Create(ctx context.Context, r *model.Reminder) error {
	return nil
}

func (m *mockReminderRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotNow = now
	m.gotLimit = limit
	return m.dueList, m.listErr
}

func (m *mockReminderRepo) UpdateStatus(ctx context.Context, id string, status model.ReminderStatus, sentAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, statusUpdate{id: id, status: status, sentAt: sentAt})
	return m.updateErr
}

func (m *mockReminderRepo) updateFor(id string) (statusUpdate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.updates {
		if u.id == id {
			return u, true
		}
	}
	return statusUpdate{}, false
}

type mockUserRepo struct {
	users map[string]*model.User
	err   error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[id], nil
}

func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error { return nil }

type mockTaskRepo struct {
	tasks map[string]*model.Task
	err   error
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tasks[id], nil
}

func (m *mockTaskRepo) ListDueWithin(ctx context.Context, now time.Time, horizon time.Duration) ([]*model.Task, error) {
	return nil, nil
}

func (m *mockTaskRepo) ListOverdue(ctx context.Context, now time.Time) ([]*model.Task, error) {
	return nil, nil
}

type mockNotifRepo struct {
	mu      sync.Mutex
	created []*model.Notification
	err     error
}

func (m *mockNotifRepo) Create(ctx context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotifRepo) CountUnreadByUserID(ctx context.Context, userID string) (int, error) {
	return 0, nil
}

func (m *mockNotifRepo) createdCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

type mockSender struct {
	mu   sync.Mutex
	sent int
	err  error
}

func (m *mockSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent++
	return nil
}

func (m *mockSender) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent
}

// --- テストヘルパー ---

func newTestReminder(id string, channels ...model.Channel) *model.Reminder {
	return &model.Reminder{
		ID:       id,
		UserID:   "user-1",
		RemindAt: time.Now().Add(-time.Minute),
		Kind:     model.ReminderKindOneTime,
		Channels: channels,
		Status:   model.ReminderStatusPending,
	}
}

func newTestSweeper(repo *mockReminderRepo, users *mockUserRepo, tasks *mockTaskRepo, notifs *mockNotifRepo, sender *mockSender, buf *bytes.Buffer) *Sweeper {
	logger := newTestLogger(buf)
	dispatcher := NewDispatcher(users, tasks, notifs, sender, logger, metrics.Nop{})
	return NewSweeper(repo, dispatcher, logger, metrics.Nop{}, 50, 5)
}

// --- テスト ---

// TestSweeper_RunOnce_TransitionsToSent はpushチャネルのリマインダーが
// 1回のスイープで通知レコード作成とsent遷移に至ることを検証する。
func TestSweeper_RunOnce_TransitionsToSent(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	repo := &mockReminderRepo{dueList: []*model.Reminder{newTestReminder("rem-1", model.ChannelPush)}}
	users := &mockUserRepo{users: map[string]*model.User{"user-1": {ID: "user-1", Email: "u@example.com"}}}
	notifs := &mockNotifRepo{}
	sweeper := newTestSweeper(repo, users, &mockTaskRepo{}, notifs, &mockSender{}, &buf)

	if err := sweeper.RunOnce(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if notifs.createdCount() != 1 {
		t.Fatalf("notification count = %d, want 1", notifs.createdCount())
	}
	n := notifs.created[0]
	if n.UserID != "user-1" {
		t.Errorf("notification UserID = %s, want user-1", n.UserID)
	}
	if n.Category != model.CategoryReminder {
		t.Errorf("notification Category = %s, want reminder", n.Category)
	}

	update, ok := repo.updateFor("rem-1")
	if !ok {
		t.Fatal("status update was not recorded")
	}
	if update.status != model.ReminderStatusSent {
		t.Errorf("status = %s, want sent", update.status)
	}
	if update.sentAt == nil {
		t.Fatal("sentAt should be recorded")
	}
	if !update.sentAt.Equal(now) {
		t.Errorf("sentAt = %v, want %v", update.sentAt, now)
	}
}

// TestSweeper_RunOnce_ChannelIndependence はメール送信が失敗しても
// アプリ内通知が作成され、リマインダーがsentに遷移することを検証する。
func TestSweeper_RunOnce_ChannelIndependence(t *testing.T) {
	var buf bytes.Buffer
	now := time.Now()

	repo := &mockReminderRepo{dueList: []*model.Reminder{
		newTestReminder("rem-1", model.ChannelEmail, model.ChannelPush),
	}}
	users := &mockUserRepo{users: map[string]*model.User{"user-1": {ID: "user-1", Email: "u@example.com"}}}
	notifs := &mockNotifRepo{}
	sender := &mockSender{err: errors.New("SES throttled")}
	sweeper := newTestSweeper(repo, users, &mockTaskRepo{}, notifs, sender, &buf)

	if err := sweeper.RunOnce(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if notifs.createdCount() != 1 {
		t.Errorf("notification count = %d, want 1 (push channel should survive email failure)", notifs.createdCount())
	}

	update, ok := repo.updateFor("rem-1")
	if !ok {
		t.Fatal("status update was not recorded")
	}
	if update.status != model.ReminderStatusSent {
		t.Errorf("status = %s, want sent despite email failure", update.status)
	}

	if !strings.Contains(buf.String(), "SES throttled") {
		t.Error("email failure should be logged")
	}
}

// TestSweeper_RunOnce_HardFailureMarksFailed はユーザーの解決に失敗した
// リマインダーがfailedに遷移することを検証する。
func TestSweeper_RunOnce_HardFailureMarksFailed(t *testing.T) {
	var buf bytes.Buffer
	now := time.Now()

	repo := &mockReminderRepo{dueList: []*model.Reminder{newTestReminder("rem-1", model.ChannelPush)}}
	users := &mockUserRepo{users: map[string]*model.User{}} // user-1が存在しない
	notifs := &mockNotifRepo{}
	sweeper := newTestSweeper(repo, users, &mockTaskRepo{}, notifs, &mockSender{}, &buf)

	if err := sweeper.RunOnce(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if notifs.createdCount() != 0 {
		t.Errorf("notification count = %d, want 0", notifs.createdCount())
	}

	update, ok := repo.updateFor("rem-1")
	if !ok {
		t.Fatal("status update was not recorded")
	}
	if update.status != model.ReminderStatusFailed {
		t.Errorf("status = %s, want failed", update.status)
	}
	if update.sentAt != nil {
		t.Error("sentAt should not be recorded for failed reminder")
	}
}

// TestSweeper_RunOnce_PassesBatchLimit は選択クエリにバッチ上限が渡されることを検証する。
func TestSweeper_RunOnce_PassesBatchLimit(t *testing.T) {
	var buf bytes.Buffer
	now := time.Now()

	repo := &mockReminderRepo{}
	sweeper := newTestSweeper(repo, &mockUserRepo{}, &mockTaskRepo{}, &mockNotifRepo{}, &mockSender{}, &buf)

	if err := sweeper.RunOnce(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.gotLimit != 50 {
		t.Errorf("limit = %d, want 50", repo.gotLimit)
	}
	if !repo.gotNow.Equal(now) {
		t.Errorf("now = %v, want %v", repo.gotNow, now)
	}
}

// TestSweeper_RunOnce_EmptyBatch は対象なしの場合に状態更新が発生しないことを検証する。
func TestSweeper_RunOnce_EmptyBatch(t *testing.T) {
	var buf bytes.Buffer

	repo := &mockReminderRepo{}
	sweeper := newTestSweeper(repo, &mockUserRepo{}, &mockTaskRepo{}, &mockNotifRepo{}, &mockSender{}, &buf)

	if err := sweeper.RunOnce(context.Background(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.updates) != 0 {
		t.Errorf("update count = %d, want 0", len(repo.updates))
	}
}

// TestSweeper_RunOnce_ListErrorPropagates は選択クエリの失敗がエラーとして返ることを検証する。
func TestSweeper_RunOnce_ListErrorPropagates(t *testing.T) {
	var buf bytes.Buffer

	repo := &mockReminderRepo{listErr: errors.New("connection refused")}
	sweeper := newTestSweeper(repo, &mockUserRepo{}, &mockTaskRepo{}, &mockNotifRepo{}, &mockSender{}, &buf)

	err := sweeper.RunOnce(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected error from failed ListDue")
	}
}

// TestSweeper_RunOnce_MultipleBatchBounded は複数リマインダーが全件処理されることを検証する。
func TestSweeper_RunOnce_MultipleBatchBounded(t *testing.T) {
	var buf bytes.Buffer
	now := time.Now()

	var due []*model.Reminder
	for i := 0; i < 10; i++ {
		due = append(due, newTestReminder("rem-"+string(rune('a'+i)), model.ChannelPush))
	}
	repo := &mockReminderRepo{dueList: due}
	users := &mockUserRepo{users: map[string]*model.User{"user-1": {ID: "user-1", Email: "u@example.com"}}}
	notifs := &mockNotifRepo{}
	sweeper := newTestSweeper(repo, users, &mockTaskRepo{}, notifs, &mockSender{}, &buf)

	if err := sweeper.RunOnce(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if notifs.createdCount() != 10 {
		t.Errorf("notification count = %d, want 10", notifs.createdCount())
	}
	if len(repo.updates) != 10 {
		t.Errorf("update count = %d, want 10", len(repo.updates))
	}
	for _, u := range repo.updates {
		if u.status != model.ReminderStatusSent {
			t.Errorf("reminder %s status = %s, want sent", u.id, u.status)
		}
	}
}

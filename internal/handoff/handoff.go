// Package handoff はOAuthカレンダー連携の一時的なトークン受け渡しを提供する。
// コールバックで受け取ったトークンをAPI層が引き取るまでの短時間だけ保持する、
// TTL付き・単回取得のインメモリストア。
package handoff

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Grant はOAuthコールバックで受け取った一時的な認可情報。
type Grant struct {
	UserID       string
	Provider     string // google, webex等
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type entry struct {
	grant     Grant
	expiresAt time.Time
}

// Store はTTL付き・単回取得のハンドオフストア。
// Putで保存されたGrantはTakeで1回だけ取得でき、取得と同時に削除される。
// TTLを超過したエントリはTakeで取得できず、定期パージで削除される。
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
}

// NewStore はStoreを生成する。ttlが0以下の場合はデフォルト値10分を使用する。
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// Put はGrantを保存し、引き換え用のハンドオフIDを返す。
func (s *Store) Put(grant Grant, now time.Time) string {
	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry{
		grant:     grant,
		expiresAt: now.Add(s.ttl),
	}
	return id
}

// Take はハンドオフIDに対応するGrantを取得し、同時に削除する（単回取得）。
// 存在しないIDまたは期限切れの場合はfalseを返す。
func (s *Store) Take(id string, now time.Time) (Grant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return Grant{}, false
	}
	delete(s.entries, id)

	if now.After(e.expiresAt) {
		return Grant{}, false
	}
	return e.grant, true
}

// Len は現在保持しているエントリ数を返す。
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// DeleteExpired は期限切れエントリを削除し、削除件数を返す。
// cleanup.Jobの削除対象としてスケジューラの定期ジョブから実行される。冪等。
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

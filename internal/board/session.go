package board

import (
	"sync"

	"github.com/tasukuchiba/message_board/internal/models"
)

// EditSession は編集中のメッセージ（同時に1つだけ）
type EditSession struct {
	ID    string
	Draft string
}

// Session はコンポーネント間で共有されるセッション状態
// （解決済みのIDと編集セッション）をアクセサ経由で保持する
type Session struct {
	mu       sync.RWMutex
	identity *models.Identity
	edit     *EditSession
}

// NewSession は新しいSessionを作成する
func NewSession() *Session {
	return &Session{}
}

// Identity は解決済みのIDを返す
func (s *Session) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

// UID は解決済みのUIDを返す。未認証なら空文字
func (s *Session) UID() string {
	id, _ := s.Identity()
	return id.UID
}

func (s *Session) setIdentity(id models.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &id
}

// clearIdentity はIDを消去し、消去前にIDがあったかを返す
func (s *Session) clearIdentity() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.identity != nil
	s.identity = nil
	return had
}

// Editing は編集セッションを返す
func (s *Session) Editing() (EditSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.edit == nil {
		return EditSession{}, false
	}
	return *s.edit, true
}

func (s *Session) beginEdit(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit = &EditSession{ID: id, Draft: text}
}

func (s *Session) setDraft(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return false
	}
	s.edit.Draft = text
	return true
}

func (s *Session) endEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit = nil
}

// endEditIf は同じ対象・同じ下書きのままの場合だけセッションを閉じる
// 更新の送信中に開かれた新しいセッションは残る
func (s *Session) endEditIf(edit EditSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit != nil && *s.edit == edit {
		s.edit = nil
	}
}

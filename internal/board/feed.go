package board

import (
	"log/slog"
	"sync"

	"github.com/tasukuchiba/message_board/internal/models"
)

// Snapshot はコレクション全体の現在状態（差分ではない）
type Snapshot struct {
	Docs []models.Message
}

// Unsubscribe は購読を解除する。何度呼んでもよい
type Unsubscribe func()

// Feed はコレクションへの常時購読を開く
// onSnapshot は変更のたびに完全な状態で呼ばれ、onError はその購読の終端エラーで呼ばれる
// 自動リトライはしない
type Feed interface {
	Subscribe(token, path string, onSnapshot func(Snapshot), onError func(error)) Unsubscribe
}

// feedEvent は購読コールバックをイベントループへ渡すためのメッセージ
type feedEvent struct {
	generation uint64
	uid        string
	snapshot   Snapshot
	err        error
}

type subscription struct {
	generation  uint64
	uid         string
	path        string
	unsubscribe Unsubscribe
}

// Subscriber はIDごとに1つだけ購読を維持する
// IDが変わると新しい購読を開く前に古い購読を閉じる
type Subscriber struct {
	feed   Feed
	log    *slog.Logger
	events chan feedEvent

	mu         sync.Mutex
	current    *subscription
	generation uint64
}

// NewSubscriber は新しいSubscriberを作成する
func NewSubscriber(feed Feed, log *slog.Logger) *Subscriber {
	return &Subscriber{
		feed:   feed,
		log:    log,
		events: make(chan feedEvent, 16),
	}
}

// Events はコールバックを到着順に受け取るチャネルを返す（単一の受信者を想定）
func (s *Subscriber) Events() <-chan feedEvent {
	return s.events
}

// Open はIDとパスに対する購読を開き、その世代番号を返す
// 同じIDとパスで既に購読中なら何もしない（opened=false）
func (s *Subscriber) Open(id models.Identity, path string) (generation uint64, opened bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.uid == id.UID && s.current.path == path {
		return s.current.generation, false
	}
	s.closeLocked()

	s.generation++
	generation = s.generation
	done := make(chan struct{})
	deliver := func(ev feedEvent) {
		select {
		case s.events <- ev:
		case <-done:
		}
	}

	unsubscribe := s.feed.Subscribe(id.Token, path,
		func(snap Snapshot) {
			deliver(feedEvent{generation: generation, uid: id.UID, snapshot: snap})
		},
		func(err error) {
			deliver(feedEvent{generation: generation, uid: id.UID, err: err})
		},
	)

	s.current = &subscription{
		generation: generation,
		uid:        id.UID,
		path:       path,
		unsubscribe: sync.OnceFunc(func() {
			close(done)
			if unsubscribe != nil {
				unsubscribe()
			}
		}),
	}
	s.log.Info("Feed subscribed", "uid", id.UID, "path", path, "generation", generation)
	return generation, true
}

// Close は現在の購読を閉じる
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

// Current は現在の購読の世代番号を返す。購読がなければ0
func (s *Subscriber) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0
	}
	return s.current.generation
}

func (s *Subscriber) closeLocked() {
	if s.current == nil {
		return
	}
	s.current.unsubscribe()
	s.log.Info("Feed unsubscribed", "uid", s.current.uid, "path", s.current.path, "generation", s.current.generation)
	s.current = nil
}

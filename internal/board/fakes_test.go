package board

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"github.com/tasukuchiba/message_board/internal/models"
)

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelError)
}

// fakeSubscription は fakeFeed が開いた購読
type fakeSubscription struct {
	token, path  string
	onSnapshot   func(Snapshot)
	onError      func(error)
	unsubscribed int
}

// fakeFeed は購読を記録し、テストからスナップショットを流し込めるFeed
type fakeFeed struct {
	mu   sync.Mutex
	subs []*fakeSubscription
}

func (f *fakeFeed) Subscribe(token, path string, onSnapshot func(Snapshot), onError func(error)) Unsubscribe {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSubscription{token: token, path: path, onSnapshot: onSnapshot, onError: onError}
	f.subs = append(f.subs, sub)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		sub.unsubscribed++
	}
}

func (f *fakeFeed) all() []fakeSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeSubscription, len(f.subs))
	for i, s := range f.subs {
		out[i] = *s
	}
	return out
}

func (f *fakeFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// fakeAuth は決められた順にIDを払い出す Authenticator
type fakeAuth struct {
	mu    sync.Mutex
	uids  []string
	calls int
	err   error
}

func (a *fakeAuth) SignInAnonymously(context.Context) (models.Identity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return models.Identity{}, a.err
	}
	uid := a.uids[a.calls%len(a.uids)]
	a.calls++
	return models.Identity{UID: uid, Token: "token-" + uid}, nil
}

func (a *fakeAuth) SignInWithCustomToken(context.Context, string) (models.Identity, error) {
	return models.Identity{}, fmt.Errorf("custom tokens are not configured")
}

// fakeRemote はメモリ上のストアで、書き込みのたびに購読者へスナップショットを送る
type fakeRemote struct {
	feed *fakeFeed

	mu    sync.Mutex
	docs  map[string][]models.Message
	next  int
	clock int64
}

func newFakeRemote(feed *fakeFeed) *fakeRemote {
	return &fakeRemote{feed: feed, docs: map[string][]models.Message{}, clock: 1000}
}

func (r *fakeRemote) seed(path string, msgs ...models.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[path] = append(r.docs[path], msgs...)
}

func (r *fakeRemote) Add(_ context.Context, _ string, path string, record models.NewRecord) (string, error) {
	r.mu.Lock()
	r.next++
	id := fmt.Sprintf("m%d", r.next)
	r.docs[path] = append(r.docs[path], models.Message{
		ID: id, Text: record.Text, AuthorID: record.AuthorID,
		CreatedAt: &models.Timestamp{Seconds: r.clock},
	})
	r.clock += 1000
	r.mu.Unlock()
	r.push(path)
	return id, nil
}

func (r *fakeRemote) UpdateText(_ context.Context, _ string, path, id, text string) error {
	r.mu.Lock()
	for i := range r.docs[path] {
		if r.docs[path][i].ID == id {
			r.docs[path][i].Text = text
		}
	}
	r.mu.Unlock()
	r.push(path)
	return nil
}

func (r *fakeRemote) Delete(_ context.Context, _ string, path, id string) error {
	r.mu.Lock()
	kept := r.docs[path][:0]
	for _, msg := range r.docs[path] {
		if msg.ID != id {
			kept = append(kept, msg)
		}
	}
	r.docs[path] = kept
	r.mu.Unlock()
	r.push(path)
	return nil
}

func (r *fakeRemote) snapshot(path string) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{Docs: append([]models.Message(nil), r.docs[path]...)}
}

// Subscribe は購読開始時に現在の状態を送る
func (r *fakeRemote) Subscribe(token, path string, onSnapshot func(Snapshot), onError func(error)) Unsubscribe {
	unsubscribe := r.feed.Subscribe(token, path, onSnapshot, onError)
	onSnapshot(r.snapshot(path))
	return unsubscribe
}

func (r *fakeRemote) push(path string) {
	snap := r.snapshot(path)
	for _, sub := range r.feed.all() {
		if sub.path == path && sub.unsubscribed == 0 {
			sub.onSnapshot(snap)
		}
	}
}

// fakeConfirmer は決められた答えを返す
type fakeConfirmer struct {
	answer bool
}

func (c fakeConfirmer) Confirm(context.Context, string) bool {
	return c.answer
}

// recordingRenderer は描画されたViewとStatusを記録する
type recordingRenderer struct {
	views    chan View
	statuses chan Status
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{views: make(chan View, 128), statuses: make(chan Status, 32)}
}

func (r *recordingRenderer) Render(v View)   { r.views <- v }
func (r *recordingRenderer) Status(s Status) { r.statuses <- s }

// waitView は条件を満たすViewが描画されるまで待つ
func (r *recordingRenderer) waitView(t *testing.T, match func(View) bool) View {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-r.views:
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timeout waiting for view")
			return View{}
		}
	}
}

// waitStatus は指定のStatusが描画されるまで待つ
func (r *recordingRenderer) waitStatus(t *testing.T, want Status) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-r.statuses:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for status %s", want)
		}
	}
}

func ids(v View) []string {
	out := make([]string, len(v.Entries))
	for i, e := range v.Entries {
		out[i] = e.Message.ID
	}
	return out
}

func requireEventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

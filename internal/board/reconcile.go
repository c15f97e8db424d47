package board

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"
	"github.com/tasukuchiba/message_board/internal/models"
)

// ViewState はメッセージ一覧の表示状態
type ViewState int

const (
	// ViewLoading は最初のスナップショットを待っている状態
	ViewLoading ViewState = iota
	// ViewEmpty は「まだメッセージがありません」の状態（空のリストとは区別する）
	ViewEmpty
	// ViewReady はメッセージ一覧を表示している状態
	ViewReady
	// ViewFeedError は購読エラーのプレースホルダーを表示している状態
	ViewFeedError
)

func (s ViewState) String() string {
	switch s {
	case ViewLoading:
		return "loading"
	case ViewEmpty:
		return "empty"
	case ViewReady:
		return "ready"
	case ViewFeedError:
		return "feed-error"
	}
	return "unknown"
}

// Entry は表示用のメッセージと、現在のユーザーがそれを変更できるか
type Entry struct {
	Message   models.Message
	CanMutate bool
}

// View は描画される一覧の状態
type View struct {
	State   ViewState
	Entries []Entry
	Problem string
}

// Equal は2つのViewが同じ描画結果になるかを返す
func (v View) Equal(other View) bool {
	return v.State == other.State &&
		v.Problem == other.Problem &&
		slices.EqualFunc(v.Entries, other.Entries, func(a, b Entry) bool {
			return a.CanMutate == b.CanMutate &&
				a.Message.ID == b.Message.ID &&
				a.Message.Text == b.Message.Text &&
				a.Message.AuthorID == b.Message.AuthorID &&
				sameTimestamp(a.Message.CreatedAt, b.Message.CreatedAt)
		})
}

func sameTimestamp(a, b *models.Timestamp) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Reconcile はスナップショットから順序付きの一覧を作る純粋関数
// 作成日時（秒）の降順に並べ、タイムスタンプのないメッセージは0として扱う
// 同じ秒のものはナノ秒の降順、次にIDの昇順で並べて結果を決定的にする
func Reconcile(uid string, layout Layout, docs []models.Message) View {
	if len(docs) == 0 {
		return View{State: ViewEmpty}
	}

	entries := lo.Map(docs, func(msg models.Message, _ int) Entry {
		return Entry{Message: msg, CanMutate: layout.CanMutate(uid, msg)}
	})
	slices.SortFunc(entries, compareNewestFirst)

	return View{State: ViewReady, Entries: entries}
}

func compareNewestFirst(a, b Entry) int {
	if c := cmp.Compare(b.Message.Seconds(), a.Message.Seconds()); c != 0 {
		return c
	}
	if c := cmp.Compare(nanos(b.Message), nanos(a.Message)); c != 0 {
		return c
	}
	return cmp.Compare(a.Message.ID, b.Message.ID)
}

func nanos(m models.Message) int32 {
	if m.CreatedAt == nil {
		return 0
	}
	return m.CreatedAt.Nanos
}

// Renderer は一覧とステータスを描画する
type Renderer interface {
	Render(View)
	Status(Status)
}

// Engine はスナップショットを一覧に反映し、描画結果が変わったときだけ再描画する
// 購読エラーの後は、より新しい購読からのスナップショットが届くまで反映を止める
type Engine struct {
	layout   Layout
	renderer Renderer
	log      *slog.Logger

	mu          sync.RWMutex
	view        View
	rendered    bool
	failedUntil uint64
}

// NewEngine は新しいEngineを作成する
func NewEngine(layout Layout, renderer Renderer, log *slog.Logger) *Engine {
	return &Engine{layout: layout, renderer: renderer, log: log}
}

// Apply はスナップショットを反映する。描画した場合は true を返す
func (e *Engine) Apply(uid string, generation uint64, snap Snapshot) bool {
	e.mu.Lock()
	if generation <= e.failedUntil {
		e.mu.Unlock()
		e.log.Debug("Snapshot dropped after feed error", "generation", generation)
		return false
	}
	view := Reconcile(uid, e.layout, snap.Docs)
	e.mu.Unlock()

	return e.show(view)
}

// Fail は購読エラーのプレースホルダーを表示し、その世代以前のスナップショットを拒否する
func (e *Engine) Fail(generation uint64, err error) bool {
	e.mu.Lock()
	if generation > e.failedUntil {
		e.failedUntil = generation
	}
	e.mu.Unlock()

	e.log.Error("Feed failed", "generation", generation, "error", err)
	return e.show(View{State: ViewFeedError, Problem: err.Error()})
}

// Reset は一覧を読み込み中に戻す
func (e *Engine) Reset() bool {
	return e.show(View{State: ViewLoading})
}

// View は最後に反映された一覧を返す
func (e *Engine) View() View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view
}

// Lookup は表示中の一覧からIDでメッセージを探す
func (e *Engine) Lookup(id string) (Entry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return lo.Find(e.view.Entries, func(entry Entry) bool {
		return entry.Message.ID == id
	})
}

func (e *Engine) show(view View) bool {
	e.mu.Lock()
	if e.rendered && e.view.Equal(view) {
		e.mu.Unlock()
		return false
	}
	e.view = view
	e.rendered = true
	e.mu.Unlock()

	e.renderer.Render(view)
	return true
}

// Package board は掲示板のリアルタイム同期を行う。
// リモートのコレクションを購読して順序付きの一覧を保ち、
// 所有者のみが行える作成・更新・削除をストアへ発行する。
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Status は認証状態の表示
type Status int

const (
	StatusConnecting Status = iota
	StatusSignedIn
	StatusAuthFailed
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusSignedIn:
		return "signed-in"
	case StatusAuthFailed:
		return "authentication-failed"
	}
	return "unknown"
}

// Dependencies はBoardが使う外部の協力者
type Dependencies struct {
	Auth           Authenticator
	Store          Store
	Feed           Feed
	Confirmer      Confirmer
	Renderer       Renderer
	Layout         Layout
	BootstrapToken string
	Log            *slog.Logger
}

// Board は各コンポーネントをつなぎ、認証イベントと購読コールバックを
// 1つのイベントループで到着順に処理する
type Board struct {
	session    *Session
	identity   *IdentityProvider
	subscriber *Subscriber
	engine     *Engine
	gateway    *Gateway
	edits      *EditController
	renderer   Renderer
	layout     Layout
	log        *slog.Logger

	// イベントループからのみ参照する
	generation uint64
}

// New は新しいBoardを作成する
func New(deps Dependencies) *Board {
	session := NewSession()
	gateway := NewGateway(deps.Store, session, deps.Layout, deps.Confirmer, deps.Log)
	return &Board{
		session:    session,
		identity:   NewIdentityProvider(deps.Auth, session, deps.BootstrapToken, deps.Log),
		subscriber: NewSubscriber(deps.Feed, deps.Log),
		engine:     NewEngine(deps.Layout, deps.Renderer, deps.Log),
		gateway:    gateway,
		edits:      NewEditController(session, gateway, deps.Log),
		renderer:   deps.Renderer,
		layout:     deps.Layout,
		log:        deps.Log,
	}
}

// Session は共有されているセッション状態を返す
func (b *Board) Session() *Session {
	return b.session
}

// View は最後に描画された一覧を返す
func (b *Board) View() View {
	return b.engine.View()
}

// Run はIDを解決して購読を開き、ctx が終わるまでイベントを処理する
func (b *Board) Run(ctx context.Context) error {
	b.renderer.Status(StatusConnecting)
	b.engine.Reset()
	go b.resolve(ctx)

	for {
		select {
		case <-ctx.Done():
			b.subscriber.Close()
			return nil
		case ev := <-b.identity.Events():
			b.handleIdentity(ctx, ev)
		case ev := <-b.subscriber.Events():
			b.handleFeed(ev)
		}
	}
}

func (b *Board) resolve(ctx context.Context) {
	if _, err := b.identity.Resolve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		b.log.Debug("Identity not resolved", "error", err)
	}
}

func (b *Board) handleIdentity(ctx context.Context, ev IdentityEvent) {
	switch {
	case ev.Err != nil:
		b.renderer.Status(StatusAuthFailed)

	case !ev.Authenticated:
		b.subscriber.Close()
		b.generation = 0
		b.edits.Cancel()
		b.renderer.Status(StatusConnecting)
		b.engine.Reset()
		// 未認証になったら再びサインインする
		go b.resolve(ctx)

	default:
		b.renderer.Status(StatusSignedIn)
		generation, opened := b.subscriber.Open(ev.Identity, b.layout.CollectionPath(ev.Identity.UID))
		b.generation = generation
		if opened {
			b.engine.Reset()
		}
	}
}

func (b *Board) handleFeed(ev feedEvent) {
	// 閉じた購読から届いたイベントは捨てる
	if ev.generation != b.generation {
		return
	}
	if ev.err != nil {
		b.engine.Fail(ev.generation, fmt.Errorf("%w: %w", ErrFeedSubscriptionFailed, ev.err))
		return
	}
	b.engine.Apply(ev.uid, ev.generation, ev.snapshot)
}

// Add はメッセージを投稿する。送信できた場合は true（入力欄をクリアしてよい）
func (b *Board) Add(ctx context.Context, text string) bool {
	return b.gateway.Create(ctx, text) == nil
}

// Edit は表示中のメッセージの編集を始める。変更できないメッセージなら false
func (b *Board) Edit(id string) bool {
	entry, ok := b.engine.Lookup(id)
	if !ok || !entry.CanMutate {
		return false
	}
	b.edits.Begin(entry.Message.ID, entry.Message.Text)
	return true
}

// SetDraft は編集中の下書きを置き換える
func (b *Board) SetDraft(text string) bool {
	return b.edits.SetDraft(text)
}

// Save は下書きを送信する。成功して編集が終わった場合は true
func (b *Board) Save(ctx context.Context) bool {
	return b.edits.Commit(ctx) == nil
}

// Cancel は編集を破棄する
func (b *Board) Cancel() {
	b.edits.Cancel()
}

// Delete は確認の上でメッセージを削除する。変更できないメッセージなら何もしない
func (b *Board) Delete(ctx context.Context, id string) bool {
	entry, ok := b.engine.Lookup(id)
	if !ok || !entry.CanMutate {
		return false
	}
	return b.gateway.Delete(ctx, id) == nil
}

// SignOut はサインアウトする。イベントループが購読を閉じて再サインインする
func (b *Board) SignOut(ctx context.Context) {
	b.identity.SignOut(ctx)
}

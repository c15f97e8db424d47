package board

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tasukuchiba/message_board/internal/models"
	"golang.org/x/sync/singleflight"
)

// IdentityEvent は認証状態の遷移を表すイベント
// Err が設定されている場合はサインインに失敗したことを示す
type IdentityEvent struct {
	Identity      models.Identity
	Authenticated bool
	Err           error
}

// IdentityProvider はセッションのIDを解決するアダプター
// セッションがなければ一度だけサインインを開始する（ブートストラップ用トークンがあれば
// それを使い、なければ匿名）。サインイン中の並行した Resolve は同じ試行を共有する
type IdentityProvider struct {
	auth           Authenticator
	session        *Session
	bootstrapToken string
	log            *slog.Logger

	group  singleflight.Group
	events chan IdentityEvent
}

// NewIdentityProvider は新しいIdentityProviderを作成する
func NewIdentityProvider(auth Authenticator, session *Session, bootstrapToken string, log *slog.Logger) *IdentityProvider {
	return &IdentityProvider{
		auth:           auth,
		session:        session,
		bootstrapToken: bootstrapToken,
		log:            log,
		events:         make(chan IdentityEvent, 8),
	}
}

// Events は認証状態の遷移イベントを受け取るチャネルを返す（単一の受信者を想定）
func (p *IdentityProvider) Events() <-chan IdentityEvent {
	return p.events
}

// Resolve は現在のIDを返す。未認証ならサインインする
func (p *IdentityProvider) Resolve(ctx context.Context) (models.Identity, error) {
	if id, ok := p.session.Identity(); ok {
		return id, nil
	}

	v, err, _ := p.group.Do("sign-in", func() (any, error) {
		// 直前に完了したサインインの結果を再利用する
		if id, ok := p.session.Identity(); ok {
			return id, nil
		}

		id, err := p.signIn(ctx)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
			p.log.Error("Authentication failed", "error", err)
			p.emit(ctx, IdentityEvent{Err: err})
			return models.Identity{}, err
		}

		p.session.setIdentity(id)
		p.log.Info("Signed in", "uid", id.UID)
		p.emit(ctx, IdentityEvent{Identity: id, Authenticated: true})
		return id, nil
	})
	if err != nil {
		return models.Identity{}, err
	}
	return v.(models.Identity), nil
}

// SignOut はIDを破棄し、未認証への遷移を通知する
func (p *IdentityProvider) SignOut(ctx context.Context) {
	if !p.session.clearIdentity() {
		return
	}
	p.log.Info("Signed out")
	p.emit(ctx, IdentityEvent{Authenticated: false})
}

func (p *IdentityProvider) signIn(ctx context.Context) (models.Identity, error) {
	var (
		id  models.Identity
		err error
	)
	if p.bootstrapToken != "" {
		id, err = p.auth.SignInWithCustomToken(ctx, p.bootstrapToken)
	} else {
		id, err = p.auth.SignInAnonymously(ctx)
	}
	if err != nil {
		return models.Identity{}, err
	}
	if id.UID == "" || id.Token == "" {
		return models.Identity{}, fmt.Errorf("identity provider returned an empty identity")
	}
	return id, nil
}

func (p *IdentityProvider) emit(ctx context.Context, ev IdentityEvent) {
	select {
	case p.events <- ev:
	case <-ctx.Done():
	}
}

package board

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tasukuchiba/message_board/internal/board/mocks"
	"github.com/tasukuchiba/message_board/internal/models"
	"go.uber.org/mock/gomock"
)

const sharedPath = "artifacts/test-app/public/data/messages"

type gatewayFixture struct {
	store     *mocks.MockStore
	confirmer *mocks.MockConfirmer
	session   *Session
	gateway   *Gateway
}

func newGatewayFixture(t *testing.T, layout Layout) gatewayFixture {
	ctrl := gomock.NewController(t)
	f := gatewayFixture{
		store:     mocks.NewMockStore(ctrl),
		confirmer: mocks.NewMockConfirmer(ctrl),
		session:   NewSession(),
	}
	f.gateway = NewGateway(f.store, f.session, layout, f.confirmer, testLogger())
	return f
}

func (f gatewayFixture) signIn(uid string) {
	f.session.setIdentity(models.Identity{UID: uid, Token: "token-" + uid})
}

func TestGateway_Create(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t, shared)
	f.signIn("U1")

	f.store.EXPECT().Add(gomock.Any(), "token-U1", sharedPath, models.NewRecord{
		Text:      "Hello",
		AuthorID:  "U1",
		CreatedAt: models.ServerTimestamp,
	}).Return("m1", nil)

	req.NoError(f.gateway.Create(context.Background(), "  Hello \n"))
}

func TestGateway_CreatePerUserOmitsAuthor(t *testing.T) {
	f := newGatewayFixture(t, PerUserLayout{AppID: "test-app"})
	f.signIn("U1")

	f.store.EXPECT().Add(gomock.Any(), "token-U1", "artifacts/test-app/users/U1/messages", models.NewRecord{
		Text:      "Hello",
		CreatedAt: models.ServerTimestamp,
	}).Return("m1", nil)

	require.NoError(t, f.gateway.Create(context.Background(), "Hello"))
}

func TestGateway_CreateSkipped(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t, shared)
	f.store.EXPECT().Add(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// 未認証
	req.ErrorIs(f.gateway.Create(context.Background(), "Hello"), ErrIdentityUnresolved)

	// 空文字（トリム後）
	f.signIn("U1")
	req.ErrorIs(f.gateway.Create(context.Background(), "   "), ErrEmptyText)
}

func TestGateway_CreateFailureIsMutationFailed(t *testing.T) {
	f := newGatewayFixture(t, shared)
	f.signIn("U1")
	f.store.EXPECT().Add(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("503"))

	err := f.gateway.Create(context.Background(), "Hello")
	require.ErrorIs(t, err, ErrMutationFailed)
}

func TestGateway_Update(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t, shared)
	f.signIn("U1")
	f.session.beginEdit("m1", "Hello")

	f.store.EXPECT().UpdateText(gomock.Any(), "token-U1", sharedPath, "m1", "Edited").Return(nil)

	req.NoError(f.gateway.Update(context.Background(), "m1", " Edited "))
}

func TestGateway_UpdateSkipped(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t, shared)
	f.store.EXPECT().UpdateText(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	f.signIn("U1")

	// 編集セッションがない
	req.ErrorIs(f.gateway.Update(context.Background(), "m1", "Edited"), ErrNoEditSession)

	// 空文字
	f.session.beginEdit("m1", "Hello")
	req.ErrorIs(f.gateway.Update(context.Background(), "m1", "  "), ErrEmptyText)

	// 未認証
	f.session.clearIdentity()
	req.ErrorIs(f.gateway.Update(context.Background(), "m1", "Edited"), ErrIdentityUnresolved)
}

func TestGateway_DeleteConfirmed(t *testing.T) {
	f := newGatewayFixture(t, shared)
	f.signIn("U1")

	gomock.InOrder(
		f.confirmer.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(true),
		f.store.EXPECT().Delete(gomock.Any(), "token-U1", sharedPath, "m1").Return(nil),
	)

	require.NoError(t, f.gateway.Delete(context.Background(), "m1"))
}

func TestGateway_DeleteNotConfirmed(t *testing.T) {
	f := newGatewayFixture(t, shared)
	f.signIn("U1")

	f.confirmer.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	require.ErrorIs(t, f.gateway.Delete(context.Background(), "m1"), ErrNotConfirmed)
}

func TestGateway_DeleteUnresolvedIdentity(t *testing.T) {
	f := newGatewayFixture(t, shared)

	// 確認も求めない
	f.confirmer.EXPECT().Confirm(gomock.Any(), gomock.Any()).Times(0)
	f.store.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	require.ErrorIs(t, f.gateway.Delete(context.Background(), "m1"), ErrIdentityUnresolved)
}

func TestGateway_DeleteFailure(t *testing.T) {
	f := newGatewayFixture(t, shared)
	f.signIn("U1")

	f.confirmer.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(true)
	f.store.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("forbidden"))

	require.ErrorIs(t, f.gateway.Delete(context.Background(), "m1"), ErrMutationFailed)
}

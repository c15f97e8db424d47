package board

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tasukuchiba/message_board/internal/models"
)

// deletePrompt は削除前の確認メッセージ
const deletePrompt = "Delete this message?"

// Gateway はリモートストアへ作成・更新・削除を発行する
// 失敗はログに残して ErrMutationFailed として返すだけで、リトライはしない
// ローカルの一覧には反映せず、次のスナップショットで結果が見える
type Gateway struct {
	store     Store
	session   *Session
	layout    Layout
	confirmer Confirmer
	log       *slog.Logger
}

// NewGateway は新しいGatewayを作成する
func NewGateway(store Store, session *Session, layout Layout, confirmer Confirmer, log *slog.Logger) *Gateway {
	return &Gateway{store: store, session: session, layout: layout, confirmer: confirmer, log: log}
}

// Create は新しいメッセージを送信する。作成日時はサーバーが割り当てる
func (g *Gateway) Create(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		g.log.Debug("Create skipped: empty text")
		return ErrEmptyText
	}
	id, ok := g.session.Identity()
	if !ok {
		g.log.Warn("Create skipped: identity not resolved")
		return ErrIdentityUnresolved
	}

	path := g.layout.CollectionPath(id.UID)
	record := models.NewRecord{
		Text:      text,
		AuthorID:  g.layout.AuthorField(id.UID),
		CreatedAt: models.ServerTimestamp,
	}
	docID, err := g.store.Add(ctx, id.Token, path, record)
	if err != nil {
		return g.failed("create", path, "", err)
	}
	g.log.Debug("Message submitted", "path", path, "id", docID)
	return nil
}

// Update はメッセージ本文を置き換える。編集セッションがなければ何もしない
// 所有権はローカルの状態では再検証しない（ストアが判断する）
func (g *Gateway) Update(ctx context.Context, docID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		g.log.Debug("Update skipped: empty text", "id", docID)
		return ErrEmptyText
	}
	if _, editing := g.session.Editing(); !editing {
		g.log.Debug("Update skipped: no edit session", "id", docID)
		return ErrNoEditSession
	}
	id, ok := g.session.Identity()
	if !ok {
		g.log.Warn("Update skipped: identity not resolved", "id", docID)
		return ErrIdentityUnresolved
	}

	path := g.layout.CollectionPath(id.UID)
	if err := g.store.UpdateText(ctx, id.Token, path, docID, text); err != nil {
		return g.failed("update", path, docID, err)
	}
	return nil
}

// Delete はユーザーの確認を得てからメッセージを削除する
func (g *Gateway) Delete(ctx context.Context, docID string) error {
	id, ok := g.session.Identity()
	if !ok {
		g.log.Warn("Delete skipped: identity not resolved", "id", docID)
		return ErrIdentityUnresolved
	}
	if !g.confirmer.Confirm(ctx, deletePrompt) {
		return ErrNotConfirmed
	}

	path := g.layout.CollectionPath(id.UID)
	if err := g.store.Delete(ctx, id.Token, path, docID); err != nil {
		return g.failed("delete", path, docID, err)
	}
	return nil
}

func (g *Gateway) failed(op, path, docID string, err error) error {
	g.log.Error("Mutation failed", "op", op, "path", path, "id", docID, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrMutationFailed, op, err)
}

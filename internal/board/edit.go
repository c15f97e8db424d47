package board

import (
	"context"
	"log/slog"
)

// EditController は編集セッション（Idle / Editing）を管理する
// 同時に1つだけで、新しい編集を始めると現在のセッションは黙って置き換えられる
type EditController struct {
	session *Session
	gateway *Gateway
	log     *slog.Logger
}

// NewEditController は新しいEditControllerを作成する
func NewEditController(session *Session, gateway *Gateway, log *slog.Logger) *EditController {
	return &EditController{session: session, gateway: gateway, log: log}
}

// Begin はメッセージの現在の本文を下書きにして編集を始める
func (c *EditController) Begin(id, text string) {
	if prev, ok := c.session.Editing(); ok && prev.ID != id {
		c.log.Debug("Edit session replaced", "previous", prev.ID, "id", id)
	}
	c.session.beginEdit(id, text)
}

// SetDraft は下書きを置き換える。編集中でなければ false
func (c *EditController) SetDraft(text string) bool {
	return c.session.setDraft(text)
}

// Cancel は下書きを破棄して編集を終える
func (c *EditController) Cancel() {
	c.session.endEdit()
}

// Commit は下書きを送信し、成功したら編集を終える
// 下書きが空なら何も送信せず、セッションは開いたまま
func (c *EditController) Commit(ctx context.Context) error {
	edit, ok := c.session.Editing()
	if !ok {
		return ErrNoEditSession
	}
	if err := c.gateway.Update(ctx, edit.ID, edit.Draft); err != nil {
		return err
	}
	c.session.endEditIf(edit)
	return nil
}

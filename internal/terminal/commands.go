package terminal

import (
	"context"
	"strconv"
	"strings"
)

const helpText = `Commands:
  add <text>     post a message
  edit <n>       edit your message number n
  draft <text>   replace the draft of the message being edited
  save           save the draft
  cancel         discard the draft
  delete <n>     delete your message number n
  signout        sign out and sign in again
  help           show this help
  quit           exit
`

// Actions はコマンドから呼ばれる掲示板の操作
type Actions interface {
	Add(ctx context.Context, text string) bool
	Edit(id string) bool
	SetDraft(text string) bool
	Save(ctx context.Context) bool
	Cancel()
	Delete(ctx context.Context, id string) bool
	SignOut(ctx context.Context)
}

// Run は入力の終わりか quit まで、またはctxが終わるまでコマンドを処理する
func (c *Console) Run(ctx context.Context, actions Actions) {
	c.printf("%s", helpText)
	for {
		line, ok := c.readLine(ctx)
		if !ok {
			return
		}
		if !c.dispatch(ctx, actions, line) {
			return
		}
	}
}

// dispatch は1行のコマンドを実行する。終了する場合は false
func (c *Console) dispatch(ctx context.Context, actions Actions, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "quit", "exit":
		return false
	case "help":
		c.printf("%s", helpText)
	case "add":
		if !actions.Add(ctx, arg) {
			c.printf("Message not sent.\n")
		}
	case "edit":
		id, ok := c.argID(arg)
		if !ok {
			return true
		}
		if !actions.Edit(id) {
			c.printf("You can only edit your own messages.\n")
			return true
		}
		c.printf("Editing message %s. Use draft <text>, then save or cancel.\n", arg)
	case "draft":
		if !actions.SetDraft(arg) {
			c.printf("No message is being edited.\n")
		}
	case "save":
		if actions.Save(ctx) {
			c.printf("Saved.\n")
		} else {
			c.printf("Not saved. The draft is kept.\n")
		}
	case "cancel":
		actions.Cancel()
	case "delete":
		id, ok := c.argID(arg)
		if !ok {
			return true
		}
		if !actions.Delete(ctx, id) {
			c.printf("Message not deleted.\n")
		}
	case "signout":
		actions.SignOut(ctx)
	default:
		c.printf("Unknown command %q. Type help for the list.\n", cmd)
	}
	return true
}

// argID は一覧の番号をメッセージIDに変換する
func (c *Console) argID(arg string) (string, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		c.printf("Expected a message number, got %q.\n", arg)
		return "", false
	}
	id, ok := c.lookup(n)
	if !ok {
		c.printf("No message number %d.\n", n)
	}
	return id, ok
}

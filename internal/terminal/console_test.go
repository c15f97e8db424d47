package terminal

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tasukuchiba/message_board/internal/board"
	"github.com/tasukuchiba/message_board/internal/models"
)

// fakeActions は呼ばれた操作を記録する
type fakeActions struct {
	confirmer board.Confirmer
	owned     map[string]bool
	calls     []string
	saveOK    bool
}

func (a *fakeActions) Add(_ context.Context, text string) bool {
	a.calls = append(a.calls, "add:"+text)
	return text != ""
}

func (a *fakeActions) Edit(id string) bool {
	a.calls = append(a.calls, "edit:"+id)
	return a.owned[id]
}

func (a *fakeActions) SetDraft(text string) bool {
	a.calls = append(a.calls, "draft:"+text)
	return true
}

func (a *fakeActions) Save(context.Context) bool {
	a.calls = append(a.calls, "save")
	return a.saveOK
}

func (a *fakeActions) Cancel() {
	a.calls = append(a.calls, "cancel")
}

func (a *fakeActions) Delete(ctx context.Context, id string) bool {
	if !a.owned[id] || !a.confirmer.Confirm(ctx, "Delete this message?") {
		return false
	}
	a.calls = append(a.calls, "delete:"+id)
	return true
}

func (a *fakeActions) SignOut(context.Context) {
	a.calls = append(a.calls, "signout")
}

func readyView() board.View {
	return board.View{State: board.ViewReady, Entries: []board.Entry{
		{Message: models.Message{ID: "m2", Text: "World", AuthorID: "U2", CreatedAt: &models.Timestamp{Seconds: 2000}}},
		{Message: models.Message{ID: "m1", Text: "Hello", AuthorID: "U1"}, CanMutate: true},
	}}
}

func newTestConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(input), &out, false)
	c.now = func() time.Time { return time.Unix(0, 0).UTC() }
	return c, &out
}

func TestRender_States(t *testing.T) {
	req := require.New(t)
	c, out := newTestConsole("")

	c.Render(board.View{State: board.ViewLoading})
	req.Contains(out.String(), "Loading messages...")

	c.Render(board.View{State: board.ViewEmpty})
	req.Contains(out.String(), "No messages yet")

	c.Render(board.View{State: board.ViewFeedError, Problem: "permission denied"})
	req.Contains(out.String(), "Could not load messages: permission denied")
}

func TestRender_Entries(t *testing.T) {
	req := require.New(t)
	c, out := newTestConsole("")

	c.Render(readyView())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	req.Len(lines, 3)
	req.Contains(lines[1], "1970-01-01 00:33  World")
	req.NotContains(lines[1], "yours")
	req.Contains(lines[2], "just now  Hello")
	req.Contains(lines[2], "yours")

	id, ok := c.lookup(2)
	req.True(ok)
	req.Equal("m1", id)
	_, ok = c.lookup(3)
	req.False(ok)
}

func TestStatus(t *testing.T) {
	c, out := newTestConsole("")
	c.Status(board.StatusAuthFailed)
	require.Contains(t, out.String(), "Authentication failed")
}

func TestRun_Commands(t *testing.T) {
	req := require.New(t)
	c, out := newTestConsole(strings.Join([]string{
		"add Hello board",
		"edit 2",
		"draft Edited",
		"save",
		"edit 1",
		"cancel",
		"bogus",
		"signout",
		"quit",
		"add never",
	}, "\n"))
	c.Render(readyView())

	actions := &fakeActions{owned: map[string]bool{"m1": true}}
	actions.confirmer = c
	c.Run(context.Background(), actions)

	req.Equal([]string{
		"add:Hello board",
		"edit:m1",
		"draft:Edited",
		"save",
		"edit:m2",
		"cancel",
		"signout",
	}, actions.calls)
	req.Contains(out.String(), "Not saved. The draft is kept.")
	req.Contains(out.String(), "You can only edit your own messages.")
	req.Contains(out.String(), `Unknown command "bogus"`)
}

func TestRun_DeleteAsksForConfirmation(t *testing.T) {
	req := require.New(t)
	c, out := newTestConsole("delete 2\nn\ndelete 2\ny\ndelete 9\n")
	c.Render(readyView())

	actions := &fakeActions{owned: map[string]bool{"m1": true}}
	actions.confirmer = c
	c.Run(context.Background(), actions)

	req.Equal([]string{"delete:m1"}, actions.calls)
	req.Equal(2, strings.Count(out.String(), "Delete this message? [y/N]"))
	req.Contains(out.String(), "Message not deleted.")
	req.Contains(out.String(), "No message number 9.")
}

func TestConfirm_EndOfInputIsNo(t *testing.T) {
	c, _ := newTestConsole("")
	require.False(t, c.Confirm(context.Background(), "Delete this message?"))
}

package terminal

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/tasukuchiba/message_board/internal/board"
	"github.com/tasukuchiba/message_board/internal/models"
)

const timeLayout = "2006-01-02 15:04"

// Render は一覧全体を描画し直す
func (c *Console) Render(v board.View) {
	var b strings.Builder
	b.WriteString("\n" + c.colors.header(" Messages ") + "\n")

	switch v.State {
	case board.ViewLoading:
		b.WriteString(c.colors.muted("Loading messages...") + "\n")
	case board.ViewEmpty:
		b.WriteString(c.colors.muted("No messages yet. Be the first to post!") + "\n")
	case board.ViewFeedError:
		b.WriteString(c.colors.problem("Could not load messages: "+v.Problem) + "\n")
	case board.ViewReady:
		for i, entry := range v.Entries {
			b.WriteString(c.formatEntry(i+1, entry) + "\n")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.numbered = lo.Map(v.Entries, func(e board.Entry, _ int) string { return e.Message.ID })
	fmt.Fprint(c.out, b.String())
}

func (c *Console) formatEntry(n int, entry board.Entry) string {
	line := fmt.Sprintf("%3d. %s  %s", n, c.colors.muted(c.formatTime(entry.Message.CreatedAt)), entry.Message.Text)
	if entry.CanMutate {
		line += "  " + c.colors.owned("(yours: edit/delete)")
	}
	return line
}

// formatTime はサーバー時刻を現地時刻で表示する。未割り当てなら「just now」
func (c *Console) formatTime(ts *models.Timestamp) string {
	if ts == nil {
		return "just now"
	}
	return ts.Time().In(c.now().Location()).Format(timeLayout)
}

// Status はステータス行を描画する
func (c *Console) Status(s board.Status) {
	var text string
	switch s {
	case board.StatusConnecting:
		text = "Connecting..."
	case board.StatusSignedIn:
		text = "Signed in"
	case board.StatusAuthFailed:
		text = c.colors.problem("Authentication failed. Messages cannot be loaded.")
	default:
		text = s.String()
	}
	c.printf("%s %s\n", c.colors.status("*"), text)
}

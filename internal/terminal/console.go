// Package terminal は掲示板の端末用フロントエンド
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/tasukuchiba/message_board/internal/board"
)

// style は色付けの関数
type style func(a ...any) string

// palette は表示要素ごとの色
type palette struct {
	header  style
	owned   style
	muted   style
	problem style
	status  style
}

func newPalette(colours bool) palette {
	if !colours {
		plain := func(a ...any) string { return fmt.Sprint(a...) }
		return palette{header: plain, owned: plain, muted: plain, problem: plain, status: plain}
	}
	return palette{
		header:  color.New(color.BgBlack, color.FgGreen).Render,
		owned:   color.FgCyan.Render,
		muted:   color.FgGray.Render,
		problem: color.FgRed.Render,
		status:  color.FgYellow.Render,
	}
}

// Console は標準入出力で一覧を描画し、コマンドと確認の入力を受け付ける
// 入力行は1つのチャネルにまとめ、コマンドと確認で共有する
type Console struct {
	lines  chan string
	out    io.Writer
	colors palette
	now    func() time.Time

	mu sync.Mutex
	// 最後に描画した一覧の番号とID
	numbered []string
}

var (
	_ board.Renderer  = (*Console)(nil)
	_ board.Confirmer = (*Console)(nil)
)

// NewConsole は新しいConsoleを作成し、入力の読み取りを開始する
func NewConsole(in io.Reader, out io.Writer, colours bool) *Console {
	c := &Console{
		lines:  make(chan string),
		out:    out,
		colors: newPalette(colours),
		now:    time.Now,
	}
	go c.scan(in)
	return c
}

func (c *Console) scan(in io.Reader) {
	defer close(c.lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		c.lines <- scanner.Text()
	}
}

// readLine は次の入力行を返す。入力の終わりかctxの終了で false
func (c *Console) readLine(ctx context.Context) (string, bool) {
	select {
	case line, ok := <-c.lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

// Confirm は yes/no を尋ねる。y か yes 以外は no とみなす
func (c *Console) Confirm(ctx context.Context, prompt string) bool {
	c.printf("%s [y/N] ", prompt)
	line, ok := c.readLine(ctx)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (c *Console) printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, a...)
}

// lookup は一覧の番号（1始まり）からメッセージIDを返す
func (c *Console) lookup(n int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 || n > len(c.numbered) {
		return "", false
	}
	return c.numbered[n-1], true
}

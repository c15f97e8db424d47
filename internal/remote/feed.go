package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tasukuchiba/message_board/internal/board"
	"github.com/tasukuchiba/message_board/internal/models"
)

const (
	// 接続待機時間
	handshakeTimeout = 10 * time.Second

	// 受信するスナップショットの最大サイズ
	maxFrameSize = 8 << 20
)

var _ board.Feed = (*Feed)(nil)

// Feed はWebSocketでコレクションを購読する
type Feed struct {
	wsURL  string
	dialer *websocket.Dialer
	log    *slog.Logger
}

// NewFeed はストアサーバーのURLから新しいFeedを作成する
func NewFeed(baseURL string, log *slog.Logger) (*Feed, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path += "/ws"

	return &Feed{
		wsURL:  u.String(),
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		log:    log,
	}, nil
}

// Subscribe はコレクションの購読を開始する。接続はバックグラウンドで行う
// 接続失敗、エラーフレーム、切断はいずれも onError で一度だけ通知し、再接続はしない
// 解除後はコールバックを呼ばない
func (f *Feed) Subscribe(token, path string, onSnapshot func(board.Snapshot), onError func(error)) board.Unsubscribe {
	ctx, cancel := context.WithCancel(context.Background())
	sub := &feedSubscription{
		feed:       f,
		token:      token,
		path:       path,
		onSnapshot: onSnapshot,
		onError:    onError,
		ctx:        ctx,
	}
	go sub.run()

	return sync.OnceFunc(func() {
		cancel()
		sub.closeConn()
	})
}

type feedSubscription struct {
	feed       *Feed
	token      string
	path       string
	onSnapshot func(board.Snapshot)
	onError    func(error)
	ctx        context.Context

	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *feedSubscription) run() {
	conn, err := s.dial()
	if err != nil {
		s.fail(err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.fail(fmt.Errorf("feed closed: %w", err))
			return
		}

		var frame models.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.fail(fmt.Errorf("decode frame: %w", err))
			return
		}

		switch frame.Type {
		case models.FrameSnapshot:
			if s.ctx.Err() != nil {
				return
			}
			s.onSnapshot(board.Snapshot{Docs: frame.Docs})
		case models.FrameError:
			s.fail(errors.New(frame.Error))
			return
		default:
			s.feed.log.Warn("Unknown frame type", "type", frame.Type, "path", s.path)
		}
	}
}

func (s *feedSubscription) dial() (*websocket.Conn, error) {
	u, err := url.Parse(s.feed.wsURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("path", s.path)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.token)

	conn, resp, err := s.feed.dialer.DialContext(s.ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("subscribe %s: %w", s.path, &StatusError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)})
		}
		return nil, fmt.Errorf("subscribe %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// 接続中に解除された
	if s.ctx.Err() != nil {
		conn.Close()
		return nil, s.ctx.Err()
	}
	s.conn = conn
	s.feed.log.Debug("Feed connected", "path", s.path)
	return conn, nil
}

// fail は解除されていなければ終端エラーを通知する
func (s *feedSubscription) fail(err error) {
	if s.ctx.Err() != nil {
		return
	}
	s.feed.log.Warn("Feed failed", "path", s.path, "error", err)
	s.onError(err)
}

func (s *feedSubscription) closeConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return
	}
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.conn.Close()
}

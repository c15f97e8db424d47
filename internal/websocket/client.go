package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tasukuchiba/message_board/internal/auth"
	"github.com/tasukuchiba/message_board/internal/models"
	"github.com/tasukuchiba/message_board/internal/storage"
)

const (
	// 書き込み待機時間
	writeWait = 10 * time.Second

	// pongメッセージの待機時間
	pongWait = 60 * time.Second

	// ping送信間隔（pongWaitより短くする必要がある）
	pingPeriod = (pongWait * 9) / 10

	// 最大メッセージサイズ（購読者からはcontrolフレーム以外を受け付けない）
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 開発環境用: 全てのオリジンを許可
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Verifier はセッショントークンを検証してUIDを返す
type Verifier interface {
	Verify(token string) (string, error)
}

// Client は単一のWebSocket購読を表す
type Client struct {
	hub *Hub

	// WebSocket接続
	conn *websocket.Conn

	// 送信用バッファチャネル
	send chan []byte

	// 購読者のUID
	uid string

	// 購読しているコレクションパス
	path string
}

// NewClient は新しいClientを作成する
func NewClient(hub *Hub, conn *websocket.Conn, uid, path string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
		uid:  uid,
		path: path,
	}
}

// ReadPump はWebSocket接続を監視し、切断時に購読を解除する
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("WebSocket error", "uid", c.uid, "error", err)
			}
			break
		}
	}
}

// WritePump はスナップショットをWebSocket接続に書き込む
// 1フレーム = 1メッセージで送る（スナップショットは常に完全な状態なので結合しない）
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hubがチャネルをクローズした
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// BearerToken はAuthorizationヘッダーまたはtokenクエリからトークンを取り出す
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// ServeWs はWebSocket接続をアップグレードしてコレクションの購読を登録する
func ServeWs(hub *Hub, verifier Verifier, w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if !storage.IsCollection(path) {
		http.Error(w, "collection path parameter is required", http.StatusBadRequest)
		return
	}

	uid, err := verifier.Verify(BearerToken(r))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	// 権限エラーは購読の終端エラーとしてフレームで通知する
	if err := auth.CanAccess(uid, path); err != nil {
		rejectSubscription(conn, path, err)
		return
	}

	client := NewClient(hub, conn, uid, path)
	client.hub.register <- client

	// goroutineで読み書きを並行実行
	go client.WritePump()
	go client.ReadPump()
}

func rejectSubscription(conn *websocket.Conn, path string, cause error) {
	defer conn.Close()
	frame, err := models.Frame{Type: models.FrameError, Path: path, Error: cause.Error()}.Encode()
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, cause.Error()))
}

package websocket

import (
	"log/slog"
	"sync/atomic"

	"github.com/tasukuchiba/message_board/internal/models"
	"github.com/tasukuchiba/message_board/internal/storage"
)

// Hub は全WebSocketクライアントの購読を管理し、コレクションの変更時に
// 最新のスナップショットを購読者へ配信する
type Hub struct {
	// 接続中のクライアント
	clients map[*Client]bool

	// 変更されたコレクションパスの通知用チャネル
	publish chan string

	// クライアント登録用チャネル
	register chan *Client

	// クライアント登録解除用チャネル
	unregister chan *Client

	// スナップショット取得元のストレージ
	storage storage.Storage

	log *slog.Logger

	// 接続数（Run以外のgoroutineから参照される）
	count atomic.Int64
}

// NewHub は新しいHubを作成する
func NewHub(store storage.Storage, log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		publish:    make(chan string, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		storage:    store,
		log:        log,
	}
}

// Run はHubのメインループを開始する
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
			h.log.Info("Client subscribed", "uid", client.uid, "path", client.path, "total", len(h.clients))
			// 購読開始時に現在の状態を送る
			if frame, ok := h.snapshot(client.path); ok {
				h.deliver(client, frame)
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.count.Store(int64(len(h.clients)))
				h.log.Info("Client unsubscribed", "uid", client.uid, "path", client.path, "total", len(h.clients))
			}

		case path := <-h.publish:
			frame, ok := h.snapshot(path)
			if !ok {
				continue
			}
			for client := range h.clients {
				if client.path == path {
					h.deliver(client, frame)
				}
			}
		}
	}
}

// Publish はコレクションが変更されたことをHubに通知する
func (h *Hub) Publish(path string) {
	h.publish <- path
}

// snapshot はコレクション全体のスナップショットフレームを作成する
func (h *Hub) snapshot(path string) ([]byte, bool) {
	docs, err := h.storage.GetAll(path)
	if err != nil {
		h.log.Error("Failed to load snapshot", "path", path, "error", err)
		return nil, false
	}
	data, err := models.NewSnapshotFrame(path, docs).Encode()
	if err != nil {
		h.log.Error("Failed to encode snapshot", "path", path, "error", err)
		return nil, false
	}
	return data, true
}

// deliver はクライアントへフレームを送る。送信バッファが詰まっている場合は切断する
func (h *Hub) deliver(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
		close(client.send)
		delete(h.clients, client)
		h.count.Store(int64(len(h.clients)))
		h.log.Warn("Dropped slow client", "uid", client.uid, "path", client.path)
	}
}

// ClientCount は接続中のクライアント数を返す
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tasukuchiba/message_board/internal/auth"
	"github.com/tasukuchiba/message_board/internal/storage"
	"github.com/tasukuchiba/message_board/internal/websocket"
)

// NewRouter はストアサーバーのルーティングを設定する
// ドキュメントのパスは可変長なのでプレフィックスで受けて HandleDocuments が解釈する
func NewRouter(store storage.Storage, hub *websocket.Hub, issuer *auth.Issuer, log *slog.Logger) *mux.Router {
	messageHandler := NewMessageHandler(store, hub, issuer, log)
	authHandler := NewAuthHandler(issuer, log)

	router := mux.NewRouter()
	router.HandleFunc("/auth/anonymous", authHandler.HandleAnonymous)
	router.HandleFunc("/auth/token", authHandler.HandleCustomToken)
	router.PathPrefix(documentsPrefix).HandlerFunc(messageHandler.HandleDocuments)

	// WebSocketエンドポイント
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.ServeWs(hub, issuer, w, r)
	})

	// ヘルスチェック用エンドポイント
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	return router
}

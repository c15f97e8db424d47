package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/tasukuchiba/message_board/internal/auth"
	"github.com/tasukuchiba/message_board/internal/models"
	"github.com/tasukuchiba/message_board/internal/storage"
)

// documentsPrefix はドキュメントAPIのURLプレフィックス
const documentsPrefix = "/documents/"

var validate = validator.New()

// Notifier はコレクションの変更を購読者へ通知する
type Notifier interface {
	Publish(path string)
}

// Verifier はセッショントークンを検証してUIDを返す
type Verifier interface {
	Verify(token string) (string, error)
}

// MessageHandler はメッセージ関連のHTTPリクエストを処理する
type MessageHandler struct {
	storage  storage.Storage
	notifier Notifier
	verifier Verifier
	log      *slog.Logger
	now      func() time.Time
}

// NewMessageHandler は新しいMessageHandlerを作成する
func NewMessageHandler(s storage.Storage, n Notifier, v Verifier, log *slog.Logger) *MessageHandler {
	return &MessageHandler{storage: s, notifier: n, verifier: v, log: log, now: time.Now}
}

// HandleDocuments は /documents/{path} エンドポイントのハンドラー
// セグメント数が奇数ならコレクション、偶数ならドキュメントを指す
func (h *MessageHandler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, documentsPrefix), "/")
	segs := storage.Segments(path)
	if segs == nil {
		http.Error(w, "Document path is required", http.StatusBadRequest)
		return
	}

	uid, err := h.verifier.Verify(bearerToken(r))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := auth.CanAccess(uid, path); err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if len(segs)%2 == 1 {
		h.handleCollection(w, r, uid, path)
		return
	}
	collection := strings.Join(segs[:len(segs)-1], "/")
	h.handleDocument(w, r, uid, collection, segs[len(segs)-1])
}

func (h *MessageHandler) handleCollection(w http.ResponseWriter, r *http.Request, uid, path string) {
	switch r.Method {
	case http.MethodGet:
		h.getMessages(w, path)
	case http.MethodPost:
		h.createMessage(w, r, uid, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *MessageHandler) handleDocument(w http.ResponseWriter, r *http.Request, uid, path, id string) {
	switch r.Method {
	case http.MethodGet:
		h.getMessageByID(w, path, id)
	case http.MethodPatch:
		h.updateMessage(w, r, uid, path, id)
	case http.MethodDelete:
		h.deleteMessage(w, uid, path, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getMessages はコレクション内の全てのメッセージを取得する
func (h *MessageHandler) getMessages(w http.ResponseWriter, path string) {
	messages, err := h.storage.GetAll(path)
	if err != nil {
		h.log.Error("Failed to list messages", "path", path, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// getMessageByID は指定されたIDのメッセージを取得する
func (h *MessageHandler) getMessageByID(w http.ResponseWriter, path, id string) {
	msg, err := h.storage.GetByID(path, id)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// createMessage は新しいメッセージを作成する。IDと作成日時はサーバーが割り当てる
func (h *MessageHandler) createMessage(w http.ResponseWriter, r *http.Request, uid, path string) {
	var req models.NewRecord
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Invalid record: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := auth.CanWriteAs(uid, req.AuthorID); err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	msg := models.Message{
		ID:        ulid.Make().String(),
		Text:      req.Text,
		AuthorID:  req.AuthorID,
		CreatedAt: models.NewTimestamp(h.now()),
	}

	if err := h.storage.Save(path, msg); err != nil {
		h.log.Error("Failed to save message", "path", path, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.notifier.Publish(path)

	writeJSON(w, http.StatusCreated, msg)
}

// updateMessage はメッセージ本文を置き換える。所有者のみ許可される
func (h *MessageHandler) updateMessage(w http.ResponseWriter, r *http.Request, uid, path, id string) {
	var req models.TextPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Invalid record: "+err.Error(), http.StatusBadRequest)
		return
	}

	if !h.authorizeModify(w, uid, path, id) {
		return
	}

	if err := h.storage.UpdateText(path, id, req.Text); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.notifier.Publish(path)

	w.WriteHeader(http.StatusNoContent)
}

// deleteMessage は指定されたIDのメッセージを削除する。所有者のみ許可される
func (h *MessageHandler) deleteMessage(w http.ResponseWriter, uid, path, id string) {
	if !h.authorizeModify(w, uid, path, id) {
		return
	}

	if err := h.storage.Delete(path, id); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.notifier.Publish(path)

	w.WriteHeader(http.StatusNoContent)
}

// authorizeModify は既存メッセージの所有者かどうかを確認する
func (h *MessageHandler) authorizeModify(w http.ResponseWriter, uid, path, id string) bool {
	stored, err := h.storage.GetByID(path, id)
	if err != nil {
		h.writeStorageError(w, err)
		return false
	}
	if err := auth.CanModify(uid, path, stored.AuthorID); err != nil {
		h.log.Warn("Rejected write from non-owner", "uid", uid, "path", path, "id", id)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func (h *MessageHandler) writeStorageError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}
	h.log.Error("Storage error", "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

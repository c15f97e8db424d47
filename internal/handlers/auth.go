package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tasukuchiba/message_board/internal/models"
)

// SignInProvider はサインインを処理してセッショントークンを発行する
type SignInProvider interface {
	SignInAnonymously() (uid, token string, err error)
	SignInWithCustomToken(customToken string) (uid, token string, err error)
}

// AuthHandler はサインイン関連のHTTPリクエストを処理する
type AuthHandler struct {
	provider SignInProvider
	log      *slog.Logger
}

// NewAuthHandler は新しいAuthHandlerを作成する
func NewAuthHandler(p SignInProvider, log *slog.Logger) *AuthHandler {
	return &AuthHandler{provider: p, log: log}
}

// CustomTokenRequest はカスタムトークンでのサインインリクエストのボディ
type CustomTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// HandleAnonymous は /auth/anonymous エンドポイントのハンドラー
func (h *AuthHandler) HandleAnonymous(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uid, token, err := h.provider.SignInAnonymously()
	if err != nil {
		h.log.Error("Anonymous sign-in failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.log.Info("Anonymous sign-in", "uid", uid)

	writeJSON(w, http.StatusOK, models.Identity{UID: uid, Token: token})
}

// HandleCustomToken は /auth/token エンドポイントのハンドラー
func (h *AuthHandler) HandleCustomToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CustomTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	uid, token, err := h.provider.SignInWithCustomToken(req.Token)
	if err != nil {
		h.log.Warn("Custom token sign-in rejected", "error", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	h.log.Info("Custom token sign-in", "uid", uid)

	writeJSON(w, http.StatusOK, models.Identity{UID: uid, Token: token})
}

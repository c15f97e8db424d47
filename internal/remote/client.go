// Package remote はストアサーバーへのクライアント実装
// HTTPでサインインと書き込みを行い、WebSocketでコレクションを購読する
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tasukuchiba/message_board/internal/board"
	"github.com/tasukuchiba/message_board/internal/models"
)

const (
	defaultHTTPTimeout        = 30 * time.Second
	defaultHTTPConnectTimeout = 5 * time.Second
	defaultHTTPTLSTimeout     = 5 * time.Second
)

var (
	_ board.Authenticator = (*Client)(nil)
	_ board.Store         = (*Client)(nil)
)

// StatusError はストアが2xx以外で応答したことを示す
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("store responded %d: %s", e.Code, e.Message)
}

func defaultHTTPClient() *http.Client {
	dialer := &net.Dialer{Timeout: defaultHTTPConnectTimeout}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: defaultHTTPTLSTimeout,
		},
		Timeout: defaultHTTPTimeout,
	}
}

// Client はストアサーバーのHTTP APIクライアント
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient は新しいClientを作成する
func NewClient(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    defaultHTTPClient(),
		log:     log,
	}
}

// SignInAnonymously は匿名でサインインする
func (c *Client) SignInAnonymously(ctx context.Context) (models.Identity, error) {
	var id models.Identity
	if err := c.do(ctx, http.MethodPost, "/auth/anonymous", "", nil, &id); err != nil {
		return models.Identity{}, fmt.Errorf("anonymous sign-in: %w", err)
	}
	return id, nil
}

// SignInWithCustomToken はブートストラップ用のカスタムトークンでサインインする
func (c *Client) SignInWithCustomToken(ctx context.Context, customToken string) (models.Identity, error) {
	var id models.Identity
	body := map[string]string{"token": customToken}
	if err := c.do(ctx, http.MethodPost, "/auth/token", "", body, &id); err != nil {
		return models.Identity{}, fmt.Errorf("custom token sign-in: %w", err)
	}
	return id, nil
}

// Add はコレクションにレコードを作成し、ストアが割り当てたIDを返す
func (c *Client) Add(ctx context.Context, token, path string, record models.NewRecord) (string, error) {
	var created models.Message
	if err := c.do(ctx, http.MethodPost, documentURL(path), token, record, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// UpdateText はメッセージ本文を置き換える
func (c *Client) UpdateText(ctx context.Context, token, path, id, text string) error {
	return c.do(ctx, http.MethodPatch, documentURL(path, id), token, models.TextPatch{Text: text}, nil)
}

// Delete はメッセージを削除する
func (c *Client) Delete(ctx context.Context, token, path, id string) error {
	return c.do(ctx, http.MethodDelete, documentURL(path, id), token, nil, nil)
}

// documentURL はパスの各セグメントをエスケープしてドキュメントAPIのURLを作る
func documentURL(path string, id ...string) string {
	segs := append(strings.Split(path, "/"), id...)
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return "/documents/" + strings.Join(segs, "/")
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// エラー応答のボディはメッセージ本文
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	c.log.Debug("Store request", "method", method, "endpoint", endpoint, "status", resp.StatusCode)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

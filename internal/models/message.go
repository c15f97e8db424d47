package models

import (
	"encoding/json"
	"time"
)

// ServerTimestamp は作成時刻をサーバー側で割り当てることを示すセンチネル値
const ServerTimestamp = "REQUEST_TIME"

// Timestamp はサーバーが割り当てる論理タイムスタンプ（秒 + ナノ秒）
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

// NewTimestamp は time.Time から Timestamp を作成する
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// Time は Timestamp を time.Time に変換する
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos))
}

// Message は掲示板のメッセージ（ストアに保存されるドキュメント）を表す構造体
type Message struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	AuthorID  string     `json:"authorId,omitempty"`
	CreatedAt *Timestamp `json:"createdAt,omitempty"`
}

// Seconds は並べ替え用の秒を返す。タイムスタンプ未割り当ての場合は0
func (m Message) Seconds() int64 {
	if m.CreatedAt == nil {
		return 0
	}
	return m.CreatedAt.Seconds
}

// NewRecord はクライアントが作成時に送信するレコード
type NewRecord struct {
	Text      string `json:"text" validate:"required,max=2000"`
	AuthorID  string `json:"authorId,omitempty" validate:"omitempty,max=128"`
	CreatedAt string `json:"createdAt" validate:"eq=REQUEST_TIME"`
}

// TextPatch はメッセージ本文の全置換リクエスト
type TextPatch struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// フレーム種別
const (
	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// Frame はサブスクリプション経由でクライアントへ送るペイロード
// Snapshot フレームは常にコレクション全体の現在状態を含む
type Frame struct {
	Type  string    `json:"type"`
	Path  string    `json:"path"`
	Docs  []Message `json:"docs,omitempty"`
	Empty bool      `json:"empty,omitempty"`
	Error string    `json:"error,omitempty"`
}

// NewSnapshotFrame はスナップショットフレームを作成する
func NewSnapshotFrame(path string, docs []Message) Frame {
	return Frame{Type: FrameSnapshot, Path: path, Docs: docs, Empty: len(docs) == 0}
}

// Encode はフレームをJSONに変換する
func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// Identity はサインインで発行されたセッション情報
type Identity struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
}

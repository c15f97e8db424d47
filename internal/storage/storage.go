package storage

import (
	"errors"
	"sort"
	"strings"

	"github.com/tasukuchiba/message_board/internal/models"
)

// ErrNotFound はメッセージが見つからない場合のエラー
var ErrNotFound = errors.New("message not found")

// ErrInvalidPath はコレクションパスが不正な場合のエラー
var ErrInvalidPath = errors.New("invalid collection path")

// Storage はコレクションパスごとにメッセージを保存するストレージのインターフェース
type Storage interface {
	// Save はメッセージを保存する
	Save(path string, msg models.Message) error

	// GetAll はコレクション内の全てのメッセージを取得する
	GetAll(path string) ([]models.Message, error)

	// GetByID は指定されたIDのメッセージを取得する
	GetByID(path, id string) (models.Message, error)

	// UpdateText は指定されたIDのメッセージ本文を置き換える
	UpdateText(path, id, text string) error

	// Delete は指定されたIDのメッセージを削除する
	Delete(path, id string) error
}

// Segments はパスをセグメントに分割する。空のセグメントを含む場合は nil を返す
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if s == "" {
			return nil
		}
	}
	return segs
}

// IsCollection はパスがコレクションを指すかどうかを返す（セグメント数が奇数）
func IsCollection(path string) bool {
	segs := Segments(path)
	return len(segs)%2 == 1
}

// sortByCreatedAt は作成日時の昇順に並べる（ストレージ共通の返却順）
func sortByCreatedAt(messages []models.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		a, b := messages[i], messages[j]
		if a.Seconds() != b.Seconds() {
			return a.Seconds() < b.Seconds()
		}
		return a.ID < b.ID
	})
}

package storage

import (
	"sync"

	"github.com/tasukuchiba/message_board/internal/models"
)

// MemoryStorage はメッセージをメモリ上に保存するストレージ
type MemoryStorage struct {
	mu          sync.RWMutex
	collections map[string][]models.Message
}

// NewMemoryStorage は新しいMemoryStorageを作成する
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		collections: make(map[string][]models.Message),
	}
}

// Save はメッセージを保存する
func (s *MemoryStorage) Save(path string, msg models.Message) error {
	if !IsCollection(path) {
		return ErrInvalidPath
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[path] = append(s.collections[path], msg)
	return nil
}

// GetAll はコレクション内の全てのメッセージを取得する
func (s *MemoryStorage) GetAll(path string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := s.collections[path]
	result := make([]models.Message, len(messages))
	for i, msg := range messages {
		result[i] = msg
		if msg.CreatedAt != nil {
			ts := *msg.CreatedAt
			result[i].CreatedAt = &ts
		}
	}
	sortByCreatedAt(result)
	return result, nil
}

// GetByID は指定されたIDのメッセージを取得する
func (s *MemoryStorage) GetByID(path, id string) (models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, msg := range s.collections[path] {
		if msg.ID == id {
			return msg, nil
		}
	}
	return models.Message{}, ErrNotFound
}

// UpdateText は指定されたIDのメッセージ本文を置き換える
func (s *MemoryStorage) UpdateText(path, id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := s.collections[path]
	for i := range messages {
		if messages[i].ID == id {
			messages[i].Text = text
			return nil
		}
	}
	return ErrNotFound
}

// Delete は指定されたIDのメッセージを削除する
func (s *MemoryStorage) Delete(path, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := s.collections[path]
	for i, msg := range messages {
		if msg.ID == id {
			s.collections[path] = append(messages[:i], messages[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

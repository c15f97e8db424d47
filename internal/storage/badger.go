package storage

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/tasukuchiba/message_board/internal/models"
)

// BadgerStorage はメッセージを組み込みKVストア(BadgerDB)に保存するストレージ
// キーは "msg:{collection_path}\x00{id}" の形式。パスに \x00 は含まれないため
// サブコレクションのキーと衝突しない
type BadgerStorage struct {
	db  *badger.DB
	log *slog.Logger
}

// NewBadgerStorage は指定ディレクトリのBadgerDBを開いてBadgerStorageを作成する
func NewBadgerStorage(dir string, log *slog.Logger) (*BadgerStorage, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, err
	}
	return &BadgerStorage{db: db, log: log}, nil
}

// NewBadgerStorageFromDB は既存のDBからBadgerStorageを作成する
func NewBadgerStorageFromDB(db *badger.DB, log *slog.Logger) *BadgerStorage {
	return &BadgerStorage{db: db, log: log}
}

func collectionPrefix(path string) []byte {
	return []byte("msg:" + path + "\x00")
}

func documentKey(path, id string) []byte {
	return append(collectionPrefix(path), id...)
}

// Save はメッセージを保存する
func (s *BadgerStorage) Save(path string, msg models.Message) error {
	if !IsCollection(path) {
		return ErrInvalidPath
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(documentKey(path, msg.ID), value)
	})
}

// GetAll はプレフィックススキャンでコレクション内の全てのメッセージを取得する
func (s *BadgerStorage) GetAll(path string) ([]models.Message, error) {
	messages := []models.Message{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := collectionPrefix(path)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var msg models.Message
				if err := json.Unmarshal(value, &msg); err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Collection scanned", "path", path, "count", len(messages))
	sortByCreatedAt(messages)
	return messages, nil
}

// GetByID は指定されたIDのメッセージを取得する
func (s *BadgerStorage) GetByID(path, id string) (models.Message, error) {
	var msg models.Message
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey(path, id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &msg)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Message{}, ErrNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// UpdateText は指定されたIDのメッセージ本文を置き換える
func (s *BadgerStorage) UpdateText(path, id, text string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		key := documentKey(path, id)
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var msg models.Message
		if err := item.Value(func(value []byte) error {
			return json.Unmarshal(value, &msg)
		}); err != nil {
			return err
		}
		msg.Text = text
		value, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		return txn.Set(key, value)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// Delete は指定されたIDのメッセージを削除する
func (s *BadgerStorage) Delete(path, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		key := documentKey(path, id)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// Close はデータベースを閉じる
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

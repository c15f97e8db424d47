package storage

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/tasukuchiba/message_board/internal/models"
)

// PostgresStorage はメッセージをPostgreSQLに保存するストレージ
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage は新しいPostgresStorageを作成する
func NewPostgresStorage(databaseURL string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// 接続プール設定
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 接続確認
	if err := db.Ping(); err != nil {
		return nil, err
	}

	storage := &PostgresStorage{db: db}

	// マイグレーション実行
	if err := storage.migrate(); err != nil {
		return nil, err
	}

	return storage, nil
}

// migrate はデータベーススキーマを作成する
func (s *PostgresStorage) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS board_messages (
			collection_path TEXT NOT NULL,
			id VARCHAR(26) NOT NULL,
			text TEXT NOT NULL,
			author_id VARCHAR(128) NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE,
			PRIMARY KEY (collection_path, id)
		);
		CREATE INDEX IF NOT EXISTS idx_board_messages_created_at ON board_messages(collection_path, created_at);
	`
	_, err := s.db.Exec(query)
	return err
}

// Save はメッセージを保存する
func (s *PostgresStorage) Save(path string, msg models.Message) error {
	if !IsCollection(path) {
		return ErrInvalidPath
	}
	query := `
		INSERT INTO board_messages (collection_path, id, text, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	var createdAt sql.NullTime
	if msg.CreatedAt != nil {
		createdAt = sql.NullTime{Time: msg.CreatedAt.Time(), Valid: true}
	}
	_, err := s.db.Exec(query, path, msg.ID, msg.Text, msg.AuthorID, createdAt)
	return err
}

// GetAll はコレクション内の全てのメッセージを取得する
func (s *PostgresStorage) GetAll(path string) ([]models.Message, error) {
	query := `
		SELECT id, text, author_id, created_at
		FROM board_messages
		WHERE collection_path = $1
		ORDER BY created_at ASC NULLS FIRST, id ASC
	`
	rows, err := s.db.Query(query, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// nilではなく空のスライスを返す
	if messages == nil {
		messages = []models.Message{}
	}

	return messages, nil
}

// GetByID は指定されたIDのメッセージを取得する
func (s *PostgresStorage) GetByID(path, id string) (models.Message, error) {
	query := `
		SELECT id, text, author_id, created_at
		FROM board_messages
		WHERE collection_path = $1 AND id = $2
	`
	msg, err := scanMessage(s.db.QueryRow(query, path, id))
	if err == sql.ErrNoRows {
		return models.Message{}, ErrNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// UpdateText は指定されたIDのメッセージ本文を置き換える
func (s *PostgresStorage) UpdateText(path, id, text string) error {
	query := `UPDATE board_messages SET text = $3 WHERE collection_path = $1 AND id = $2`
	return s.execAffectingOne(query, path, id, text)
}

// Delete は指定されたIDのメッセージを削除する
func (s *PostgresStorage) Delete(path, id string) error {
	query := `DELETE FROM board_messages WHERE collection_path = $1 AND id = $2`
	return s.execAffectingOne(query, path, id)
}

// execAffectingOne はクエリを実行し、対象行がなければ ErrNotFound を返す
func (s *PostgresStorage) execAffectingOne(query string, args ...any) error {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Close はデータベース接続を閉じる
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (models.Message, error) {
	var msg models.Message
	var createdAt sql.NullTime
	if err := row.Scan(&msg.ID, &msg.Text, &msg.AuthorID, &createdAt); err != nil {
		return models.Message{}, err
	}
	if createdAt.Valid {
		msg.CreatedAt = models.NewTimestamp(createdAt.Time)
	}
	return msg, nil
}

package main

import "time"

// Config はストアサーバーの設定（環境変数から読み込む）
type Config struct {
	Port            string        `env:"PORT,default=8080"`
	StorageType     string        `env:"STORAGE_TYPE,default=memory"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	DBHost          string        `env:"DB_HOST"`
	DBPort          string        `env:"DB_PORT,default=5432"`
	DBUsername      string        `env:"DB_USERNAME"`
	DBPassword      string        `env:"DB_PASSWORD"`
	DBName          string        `env:"DB_NAME"`
	BadgerDir       string        `env:"BADGER_DIR,default=./data/badger"`
	TokenSigningKey string        `env:"TOKEN_SIGNING_KEY,required=true"`
	SessionTTL      time.Duration `env:"SESSION_TTL,default=24h"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
}

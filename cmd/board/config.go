package main

// Config は端末クライアントの設定（環境変数から読み込む）
type Config struct {
	ServerURL      string `env:"BOARD_SERVER_URL,default=http://localhost:8080"`
	AppID          string `env:"BOARD_APP_ID,default=default-app-id"`
	Layout         string `env:"BOARD_LAYOUT,default=shared"`
	BootstrapToken string `env:"BOARD_BOOTSTRAP_TOKEN"`
	Colours        bool   `env:"BOARD_COLOURS,default=true"`
	LogLevel       string `env:"LOG_LEVEL,default=WARN"`
}

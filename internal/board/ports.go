//go:generate go run go.uber.org/mock/mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks
package board

import (
	"context"

	"github.com/tasukuchiba/message_board/internal/models"
)

// Authenticator はIDプロバイダー
type Authenticator interface {
	SignInAnonymously(ctx context.Context) (models.Identity, error)
	SignInWithCustomToken(ctx context.Context, customToken string) (models.Identity, error)
}

// Store はリモートのドキュメントストアへ書き込みを発行する
// 所有権の最終判断はストア側が行い、権限のない書き込みはストアが拒否する
type Store interface {
	Add(ctx context.Context, token, path string, record models.NewRecord) (string, error)
	UpdateText(ctx context.Context, token, path, id, text string) error
	Delete(ctx context.Context, token, path, id string) error
}

// Confirmer はユーザーにブロッキングで yes/no を尋ねる
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

package board

import (
	"fmt"

	"github.com/tasukuchiba/message_board/internal/models"
)

// Layout はストア内のコレクションの配置と、メッセージを変更できるユーザーを決める
// デプロイ時に一度だけ選択される
type Layout interface {
	// CollectionPath はユーザーが読み書きするコレクションパスを返す
	CollectionPath(uid string) string
	// AuthorField は新規レコードに付与する authorId を返す。空文字なら省略する
	AuthorField(uid string) string
	// CanMutate は uid が msg を編集・削除できるかを返す
	CanMutate(uid string, msg models.Message) bool
}

const (
	LayoutShared  = "shared"
	LayoutPerUser = "per-user"
)

// SharedLayout は全員のメッセージを1つのコレクションに置く。所有権は authorId で判定する
type SharedLayout struct {
	AppID string
}

func (l SharedLayout) CollectionPath(string) string {
	return fmt.Sprintf("artifacts/%s/public/data/messages", l.AppID)
}

func (l SharedLayout) AuthorField(uid string) string {
	return uid
}

func (l SharedLayout) CanMutate(uid string, msg models.Message) bool {
	return uid != "" && msg.AuthorID == uid
}

// PerUserLayout はUIDの下にコレクションを置く。パスそのものが所有権を表す
type PerUserLayout struct {
	AppID string
}

func (l PerUserLayout) CollectionPath(uid string) string {
	return fmt.Sprintf("artifacts/%s/users/%s/messages", l.AppID, uid)
}

func (l PerUserLayout) AuthorField(string) string {
	return ""
}

func (l PerUserLayout) CanMutate(uid string, _ models.Message) bool {
	return uid != ""
}

// ParseLayout は名前からLayoutを選択する
func ParseLayout(name, appID string) (Layout, error) {
	if appID == "" {
		return nil, fmt.Errorf("layout %q: application id is required", name)
	}
	switch name {
	case LayoutShared, "":
		return SharedLayout{AppID: appID}, nil
	case LayoutPerUser:
		return PerUserLayout{AppID: appID}, nil
	default:
		return nil, fmt.Errorf("unknown layout %q", name)
	}
}

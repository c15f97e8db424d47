package auth

import (
	"errors"

	"github.com/tasukuchiba/message_board/internal/storage"
)

// ErrPermissionDenied は操作が許可されていない場合のエラー
var ErrPermissionDenied = errors.New("permission denied")

// usersSegment はユーザーごとの名前空間を示すパスセグメント
const usersSegment = "users"

// CanAccess はUIDがパスを読み書きできるかを判定する
// ".../users/{uid}/..." 配下はそのUIDのみがアクセスできる
func CanAccess(uid, path string) error {
	if uid == "" {
		return ErrPermissionDenied
	}
	segs := storage.Segments(path)
	if segs == nil {
		return ErrPermissionDenied
	}
	for i := 0; i+1 < len(segs); i++ {
		if segs[i] == usersSegment && i%2 == 0 && segs[i+1] != uid {
			return ErrPermissionDenied
		}
	}
	return nil
}

// IsNamespaced はパスがユーザー名前空間配下かどうかを返す
func IsNamespaced(path string) bool {
	segs := storage.Segments(path)
	for i := 0; i+1 < len(segs); i++ {
		if segs[i] == usersSegment && i%2 == 0 {
			return true
		}
	}
	return false
}

// CanWriteAs は作成時の authorId が許可されるかを判定する
// authorId は省略するか、リクエストしたUIDと一致しなければならない
func CanWriteAs(uid, authorID string) error {
	if authorID != "" && authorID != uid {
		return ErrPermissionDenied
	}
	return nil
}

// CanModify は既存ドキュメントの更新・削除が許可されるかを判定する
// ユーザー名前空間配下でなければ、保存されている authorId との一致が必要
func CanModify(uid, path, storedAuthorID string) error {
	if err := CanAccess(uid, path); err != nil {
		return err
	}
	if IsNamespaced(path) {
		return nil
	}
	if storedAuthorID != uid {
		return ErrPermissionDenied
	}
	return nil
}

package board

import "errors"

var (
	// ErrAuthenticationFailed はIDが解決できなかったことを示す。フィードは開始されない
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrFeedSubscriptionFailed は報告した購読にとって終端のエラー
	ErrFeedSubscriptionFailed = errors.New("feed subscription failed")
	// ErrMutationFailed は拒否された作成・更新・削除を包む。ログに残すだけ
	ErrMutationFailed = errors.New("mutation failed")

	ErrIdentityUnresolved = errors.New("identity not resolved")
	ErrEmptyText          = errors.New("text is empty")
	ErrNoEditSession      = errors.New("no active edit session")
	ErrNotConfirmed       = errors.New("deletion not confirmed")
)

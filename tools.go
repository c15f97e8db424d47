//go:build tools
// +build tools

// mockgen を go.mod で管理するためのツール依存
package messageboard

import (
	_ "go.uber.org/mock/mockgen"
)

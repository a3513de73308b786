package testutil

import (
	"context"

	"MemeArena/internal/identity"
)

// StubVerifier token -> 用户 ID 的固定映射
type StubVerifier map[string]string

func (v StubVerifier) Verify(_ context.Context, token string) (string, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return "", identity.ErrInvalidToken
}

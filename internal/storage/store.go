// Package storage provides the key-value store backing auth tokens and
// small client flags. An explicit adapter object, injected where needed,
// instead of module-level singleton state.
package storage

import "errors"

// Store is a minimal persistent key-value contract. Implementations must
// be safe for concurrent use.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// ErrNotFound indicates the key has no stored value.
var ErrNotFound = errors.New("key not found")

// Well-known keys used by the client.
const (
	KeyAuthToken      = "auth_token"
	KeyOnboardingDone = "onboarding_done"
	KeyLastSessionID  = "last_session_id"
)

// Tokens adapts a Store to the API client's token contract.
type Tokens struct {
	Store Store
}

func (t Tokens) Token() (string, error) {
	value, err := t.Store.Get(KeyAuthToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return value, err
}

func (t Tokens) SetToken(token string) error {
	return t.Store.Set(KeyAuthToken, token)
}

func (t Tokens) ClearToken() error {
	return t.Store.Delete(KeyAuthToken)
}

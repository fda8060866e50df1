// Package storage is the persistence port used by the session and cart stores.
package storage

import (
	"encoding/json"
	"fmt"
)

// Persisted keys.
const (
	KeyUser         = "user"
	KeyCart         = "cart"
	KeyCurrentOrder = "currentOrder"
	KeyFeedbacks    = "feedbacks"

	// KeyFeedbacksCorrupt keeps an unreadable feedbacks value aside before a fresh list is started.
	KeyFeedbacksCorrupt = "feedbacks.corrupt"
)

// Store is a durable key/value capability. Values are opaque JSON documents.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// LoadJSON decodes the value under key into v. It reports false when the key is absent.
func LoadJSON(s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func SaveJSON(s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, raw)
}

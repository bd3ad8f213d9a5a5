// Package storage defines the durable client-side storage that mirrors
// session, payment-access and preference state between runs.
package storage

import (
	"encoding/json"
	"fmt"
)

// Storage keys for persisted client state.
const (
	KeyToken              = "token"
	KeyUser               = "user"
	KeyPaymentAccessToken = "paymentAccessToken"
	KeySidebarOpen        = "sidebarOpen"
	KeyTheme              = "theme"
)

// Storage is a string key/value store. Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the value for key; ok is false when the key is absent
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error
	Remove(key string) error
}

// GetJSON decodes the JSON value stored under key into out.
func GetJSON(s Storage, key string, out any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("[storage GetJSON] decode %q: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v as JSON and stores it under key.
func SetJSON(s Storage, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("[storage SetJSON] encode %q: %w", key, err)
	}
	return s.Set(key, string(b))
}

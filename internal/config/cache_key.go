package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionStartKey returns the cache key for a session's start timestamp.
func (r *CacheKeyStruct) SessionStartKey(sessionID string) string {
	return fmt.Sprintf("session:%s:started_at", sessionID)
}

// SessionProgressChannel returns the Redis PubSub channel for session progress.
func (r *CacheKeyStruct) SessionProgressChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:progress", sessionID)
}

// EmbeddingKey returns the cache key for a text embedding. The text itself is
// hashed so arbitrary question stems produce bounded key sizes.
func (r *CacheKeyStruct) EmbeddingKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embedding:%s:%s", model, hex.EncodeToString(sum[:]))
}

var CacheKey = NewCacheKeyStruct()

package config

import (
	"fmt"
	"strings"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LoginFailuresKey returns the counter key for failed logins of an account key.
func (r *CacheKeyStruct) LoginFailuresKey(key string) string {
	return fmt.Sprintf("login:%s:failures", strings.ToLower(strings.TrimSpace(key)))
}

// NotificationChannel returns the Redis PubSub channel a user's live notifications are published on.
func (r *CacheKeyStruct) NotificationChannel(userID string) string {
	return fmt.Sprintf("user:%s:notifications", userID)
}

var CacheKey = NewCacheKeyStruct()

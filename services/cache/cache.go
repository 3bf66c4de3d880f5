package cache

import (
	"time"
)

// Service is the shared cache used for per-site rate-limit block keys.
type Service interface {
	// Get retrieves a value, erroring on a miss.
	Get(key string) ([]byte, error)

	// Set stores a value with an expiration.
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value.
	Delete(key string) error
}

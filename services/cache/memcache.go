package cache

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// Memcache implements Service on top of memcached.
type Memcache struct {
	client *memcache.Client
}

// NewMemcache connects to a memcached instance.
func NewMemcache(serverAddr string) *Memcache {
	return &Memcache{
		client: memcache.New(serverAddr),
	}
}

func (m *Memcache) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

func (m *Memcache) Set(key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
}

func (m *Memcache) Delete(key string) error {
	return m.client.Delete(key)
}

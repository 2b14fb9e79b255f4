package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps a client (usually a rueidis mock) without dialing.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}

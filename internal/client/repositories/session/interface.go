// Package session stores the CLI session as key/value pairs in sqlite.
package session

import (
	"context"
)

type Repository interface {
	// Get returns "" for an absent key.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

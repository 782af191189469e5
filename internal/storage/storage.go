package storage

import (
	"context"
	"errors"
)

// Storage is a synchronous key-value store of strings. Values are
// overwritten wholesale; there are no partial updates or versions.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
}

var ErrNotFound = errors.New("storage key not found")

package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor hands out database handles to usecases.
type Transactor interface {
	// Reader returns a handle for reads outside a transaction.
	Reader(ctx context.Context) *gorm.DB
	// WithinTransaction runs fn in a transaction, committing when fn returns nil.
	WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

package repository

import (
	"context"

	"recordapi/internal/model"
)

// Package repository contains the Record Store abstraction.
// Implementations live in subpackages (dynamodb, postgres, objectstore) inside this directory.

// RecordRepository is the create/read contract of the Record Store.
// There is deliberately no update or delete: records are immutable once written.
type RecordRepository interface {
	// Put writes one record keyed by its ID. A second Put with the same ID overwrites the first.
	Put(ctx context.Context, rec *model.Record) error

	// Scan returns every record in the store, unfiltered and unpaginated.
	// The result is non-nil even when the store is empty.
	Scan(ctx context.Context) ([]model.Record, error)
}

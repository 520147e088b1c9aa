// ABOUTME: Batch create, update and delete with per-record outcomes
// ABOUTME: One failing record never aborts the rest of the batch
package store

import (
	"context"
)

// BatchResult reports the outcome for one record of a batch call.
type BatchResult[T any] struct {
	ID     int64
	Record T
	Err    error
}

func (r BatchResult[T]) OK() bool { return r.Err == nil }

// Summarize counts successes and failures.
func Summarize[T any](results []BatchResult[T]) (succeeded, failed int) {
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}

// BatchRepository adds per-record batch calls, the shape of a remote
// backend that accepts many records per request.
type BatchRepository[T any] interface {
	Seedable[T]
	CreateBatch(ctx context.Context, recs []T) []BatchResult[T]
	UpdateBatch(ctx context.Context, updates []BatchUpdate[T]) []BatchResult[T]
	DeleteBatch(ctx context.Context, ids []int64) []BatchResult[T]
}

func (m *Memory[T, P]) CreateBatch(ctx context.Context, recs []T) []BatchResult[T] {
	results := make([]BatchResult[T], 0, len(recs))
	for _, rec := range recs {
		created, err := m.Create(ctx, rec)
		results = append(results, BatchResult[T]{ID: P(&created).GetID(), Record: created, Err: err})
	}
	return results
}

// BatchUpdate pairs an identifier with its mutation.
type BatchUpdate[T any] struct {
	ID     int64
	Mutate func(*T) error
}

func (m *Memory[T, P]) UpdateBatch(ctx context.Context, updates []BatchUpdate[T]) []BatchResult[T] {
	results := make([]BatchResult[T], 0, len(updates))
	for _, u := range updates {
		updated, err := m.Update(ctx, u.ID, u.Mutate)
		results = append(results, BatchResult[T]{ID: u.ID, Record: updated, Err: err})
	}
	return results
}

func (m *Memory[T, P]) DeleteBatch(ctx context.Context, ids []int64) []BatchResult[T] {
	results := make([]BatchResult[T], 0, len(ids))
	for _, id := range ids {
		removed, err := m.Delete(ctx, id)
		results = append(results, BatchResult[T]{ID: id, Record: removed, Err: err})
	}
	return results
}

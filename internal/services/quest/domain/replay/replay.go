// Package replay rebuilds state by folding journaled events in sequence order.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/event"
)

const defaultPageSize = 200

var (
	// ErrEventStoreRequired indicates a missing event store.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrFoldRequired indicates a missing fold function.
	ErrFoldRequired = errors.New("fold function is required")
)

// EventStore lists journaled events with seq greater than afterSeq.
type EventStore interface {
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
}

// Fold applies one event to state.
type Fold[S any] func(state S, evt event.Event) (S, error)

// Options bounds a replay. A zero UntilSeq reads to the end of the journal.
type Options struct {
	AfterSeq uint64
	UntilSeq uint64
	PageSize int
}

// Result is the folded state and the last sequence applied.
type Result[S any] struct {
	State   S
	LastSeq uint64
	Applied int
}

// Replay folds every event after options.AfterSeq into state. Sequence
// numbers must be contiguous.
func Replay[S any](ctx context.Context, store EventStore, fold Fold[S], state S, options Options) (Result[S], error) {
	result := Result[S]{State: state, LastSeq: options.AfterSeq}
	switch {
	case store == nil:
		return result, ErrEventStoreRequired
	case fold == nil:
		return result, ErrFoldRequired
	}
	limit := options.PageSize
	if limit <= 0 {
		limit = defaultPageSize
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		page, err := store.ListEvents(ctx, result.LastSeq, limit)
		if err != nil {
			return result, fmt.Errorf("list events after %d: %w", result.LastSeq, err)
		}
		if len(page) == 0 {
			return result, nil
		}
		for _, evt := range page {
			if options.UntilSeq > 0 && evt.Seq > options.UntilSeq {
				return result, nil
			}
			if want := result.LastSeq + 1; evt.Seq != want {
				return result, fmt.Errorf("event sequence gap: expected %d got %d", want, evt.Seq)
			}
			if result.State, err = fold(result.State, evt); err != nil {
				return result, fmt.Errorf("fold event %d (%s): %w", evt.Seq, evt.Type, err)
			}
			result.LastSeq = evt.Seq
			result.Applied++
		}
	}
}

// Package query answers read-only questions about the challenge registry
// from a consistent snapshot.
package query

import (
	"context"
	"errors"
	"strconv"

	apperrors "github.com/louisbranch/chronoquest/internal/platform/errors"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/aggregate"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/challenge"
)

// ErrReaderRequired indicates a service without a state reader.
var ErrReaderRequired = errors.New("state reader is required")

// Reader exposes the current registry to fn. The state must not be retained
// or modified after fn returns.
type Reader interface {
	Read(ctx context.Context, fn func(aggregate.State)) error
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, fn func(aggregate.State)) error

// Read implements Reader.
func (f ReaderFunc) Read(ctx context.Context, fn func(aggregate.State)) error {
	return f(ctx, fn)
}

// StaticReader serves a fixed state.
func StaticReader(state aggregate.State) Reader {
	return ReaderFunc(func(_ context.Context, fn func(aggregate.State)) error {
		fn(state)
		return nil
	})
}

// Service answers challenge queries.
type Service struct {
	Reader Reader
}

// ChallengesRequest mirrors the listing query: a filter, the statuses to
// include, and a page window.
type ChallengesRequest struct {
	Filter             string
	Account            string
	IncludeRecruiting  bool
	IncludeRecruitFail bool
	IncludeExecuting   bool
	IncludeCompleted   bool
	Offset             uint64
	Count              uint64
}

// TotalChallengeCount returns the number of challenges ever created.
func (s Service) TotalChallengeCount(ctx context.Context) (uint64, error) {
	if s.Reader == nil {
		return 0, ErrReaderRequired
	}
	var count uint64
	err := s.Reader.Read(ctx, func(state aggregate.State) {
		count = state.Count()
	})
	return count, err
}

// Challenge returns one challenge by id.
func (s Service) Challenge(ctx context.Context, id uint64) (challenge.State, error) {
	if s.Reader == nil {
		return challenge.State{}, ErrReaderRequired
	}
	var (
		found challenge.State
		ok    bool
	)
	if err := s.Reader.Read(ctx, func(state aggregate.State) {
		found, ok = state.Challenge(id)
	}); err != nil {
		return challenge.State{}, err
	}
	if !ok {
		return challenge.State{}, apperrors.WithMetadata(apperrors.CodeChallengeNotFound, "challenge not found",
			map[string]string{"ID": strconv.FormatUint(id, 10)})
	}
	return found, nil
}

// Challenges returns the challenges matching req.
func (s Service) Challenges(ctx context.Context, req ChallengesRequest) ([]challenge.State, error) {
	if s.Reader == nil {
		return nil, ErrReaderRequired
	}
	q, err := req.query()
	if err != nil {
		return nil, err
	}
	var out []challenge.State
	err = s.Reader.Read(ctx, func(state aggregate.State) {
		out = state.Query(q)
	})
	return out, err
}

func (r ChallengesRequest) query() (aggregate.Query, error) {
	kind, err := aggregate.ParseFilterKind(r.Filter)
	if err != nil {
		return aggregate.Query{}, apperrors.Wrap(apperrors.CodeInvalidCommand, "invalid filter", err)
	}
	filter := aggregate.Filter{Kind: kind}
	if kind != aggregate.FilterAll {
		filter.Account, err = account.Parse(r.Account)
		if err != nil {
			return aggregate.Query{}, apperrors.Wrap(apperrors.CodeInvalidCommand, "filter account is required", err)
		}
	}
	return aggregate.Query{
		Filter: filter,
		Include: aggregate.StatusSet{
			Recruiting:    r.IncludeRecruiting,
			RecruitFailed: r.IncludeRecruitFail,
			Executing:     r.IncludeExecuting,
			Completed:     r.IncludeCompleted,
		},
		Offset: r.Offset,
		Count:  r.Count,
	}, nil
}

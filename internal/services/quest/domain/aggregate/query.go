package aggregate

import (
	"fmt"
	"strings"

	"github.com/louisbranch/chronoquest/internal/services/quest/domain/account"
	"github.com/louisbranch/chronoquest/internal/services/quest/domain/challenge"
)

// FilterKind selects the base id set of a query.
type FilterKind string

const (
	FilterAll       FilterKind = "all"
	FilterCreated   FilterKind = "created"
	FilterJoined    FilterKind = "joined"
	FilterSponsored FilterKind = "sponsored"
)

// ParseFilterKind parses a filter label; empty means all.
func ParseFilterKind(value string) (FilterKind, error) {
	switch FilterKind(strings.ToLower(strings.TrimSpace(value))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterCreated:
		return FilterCreated, nil
	case FilterJoined:
		return FilterJoined, nil
	case FilterSponsored:
		return FilterSponsored, nil
	default:
		return "", fmt.Errorf("unknown challenge filter %q", value)
	}
}

// Filter selects challenges by account relationship.
type Filter struct {
	Kind    FilterKind
	Account account.ID
}

// StatusSet flags which statuses a query includes.
type StatusSet struct {
	Recruiting    bool
	RecruitFailed bool
	Executing     bool
	Completed     bool
}

// AllStatuses includes every status.
func AllStatuses() StatusSet {
	return StatusSet{Recruiting: true, RecruitFailed: true, Executing: true, Completed: true}
}

// Includes reports whether status is selected.
func (s StatusSet) Includes(status challenge.Status) bool {
	switch status {
	case challenge.StatusRecruiting:
		return s.Recruiting
	case challenge.StatusRecruitFailed:
		return s.RecruitFailed
	case challenge.StatusExecuting:
		return s.Executing
	case challenge.StatusCompleted:
		return s.Completed
	default:
		return false
	}
}

// Query describes a filtered, paginated challenge listing.
type Query struct {
	Filter  Filter
	Include StatusSet
	Offset  uint64
	Count   uint64
}

// Query returns copies of the challenges matching q: the base set chosen by
// the filter, narrowed to the included statuses, then offset skipped and at
// most count taken. An account missing from the index yields no challenges.
func (s State) Query(q Query) []challenge.State {
	var out []challenge.State
	var skipped uint64
	for _, id := range s.baseIDs(q.Filter) {
		if uint64(len(out)) >= q.Count {
			break
		}
		if id >= s.Count() {
			continue
		}
		current := s.Challenges[id]
		if !q.Include.Includes(current.Status) {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		out = append(out, current.Clone())
	}
	return out
}

// baseIDs returns the filter's ids in index order. A challenge sponsored more
// than once appears once, at its first sponsorship.
func (s State) baseIDs(filter Filter) []uint64 {
	var ids []uint64
	switch filter.Kind {
	case FilterCreated:
		ids = s.Created[filter.Account]
	case FilterJoined:
		ids = s.Joined[filter.Account]
	case FilterSponsored:
		ids = s.Sponsored[filter.Account]
	default:
		ids = make([]uint64, s.Count())
		for i := range ids {
			ids[i] = uint64(i)
		}
		return ids
	}
	seen := make(map[uint64]struct{}, len(ids))
	unique := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

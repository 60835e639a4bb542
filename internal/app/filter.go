// Package app holds the client-side task state: filter, collection and form.
package app

import (
	"context"
	"sync"

	"taskctl/internal/service"
)

// Filter is the requested view. Empty fields place no constraint.
type Filter struct {
	Status   service.Status
	Priority service.Priority
	Search   string
}

// Active reports whether any field is set.
func (f Filter) Active() bool {
	return f.Status != "" || f.Priority != "" || f.Search != ""
}

// QueryKind selects which list call serves a filter.
type QueryKind int

const (
	QueryAll QueryKind = iota
	QuerySearch
	QueryStatus
	QueryPriority
)

func (k QueryKind) String() string {
	switch k {
	case QuerySearch:
		return "search"
	case QueryStatus:
		return "status"
	case QueryPriority:
		return "priority"
	default:
		return "all"
	}
}

// Query is the single list call a filter resolves to.
type Query struct {
	Kind     QueryKind
	Search   string
	Status   service.Status
	Priority service.Priority
}

// Query resolves the filter by precedence: search, then status, then
// priority, then all tasks. Only the winning field is carried.
func (f Filter) Query() Query {
	switch {
	case f.Search != "":
		return Query{Kind: QuerySearch, Search: f.Search}
	case f.Status != "":
		return Query{Kind: QueryStatus, Status: f.Status}
	case f.Priority != "":
		return Query{Kind: QueryPriority, Priority: f.Priority}
	default:
		return Query{Kind: QueryAll}
	}
}

// Run issues the list call for q.
func (q Query) Run(ctx context.Context, svc service.Service) ([]service.Task, error) {
	switch q.Kind {
	case QuerySearch:
		return svc.Search(ctx, q.Search)
	case QueryStatus:
		return svc.ListByStatus(ctx, q.Status)
	case QueryPriority:
		return svc.ListByPriority(ctx, q.Priority)
	default:
		return svc.ListAll(ctx)
	}
}

// FilterUpdate is a partial filter. Nil fields keep their current value.
type FilterUpdate struct {
	Status   *service.Status
	Priority *service.Priority
	Search   *string
}

// FilterState holds the current Filter and notifies subscribers on change.
type FilterState struct {
	mu     sync.Mutex
	value  Filter
	nextID int
	subs   map[int]func(Filter)
}

// NewFilterState returns an empty filter state.
func NewFilterState() *FilterState {
	return &FilterState{subs: make(map[int]func(Filter))}
}

// Get returns the current filter.
func (s *FilterState) Get() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set merges u into the current filter and notifies subscribers
// synchronously, in subscription order.
func (s *FilterState) Set(u FilterUpdate) {
	s.mu.Lock()
	if u.Status != nil {
		s.value.Status = *u.Status
	}
	if u.Priority != nil {
		s.value.Priority = *u.Priority
	}
	if u.Search != nil {
		s.value.Search = *u.Search
	}
	s.mu.Unlock()
	s.notify()
}

// Clear resets every field and notifies subscribers.
func (s *FilterState) Clear() {
	s.mu.Lock()
	s.value = Filter{}
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers fn and returns a func that removes it.
func (s *FilterState) Subscribe(fn func(Filter)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *FilterState) notify() {
	s.mu.Lock()
	value := s.value
	fns := make([]func(Filter), 0, len(s.subs))
	for _, id := range sortedKeys(s.subs) {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// StatusPtr, PriorityPtr and StringPtr build FilterUpdate fields.
func StatusPtr(s service.Status) *service.Status       { return &s }
func PriorityPtr(p service.Priority) *service.Priority { return &p }
func StringPtr(s string) *string                       { return &s }

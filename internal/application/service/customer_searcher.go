package service

import (
	"context"
	"sync"
	"time"

	"github.com/sangkips/pharmadesk/internal/domain/entity"
	"github.com/sangkips/pharmadesk/pkg/apperror"
	"github.com/sangkips/pharmadesk/pkg/debounce"
	"github.com/sirupsen/logrus"
)

// DefaultSearchQuiet is the keystroke quiet period before a search is sent
const DefaultSearchQuiet = 300 * time.Millisecond

// SearchFunc runs one customer lookup
type SearchFunc func(ctx context.Context, q string) ([]entity.Customer, error)

// SearchResult is the latest applied customer lookup of a billing session
type SearchResult struct {
	Seq       uint64            `json:"seq"`
	Query     string            `json:"query"`
	Customers []entity.Customer `json:"customers"`
	Pending   bool              `json:"pending"`
	Error     string            `json:"error,omitempty"`
}

// CustomerSearcher debounces typed queries. Only the last issued query is
// sent, and a result that arrives after a newer query was issued is dropped.
type CustomerSearcher struct {
	debouncer *debounce.Debouncer
	search    SearchFunc
	logger    logrus.FieldLogger

	mu     sync.Mutex
	issued uint64
	result SearchResult
}

// NewCustomerSearcher creates a searcher that waits quiet after the last
// keystroke before calling search
func NewCustomerSearcher(quiet time.Duration, search SearchFunc, logger logrus.FieldLogger) *CustomerSearcher {
	if quiet <= 0 {
		quiet = DefaultSearchQuiet
	}
	return &CustomerSearcher{
		debouncer: debounce.New(quiet),
		search:    search,
		logger:    logger,
		result:    SearchResult{Customers: []entity.Customer{}},
	}
}

// Query schedules a lookup for q and returns its sequence number
func (s *CustomerSearcher) Query(q string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.debouncer.Schedule(func(ctx context.Context, seq uint64) {
		s.run(ctx, seq, q)
	})
	s.issued = seq
	return seq
}

func (s *CustomerSearcher) run(ctx context.Context, seq uint64, q string) {
	customers, err := s.search(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil || seq < s.result.Seq || !s.debouncer.IsLatest(seq) {
		s.logger.WithFields(logrus.Fields{"seq": seq, "query": q}).Debug("discarding stale customer search")
		return
	}
	res := SearchResult{Seq: seq, Query: q, Customers: customers}
	if err != nil {
		res.Customers = []entity.Customer{}
		res.Error = apperror.UserMessage(err, "Failed to search customers")
		s.logger.WithField("query", q).WithError(err).Warn("customer search failed")
	}
	if res.Customers == nil {
		res.Customers = []entity.Customer{}
	}
	s.result = res
}

// Result returns the latest applied result. Pending is set while a newer
// query is still waiting or in flight.
func (s *CustomerSearcher) Result() SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.result
	res.Customers = append([]entity.Customer(nil), s.result.Customers...)
	res.Pending = s.issued > res.Seq
	return res
}

// Reset drops any pending query and the current result
func (s *CustomerSearcher) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.debouncer.Cancel()
	s.issued = s.debouncer.Latest()
	s.result = SearchResult{Seq: s.issued, Customers: []entity.Customer{}}
}

// Stop cancels pending and in-flight lookups for good
func (s *CustomerSearcher) Stop() {
	s.debouncer.Stop()
}

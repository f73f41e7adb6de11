package ledger

import (
	"context"
	"sync"
)

// MockFetcher is a scriptable Fetcher for tests: responses are served in
// FIFO order, or through Handler when one is set.
type MockFetcher struct {
	Handler   func(ctx context.Context, q Query) (*NormalizedResponse, error)
	responses []mockResponse
	Queries   []Query
	mu        sync.Mutex
}

type mockResponse struct {
	resp *NormalizedResponse
	err  error
}

// Enqueue adds a canned response to be served by the next call.
func (m *MockFetcher) Enqueue(resp *NormalizedResponse, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{resp: resp, err: err})
}

// FetchTransactions implements Fetcher.
func (m *MockFetcher) FetchTransactions(ctx context.Context, q Query) (*NormalizedResponse, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, q)
	handler := m.Handler
	var next mockResponse
	if handler == nil {
		if len(m.responses) == 0 {
			m.mu.Unlock()
			return &NormalizedResponse{}, nil
		}
		next = m.responses[0]
		m.responses = m.responses[1:]
	}
	m.mu.Unlock()

	if handler != nil {
		return handler(ctx, q)
	}
	return next.resp, next.err
}

// LastQuery returns the most recent query, or the zero value.
func (m *MockFetcher) LastQuery() Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Queries) == 0 {
		return Query{}
	}
	return m.Queries[len(m.Queries)-1]
}

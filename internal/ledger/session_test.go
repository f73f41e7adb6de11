package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julio3266/finance-control-app-sub000/internal/common"
	"github.com/julio3266/finance-control-app-sub000/internal/model"
)

// makeRecords builds n valid records with ids prefix-0..prefix-(n-1).
func makeRecords(prefix string, n int) []model.TransactionRecord {
	records := make([]model.TransactionRecord, 0, n)
	base := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		records = append(records, model.TransactionRecord{
			ID:          fmt.Sprintf("%s-%d", prefix, i),
			Description: fmt.Sprintf("record %s-%d", prefix, i),
			OccurredAt:  base.Add(-time.Duration(i) * time.Hour),
			Amount:      float64(10 + i),
			Kind:        model.KindExpense,
			Source:      model.SourceManual,
		})
	}
	return records
}

func recordIDs(records []model.TransactionRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func TestSession_Fetch_ReplacesOnFirstPage(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.Enqueue(&NormalizedResponse{
		Records:    makeRecords("old", 2),
		Pagination: &PaginationInfo{CurrentPage: 1},
	}, nil)
	fetcher.Enqueue(&NormalizedResponse{
		Records:    makeRecords("new", 3),
		Pagination: &PaginationInfo{CurrentPage: 1},
	}, nil)
	s := newTestSession(fetcher)

	require.NoError(t, s.Fetch(context.Background()))
	require.Len(t, s.Records(), 2)

	// Still page 1: a refresh replaces, never appends.
	require.NoError(t, s.Fetch(context.Background()))
	assert.Equal(t, []string{"new-0", "new-1", "new-2"}, recordIDs(s.Records()))
}

func TestSession_Fetch_AppendsOnLaterPages(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.Enqueue(&NormalizedResponse{
		Records:    makeRecords("p1", 3),
		Pagination: &PaginationInfo{CurrentPage: 1, HasNextPage: true},
	}, nil)
	fetcher.Enqueue(&NormalizedResponse{
		Records:    makeRecords("p2", 2),
		Pagination: &PaginationInfo{CurrentPage: 2, HasNextPage: false},
	}, nil)
	s := newTestSession(fetcher)

	require.NoError(t, s.Fetch(context.Background()))
	require.True(t, s.NextPage())
	require.NoError(t, s.Fetch(context.Background()))

	// R1 ++ R2, server order preserved, no re-sort across pages.
	assert.Equal(t,
		[]string{"p1-0", "p1-1", "p1-2", "p2-0", "p2-1"},
		recordIDs(s.Records()))
	require.NotNil(t, s.Pagination())
	assert.False(t, s.HasNextPage())
}

func TestSession_Fetch_MonthModeScenario(t *testing.T) {
	// 25 records on the server, page size 20: page 1 returns 20 with a next
	// page, page 2 returns the remaining 5.
	serverSet := makeRecords("srv", 25)
	fetcher := &MockFetcher{}
	fetcher.Handler = func(_ context.Context, q Query) (*NormalizedResponse, error) {
		start := (q.Page - 1) * q.PageSize
		end := start + q.PageSize
		if end > len(serverSet) {
			end = len(serverSet)
		}
		return &NormalizedResponse{
			Records: serverSet[start:end],
			Pagination: &PaginationInfo{
				CurrentPage: q.Page,
				PageSize:    q.PageSize,
				TotalItems:  len(serverSet),
				TotalPages:  2,
				HasNextPage: end < len(serverSet),
				HasPrevPage: q.Page > 1,
			},
		}, nil
	}
	s := newTestSession(fetcher)

	require.NoError(t, s.Fetch(context.Background()))
	assert.Len(t, s.Records(), 20)
	require.NotNil(t, s.Pagination())
	assert.True(t, s.Pagination().HasNextPage)

	s.SetFilters(Patch{Page: IntPtr(2)})
	require.NoError(t, s.Fetch(context.Background()))

	assert.Len(t, s.Records(), 25)
	assert.Equal(t, recordIDs(serverSet), recordIDs(s.Records()))
	assert.False(t, s.Pagination().HasNextPage)
}

func TestSession_Fetch_StaleResponseDiscarded(t *testing.T) {
	// Two overlapping fetches: the first-issued response resolves last and
	// must be discarded, because a newer sequence token has been issued.
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	fetcher := &MockFetcher{}
	fetcher.Handler = func(_ context.Context, _ Query) (*NormalizedResponse, error) {
		mu.Lock()
		calls++
		call := calls
		mu.Unlock()
		if call == 1 {
			close(started)
			<-release // slow first request
			return &NormalizedResponse{
				Records:    makeRecords("stale", 2),
				Pagination: &PaginationInfo{CurrentPage: 1},
			}, nil
		}
		return &NormalizedResponse{
			Records:    makeRecords("fresh", 3),
			Pagination: &PaginationInfo{CurrentPage: 1},
		}, nil
	}
	s := newTestSession(fetcher)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Fetch(context.Background())
	}()

	// Wait until the slow request is in flight before dispatching the next.
	<-started
	require.NoError(t, s.Fetch(context.Background()))
	require.Equal(t, []string{"fresh-0", "fresh-1", "fresh-2"}, recordIDs(s.Records()))

	close(release)
	wg.Wait()

	assert.Equal(t, []string{"fresh-0", "fresh-1", "fresh-2"}, recordIDs(s.Records()),
		"the older, slower response must not overwrite newer data")
	assert.False(t, s.Loading())
}

func TestSession_Fetch_ResponseForSupersededFiltersDiscarded(t *testing.T) {
	release := make(chan struct{})
	fetcher := &MockFetcher{}
	fetcher.Handler = func(_ context.Context, _ Query) (*NormalizedResponse, error) {
		<-release
		return &NormalizedResponse{Records: makeRecords("late", 2)}, nil
	}
	s := newTestSession(fetcher)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Fetch(context.Background())
	}()
	require.Eventually(t, s.Loading, time.Second, time.Millisecond)

	// The user changes filters while the fetch is still in flight.
	s.SetFilters(Patch{Type: TypePtr(TypeIncome)})
	close(release)
	wg.Wait()

	assert.Empty(t, s.Records(),
		"a response for a superseded filter identity must be discarded")
}

func TestSession_Fetch_ErrorKeepsAccumulatedRecords(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.Enqueue(&NormalizedResponse{
		Records:    makeRecords("p1", 3),
		Pagination: &PaginationInfo{CurrentPage: 1, HasNextPage: true},
	}, nil)
	fetcher.Enqueue(nil, common.NewRemoteError(500, "internal server error", nil))
	s := newTestSession(fetcher)

	require.NoError(t, s.Fetch(context.Background()))
	require.True(t, s.NextPage())

	err := s.Fetch(context.Background())
	require.Error(t, err)

	var remoteErr *common.RemoteError
	assert.ErrorAs(t, err, &remoteErr)
	assert.Len(t, s.Records(), 3, "a failed load-more must not destroy visible records")
	assert.Equal(t, err, s.LastError())
	assert.False(t, s.Loading(), "the loading flag is always cleared")
}

func TestSession_Fetch_AuthErrorPropagates(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.Enqueue(nil, common.ErrAuthenticationRequired)
	s := newTestSession(fetcher)

	err := s.Fetch(context.Background())
	assert.ErrorIs(t, err, common.ErrAuthenticationRequired)
}

func TestSession_SuccessAfterErrorClearsIt(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.Enqueue(nil, common.NewRemoteError(0, "network failure", nil))
	fetcher.Enqueue(&NormalizedResponse{Records: makeRecords("ok", 1)}, nil)
	s := newTestSession(fetcher)

	require.Error(t, s.Fetch(context.Background()))
	require.NoError(t, s.Fetch(context.Background()))

	assert.NoError(t, s.LastError())
	assert.Len(t, s.Records(), 1)
}

func TestSession_NextPage_WithoutPagination(t *testing.T) {
	s := newTestSession(&MockFetcher{})
	assert.False(t, s.NextPage(), "no pagination info means no next page")
	assert.Equal(t, 1, s.Filters().Page)
}

package enrich

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/trial-research/internal/provider"
)

// --- Provider Mock ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) LookupListing(ctx context.Context, query string, maxResults int) ([]provider.ListingCandidate, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.ListingCandidate), args.Error(1)
}

func (m *mockProvider) LookupByExternalID(ctx context.Context, ids []string, maxResults int) ([]provider.ListingCandidate, error) {
	args := m.Called(ctx, ids, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.ListingCandidate), args.Error(1)
}

func (m *mockProvider) LookupJobPostings(ctx context.Context, query string, maxResults int) ([]provider.JobPosting, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.JobPosting), args.Error(1)
}

func (m *mockProvider) FetchPageSignals(ctx context.Context, url string) (*provider.PageSignals, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.PageSignals), args.Error(1)
}

var _ provider.Client = (*mockProvider)(nil)

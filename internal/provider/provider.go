// Package provider defines the lookup contract the enricher consumes and the
// adapters that implement it on top of Apify actors, Google Places, Jina
// Reader and offline YAML fixtures.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Operation names used in errors, breaker names and metric labels.
const (
	OpListing = "listing"
	OpByID    = "by_id"
	OpJobs    = "jobs"
	OpPage    = "page"
)

// ListingCandidate is one result from a maps/places lookup.
type ListingCandidate struct {
	Title       string   `json:"title" yaml:"title"`
	URL         string   `json:"url" yaml:"url"`
	Website     string   `json:"website" yaml:"website"`
	Phone       string   `json:"phone" yaml:"phone"`
	Address     string   `json:"address" yaml:"address"`
	Category    string   `json:"category" yaml:"category"`
	PriceLevel  string   `json:"price_level" yaml:"price_level"`
	Rating      *float64 `json:"rating,omitempty" yaml:"rating"`
	ReviewCount int      `json:"review_count" yaml:"review_count"`
	PlaceID     string   `json:"place_id" yaml:"place_id"`
}

// JobPosting is one job-board result.
type JobPosting struct {
	Title    string `json:"title" yaml:"title"`
	Company  string `json:"company" yaml:"company"`
	Location string `json:"location" yaml:"location"`
	URL      string `json:"url" yaml:"url"`
}

// PageSignals is what the page-content lookup extracts from a website.
type PageSignals struct {
	Title        string `json:"title" yaml:"title"`
	URL          string `json:"url" yaml:"url"`
	Footer       string `json:"footer" yaml:"footer"`
	LocationsURL string `json:"locations_url" yaml:"locations_url"`
	CareersURL   string `json:"careers_url" yaml:"careers_url"`
}

// ListingProvider resolves businesses on a maps/places service.
type ListingProvider interface {
	LookupListing(ctx context.Context, query string, maxResults int) ([]ListingCandidate, error)
	LookupByExternalID(ctx context.Context, ids []string, maxResults int) ([]ListingCandidate, error)
}

// JobsProvider searches a job board.
type JobsProvider interface {
	LookupJobPostings(ctx context.Context, query string, maxResults int) ([]JobPosting, error)
}

// PageProvider fetches signals from a website.
type PageProvider interface {
	FetchPageSignals(ctx context.Context, url string) (*PageSignals, error)
}

// Client is the full lookup surface the enricher depends on.
type Client interface {
	ListingProvider
	JobsProvider
	PageProvider
}

// Error is a failed provider call. Message is the human-readable text that
// ends up in an "Error: <message>" research status.
type Error struct {
	Provider string
	Op       string
	Message  string
	Err      error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err as a provider failure.
func NewError(provider, op string, err error) *Error {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Provider: provider,
		Op:       op,
		Message:  fmt.Sprintf("%s %s: %s", provider, op, msg),
		Err:      err,
	}
}

// AsError returns err as a *Error, wrapping it when it is not one already.
// A nil err stays nil.
func AsError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return NewError(provider, op, err)
}

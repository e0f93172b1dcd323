package provider

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Fixture answers lookups from a YAML document so batches can run offline
// with deterministic results. Keys are matched case-insensitively; unknown
// keys yield empty results and an entry with error: set fails the call.
type Fixture struct {
	listings map[string]fixtureListing
	places   map[string]fixturePlace
	jobs     map[string]fixtureJobs
	pages    map[string]fixturePage
}

type fixtureListing struct {
	Error      string             `yaml:"error"`
	Candidates []ListingCandidate `yaml:"candidates"`
}

type fixturePlace struct {
	Error            string `yaml:"error"`
	ListingCandidate `yaml:",inline"`
}

type fixtureJobs struct {
	Error    string       `yaml:"error"`
	Postings []JobPosting `yaml:"postings"`
}

type fixturePage struct {
	Error       string `yaml:"error"`
	PageSignals `yaml:",inline"`
}

type fixtureFile struct {
	Listings map[string]fixtureListing `yaml:"listings"`
	Places   map[string]fixturePlace   `yaml:"places"`
	Jobs     map[string]fixtureJobs    `yaml:"jobs"`
	Pages    map[string]fixturePage    `yaml:"pages"`
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: read fixture %s", path)
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "provider: parse fixture")
	}

	fx := &Fixture{
		listings: make(map[string]fixtureListing, len(f.Listings)),
		places:   make(map[string]fixturePlace, len(f.Places)),
		jobs:     make(map[string]fixtureJobs, len(f.Jobs)),
		pages:    make(map[string]fixturePage, len(f.Pages)),
	}
	for k, v := range f.Listings {
		fx.listings[fixtureKey(k)] = v
	}
	for k, v := range f.Places {
		if v.PlaceID == "" {
			v.PlaceID = k
		}
		fx.places[fixtureKey(k)] = v
	}
	for k, v := range f.Jobs {
		fx.jobs[fixtureKey(k)] = v
	}
	for k, v := range f.Pages {
		fx.pages[fixtureKey(k)] = v
	}
	return fx, nil
}

// LookupListing returns the candidates stored under query.
func (f *Fixture) LookupListing(_ context.Context, query string, maxResults int) ([]ListingCandidate, error) {
	entry, ok := f.listings[fixtureKey(query)]
	if !ok {
		return nil, nil
	}
	if entry.Error != "" {
		return nil, NewError("fixture", OpListing, eris.New(entry.Error))
	}
	return capCandidates(entry.Candidates, maxResults), nil
}

// LookupByExternalID returns the stored candidate for each known id.
func (f *Fixture) LookupByExternalID(_ context.Context, ids []string, maxResults int) ([]ListingCandidate, error) {
	var out []ListingCandidate
	for _, id := range ids {
		entry, ok := f.places[fixtureKey(id)]
		if !ok {
			continue
		}
		if entry.Error != "" {
			return nil, NewError("fixture", OpByID, eris.New(entry.Error))
		}
		out = append(out, entry.ListingCandidate)
	}
	return capCandidates(out, maxResults), nil
}

// LookupJobPostings returns the postings stored under query.
func (f *Fixture) LookupJobPostings(_ context.Context, query string, maxResults int) ([]JobPosting, error) {
	entry, ok := f.jobs[fixtureKey(query)]
	if !ok {
		return nil, nil
	}
	if entry.Error != "" {
		return nil, NewError("fixture", OpJobs, eris.New(entry.Error))
	}
	postings := entry.Postings
	if maxResults > 0 && len(postings) > maxResults {
		postings = postings[:maxResults]
	}
	return postings, nil
}

// FetchPageSignals returns the page stored under url.
func (f *Fixture) FetchPageSignals(_ context.Context, url string) (*PageSignals, error) {
	entry, ok := f.pages[fixtureKey(url)]
	if !ok {
		return nil, nil
	}
	if entry.Error != "" {
		return nil, NewError("fixture", OpPage, eris.New(entry.Error))
	}
	page := entry.PageSignals
	if page.URL == "" {
		page.URL = url
	}
	return &page, nil
}

func fixtureKey(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.Join(strings.Fields(s), " ")), "/")
}

func capCandidates(c []ListingCandidate, maxResults int) []ListingCandidate {
	if maxResults > 0 && len(c) > maxResults {
		return c[:maxResults]
	}
	return c
}

package provider

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/trial-research/pkg/apify"
)

// Default actor ids.
const (
	DefaultMapsActor = "compass/crawler-google-places"
	DefaultJobsActor = "misceres/indeed-scraper"
	DefaultPageActor = "apify/web-scraper"
)

// webScraperPageFunction runs inside apify/web-scraper for every page.
const webScraperPageFunction = `async function pageFunction(context) {
    const { page, request } = context;
    const text = async (sel) => page.$eval(sel, el => el.textContent).catch(() => null);
    const href = async (sel) => page.$eval(sel, el => el.href).catch(() => null);
    return {
        title: await page.title(),
        url: request.url,
        footer: await text('footer'),
        locationsLink: await href('a[href*="location"], a[href*="store"]'),
        careersLink: await href('a[href*="career"], a[href*="job"], a[href*="hiring"]'),
    };
}`

// ApifyActors names the actors used for each lookup.
type ApifyActors struct {
	Maps string
	Jobs string
	Page string
}

// Apify implements Client with Apify actors.
type Apify struct {
	client  apify.Client
	actors  ApifyActors
	country string
}

// NewApify creates an Apify provider. Empty actor ids fall back to the defaults.
func NewApify(client apify.Client, actors ApifyActors) *Apify {
	if actors.Maps == "" {
		actors.Maps = DefaultMapsActor
	}
	if actors.Jobs == "" {
		actors.Jobs = DefaultJobsActor
	}
	if actors.Page == "" {
		actors.Page = DefaultPageActor
	}
	return &Apify{client: client, actors: actors, country: "US"}
}

type apifyPlace struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Website      string   `json:"website"`
	Phone        string   `json:"phone"`
	Address      string   `json:"address"`
	CategoryName string   `json:"categoryName"`
	Price        string   `json:"price"`
	TotalScore   *float64 `json:"totalScore"`
	ReviewsCount int      `json:"reviewsCount"`
	PlaceID      string   `json:"placeId"`
}

type apifyJob struct {
	PositionName string `json:"positionName"`
	Company      string `json:"company"`
	Location     string `json:"location"`
	URL          string `json:"url"`
}

type apifyPage struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Footer        *string `json:"footer"`
	LocationsLink *string `json:"locationsLink"`
	CareersLink   *string `json:"careersLink"`
}

// LookupListing searches Google Maps through the places crawler actor.
func (a *Apify) LookupListing(ctx context.Context, query string, maxResults int) ([]ListingCandidate, error) {
	input := map[string]any{
		"searchStringsArray":        []string{query},
		"maxCrawledPlacesPerSearch": maxResults,
		"language":                  "en",
	}
	items, err := a.client.RunSync(ctx, a.actors.Maps, input)
	if err != nil {
		return nil, NewError("apify", OpListing, err)
	}
	out, err := decodePlaces(items, maxResults)
	if err != nil {
		return nil, NewError("apify", OpListing, err)
	}
	return out, nil
}

// LookupByExternalID resolves pre-known Google place ids.
func (a *Apify) LookupByExternalID(ctx context.Context, ids []string, maxResults int) ([]ListingCandidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if maxResults > 0 && len(ids) > maxResults {
		ids = ids[:maxResults]
	}

	startURLs := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		startURLs = append(startURLs, map[string]string{"url": MapsPlaceURL(id)})
	}
	input := map[string]any{
		"startUrls":        startURLs,
		"maxCrawledPlaces": len(ids),
		"language":         "en",
	}

	items, err := a.client.RunSync(ctx, a.actors.Maps, input)
	if err != nil {
		return nil, NewError("apify", OpByID, err)
	}
	out, err := decodePlaces(items, maxResults)
	if err != nil {
		return nil, NewError("apify", OpByID, err)
	}
	return out, nil
}

// LookupJobPostings searches Indeed for postings matching query.
func (a *Apify) LookupJobPostings(ctx context.Context, query string, maxResults int) ([]JobPosting, error) {
	input := map[string]any{
		"position": query,
		"country":  a.country,
		"maxItems": maxResults,
	}
	items, err := a.client.RunSync(ctx, a.actors.Jobs, input)
	if err != nil {
		return nil, NewError("apify", OpJobs, err)
	}

	out := make([]JobPosting, 0, len(items))
	for _, raw := range items {
		var j apifyJob
		if err := json.Unmarshal(raw, &j); err != nil {
			return nil, NewError("apify", OpJobs, eris.Wrap(err, "malformed job posting"))
		}
		out = append(out, JobPosting{
			Title:    strings.TrimSpace(j.PositionName),
			Company:  j.Company,
			Location: j.Location,
			URL:      j.URL,
		})
		if maxResults > 0 && len(out) == maxResults {
			break
		}
	}
	return out, nil
}

// FetchPageSignals scrapes the landing page of pageURL.
func (a *Apify) FetchPageSignals(ctx context.Context, pageURL string) (*PageSignals, error) {
	input := map[string]any{
		"startUrls":           []map[string]string{{"url": pageURL}},
		"pageFunction":        webScraperPageFunction,
		"maxRequestsPerCrawl": 1,
		"maxConcurrency":      1,
		"proxyConfiguration":  map[string]bool{"useApifyProxy": true},
	}
	items, err := a.client.RunSync(ctx, a.actors.Page, input)
	if err != nil {
		return nil, NewError("apify", OpPage, err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var p apifyPage
	if err := json.Unmarshal(items[0], &p); err != nil {
		return nil, NewError("apify", OpPage, eris.Wrap(err, "malformed page payload"))
	}
	return &PageSignals{
		Title:        p.Title,
		URL:          p.URL,
		Footer:       deref(p.Footer),
		LocationsURL: deref(p.LocationsLink),
		CareersURL:   deref(p.CareersLink),
	}, nil
}

// MapsPlaceURL builds a Google Maps search URL pinned to a place id.
func MapsPlaceURL(placeID string) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", "Google")
	q.Set("query_place_id", placeID)
	return "https://www.google.com/maps/search/?" + q.Encode()
}

func decodePlaces(items []json.RawMessage, maxResults int) ([]ListingCandidate, error) {
	out := make([]ListingCandidate, 0, len(items))
	for _, raw := range items {
		var p apifyPlace
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, eris.Wrap(err, "malformed listing payload")
		}
		out = append(out, ListingCandidate{
			Title:       p.Title,
			URL:         p.URL,
			Website:     p.Website,
			Phone:       p.Phone,
			Address:     p.Address,
			Category:    p.CategoryName,
			PriceLevel:  p.Price,
			Rating:      p.TotalScore,
			ReviewCount: p.ReviewsCount,
			PlaceID:     p.PlaceID,
		})
		if maxResults > 0 && len(out) == maxResults {
			break
		}
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

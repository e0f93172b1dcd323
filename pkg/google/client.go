package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// placeFields is the field mask shared by text search and place details.
var placeFields = []string{
	"id",
	"displayName",
	"formattedAddress",
	"nationalPhoneNumber",
	"websiteUri",
	"googleMapsUri",
	"rating",
	"userRatingCount",
	"priceLevel",
	"primaryTypeDisplayName",
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("google: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Client performs Google Places API operations.
type Client interface {
	TextSearch(ctx context.Context, query string, maxResults int) (*TextSearchResponse, error)
	PlaceDetails(ctx context.Context, placeID string) (*Place, error)
}

// TextSearchResponse is the response from Places Text Search.
type TextSearchResponse struct {
	Places []Place `json:"places"`
}

// Place represents a place returned by the API.
type Place struct {
	ID                     string      `json:"id"`
	DisplayName            DisplayName `json:"displayName"`
	FormattedAddress       string      `json:"formattedAddress"`
	NationalPhoneNumber    string      `json:"nationalPhoneNumber"`
	WebsiteURI             string      `json:"websiteUri"`
	GoogleMapsURI          string      `json:"googleMapsUri"`
	Rating                 float64     `json:"rating"`
	UserRatingCount        int         `json:"userRatingCount"`
	PriceLevel             string      `json:"priceLevel"`
	PrimaryTypeDisplayName DisplayName `json:"primaryTypeDisplayName"`
}

// DisplayName holds a localized text value.
type DisplayName struct {
	Text string `json:"text"`
}

// PriceSymbol converts a PRICE_LEVEL_* enum to the "$".."$$$$" scale.
// Unknown and unspecified levels return "".
func PriceSymbol(level string) string {
	switch level {
	case "PRICE_LEVEL_INEXPENSIVE":
		return "$"
	case "PRICE_LEVEL_MODERATE":
		return "$$"
	case "PRICE_LEVEL_EXPENSIVE":
		return "$$$"
	case "PRICE_LEVEL_VERY_EXPENSIVE":
		return "$$$$"
	default:
		return ""
	}
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type textSearchRequest struct {
	TextQuery string `json:"textQuery"`
	PageSize  int    `json:"pageSize,omitempty"`
}

func (c *httpClient) TextSearch(ctx context.Context, query string, maxResults int) (*TextSearchResponse, error) {
	body, err := json.Marshal(textSearchRequest{TextQuery: query, PageSize: maxResults})
	if err != nil {
		return nil, eris.Wrap(err, "google: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-FieldMask", fieldMask("places."))

	var result TextSearchResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}

	// pageSize is a hint; enforce the cap locally.
	if maxResults > 0 && len(result.Places) > maxResults {
		result.Places = result.Places[:maxResults]
	}
	return &result, nil
}

func (c *httpClient) PlaceDetails(ctx context.Context, placeID string) (*Place, error) {
	if placeID == "" {
		return nil, eris.New("google: place id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places/"+url.PathEscape(placeID), nil)
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}
	req.Header.Set("X-Goog-FieldMask", fieldMask(""))

	var place Place
	if err := c.do(req, &place); err != nil {
		return nil, err
	}
	return &place, nil
}

func (c *httpClient) do(req *http.Request, out any) error {
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Wrap(&StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}, "google: request failed")
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "google: unmarshal response")
	}
	return nil
}

func fieldMask(prefix string) string {
	parts := make([]string, len(placeFields))
	for i, f := range placeFields {
		parts[i] = prefix + f
	}
	return strings.Join(parts, ",")
}

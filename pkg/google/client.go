// Package google provides a Places API (New) client covering text search,
// place details, and photo media download.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/tastevine/ingest-cli/internal/resilience"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// Client performs Google Places API operations.
type Client interface {
	SearchText(ctx context.Context, req SearchTextRequest) (*SearchTextResponse, error)
	PlaceDetails(ctx context.Context, placeID string) (*PlaceDetailsResponse, error)
	PhotoMedia(ctx context.Context, photoName string) ([]byte, error)
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Circle is a circular geo bias region.
type Circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

// LocationBias biases results toward a region without restricting them.
type LocationBias struct {
	Circle *Circle `json:"circle,omitempty"`
}

// SearchTextRequest is the request for Places Text Search.
type SearchTextRequest struct {
	TextQuery    string        `json:"textQuery"`
	LocationBias *LocationBias `json:"locationBias,omitempty"`
	PageToken    string        `json:"pageToken,omitempty"`
}

// SearchTextResponse is the response from Places Text Search.
type SearchTextResponse struct {
	Places        []SearchPlace `json:"places"`
	NextPageToken string        `json:"nextPageToken"`
}

// SearchPlace is a single search result.
type SearchPlace struct {
	ID          string      `json:"id"`
	DisplayName DisplayName `json:"displayName"`
}

// DisplayName holds a localized display string.
type DisplayName struct {
	Text string `json:"text"`
}

// Photo references a place photo resource.
type Photo struct {
	Name string `json:"name"`
}

// AuthorAttribution identifies a review author.
type AuthorAttribution struct {
	DisplayName string `json:"displayName"`
}

// ReviewText holds review body text.
type ReviewText struct {
	Text string `json:"text"`
}

// Review is a place review as returned by Place Details.
type Review struct {
	Name              string            `json:"name"`
	Text              ReviewText        `json:"text"`
	Rating            float64           `json:"rating"`
	AuthorAttribution AuthorAttribution `json:"authorAttribution"`
}

// PlaceDetailsResponse is the full detail record for a place.
type PlaceDetailsResponse struct {
	ID                  string      `json:"id"`
	DisplayName         DisplayName `json:"displayName"`
	FormattedAddress    string      `json:"formattedAddress"`
	Location            LatLng      `json:"location"`
	Rating              float64     `json:"rating"`
	PriceLevel          string      `json:"priceLevel"`
	NationalPhoneNumber string      `json:"nationalPhoneNumber"`
	GoogleMapsURI       string      `json:"googleMapsUri"`
	Photos              []Photo     `json:"photos"`
	Reviews             []Review    `json:"reviews"`
	Types               []string    `json:"types"`
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
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

const searchFieldMask = "places.id,places.displayName,nextPageToken"

const detailsFieldMask = "id,displayName,formattedAddress,location,rating,priceLevel,nationalPhoneNumber,googleMapsUri,photos.name,reviews.name,reviews.text,reviews.rating,reviews.authorAttribution,types"

func (c *httpClient) SearchText(ctx context.Context, searchReq SearchTextRequest) (*SearchTextResponse, error) {
	body, err := json.Marshal(searchReq)
	if err != nil {
		return nil, eris.Wrap(err, "google: marshal search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "google: create search request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", searchFieldMask)

	var result SearchTextResponse
	if err := c.doJSON(req, "search", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *httpClient) PlaceDetails(ctx context.Context, placeID string) (*PlaceDetailsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places/"+placeID, nil)
	if err != nil {
		return nil, eris.Wrap(err, "google: create details request")
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", detailsFieldMask)

	var result PlaceDetailsResponse
	if err := c.doJSON(req, "details", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PhotoMedia downloads the bytes of a place photo. photoName is the photo
// resource name from Place Details (places/.../photos/...).
func (c *httpClient) PhotoMedia(ctx context.Context, photoName string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/media?maxWidthPx=1024&key=%s", c.baseURL, photoName, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "google: create photo request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "google: fetch photo")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "google: read photo body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr("photo", resp.StatusCode, data)
	}
	return data, nil
}

// doJSON sends the request and decodes a JSON response into out.
func (c *httpClient) doJSON(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "google: send %s request", op)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "google: read %s response", op)
	}

	if resp.StatusCode != http.StatusOK {
		return statusErr(op, resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrapf(err, "google: unmarshal %s response", op)
	}
	return nil
}

func statusErr(op string, code int, body []byte) error {
	err := eris.Errorf("google: %s: unexpected status %d: %s", op, code, string(body))
	if resilience.IsTransientHTTPStatus(code) {
		return resilience.NewTransientError(err, code)
	}
	return err
}

package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastevine/ingest-cli/internal/resilience"
)

func TestSearchText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Equal(t, searchFieldMask, r.Header.Get("X-Goog-FieldMask"))

		var req SearchTextRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "restaurant", req.TextQuery)
		require.NotNil(t, req.LocationBias)
		assert.Equal(t, 5000.0, req.LocationBias.Circle.Radius)

		_ = json.NewEncoder(w).Encode(SearchTextResponse{
			Places: []SearchPlace{
				{ID: "place-1", DisplayName: DisplayName{Text: "Trattoria Uno"}},
				{ID: "place-2", DisplayName: DisplayName{Text: "Noodle Bar"}},
			},
			NextPageToken: "tok-2",
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.SearchText(context.Background(), SearchTextRequest{
		TextQuery: "restaurant",
		LocationBias: &LocationBias{
			Circle: &Circle{Center: LatLng{Latitude: 40.0, Longitude: -75.0}, Radius: 5000},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Places, 2)
	assert.Equal(t, "place-1", resp.Places[0].ID)
	assert.Equal(t, "Trattoria Uno", resp.Places[0].DisplayName.Text)
	assert.Equal(t, "tok-2", resp.NextPageToken)
}

func TestSearchText_PageTokenForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SearchTextRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tok-2", req.PageToken)
		_ = json.NewEncoder(w).Encode(SearchTextResponse{})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.SearchText(context.Background(), SearchTextRequest{TextQuery: "restaurant", PageToken: "tok-2"})
	require.NoError(t, err)
	assert.Empty(t, resp.NextPageToken)
}

func TestPlaceDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/places/place-1", r.URL.Path)
		assert.Equal(t, detailsFieldMask, r.Header.Get("X-Goog-FieldMask"))

		_ = json.NewEncoder(w).Encode(PlaceDetailsResponse{
			ID:               "place-1",
			DisplayName:      DisplayName{Text: "Trattoria Uno"},
			FormattedAddress: "1 Main St",
			Location:         LatLng{Latitude: 40.0, Longitude: -75.0},
			Rating:           4.4,
			PriceLevel:       "PRICE_LEVEL_MODERATE",
			Photos:           []Photo{{Name: "places/place-1/photos/a"}},
			Reviews: []Review{
				{
					Name:              "places/place-1/reviews/r1",
					Text:              ReviewText{Text: "great pasta"},
					Rating:            5,
					AuthorAttribution: AuthorAttribution{DisplayName: "Ann"},
				},
			},
			Types: []string{"italian_restaurant"},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.PlaceDetails(context.Background(), "place-1")
	require.NoError(t, err)
	assert.Equal(t, "Trattoria Uno", resp.DisplayName.Text)
	assert.Equal(t, "PRICE_LEVEL_MODERATE", resp.PriceLevel)
	require.Len(t, resp.Reviews, 1)
	assert.Equal(t, "great pasta", resp.Reviews[0].Text.Text)
}

func TestPhotoMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/places/place-1/photos/a/media", r.URL.Path)
		assert.Equal(t, "1024", r.URL.Query().Get("maxWidthPx"))
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF})
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	data, err := c.PhotoMedia(context.Background(), "places/place-1/photos/a")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusServiceUnavailable, true},
		{"bad request", http.StatusBadRequest, false},
		{"not found", http.StatusNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c := NewClient("test-key", WithBaseURL(srv.URL))
			_, err := c.PlaceDetails(context.Background(), "place-1")
			require.Error(t, err)
			assert.Equal(t, tt.transient, resilience.IsTransient(err))
		})
	}
}

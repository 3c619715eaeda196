package enrich

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tastevine/ingest-cli/internal/model"
	"github.com/tastevine/ingest-cli/pkg/anthropic"
	"github.com/tastevine/ingest-cli/pkg/google"
)

// --- Anthropic mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

// --- Google mock ---

type mockGoogleClient struct {
	mock.Mock
}

func (m *mockGoogleClient) SearchText(ctx context.Context, req google.SearchTextRequest) (*google.SearchTextResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*google.SearchTextResponse), args.Error(1)
}

func (m *mockGoogleClient) PlaceDetails(ctx context.Context, placeID string) (*google.PlaceDetailsResponse, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*google.PlaceDetailsResponse), args.Error(1)
}

func (m *mockGoogleClient) PhotoMedia(ctx context.Context, photoName string) ([]byte, error) {
	args := m.Called(ctx, photoName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// --- In-memory store fake ---

// memStore is a map-backed Store for exercising enrichment logic without a
// database.
type memStore struct {
	restaurants    []*model.Restaurant
	images         []*model.Image
	reviews        []*model.Review
	tagTypes       map[string]*model.TagType
	tags           map[string]*model.Tag
	restaurantTags map[string]map[string]bool
	imageTags      map[string]map[string]bool
	reviewTags     map[string]map[string]bool

	nextID int
}

func newMemStore() *memStore {
	return &memStore{
		tagTypes:       map[string]*model.TagType{},
		tags:           map[string]*model.Tag{},
		restaurantTags: map[string]map[string]bool{},
		imageTags:      map[string]map[string]bool{},
		reviewTags:     map[string]map[string]bool{},
	}
}

func (s *memStore) id() string {
	s.nextID++
	return fmt.Sprintf("id-%d", s.nextID)
}

func (s *memStore) GetRestaurantByExternalID(ctx context.Context, source, externalID string) (*model.Restaurant, error) {
	for _, r := range s.restaurants {
		if r.Source == source && r.ExternalID == externalID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindRestaurantsByName(ctx context.Context, name string) ([]model.Restaurant, error) {
	var out []model.Restaurant
	for _, r := range s.restaurants {
		if r.Name == name {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) CreateRestaurant(ctx context.Context, r *model.Restaurant) error {
	if r.ID == "" {
		r.ID = s.id()
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	copied := *r
	s.restaurants = append(s.restaurants, &copied)
	return nil
}

func (s *memStore) UpdateRestaurantScores(ctx context.Context, restaurantID string, ambiance, foodQuality *float64) error {
	for _, r := range s.restaurants {
		if r.ID == restaurantID {
			if ambiance != nil {
				r.AmbianceScore = ambiance
			}
			if foodQuality != nil {
				r.FoodQualityScore = foodQuality
			}
			return nil
		}
	}
	return fmt.Errorf("restaurant %s not found", restaurantID)
}

func (s *memStore) InsertImage(ctx context.Context, img *model.Image) (bool, error) {
	for _, existing := range s.images {
		if existing.RestaurantID == img.RestaurantID && existing.SourceRef == img.SourceRef {
			return false, nil
		}
	}
	if img.ID == "" {
		img.ID = s.id()
	}
	copied := *img
	s.images = append(s.images, &copied)
	return true, nil
}

func (s *memStore) ListImages(ctx context.Context, restaurantID string) ([]model.Image, error) {
	var out []model.Image
	for _, img := range s.images {
		if img.RestaurantID == restaurantID {
			out = append(out, *img)
		}
	}
	return out, nil
}

func (s *memStore) SetImageCategory(ctx context.Context, imageID, category string) error {
	for _, img := range s.images {
		if img.ID == imageID {
			img.Category = category
			return nil
		}
	}
	return fmt.Errorf("image %s not found", imageID)
}

func (s *memStore) InsertReview(ctx context.Context, rev *model.Review) (bool, error) {
	for _, existing := range s.reviews {
		if existing.RestaurantID == rev.RestaurantID && existing.SourceRef == rev.SourceRef {
			return false, nil
		}
	}
	if rev.ID == "" {
		rev.ID = s.id()
	}
	copied := *rev
	s.reviews = append(s.reviews, &copied)
	return true, nil
}

func (s *memStore) ListReviews(ctx context.Context, restaurantID string) ([]model.Review, error) {
	var out []model.Review
	for _, rev := range s.reviews {
		if rev.RestaurantID == restaurantID {
			out = append(out, *rev)
		}
	}
	return out, nil
}

func (s *memStore) GetOrCreateTagType(ctx context.Context, name string) (*model.TagType, error) {
	if tt, ok := s.tagTypes[name]; ok {
		return tt, nil
	}
	tt := &model.TagType{ID: s.id(), Name: name}
	s.tagTypes[name] = tt
	return tt, nil
}

func (s *memStore) GetOrCreateTag(ctx context.Context, value, tagTypeID string) (*model.Tag, error) {
	key := value + "\x00" + tagTypeID
	if tag, ok := s.tags[key]; ok {
		return tag, nil
	}
	tag := &model.Tag{ID: s.id(), Value: value, TagTypeID: tagTypeID}
	s.tags[key] = tag
	return tag, nil
}

func (s *memStore) TagRestaurant(ctx context.Context, restaurantID, tagID string) error {
	if s.restaurantTags[restaurantID] == nil {
		s.restaurantTags[restaurantID] = map[string]bool{}
	}
	s.restaurantTags[restaurantID][tagID] = true
	return nil
}

func (s *memStore) TagImage(ctx context.Context, imageID, tagID string) error {
	if s.imageTags[imageID] == nil {
		s.imageTags[imageID] = map[string]bool{}
	}
	s.imageTags[imageID][tagID] = true
	return nil
}

func (s *memStore) TagReview(ctx context.Context, reviewID, tagID string) error {
	if s.reviewTags[reviewID] == nil {
		s.reviewTags[reviewID] = map[string]bool{}
	}
	s.reviewTags[reviewID][tagID] = true
	return nil
}

func (s *memStore) RestaurantTagValues(ctx context.Context, restaurantID string) ([]string, error) {
	ids := map[string]bool{}
	for id := range s.restaurantTags[restaurantID] {
		ids[id] = true
	}
	for _, img := range s.images {
		if img.RestaurantID != restaurantID {
			continue
		}
		for id := range s.imageTags[img.ID] {
			ids[id] = true
		}
	}
	for _, rev := range s.reviews {
		if rev.RestaurantID != restaurantID {
			continue
		}
		for id := range s.reviewTags[rev.ID] {
			ids[id] = true
		}
	}

	var values []string
	for _, tag := range s.tags {
		if ids[tag.ID] {
			values = append(values, tag.Value)
		}
	}
	sort.Strings(values)
	return values, nil
}

func (s *memStore) Migrate(ctx context.Context) error { return nil }

func (s *memStore) Close() error { return nil }

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastevine/ingest-cli/internal/model"
)

func TestDuplicateChecker_NewPlace(t *testing.T) {
	st := newMemStore()
	d := NewDuplicateChecker(st, 0.0005)

	reason, err := d.Check(context.Background(), detailFixture())
	require.NoError(t, err)
	assert.Empty(t, reason)
}

func TestDuplicateChecker_SameExternalID(t *testing.T) {
	st := newMemStore()
	require.NoError(t, st.CreateRestaurant(context.Background(), &model.Restaurant{
		Source:     model.SourceGoogle,
		ExternalID: "place-1",
		Name:       "Trattoria Uno",
	}))

	d := NewDuplicateChecker(st, 0.0005)
	reason, err := d.Check(context.Background(), detailFixture())
	require.NoError(t, err)
	assert.Equal(t, "already ingested", reason)
}

func TestDuplicateChecker_SameNameNearbyCoordinates(t *testing.T) {
	st := newMemStore()
	require.NoError(t, st.CreateRestaurant(context.Background(), &model.Restaurant{
		Source:     model.SourceGoogle,
		ExternalID: "other-listing",
		Name:       "Trattoria Uno",
		Latitude:   40.0001,
		Longitude:  -75.0002,
	}))

	d := NewDuplicateChecker(st, 0.0005)
	reason, err := d.Check(context.Background(), detailFixture())
	require.NoError(t, err)
	assert.NotEmpty(t, reason)
}

func TestDuplicateChecker_SameNameFarAway(t *testing.T) {
	st := newMemStore()
	require.NoError(t, st.CreateRestaurant(context.Background(), &model.Restaurant{
		Source:     model.SourceGoogle,
		ExternalID: "other-city",
		Name:       "Trattoria Uno",
		Latitude:   41.5,
		Longitude:  -74.2,
	}))

	// A chain location elsewhere is not a duplicate.
	d := NewDuplicateChecker(st, 0.0005)
	reason, err := d.Check(context.Background(), detailFixture())
	require.NoError(t, err)
	assert.Empty(t, reason)
}

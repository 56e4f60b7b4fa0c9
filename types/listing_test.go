package types

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListingFilter(t *testing.T) {
	values := url.Values{}
	values.Set("location", " Warsaw ")
	values.Set("min_price", "500")
	values.Set("max_price", "1500.50")
	values.Set("smoking", "true")
	values.Set("pet_friendly", "true")
	values.Set("vegan", "false")

	filter, err := ParseListingFilter(values)
	require.NoError(t, err)

	assert.Equal(t, "Warsaw", filter.Location)
	require.NotNil(t, filter.MinPrice)
	assert.Equal(t, 500.0, *filter.MinPrice)
	require.NotNil(t, filter.MaxPrice)
	assert.Equal(t, 1500.50, *filter.MaxPrice)
	assert.True(t, filter.Smoking)
	assert.True(t, filter.PetFriendly)
	assert.False(t, filter.Vegan)
	assert.False(t, filter.PartyFriendly)
}

func TestParseListingFilterInvalidPrice(t *testing.T) {
	values := url.Values{}
	values.Set("min_price", "cheap")

	_, err := ParseListingFilter(values)
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestParseListingFilterFlagsRequireLiteralTrue(t *testing.T) {
	for _, raw := range []string{"1", "True", "TRUE", "yes", "on"} {
		values := url.Values{}
		values.Set("smoking", raw)

		filter, err := ParseListingFilter(values)
		require.NoError(t, err)
		assert.False(t, filter.Smoking, "value %q must not engage the flag", raw)
	}
}

func TestListingFilterQueryOmitsZeroFields(t *testing.T) {
	min := 800.0
	filter := ListingFilter{
		Location: "Gdansk",
		MinPrice: &min,
		Vegan:    true,
	}

	values := filter.Query()
	assert.Equal(t, "Gdansk", values.Get("location"))
	assert.Equal(t, "800", values.Get("min_price"))
	assert.Equal(t, "true", values.Get("vegan"))

	_, hasMax := values["max_price"]
	assert.False(t, hasMax)
	_, hasSmoking := values["smoking"]
	assert.False(t, hasSmoking)
}

func TestListingFilterQueryRoundTrip(t *testing.T) {
	min, max := 500.0, 2000.0
	original := ListingFilter{
		Location:      "Krakow",
		MinPrice:      &min,
		MaxPrice:      &max,
		Smoking:       true,
		PartyFriendly: true,
	}

	parsed, err := ParseListingFilter(original.Query())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestListingFilterIsZero(t *testing.T) {
	assert.True(t, ListingFilter{}.IsZero())
	assert.False(t, ListingFilter{Location: "Lodz"}.IsZero())
	assert.False(t, ListingFilter{Vegan: true}.IsZero())
}

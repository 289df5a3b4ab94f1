package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	tour := Tour{Name: "The Forest Hiker"}

	tour.ApplyDefaults(now)

	assert.Equal(t, "the-forest-hiker", tour.Slug)
	assert.Equal(t, DefaultRatingsAverage, tour.RatingsAverage)
	assert.Equal(t, now, tour.CreatedAt)
}

func TestApplyDefaultsKeepsExistingValues(t *testing.T) {
	created := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	tour := Tour{Name: "The Sea Explorer", RatingsAverage: 4.8, CreatedAt: created}

	tour.ApplyDefaults(time.Now())

	assert.Equal(t, 4.8, tour.RatingsAverage)
	assert.Equal(t, created, tour.CreatedAt)
}

func TestDurationWeeks(t *testing.T) {
	tour := Tour{Duration: 7}
	assert.Equal(t, 1.0, tour.DurationWeeks())

	tour.Duration = 10
	assert.InDelta(t, 10.0/7, tour.DurationWeeks(), 1e-9)
}

func TestPriceDiscountMustBeBelowPrice(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	tour := Tour{
		Name:         "The Park Camper Tour",
		Duration:     10,
		MaxGroupSize: 8,
		Difficulty:   DifficultyMedium,
		Price:        497,
		Summary:      "Camping in the national parks of the west",
		ImageCover:   "tour-camper-cover.jpg",
	}

	assert.NoError(t, validate.Struct(&tour), "no discount")

	tour.PriceDiscount = 100
	assert.NoError(t, validate.Struct(&tour), "discount below price")

	tour.PriceDiscount = 497
	assert.Error(t, validate.Struct(&tour), "discount equal to price")

	tour.PriceDiscount = 600
	assert.Error(t, validate.Struct(&tour), "discount above price")
}

func TestMarshalJSONIncludesDurationWeeks(t *testing.T) {
	tour := Tour{Name: "The Forest Hiker", Duration: 14}

	raw, err := json.Marshal(tour)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, 2.0, got["durationWeeks"])
	assert.Equal(t, "The Forest Hiker", got["name"])
}

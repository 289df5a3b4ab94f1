package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoRadius(t *testing.T) {
	miles, err := GeoRadius(400, "mi")
	require.NoError(t, err)
	assert.InDelta(t, 400/3963.2, miles, 1e-9)

	km, err := GeoRadius(400, "km")
	require.NoError(t, err)
	assert.InDelta(t, 400/6378.1, km, 1e-9)
}

func TestGeoRadiusRejectsUnknownUnit(t *testing.T) {
	_, err := GeoRadius(400, "furlongs")
	assert.Error(t, err)
}

package store

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func features(rawQuery string) *Features {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		panic(err)
	}
	return NewFeatures(values)
}

func TestFilterStripsReservedParams(t *testing.T) {
	f := features("page=2&limit=10&sort=-price&fields=name&difficulty=easy").ApplyFilter()

	assert.Equal(t, bson.M{"difficulty": "easy"}, f.Filter)
	for _, key := range []string{"page", "limit", "sort", "fields"} {
		assert.NotContains(t, f.Filter, key)
	}
}

func TestFilterRewritesComparisonKeywords(t *testing.T) {
	f := features("duration[gte]=5&price[lt]=1000&maxGroupSize[gt]=2&ratingsAverage[lte]=4.7").ApplyFilter()

	assert.Equal(t, bson.M{"$gte": 5.0}, f.Filter["duration"])
	assert.Equal(t, bson.M{"$lt": 1000.0}, f.Filter["price"])
	assert.Equal(t, bson.M{"$gt": 2.0}, f.Filter["maxGroupSize"])
	assert.Equal(t, bson.M{"$lte": 4.7}, f.Filter["ratingsAverage"])
}

func TestFilterCombinesOperatorsOnOneField(t *testing.T) {
	f := features("price[gte]=100&price[lte]=500").ApplyFilter()

	assert.Equal(t, bson.M{"price": bson.M{"$gte": 100.0, "$lte": 500.0}}, f.Filter)
}

func TestFilterDropsUnknownBracketOperators(t *testing.T) {
	f := features("price[ne]=100&price[where]=x").ApplyFilter()

	assert.Empty(t, f.Filter)
}

func TestFilterCoercesValueTypes(t *testing.T) {
	f := features("duration=5&secretTour=true&difficulty=easy").ApplyFilter()

	assert.Equal(t, 5.0, f.Filter["duration"])
	assert.Equal(t, true, f.Filter["secretTour"])
	assert.Equal(t, "easy", f.Filter["difficulty"])
}

func TestSortParsesDirectionPerField(t *testing.T) {
	f := features("sort=-price,name").ApplySort()

	require.NotNil(t, f.Opts.Sort)
	assert.Equal(t, bson.D{{Key: "price", Value: -1}, {Key: "name", Value: 1}}, f.Opts.Sort)
}

func TestSortAbsentImposesNoOrdering(t *testing.T) {
	f := features("difficulty=easy").ApplySort()

	assert.Nil(t, f.Opts.Sort)
}

func TestSelectFieldsDefaultsToVersionExclusion(t *testing.T) {
	f := features("").SelectFields()

	assert.Equal(t, bson.M{"__v": 0}, f.Opts.Projection)
}

func TestSelectFieldsBuildsProjection(t *testing.T) {
	f := features("fields=name,price,-description").SelectFields()

	assert.Equal(t, bson.M{"name": 1, "price": 1, "description": 0}, f.Opts.Projection)
}

func TestPaginateSkipsAndLimits(t *testing.T) {
	f := features("page=2&limit=10").Paginate()

	require.NotNil(t, f.Opts.Skip)
	require.NotNil(t, f.Opts.Limit)
	assert.Equal(t, int64(10), *f.Opts.Skip)
	assert.Equal(t, int64(10), *f.Opts.Limit)
}

func TestPaginateDefaults(t *testing.T) {
	f := features("").Paginate()

	require.NotNil(t, f.Opts.Skip)
	require.NotNil(t, f.Opts.Limit)
	assert.Equal(t, int64(0), *f.Opts.Skip)
	assert.Equal(t, int64(100), *f.Opts.Limit)
}

func TestPaginateIgnoresGarbage(t *testing.T) {
	f := features("page=zero&limit=-3").Paginate()

	assert.Equal(t, int64(0), *f.Opts.Skip)
	assert.Equal(t, int64(100), *f.Opts.Limit)
}

func TestChainingComposesAllSteps(t *testing.T) {
	f := features("duration[gte]=5&sort=price&fields=name&page=3&limit=20").
		ApplyFilter().
		ApplySort().
		SelectFields().
		Paginate()

	assert.Equal(t, bson.M{"duration": bson.M{"$gte": 5.0}}, f.Filter)
	assert.Equal(t, bson.D{{Key: "price", Value: 1}}, f.Opts.Sort)
	assert.Equal(t, bson.M{"name": 1}, f.Opts.Projection)
	assert.Equal(t, int64(40), *f.Opts.Skip)
	assert.Equal(t, int64(20), *f.Opts.Limit)
}

func TestSplitBracketKey(t *testing.T) {
	field, op, ok := splitBracketKey("price[lte]")
	assert.True(t, ok)
	assert.Equal(t, "price", field)
	assert.Equal(t, "lte", op)

	for _, key := range []string{"price", "[lte]", "price[]", "price[lte", "pricelte]"} {
		_, _, ok := splitBracketKey(key)
		assert.False(t, ok, key)
	}
}

package store

import (
	"context"
	"fmt"
	"time"

	"tours-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Earth radii used to convert a distance into a $centerSphere radius.
const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1
)

// GeoRadius converts distance in the given unit ("mi" or "km") into radians.
func GeoRadius(distance float64, unit string) (float64, error) {
	switch unit {
	case "mi":
		return distance / earthRadiusMiles, nil
	case "km":
		return distance / earthRadiusKm, nil
	default:
		return 0, fmt.Errorf("unknown unit %q, use mi or km", unit)
	}
}

// Tours is the tour collection; the default scope hides secret tours from
// every standard read and aggregation.
type Tours struct {
	*Collection[models.Tour]
	coll *mongo.Collection
}

func NewTours(coll *mongo.Collection) *Tours {
	return &Tours{
		Collection: NewCollection[models.Tour](coll, bson.M{"secretTour": bson.M{"$ne": true}}),
		coll:       coll,
	}
}

// TourStats is one aggregated group per difficulty.
type TourStats struct {
	Difficulty string  `bson:"_id" json:"difficulty"`
	NumTours   int     `bson:"numTours" json:"numTours"`
	NumRatings int     `bson:"numRatings" json:"numRatings"`
	AvgRating  float64 `bson:"avgRating" json:"avgRating"`
	AvgPrice   float64 `bson:"avgPrice" json:"avgPrice"`
	MinPrice   float64 `bson:"minPrice" json:"minPrice"`
	MaxPrice   float64 `bson:"maxPrice" json:"maxPrice"`
}

// Stats groups well-rated tours by difficulty.
func (t *Tours) Stats(ctx context.Context) ([]TourStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: t.ApplyScope(bson.M{"ratingsAverage": bson.M{"$gte": 4.5}})}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$toUpper": "$difficulty"},
			"numTours":   bson.M{"$sum": 1},
			"numRatings": bson.M{"$sum": "$ratingsQuantity"},
			"avgRating":  bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":   bson.M{"$avg": "$price"},
			"minPrice":   bson.M{"$min": "$price"},
			"maxPrice":   bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.M{"avgPrice": 1}}},
	}
	cur, err := t.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	stats := []TourStats{}
	if err := cur.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// MonthlyPlanEntry counts tour starts for one month of a year.
type MonthlyPlanEntry struct {
	Month         int      `bson:"month" json:"month"`
	NumTourStarts int      `bson:"numTourStarts" json:"numTourStarts"`
	Tours         []string `bson:"tours" json:"tours"`
}

// MonthlyPlan unwinds start dates for the given year and counts departures
// per month, busiest month first.
func (t *Tours) MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlanEntry, error) {
	from := primitive.NewDateTimeFromTime(yearStart(year))
	to := primitive.NewDateTimeFromTime(yearStart(year + 1))
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: t.ApplyScope(bson.M{})}},
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.M{"startDates": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           bson.M{"$month": "$startDates"},
			"numTourStarts": bson.M{"$sum": 1},
			"tours":         bson.M{"$push": "$name"},
		}}},
		{{Key: "$addFields", Value: bson.M{"month": "$_id"}}},
		{{Key: "$project", Value: bson.M{"_id": 0}}},
		{{Key: "$sort", Value: bson.M{"numTourStarts": -1}}},
		{{Key: "$limit", Value: 12}},
	}
	cur, err := t.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	plan := []MonthlyPlanEntry{}
	if err := cur.All(ctx, &plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Within returns tours whose start location falls inside the sphere centered
// at (lat, lng) with the given radius in radians.
func (t *Tours) Within(ctx context.Context, lat, lng, radius float64) ([]models.Tour, error) {
	filter := t.ApplyScope(bson.M{
		"startLocation": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{bson.A{lng, lat}, radius},
			},
		},
	})
	cur, err := t.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	tours := []models.Tour{}
	if err := cur.All(ctx, &tours); err != nil {
		return nil, err
	}
	return tours, nil
}

// BySlug fetches one tour for the rendered detail view.
func (t *Tours) BySlug(ctx context.Context, slug string) (*models.Tour, error) {
	var tour models.Tour
	err := t.coll.FindOne(ctx, t.ApplyScope(bson.M{"slug": slug})).Decode(&tour)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tour, nil
}

// SetImages persists uploaded image keys on the tour.
func (t *Tours) SetImages(ctx context.Context, id primitive.ObjectID, cover string, images []string) (*models.Tour, error) {
	updates := bson.M{}
	if cover != "" {
		updates["imageCover"] = cover
	}
	if len(images) > 0 {
		updates["images"] = images
	}
	if len(updates) == 0 {
		return t.FindByID(ctx, id)
	}
	return t.UpdateByID(ctx, id, updates)
}

func yearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

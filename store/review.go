package store

import (
	"context"

	"tours-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Reviews is the review collection. It keeps a handle on the tours
// collection so rating recomputation can persist the aggregate.
type Reviews struct {
	*Collection[models.Review]
	coll  *mongo.Collection
	tours *mongo.Collection
}

func NewReviews(coll, tours *mongo.Collection) *Reviews {
	return &Reviews{
		Collection: NewCollection[models.Review](coll, nil),
		coll:       coll,
		tours:      tours,
	}
}

type ratingStats struct {
	NumRatings int     `bson:"nRating"`
	AvgRating  float64 `bson:"avgRating"`
}

// CalcAverageRatings recomputes the owning tour's ratingsAverage and
// ratingsQuantity from its remaining reviews. With no reviews left the tour
// falls back to the default average and a zero count. Called explicitly
// after every review write.
func (r *Reviews) CalcAverageRatings(ctx context.Context, tourID primitive.ObjectID) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$tour",
			"nRating":   bson.M{"$sum": 1},
			"avgRating": bson.M{"$avg": "$rating"},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	var stats []ratingStats
	if err := cur.All(ctx, &stats); err != nil {
		return err
	}

	quantity := 0
	average := models.DefaultRatingsAverage
	if len(stats) > 0 {
		quantity = stats[0].NumRatings
		average = stats[0].AvgRating
	}
	_, err = r.tours.UpdateOne(ctx, bson.M{"_id": tourID}, bson.M{"$set": bson.M{
		"ratingsQuantity": quantity,
		"ratingsAverage":  average,
	}})
	return err
}

// ForTourWithAuthors lists a tour's reviews with the reviewer's name and
// photo joined on, for the rendered detail view.
func (r *Reviews) ForTourWithAuthors(ctx context.Context, tourID primitive.ObjectID) ([]models.Review, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user",
			"foreignField": "_id",
			"as":           "author",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$author", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"review":    1,
			"rating":    1,
			"createdAt": 1,
			"tour":      1,
			"user":      1,
			"author": bson.M{
				"_id":   "$author._id",
				"name":  "$author.name",
				"photo": "$author.photo",
			},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	reviews := []models.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

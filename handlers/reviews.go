package handlers

import (
	"context"
	"net/http"
	"time"

	"tours-api/middleware"
	"tours-api/models"
	"tours-api/store"
	"tours-api/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewsHandler struct {
	DB       *store.DB
	Validate *validator.Validate
}

// tourScope pre-filters nested listings: GET /tours/{tourId}/reviews.
func tourScope(r *http.Request) (bson.M, error) {
	raw := chi.URLParam(r, "tourId")
	if raw == "" {
		return nil, nil
	}
	tourID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, utils.BadRequest("Invalid tour ID")
	}
	return bson.M{"tour": tourID}, nil
}

func (h *ReviewsHandler) List() apiHandler {
	return GetAll[models.Review](h.DB.Reviews, tourScope)
}

func (h *ReviewsHandler) Get() apiHandler {
	return GetOne[models.Review](h.DB.Reviews, nil)
}

// Create injects the tour from the nested route and the user from the
// principal, then recomputes the tour's rating aggregate.
func (h *ReviewsHandler) Create() apiHandler {
	return CreateOne(h.DB.Reviews, h.Validate, func(r *http.Request, review *models.Review) error {
		if review.Tour.IsZero() {
			if raw := chi.URLParam(r, "tourId"); raw != "" {
				tourID, err := primitive.ObjectIDFromHex(raw)
				if err != nil {
					return utils.BadRequest("Invalid tour ID")
				}
				review.Tour = tourID
			}
		}
		if user, ok := middleware.UserFromContext(r.Context()); ok {
			review.User = user.ID
		}
		if review.CreatedAt.IsZero() {
			review.CreatedAt = time.Now()
		}
		review.Author = nil
		return nil
	}, h.recalcRatings)
}

// Update patches review text or rating. The tour and user references stay
// immutable so the one-review-per-pair rule cannot be sidestepped.
func (h *ReviewsHandler) Update() apiHandler {
	return UpdateOne[models.Review](h.DB.Reviews, h.Validate, func(updates bson.M) bson.M {
		delete(updates, "tour")
		delete(updates, "user")
		delete(updates, "author")
		delete(updates, "createdAt")
		return updates
	}, h.recalcRatings)
}

func (h *ReviewsHandler) Delete() apiHandler {
	return DeleteOne[models.Review](h.DB.Reviews, h.recalcRatings)
}

func (h *ReviewsHandler) recalcRatings(ctx context.Context, review *models.Review) error {
	return h.DB.Reviews.CalcAverageRatings(ctx, review.Tour)
}

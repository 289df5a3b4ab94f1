package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tours-api/models"
	"tours-api/store"
	"tours-api/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson"
)

type ToursHandler struct {
	DB       *store.DB
	Validate *validator.Validate
}

// List is the standard feature-built listing.
func (h *ToursHandler) List() apiHandler {
	return GetAll[models.Tour](h.DB.Tours, nil)
}

// Get fetches one tour with its reviews joined on.
func (h *ToursHandler) Get() apiHandler {
	return GetOne(h.DB.Tours, h.attachReviews)
}

func (h *ToursHandler) attachReviews(ctx context.Context, tour *models.Tour) error {
	reviews, err := h.DB.Reviews.ForTourWithAuthors(ctx, tour.ID)
	if err != nil {
		return err
	}
	tour.Reviews = reviews
	return nil
}

// Create inserts a tour with defaults (slug, createdAt, default rating).
func (h *ToursHandler) Create() apiHandler {
	return CreateOne(h.DB.Tours, h.Validate, func(r *http.Request, tour *models.Tour) error {
		tour.ApplyDefaults(time.Now())
		return nil
	}, nil)
}

// Update patches a tour; a renamed tour gets its slug regenerated.
func (h *ToursHandler) Update() apiHandler {
	return UpdateOne[models.Tour](h.DB.Tours, h.Validate, func(updates bson.M) bson.M {
		delete(updates, "ratingsAverage")
		delete(updates, "ratingsQuantity")
		delete(updates, "createdAt")
		delete(updates, "reviews")
		if name, ok := updates["name"].(string); ok {
			updates["slug"] = slug.Make(name)
		} else {
			delete(updates, "slug")
		}
		return updates
	}, nil)
}

func (h *ToursHandler) Delete() apiHandler {
	return DeleteOne[models.Tour](h.DB.Tours, nil)
}

// AliasTopTours rewrites the query string so the listing returns the five
// best-rated cheap tours.
func AliasTopTours(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		q.Set("limit", "5")
		q.Set("sort", "-ratingsAverage,price")
		q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
		r.URL.RawQuery = q.Encode()
		next.ServeHTTP(w, r)
	})
}

// Stats returns the per-difficulty aggregation.
func (h *ToursHandler) Stats(w http.ResponseWriter, r *http.Request) error {
	stats, err := h.DB.Tours.Stats(r.Context())
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, Envelope{
		Status: "success",
		Data:   map[string]interface{}{"stats": stats},
	})
	return nil
}

// MonthlyPlan returns tour starts per month for one year.
func (h *ToursHandler) MonthlyPlan(w http.ResponseWriter, r *http.Request) error {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return utils.BadRequest("Invalid year")
	}
	plan, err := h.DB.Tours.MonthlyPlan(r.Context(), year)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, Envelope{
		Status:  "success",
		Results: results(len(plan)),
		Data:    map[string]interface{}{"plan": plan},
	})
	return nil
}

// Within lists tours starting inside a radius around a point:
// /tours-within/{distance}/center/{latlng}/unit/{unit}.
func (h *ToursHandler) Within(w http.ResponseWriter, r *http.Request) error {
	distance, err := strconv.ParseFloat(chi.URLParam(r, "distance"), 64)
	if err != nil || distance <= 0 {
		return utils.BadRequest("Invalid distance")
	}
	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		return err
	}
	radius, err := store.GeoRadius(distance, chi.URLParam(r, "unit"))
	if err != nil {
		return utils.BadRequest(err.Error())
	}
	tours, err := h.DB.Tours.Within(r.Context(), lat, lng, radius)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, Envelope{
		Status:  "success",
		Results: results(len(tours)),
		Data:    map[string]interface{}{"documents": tours},
	})
	return nil
}

func parseLatLng(raw string) (lat, lng float64, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, utils.BadRequest("Please provide latitude and longitude in the format lat,lng.")
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, utils.BadRequest("Please provide latitude and longitude in the format lat,lng.")
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, utils.BadRequest("Please provide latitude and longitude in the format lat,lng.")
	}
	return lat, lng, nil
}
